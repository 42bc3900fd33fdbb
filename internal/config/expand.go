package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}

// Expand replaces ${VAR} and $VAR references with environment values,
// so passwords can live outside the config file:
//
//	password: ${MESH_AP1_PASSWORD}
func Expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.ExpandEnv(s)
}

// ExpandNode expands environment references in credentials and
// resolves a leading ~ in the identity file.
func ExpandNode(n Node) Node {
	n.Address = strings.TrimSpace(n.Address)
	n.User = Expand(n.User)
	n.Password = Expand(n.Password)
	n.IdentityFile = ExpandTilde(Expand(n.IdentityFile))
	return n
}
