package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"gopkg.in/yaml.v3"
)

// Marshal renders the config as YAML with a short header comment.
func Marshal(cfg *Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to encode config",
			"This is unexpected - please report it.")
	}

	header := "# meshmap inventory. Leave 'password' empty to use your SSH agent or key.\n" +
		"# Passwords may reference environment variables, e.g. ${MESH_AP1_PASSWORD}.\n"
	return append([]byte(header), body...), nil
}

// Save writes the config to path, creating parent directories.
// The file holds credentials so it's written owner-readable only.
func Save(cfg *Config, path string) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to create config directory "+dir,
				"Check directory permissions")
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check file permissions")
	}
	return nil
}
