package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// HostEntry is one concrete Host block from ~/.ssh/config. Only the keys
// that Dial consults are kept.
type HostEntry struct {
	Alias        string
	HostName     string
	User         string
	Port         int // 0 when unset or not a valid port
	IdentityFile string
}

// Description renders the entry as user@host:port, leaving out whatever
// ssh_config doesn't set. The default port is omitted.
func (h HostEntry) Description() string {
	host := h.HostName
	if host == "" {
		host = h.Alias
	}
	if h.User != "" {
		host = h.User + "@" + host
	}
	if h.Port != 0 && h.Port != DefaultPort {
		host += ":" + strconv.Itoa(h.Port)
	}
	return host
}

// LoadHosts reads ~/.ssh/config. A missing file yields no hosts.
func LoadHosts() ([]HostEntry, error) {
	return LoadHostsFile(filepath.Join(homeDir(), ".ssh", "config"))
}

// LoadHostsFile reads the given ssh_config file and returns its concrete
// aliases sorted by name. Wildcard patterns are left out since they can't
// be dialled.
func LoadHostsFile(path string) ([]HostEntry, error) {
	content, _, err := preprocessSSHConfig(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var entries []HostEntry
	seen := make(map[string]bool)
	for _, host := range cfg.Hosts {
		for _, pattern := range host.Patterns {
			alias := pattern.String()
			if strings.ContainsAny(alias, "*?") || seen[alias] {
				continue
			}
			seen[alias] = true
			entries = append(entries, hostEntry(cfg, alias))
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Alias < entries[j].Alias })
	return entries, nil
}

func hostEntry(cfg *ssh_config.Config, alias string) HostEntry {
	get := func(key string) string {
		v, _ := cfg.Get(alias, key)
		return strings.TrimSpace(v)
	}

	entry := HostEntry{
		Alias:    alias,
		HostName: get("HostName"),
		User:     get("User"),
	}
	if p, err := strconv.Atoi(get("Port")); err == nil && p > 0 && p <= 65535 {
		entry.Port = p
	}
	if id := get("IdentityFile"); id != "" {
		entry.IdentityFile = expandPath(id)
	}
	return entry
}
