package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "meshmap.yaml"
	// GlobalConfigDir is the directory for the per-user config.
	GlobalConfigDir = ".config/meshmap"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. MESHMAP_TIMEOUT=20s.
	EnvPrefix = "MESHMAP"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'meshmap init' to create one, or point at one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. meshmap.yaml in the current directory
// 3. ~/.config/meshmap/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadFrom finds and loads the config, failing when none exists.
// meshmap has nothing useful to do without an inventory.
func LoadFrom(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return nil, "", errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'meshmap init' to create "+ConfigFileName+", or pass --config")
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	for i, node := range cfg.Nodes {
		cfg.Nodes[i] = ExpandNode(node)
	}

	return cfg, nil
}

// setDefaults registers defaults so viper merges them and so that
// AutomaticEnv knows which keys can be overridden.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("version", def.Version)
	v.SetDefault("timeout", def.Timeout.String())
	v.SetDefault("insecure_host_key", def.InsecureHostKey)
	v.SetDefault("resolve_hostnames", def.ResolveHostnames)
	v.SetDefault("probe.ping", def.Probe.Ping)
	v.SetDefault("probe.ping_count", def.Probe.PingCount)
	v.SetDefault("probe.iperf3", def.Probe.Iperf3)
	v.SetDefault("probe.iperf3_duration", def.Probe.Iperf3Duration.String())
	v.SetDefault("output.file", def.Output.File)
	v.SetDefault("output.width", def.Output.Width)
	v.SetDefault("output.height", def.Output.Height)
	v.SetDefault("output.title", def.Output.Title)
}
