package doctor

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
)

// ConfigFileCheck verifies that a config file can be found.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run(ctx context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    errors.Summary(err),
			Suggestion: "Check the --config path, or run 'meshmap init'",
		}
	}

	if path == "" {
		return CheckResult{
			Status:     StatusFail,
			Message:    "No config file found",
			Suggestion: "Run 'meshmap init' to create " + config.ConfigFileName,
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: "Config file: " + path,
	}
}

// ConfigValidCheck loads and validates the config. Config is set on
// success so later checks can use it.
type ConfigValidCheck struct {
	ConfigPath string
	Config     *config.Config
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return "CONFIG" }

func (c *ConfigValidCheck) Run(ctx context.Context) CheckResult {
	cfg, _, err := config.LoadFrom(c.ConfigPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    errors.Summary(err),
			Suggestion: errors.SuggestionOf(err),
		}
	}

	c.Config = cfg
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Config is valid: %d node%s", len(cfg.Nodes), pluralize(len(cfg.Nodes))),
	}
}
