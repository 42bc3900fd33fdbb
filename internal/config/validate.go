package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/rileyhilliard/meshmap/internal/errors"
)

// SupportedOutputExtensions lists the file extensions the renderer can write.
var SupportedOutputExtensions = map[string]bool{
	".png":  true,
	".svg":  true,
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".eps":  true,
	".dot":  true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but meshmap only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade meshmap or lower the version field.")
	}

	if len(cfg.Nodes) == 0 {
		return errors.New(errors.ErrConfig,
			"No mesh nodes configured",
			"Add at least one entry under 'nodes' in "+ConfigFileName+".")
	}

	seen := make(map[string]int, len(cfg.Nodes))
	for i, node := range cfg.Nodes {
		if err := validateNode(i, node); err != nil {
			return err
		}
		name := node.DisplayName()
		if prev, ok := seen[name]; ok {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Node name '%s' is used twice (entries %d and %d)", name, prev+1, i+1),
				"Give every node a unique 'name'.")
		}
		seen[name] = i
	}

	if cfg.Timeout < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("timeout can't be negative (got %s)", cfg.Timeout),
			"Use a duration like 10s.")
	}

	if err := validateProbe(cfg.Probe); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'probe' section in "+ConfigFileName+".")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in "+ConfigFileName+".")
	}

	return nil
}

func validateNode(index int, n Node) error {
	label := n.DisplayName()
	if label == "" {
		label = fmt.Sprintf("#%d", index+1)
	}

	if strings.TrimSpace(n.Address) == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Node %s has no address", label),
			"Set 'address' to the router's IP or hostname.")
	}
	if strings.ContainsAny(n.Address, " \t\n") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Node %s address '%s' contains whitespace", label, n.Address),
			"Use a bare hostname or IP address.")
	}
	if strings.ContainsAny(n.Name, "\n\t") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Node name %q contains control characters", n.Name),
			"Use a short single-line name like 'ap-living'.")
	}
	// Clients are keyed by MAC in the diagram
	if _, err := net.ParseMAC(n.Name); err == nil {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Node name '%s' looks like a MAC address", n.Name),
			"Use a descriptive name like 'ap-living'; MACs identify Wi-Fi clients.")
	}
	if n.Port < 0 || n.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Node %s port %d is out of range", label, n.Port),
			"Use a port between 1 and 65535, or leave it out for 22.")
	}
	return nil
}

func validateProbe(p ProbeConfig) error {
	if p.Ping && (p.PingCount < 1 || p.PingCount > 100) {
		return fmt.Errorf("probe.ping_count must be between 1 and 100 (got %d)", p.PingCount)
	}
	if p.Iperf3 && (p.Iperf3Duration < time.Second || p.Iperf3Duration > time.Minute) {
		return fmt.Errorf("probe.iperf3_duration must be between 1s and 1m (got %s)", p.Iperf3Duration)
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	if o.File == "" {
		return fmt.Errorf("output.file is empty")
	}
	ext := strings.ToLower(filepath.Ext(o.File))
	if !SupportedOutputExtensions[ext] {
		return fmt.Errorf("output.file '%s' has an unsupported extension %q (want one of png, svg, pdf, jpg, tif, eps, dot)", o.File, ext)
	}
	return nil
}
