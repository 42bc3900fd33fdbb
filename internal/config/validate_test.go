package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Nodes = []Node{
		{Name: "ap-1", Address: "10.0.0.1", User: "root"},
		{Name: "ap-2", Address: "10.0.0.2", User: "root", Password: "pw"},
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: "from the future",
		},
		{
			name:    "no nodes",
			mutate:  func(c *Config) { c.Nodes = nil },
			wantErr: "No mesh nodes configured",
		},
		{
			name:    "missing address",
			mutate:  func(c *Config) { c.Nodes[0].Address = "" },
			wantErr: "has no address",
		},
		{
			name:    "address with whitespace",
			mutate:  func(c *Config) { c.Nodes[0].Address = "10.0.0.1 10.0.0.2" },
			wantErr: "contains whitespace",
		},
		{
			name:    "name shaped like a MAC",
			mutate:  func(c *Config) { c.Nodes[0].Name = "AA:BB:CC:00:00:01" },
			wantErr: "looks like a MAC address",
		},
		{
			name:    "duplicate names",
			mutate:  func(c *Config) { c.Nodes[1].Name = "ap-1" },
			wantErr: "used twice",
		},
		{
			name: "duplicate via address fallback",
			mutate: func(c *Config) {
				c.Nodes[0].Name = ""
				c.Nodes[1].Name = ""
				c.Nodes[1].Address = "10.0.0.1"
			},
			wantErr: "used twice",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Nodes[0].Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: "can't be negative",
		},
		{
			name:    "zero ping count",
			mutate:  func(c *Config) { c.Probe.PingCount = 0 },
			wantErr: "ping_count",
		},
		{
			name:    "ping count ignored when ping off",
			mutate:  func(c *Config) { c.Probe.Ping = false; c.Probe.PingCount = 0 },
			wantErr: "",
		},
		{
			name:    "iperf3 duration too long",
			mutate:  func(c *Config) { c.Probe.Iperf3 = true; c.Probe.Iperf3Duration = time.Hour },
			wantErr: "iperf3_duration",
		},
		{
			name:    "unsupported extension",
			mutate:  func(c *Config) { c.Output.File = "mesh.gif" },
			wantErr: "unsupported extension",
		},
		{
			name:    "dot output allowed",
			mutate:  func(c *Config) { c.Output.File = "mesh.DOT" },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
