package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	sshtesting "github.com/rileyhilliard/meshmap/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
)

func TestToolsFor(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "iw, ip, ping, getent", toolNames(ToolsFor(cfg)))

	cfg.Probe.Ping = false
	cfg.Probe.Iperf3 = true
	cfg.ResolveHostnames = false
	assert.Equal(t, "iw, ip, iperf3", toolNames(ToolsFor(cfg)))
}

func TestNodeCheck(t *testing.T) {
	tools := []Tool{
		{Name: "iw", Required: true, Install: "opkg install iw"},
		{Name: "iperf3", Install: "opkg install iperf3"},
	}
	node := config.Node{Name: "ap-1", Address: "10.0.0.1", User: "root"}

	tests := []struct {
		name       string
		outputs    map[string]string
		wantStatus CheckStatus
		wantMsg    string
		wantHint   string
	}{
		{
			name:       "everything installed",
			outputs:    map[string]string{"command -v iw": "/usr/sbin/iw\n", "command -v iperf3": "/usr/bin/iperf3\n"},
			wantStatus: StatusPass,
			wantMsg:    "ap-1: reachable, iw, iperf3 available",
		},
		{
			name:       "optional tool missing",
			outputs:    map[string]string{"command -v iw": "/usr/sbin/iw\n"},
			wantStatus: StatusWarn,
			wantMsg:    "ap-1: missing iperf3",
			wantHint:   "opkg install iperf3",
		},
		{
			name:       "required tool missing",
			outputs:    map[string]string{},
			wantStatus: StatusFail,
			wantMsg:    "ap-1: missing iw",
			wantHint:   "opkg install iw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := sshtesting.NewMockDialer()
			client := dialer.Add(sshtesting.NewMockClient("10.0.0.1"))
			sshtesting.WithOutputs(client, tt.outputs)

			r := (&NodeCheck{Node: node, Tools: tools, Dialer: dialer, Timeout: time.Second}).Run(context.Background())

			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Contains(t, r.Message, tt.wantMsg)
			assert.Equal(t, tt.wantHint, r.Suggestion)
			assert.True(t, client.IsClosed())
		})
	}
}

func TestNodeCheck_Unreachable(t *testing.T) {
	node := config.Node{Name: "ap-9", Address: "10.0.0.9"}
	r := (&NodeCheck{Node: node, Dialer: sshtesting.NewMockDialer()}).Run(context.Background())

	assert.Equal(t, StatusFail, r.Status)
	assert.Contains(t, r.Message, "ap-9: dial tcp 10.0.0.9")
	assert.Equal(t, "Try: ssh root@10.0.0.9", r.Suggestion)
}

func TestNodeCheck_StructuredDialError(t *testing.T) {
	dialer := sshtesting.NewMockDialer()
	dialer.Fail("10.0.0.9", errors.New(errors.ErrSSH, "Authentication failed", "Check the password"))
	node := config.Node{Name: "ap-9", Address: "10.0.0.9"}

	r := (&NodeCheck{Node: node, Dialer: dialer}).Run(context.Background())

	assert.Equal(t, StatusFail, r.Status)
	assert.Equal(t, "ap-9: Authentication failed", r.Message)
	assert.Equal(t, "Check the password", r.Suggestion)
}
