package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/util"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
)

// Tool is a command the collector runs on the routers.
type Tool struct {
	Name string
	// Required tools fail the check when missing; others only warn.
	Required bool
	// Install is the suggestion shown when it's missing.
	Install string
}

// ToolsFor returns the tools a run with cfg will call.
func ToolsFor(cfg *config.Config) []Tool {
	tools := []Tool{
		{Name: "iw", Required: true, Install: "opkg update && opkg install iw"},
		{Name: "ip", Required: true, Install: "opkg update && opkg install ip-full"},
	}
	if cfg.Probe.Ping {
		tools = append(tools, Tool{Name: "ping", Install: "ping ships with BusyBox; check your firmware build"})
	}
	if cfg.Probe.Iperf3 {
		tools = append(tools, Tool{Name: "iperf3", Install: "opkg update && opkg install iperf3"})
	}
	if cfg.ResolveHostnames {
		tools = append(tools, Tool{Name: "getent", Install: "opkg update && opkg install getent, or set resolve_hostnames: false"})
	}
	return tools
}

// NodeCheck logs into one node and looks for the tools the collector needs.
type NodeCheck struct {
	Node    config.Node
	Tools   []Tool
	Dialer  sshutil.Dialer
	Timeout time.Duration
}

func (c *NodeCheck) Name() string     { return "node_" + c.Node.DisplayName() }
func (c *NodeCheck) Category() string { return "NODES" }

func (c *NodeCheck) Run(ctx context.Context) CheckResult {
	name := c.Node.DisplayName()
	start := time.Now()

	client, err := c.Dialer.Dial(sshutil.Target{
		Host:         c.Node.Address,
		User:         c.Node.User,
		Port:         c.Node.Port,
		Password:     c.Node.Password,
		IdentityFile: c.Node.IdentityFile,
	})
	if err != nil {
		result := CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: %s", name, errors.Summary(err)),
			Suggestion: fmt.Sprintf("Try: ssh %s@%s", userOrDefault(c.Node.User), c.Node.Address),
		}
		if hint := errors.SuggestionOf(err); hint != "" {
			result.Suggestion = hint
		}
		return result
	}
	defer client.Close()

	var missingRequired, missingOptional []Tool
	for _, tool := range c.Tools {
		if !c.hasTool(ctx, client, tool.Name) {
			if tool.Required {
				missingRequired = append(missingRequired, tool)
			} else {
				missingOptional = append(missingOptional, tool)
			}
		}
	}

	switch {
	case len(missingRequired) > 0:
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s: missing %s", name, toolNames(missingRequired)),
			Suggestion: missingRequired[0].Install,
		}
	case len(missingOptional) > 0:
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s: missing %s", name, toolNames(missingOptional)),
			Suggestion: missingOptional[0].Install,
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: reachable, %s available (%.1fs)", name, toolNames(c.Tools), time.Since(start).Seconds()),
	}
}

func (c *NodeCheck) hasTool(ctx context.Context, client sshutil.SSHClient, tool string) bool {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = config.DefaultConfig().Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, code, err := client.ExecContext(ctx, "command -v "+tool)
	return err == nil && code == 0
}

func toolNames(tools []Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return util.JoinOrDefault(names, "no tools")
}

func userOrDefault(user string) string {
	if user == "" {
		return sshutil.DefaultUser
	}
	return user
}
