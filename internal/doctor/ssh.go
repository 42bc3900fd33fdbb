package doctor

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHAgentCheck verifies the SSH agent is reachable and holds keys.
// Nodes with a password don't need it, so a missing agent only fails when
// some node relies on key auth.
type SSHAgentCheck struct {
	Nodes []config.Node

	// Socket overrides SSH_AUTH_SOCK.
	Socket string
}

func (c *SSHAgentCheck) Name() string     { return "ssh_agent" }
func (c *SSHAgentCheck) Category() string { return "SSH" }

func (c *SSHAgentCheck) Run(ctx context.Context) CheckResult {
	keyNodes := 0
	for _, n := range c.Nodes {
		if n.Password == "" && n.IdentityFile == "" {
			keyNodes++
		}
	}
	missing := StatusFail
	if keyNodes == 0 {
		missing = StatusWarn
	}

	socket := c.Socket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket == "" {
		if keyNodes == 0 {
			return CheckResult{Status: StatusPass, Message: "SSH agent not running (not needed: every node has a password or key file)"}
		}
		return CheckResult{
			Status:     missing,
			Message:    "SSH agent not running",
			Suggestion: "Fix: eval $(ssh-agent) && ssh-add, or set 'password' for each node",
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return CheckResult{
			Status:     missing,
			Message:    "SSH agent socket not accessible",
			Suggestion: "Fix: eval $(ssh-agent) && ssh-add",
		}
	}
	defer conn.Close()

	keys, err := agent.NewClient(conn).List()
	if err != nil {
		return CheckResult{
			Status:     missing,
			Message:    fmt.Sprintf("Cannot query SSH agent: %v", err),
			Suggestion: "Check SSH agent: ssh-add -l",
		}
	}
	if len(keys) == 0 {
		return CheckResult{
			Status:     missing,
			Message:    "SSH agent running but no keys loaded",
			Suggestion: "Add a key with: ssh-add",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("SSH agent running with %d key%s", len(keys), pluralize(len(keys))),
	}
}

// KnownHostsCheck reports which nodes have no known_hosts entry yet.
// Connections to those are refused unless host key checking is off.
type KnownHostsCheck struct {
	Nodes    []config.Node
	Insecure bool

	// Path overrides ~/.ssh/known_hosts.
	Path string
}

func (c *KnownHostsCheck) Name() string     { return "known_hosts" }
func (c *KnownHostsCheck) Category() string { return "SSH" }

func (c *KnownHostsCheck) Run(ctx context.Context) CheckResult {
	if c.Insecure {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "Host key checking is disabled",
			Suggestion: "Fine on a bench; set insecure_host_key: false once the routers are settled",
		}
	}

	path := c.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return CheckResult{Status: StatusFail, Message: "Cannot determine home directory", Suggestion: "Check HOME environment variable"}
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	known, err := knownHostPatterns(path)
	if err != nil && !os.IsNotExist(err) {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("Cannot read %s: %v", path, err)}
	}

	var unknown []string
	for _, n := range c.Nodes {
		if !known[hostPort(n)] {
			unknown = append(unknown, n.DisplayName())
		}
	}

	if len(unknown) > 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No known_hosts entry for: " + strings.Join(unknown, ", "),
			Suggestion: "SSH into each once (ssh root@<address>), or run with --insecure",
		}
	}
	return CheckResult{Status: StatusPass, Message: "Every node is in " + path}
}

// knownHostPatterns returns the host patterns in a known_hosts file.
// Hashed entries can't be matched without the key, so nodes only listed
// in hashed form are reported as unknown.
func knownHostPatterns(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]bool{}, err
	}

	out := make(map[string]bool)
	for len(data) > 0 {
		marker, hosts, _, _, rest, err := ssh.ParseKnownHosts(data)
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		if marker != "@revoked" {
			for _, h := range hosts {
				out[h] = true
			}
		}
		data = rest
	}
	return out, nil
}

// hostPort renders a node the way known_hosts stores it.
func hostPort(n config.Node) string {
	port := n.Port
	if port == 0 {
		port = sshutil.DefaultPort
	}
	return knownhosts.Normalize(net.JoinHostPort(n.Address, strconv.Itoa(port)))
}
