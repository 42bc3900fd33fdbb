package testing

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
)

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error

	// Delay holds the command open before answering. ExecContext returns
	// early if its context is done first.
	Delay time.Duration
}

type patternResponse struct {
	re   *regexp.Regexp
	resp CommandResponse
}

// MockClient simulates an SSH connection to a router.
// Commands are answered from exact matches, then regex patterns in the order
// they were registered, then `cat` against the file map. Anything else exits
// 127 the way BusyBox ash does for a missing applet.
type MockClient struct {
	mu       sync.Mutex
	host     string
	address  string
	closed   bool
	exact    map[string]CommandResponse
	patterns []patternResponse
	files    map[string]string
	history  []string
}

// NewMockClient creates a new mock SSH client with no canned responses.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:    host,
		address: host + ":22",
		exact:   make(map[string]CommandResponse),
		files:   make(map[string]string),
	}
}

// Exec runs a command against the canned responses.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	return m.ExecContext(context.Background(), cmd)
}

// ExecContext is Exec with support for Delay and cancellation.
func (m *MockClient) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, -1, errors.New("connection closed")
	}
	m.history = append(m.history, cmd)
	resp := m.lookup(cmd)
	m.mu.Unlock()

	if resp.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, nil, -1, ctx.Err()
		case <-time.After(resp.Delay):
		}
	}

	return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
}

// lookup must be called with m.mu held.
func (m *MockClient) lookup(cmd string) CommandResponse {
	if resp, ok := m.exact[cmd]; ok {
		return resp
	}
	for _, p := range m.patterns {
		if p.re.MatchString(cmd) {
			return p.resp
		}
	}

	if strings.HasPrefix(cmd, "cat ") {
		path := extractPath(strings.TrimPrefix(cmd, "cat "))
		if content, ok := m.files[path]; ok {
			return CommandResponse{Stdout: []byte(content)}
		}
		return CommandResponse{
			Stderr:   []byte("cat: can't open '" + path + "': No such file or directory\n"),
			ExitCode: 1,
		}
	}

	name := cmd
	if fields := strings.Fields(cmd); len(fields) > 0 {
		name = fields[0]
	}
	return CommandResponse{
		Stderr:   []byte("/bin/ash: " + name + ": not found\n"),
		ExitCode: 127,
	}
}

// Close marks the connection as closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// GetAddress returns the host:port address.
func (m *MockClient) GetAddress() string {
	return m.address
}

// SetCommandResponse registers a response for an exact command string.
func (m *MockClient) SetCommandResponse(cmd string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exact[cmd] = resp
}

// SetCommandPattern registers a response for commands matching a regex.
// It panics on an invalid pattern, which is a bug in the test.
func (m *MockClient) SetCommandPattern(pattern string, resp CommandResponse) {
	re := regexp.MustCompile(pattern)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, patternResponse{re: re, resp: resp})
}

// SetOutput is shorthand for a successful command printing stdout.
func (m *MockClient) SetOutput(cmd, stdout string) {
	m.SetCommandResponse(cmd, CommandResponse{Stdout: []byte(stdout)})
}

// SetFile makes `cat path` print content.
func (m *MockClient) SetFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// Commands returns every command run so far, in order.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// Ran reports whether any executed command starts with prefix.
func (m *MockClient) Ran(prefix string) bool {
	for _, c := range m.Commands() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// extractPath extracts a path from a command argument.
// Handles both quoted and unquoted paths.
func extractPath(arg string) string {
	arg = strings.TrimSpace(arg)

	if strings.HasPrefix(arg, "'") {
		if end := strings.Index(arg[1:], "'"); end != -1 {
			return arg[1 : end+1]
		}
	}
	if strings.HasPrefix(arg, "\"") {
		if end := strings.Index(arg[1:], "\""); end != -1 {
			return arg[1 : end+1]
		}
	}

	if parts := strings.Fields(arg); len(parts) > 0 {
		return parts[0]
	}
	return ""
}
