package testing

import (
	"sync"

	"github.com/rileyhilliard/meshmap/pkg/sshutil"
)

// WithFiles pre-populates the files served by `cat`.
func WithFiles(client *MockClient, files map[string]string) {
	for path, content := range files {
		client.SetFile(path, content)
	}
}

// WithOutputs registers successful responses for exact commands.
func WithOutputs(client *MockClient, outputs map[string]string) {
	for cmd, stdout := range outputs {
		client.SetOutput(cmd, stdout)
	}
}

// MockDialer hands out registered mock clients by target host. Dialing a
// host again reopens its client.
// Hosts with a registered error, or with nothing registered, fail to dial.
type MockDialer struct {
	mu      sync.Mutex
	clients map[string]*MockClient
	errs    map[string]error
	dialed  []sshutil.Target
}

// NewMockDialer creates an empty MockDialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		clients: make(map[string]*MockClient),
		errs:    make(map[string]error),
	}
}

// Add registers a client for its host and returns it for chaining.
func (d *MockDialer) Add(client *MockClient) *MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[client.GetHost()] = client
	return client
}

// Fail makes dialing host return err.
func (d *MockDialer) Fail(host string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[host] = err
}

// Dial implements sshutil.Dialer.
func (d *MockDialer) Dial(target sshutil.Target) (sshutil.SSHClient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialed = append(d.dialed, target)

	if err, ok := d.errs[target.Host]; ok {
		return nil, err
	}
	if c, ok := d.clients[target.Host]; ok {
		// Each dial is a fresh connection
		c.mu.Lock()
		c.closed = false
		c.mu.Unlock()
		return c, nil
	}
	return nil, &UnreachableError{Host: target.Host}
}

// Dialed returns the targets passed to Dial, in order.
func (d *MockDialer) Dialed() []sshutil.Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]sshutil.Target, len(d.dialed))
	copy(out, d.dialed)
	return out
}

// UnreachableError is returned for hosts the dialer knows nothing about.
type UnreachableError struct {
	Host string
}

func (e *UnreachableError) Error() string {
	return "dial tcp " + e.Host + ":22: connect: no route to host"
}

var _ sshutil.Dialer = (*MockDialer)(nil)
var _ sshutil.SSHClient = (*MockClient)(nil)
