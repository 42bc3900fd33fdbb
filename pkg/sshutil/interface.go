package sshutil

import "context"

// SSHClient defines the interface for SSH command execution.
// Both the real Client and mock implementations satisfy this interface.
type SSHClient interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecContext is Exec bounded by ctx.
	ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error)

	// Close closes the SSH connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string

	// GetAddress returns the resolved host:port address.
	GetAddress() string
}

// Dialer opens SSH connections. The collector depends on this rather
// than on Dial so tests can hand out mock clients.
type Dialer interface {
	Dial(target Target) (SSHClient, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(target Target) (SSHClient, error)

// Dial calls f(target).
func (f DialerFunc) Dial(target Target) (SSHClient, error) {
	return f(target)
}

// NewDialer returns a Dialer that opens real connections with opts.
func NewDialer(opts DialOptions) Dialer {
	return DialerFunc(func(target Target) (SSHClient, error) {
		c, err := Dial(target, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
