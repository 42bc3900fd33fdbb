package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
	"golang.org/x/term"
)

// promptFunc reads one secret for prompt.
type promptFunc func(prompt string) (string, error)

// askPasswords prompts for every node without a password. An empty answer
// keeps key or agent auth for that node.
func askPasswords(cfg *config.Config, prompt promptFunc) error {
	for i := range cfg.Nodes {
		n := &cfg.Nodes[i]
		if n.Password != "" {
			continue
		}

		user := n.User
		if user == "" {
			user = sshutil.DefaultUser
		}
		pw, err := prompt(fmt.Sprintf("Password for %s@%s (empty for key auth): ", user, n.DisplayName()))
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't read the password for "+n.DisplayName(),
				"Set 'password' in "+config.ConfigFileName+" instead of using --ask-pass.")
		}
		n.Password = pw
	}
	return nil
}

// terminalPrompt reads passwords from the controlling terminal without echo.
func terminalPrompt(w io.Writer) promptFunc {
	return func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("--ask-pass needs an interactive terminal")
		}

		fmt.Fprint(w, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
