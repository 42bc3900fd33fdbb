package cli

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/ui"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Init command flags
var (
	initForce          bool
	initGlobal         bool
	initNonInteractive bool
	initNodes          []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a meshmap.yaml inventory",
	Long: `Create a meshmap.yaml describing your mesh routers.

Interactively you can pick hosts from ~/.ssh/config or type them in, and
each node is checked over SSH before the file is written. With
--non-interactive the nodes come from --node flags, or a single example node
is written for you to edit.

Examples:
  meshmap init
  meshmap init --global
  meshmap init --non-interactive --node ap-living=192.168.1.1 --node ap-garage=root@192.168.1.3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			Global:         initGlobal,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			Nodes:          initNodes,
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/"+config.GlobalConfigDir+"/"+config.GlobalConfigFile+" instead of ./"+config.ConfigFileName)
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "don't prompt; take nodes from --node")
	initCmd.Flags().StringArrayVar(&initNodes, "node", nil, "node as [name=][user@]address[:port] (repeatable)")
	rootCmd.AddCommand(initCmd)
}

// InitOptions holds options for the init command.
type InitOptions struct {
	// Path is where the config is written. Empty means ./meshmap.yaml,
	// or the per-user location when Global is set.
	Path           string
	Global         bool
	Overwrite      bool     // Overwrite existing config without asking
	NonInteractive bool     // Skip prompts
	Nodes          []string // --node values

	// Dialer checks nodes before saving. Nil uses real SSH.
	Dialer sshutil.Dialer
	Out    io.Writer
}

// Init writes a new meshmap config file.
func Init(opts InitOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	path, err := initPath(opts)
	if err != nil {
		return err
	}
	interactive := !opts.NonInteractive && !skipPrompts()

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if !interactive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	for _, arg := range opts.Nodes {
		node, err := parseNodeFlag(arg)
		if err != nil {
			return err
		}
		cfg.Nodes = append(cfg.Nodes, node)
	}

	if interactive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	} else if len(cfg.Nodes) == 0 {
		cfg.Nodes = []config.Node{exampleNode()}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if interactive {
		checkNodes(out, cfg, opts.Dialer)
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s with %s\n\n", ui.SymbolSuccess, path, plural(len(cfg.Nodes), "node", "nodes"))
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  meshmap nodes   - Review the inventory")
	fmt.Fprintln(out, "  meshmap         - Collect and draw the mesh")
	return nil
}

func initPath(opts InitOptions) (string, error) {
	if opts.Path != "" {
		return opts.Path, nil
	}
	if !opts.Global {
		return filepath.Join(".", config.ConfigFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine your home directory",
			"Run init without --global to write ./"+config.ConfigFileName)
	}
	return filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), nil
}

// skipPrompts reports whether the environment can't answer prompts:
// MESHMAP_NON_INTERACTIVE or CI is set, or stdin isn't a terminal.
func skipPrompts() bool {
	if v := os.Getenv(config.EnvPrefix + "_NON_INTERACTIVE"); v != "" && v != "0" && v != "false" {
		return true
	}
	if os.Getenv("CI") != "" {
		return true
	}
	return !term.IsTerminal(int(os.Stdin.Fd()))
}

func exampleNode() config.Node {
	return config.Node{Name: "ap-1", Address: "192.168.1.1", User: sshutil.DefaultUser}
}

// parseNodeFlag parses [name=][user@]address[:port].
func parseNodeFlag(arg string) (config.Node, error) {
	bad := func(reason string) error {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Can't parse --node '%s': %s", arg, reason),
			"Use [name=][user@]address[:port], e.g. ap-living=root@192.168.1.1")
	}

	var node config.Node
	rest := strings.TrimSpace(arg)
	if name, addr, ok := strings.Cut(rest, "="); ok {
		node.Name = strings.TrimSpace(name)
		rest = strings.TrimSpace(addr)
	}
	if user, addr, ok := strings.Cut(rest, "@"); ok {
		node.User = user
		rest = addr
	}
	if host, port, err := net.SplitHostPort(rest); err == nil {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return config.Node{}, bad("invalid port " + port)
		}
		node.Port = p
		rest = host
	}

	if rest == "" {
		return config.Node{}, bad("no address")
	}
	node.Address = rest
	if node.Name == "" {
		node.Name = rest
	}
	if node.User == "" {
		node.User = sshutil.DefaultUser
	}
	return node, nil
}

// promptConfig asks for nodes and probe settings.
func promptConfig(cfg *config.Config) error {
	if len(cfg.Nodes) == 0 {
		imported, err := promptSSHConfigNodes()
		if err != nil {
			return err
		}
		cfg.Nodes = append(cfg.Nodes, imported...)
	}

	for addMore := len(cfg.Nodes) == 0; addMore; {
		node, err := promptNode(len(cfg.Nodes) + 1)
		if err != nil {
			return err
		}
		cfg.Nodes = append(cfg.Nodes, node)

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add another node?").
					Value(&addMore),
			),
		)
		if err := form.Run(); err != nil {
			return inputError(err)
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Measure latency with ping?").
				Description("Pings every mesh peer from each node").
				Value(&cfg.Probe.Ping),
			huh.NewConfirm().
				Title("Benchmark links with iperf3?").
				Description("Needs 'opkg install iperf3' on every node, and takes a few seconds per link").
				Value(&cfg.Probe.Iperf3),
			huh.NewInput().
				Title("Output file").
				Description("The extension picks the format: .pdf .png .svg .dot ...").
				Placeholder(config.DefaultOutputFile).
				Value(&cfg.Output.File).
				Validate(func(s string) error {
					ext := strings.ToLower(filepath.Ext(strings.TrimSpace(s)))
					if !config.SupportedOutputExtensions[ext] {
						return fmt.Errorf("unsupported extension %q", ext)
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return inputError(err)
	}
	cfg.Output.File = strings.TrimSpace(cfg.Output.File)
	return nil
}

// promptSSHConfigNodes offers the hosts from ~/.ssh/config.
func promptSSHConfigNodes() ([]config.Node, error) {
	hosts, err := sshutil.LoadHosts()
	if err != nil || len(hosts) == 0 {
		return nil, nil
	}

	options := make([]huh.Option[string], len(hosts))
	for i, h := range hosts {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", h.Alias, h.Description()), h.Alias)
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Add mesh nodes from ~/.ssh/config").
				Description("Space to select, enter to continue. Pick none to type them in.").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, inputError(err)
	}

	return nodesFromSSHHosts(hosts, selected), nil
}

// nodesFromSSHHosts turns selected aliases into nodes. The alias is kept as
// the address so HostName, Port and IdentityFile still come from
// ~/.ssh/config at dial time.
func nodesFromSSHHosts(hosts []sshutil.HostEntry, selected []string) []config.Node {
	byAlias := make(map[string]sshutil.HostEntry, len(hosts))
	for _, h := range hosts {
		byAlias[h.Alias] = h
	}

	nodes := make([]config.Node, 0, len(selected))
	for _, alias := range selected {
		h, ok := byAlias[alias]
		if !ok {
			continue
		}
		nodes = append(nodes, config.Node{Name: h.Alias, Address: h.Alias, User: h.User})
	}
	return nodes
}

func promptNode(n int) (config.Node, error) {
	node := config.Node{User: sshutil.DefaultUser}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Node %d address", n)).
				Description("IP, hostname, or ~/.ssh/config alias").
				Placeholder("192.168.1.1").
				Value(&node.Address).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("address is required")
					}
					if strings.ContainsAny(strings.TrimSpace(s), " \t") {
						return fmt.Errorf("address cannot contain whitespace")
					}
					return nil
				}),
			huh.NewInput().
				Title("Name").
				Description("How the node is labelled in the diagram").
				Placeholder("ap-living").
				Value(&node.Name),
			huh.NewInput().
				Title("SSH user").
				Value(&node.User),
			huh.NewInput().
				Title("Password").
				Description("Leave empty to use your SSH agent or key").
				EchoMode(huh.EchoModePassword).
				Value(&node.Password),
		),
	)
	if err := form.Run(); err != nil {
		return config.Node{}, inputError(err)
	}

	node.Address = strings.TrimSpace(node.Address)
	node.Name = strings.TrimSpace(node.Name)
	if node.Name == "" {
		node.Name = node.Address
	}
	return node, nil
}

// checkNodes tries to log into every node. Failures are reported but the
// config is written anyway; the routers may simply be off right now.
func checkNodes(out io.Writer, cfg *config.Config, dialer sshutil.Dialer) {
	if dialer == nil {
		dialer = sshutil.NewDialer(sshutil.DialOptions{
			Timeout:         cfg.Timeout,
			InsecureHostKey: cfg.InsecureHostKey,
		})
	}

	fmt.Fprintln(out)
	for _, node := range cfg.Nodes {
		spinner := ui.NewSpinnerTo(out, "Checking "+node.DisplayName())
		spinner.Start()

		client, err := dialer.Dial(sshutil.Target{
			Host:         node.Address,
			User:         node.User,
			Port:         node.Port,
			Password:     config.Expand(node.Password),
			IdentityFile: config.ExpandTilde(node.IdentityFile),
		})
		if err != nil {
			spinner.Fail()
			fmt.Fprintf(out, "  %s\n", ui.MutedStyle().Render(errors.Summary(err)))
			continue
		}
		client.Close()
		spinner.Success()
	}
	fmt.Fprintln(out)
}

func inputError(err error) error {
	return errors.WrapWithCode(err, errors.ErrConfig,
		"Failed to get user input",
		"Check terminal compatibility or use --non-interactive")
}
