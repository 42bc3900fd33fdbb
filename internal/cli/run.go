package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rileyhilliard/meshmap/internal/collector"
	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/logger"
	"github.com/rileyhilliard/meshmap/internal/mesh"
	"github.com/rileyhilliard/meshmap/internal/render"
	"github.com/rileyhilliard/meshmap/internal/topology"
	"github.com/rileyhilliard/meshmap/internal/ui"
	"github.com/rileyhilliard/meshmap/internal/util"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
	"golang.org/x/term"
)

// probeTitleSuffix is appended to the diagram title when iperf3 ran.
const probeTitleSuffix = " (incl. iperf3 & ping)"

// maxDetailWidth keeps a failed node's summary line on one terminal row.
const maxDetailWidth = 72

// RunOptions holds the flags of the root command.
type RunOptions struct {
	ConfigPath string
	Output     string
	Timeout    string
	Iperf3     bool
	NoPing     bool
	Insecure   bool
	AskPass    bool
	Verbose    bool
	Quiet      bool
}

// Run loads the config and runs collect, build and render once.
func Run(ctx context.Context, stdout, stderr io.Writer, opts RunOptions) error {
	cfg, path, err := config.LoadFrom(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if !opts.Quiet {
		warnInsecure(stderr, cfg)
	}
	if opts.AskPass {
		if err := askPasswords(cfg, terminalPrompt(stderr)); err != nil {
			return err
		}
	}

	log := logger.NewEnvLogger("[meshmap]",
		logger.WithVerbose(opts.Verbose),
		logger.WithQuiet(opts.Quiet),
		logger.WithOutput(stderr))
	log.Debug("Using config %s", path)

	p := &pipeline{
		cfg:      cfg,
		log:      log,
		out:      stdout,
		quiet:    opts.Quiet,
		progress: !opts.Quiet && !opts.Verbose && isTerminal(stdout),
	}
	return p.run(ctx)
}

// applyOverrides folds command-line flags into cfg.
func applyOverrides(cfg *config.Config, opts RunOptions) error {
	if opts.Output != "" {
		cfg.Output.File = opts.Output
	}
	timeout, err := ParseTimeout(opts.Timeout)
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	if opts.Iperf3 {
		cfg.Probe.Iperf3 = true
	}
	if opts.NoPing {
		cfg.Probe.Ping = false
	}
	if opts.Insecure {
		cfg.InsecureHostKey = true
	}
	return nil
}

// warnInsecure flags runs that skip known_hosts verification.
func warnInsecure(w io.Writer, cfg *config.Config) {
	if cfg.InsecureHostKey {
		ui.PrintWarning(w, "Host key checking is off: router identities aren't verified")
	}
}

// diagramTitle returns the configured title, marking diagrams that carry
// measured throughput.
func diagramTitle(cfg *config.Config) string {
	title := cfg.Output.Title
	if title != "" && cfg.Probe.Iperf3 {
		title += probeTitleSuffix
	}
	return title
}

// pipeline is one collect, build, render pass.
type pipeline struct {
	cfg *config.Config
	log logger.Logger

	// dialer defaults to real SSH connections built from cfg.
	dialer sshutil.Dialer

	out      io.Writer
	quiet    bool
	progress bool // animate a spinner while collecting
}

func (p *pipeline) run(ctx context.Context) error {
	snap, err := p.collect(ctx)
	if err != nil {
		return err
	}

	if !p.quiet {
		statuses := nodeStatuses(p.cfg, snap)
		fmt.Fprint(p.out, ui.RenderNodeSummary(statuses))
		fmt.Fprintf(p.out, "  %s\n\n", ui.RenderCollectionTotals(statuses))
	}

	return p.draw(snap)
}

func (p *pipeline) collect(ctx context.Context) (*mesh.Snapshot, error) {
	// The spinner owns the terminal line while it runs, so warnings are
	// held back until it finishes.
	log := p.log
	var held *logger.BufferLogger
	if p.progress {
		held = logger.NewBufferLogger()
		log = held
	}

	dialer := p.dialer
	if dialer == nil {
		dialer = sshutil.NewDialer(sshutil.DialOptions{
			Timeout:         p.cfg.Timeout,
			InsecureHostKey: p.cfg.InsecureHostKey,
			Warn:            func(msg string) { log.Warn("%s", msg) },
		})
	}

	c := collector.New(p.cfg, dialer, log)
	total := len(p.cfg.Nodes)

	var spinner *ui.Spinner
	if p.progress {
		spinner = ui.NewSpinnerTo(p.out, "Collecting "+plural(total, "node", "nodes"))
		spinner.Start()
	}

	done := 0
	c.OnNode(func(r *mesh.NodeReport) {
		done++
		if spinner == nil {
			return
		}
		label := fmt.Sprintf("Collecting %s (%d/%d)", r.Node, done, total)
		if done == total && (p.cfg.Probe.Ping || p.cfg.Probe.Iperf3) {
			label = "Measuring mesh links"
		}
		spinner.SetLabel(label)
	})

	start := time.Now()
	snap := c.Collect(ctx)
	ok := len(snap.Reports) - len(snap.Failed())
	label := fmt.Sprintf("Collected %d of %s", ok, plural(total, "node", "nodes"))

	switch {
	case spinner != nil:
		spinner.SetLabel(label)
		if ok == 0 {
			spinner.Fail()
		} else {
			spinner.Success()
		}
		replayWarnings(held, p.log)
	case !p.quiet:
		pd := ui.NewPhaseDisplay(p.out)
		if ok == 0 {
			pd.RenderFailed(label, time.Since(start))
		} else {
			pd.RenderSuccess(label, time.Since(start))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Collection was interrupted",
			"Nothing was drawn. Run meshmap again to get a full picture.")
	}
	return snap, nil
}

func (p *pipeline) draw(snap *mesh.Snapshot) error {
	start := time.Now()

	g, err := topology.Build(snap)
	if err != nil {
		return err
	}

	r := render.New(render.Options{
		Title:  diagramTitle(p.cfg),
		Width:  p.cfg.Output.Width,
		Height: p.cfg.Output.Height,
	})
	file := p.cfg.Output.File
	if err := r.RenderFile(g, file); err != nil {
		if !p.quiet {
			ui.NewPhaseDisplay(p.out).RenderFailed("Rendering "+file, time.Since(start))
		}
		return err
	}

	if !p.quiet {
		ui.NewPhaseDisplay(p.out).RenderSuccess(
			fmt.Sprintf("Wrote %s (%s, %s)", ui.InfoStyle().Render(file),
				plural(g.Len(), "node", "nodes"),
				plural(len(g.Edges()), "link", "links")),
			time.Since(start))
	}
	return nil
}

// replayWarnings forwards held warnings and errors to log.
func replayWarnings(held *logger.BufferLogger, log logger.Logger) {
	if held == nil {
		return
	}
	for _, m := range held.Messages {
		switch m.Level {
		case "warn":
			log.Warn("%s", m.Message)
		case "error":
			log.Error("%s", m.Message)
		}
	}
}

// nodeStatuses turns a snapshot into summary rows in config order.
func nodeStatuses(cfg *config.Config, snap *mesh.Snapshot) []ui.NodeStatus {
	idx := snap.MACIndex()
	out := make([]ui.NodeStatus, 0, len(cfg.Nodes))

	for _, node := range cfg.Nodes {
		name := node.DisplayName()
		st := ui.NodeStatus{Name: name, Address: node.Address}

		r := snap.Report(name)
		switch {
		case r == nil:
			st.Detail = "not collected"
		case !r.OK():
			st.Duration = r.Duration
			st.Detail = util.Truncate(errors.Summary(r.Err), maxDetailWidth)
		default:
			st.OK = true
			st.Duration = r.Duration
			st.Peers = len(snap.PeerNodes(r))
			st.Clients = countClients(r, idx)
		}
		out = append(out, st)
	}
	return out
}

// countClients counts the distinct stations on r that aren't mesh nodes.
func countClients(r *mesh.NodeReport, meshMACs map[string]string) int {
	seen := make(map[string]bool)
	for _, c := range r.Clients {
		if _, isNode := meshMACs[c.MAC]; isNode {
			continue
		}
		seen[c.MAC] = true
	}
	return len(seen)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func plural(n int, one, many string) string {
	return fmt.Sprintf("%d %s", n, util.Pluralize(n, one, many))
}
