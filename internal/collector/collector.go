package collector

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rileyhilliard/meshmap/internal/collector/parsers"
	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/logger"
	"github.com/rileyhilliard/meshmap/internal/mesh"
	"github.com/rileyhilliard/meshmap/pkg/sshutil"
)

// Collector gathers mesh state from the configured nodes.
type Collector struct {
	nodes  []config.Node
	dialer sshutil.Dialer
	log    logger.Logger

	timeout          time.Duration
	probe            config.ProbeConfig
	resolveHostnames bool

	// iperfWarmup is how long to wait after starting the iperf3 server.
	iperfWarmup time.Duration

	onNode func(*mesh.NodeReport)
	now    func() time.Time
}

// New creates a collector for the nodes in cfg.
func New(cfg *config.Config, dialer sshutil.Dialer, log logger.Logger) *Collector {
	if log == nil {
		log = logger.Noop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultConfig().Timeout
	}
	return &Collector{
		nodes:            cfg.Nodes,
		dialer:           dialer,
		log:              log,
		timeout:          timeout,
		probe:            cfg.Probe,
		resolveHostnames: cfg.ResolveHostnames,
		iperfWarmup:      500 * time.Millisecond,
		now:              time.Now,
	}
}

// OnNode registers a callback invoked after each node is collected,
// successful or not.
func (c *Collector) OnNode(fn func(*mesh.NodeReport)) {
	c.onNode = fn
}

// Collect visits every node in config order and returns the snapshot.
// It never fails as a whole: per-node problems are logged and recorded on
// the node's report.
func (c *Collector) Collect(ctx context.Context) *mesh.Snapshot {
	snap := &mesh.Snapshot{
		Hostnames:  make(map[string]string),
		Throughput: make(map[mesh.PairKey]float64),
		Taken:      c.now(),
	}

	for _, node := range c.nodes {
		name := node.DisplayName()
		snap.Nodes = append(snap.Nodes, name)

		var report *mesh.NodeReport
		if err := ctx.Err(); err != nil {
			report = &mesh.NodeReport{Node: name, Address: node.Address, Err: err}
		} else {
			report = c.CollectNode(ctx, node)
		}
		snap.Reports = append(snap.Reports, report)

		if c.onNode != nil {
			c.onNode(report)
		}
	}

	mergeLeases(snap)

	if ctx.Err() != nil {
		return snap
	}
	if c.probe.Ping {
		c.measureLatency(ctx, snap)
	}
	if c.probe.Iperf3 {
		c.benchmark(ctx, snap)
	}
	if c.resolveHostnames {
		c.lookupHostnames(ctx, snap)
	}

	return snap
}

// CollectNode opens one connection to node, runs the status commands and
// closes it. On failure the returned report has Err set and no observations.
func (c *Collector) CollectNode(ctx context.Context, node config.Node) *mesh.NodeReport {
	name := node.DisplayName()
	start := time.Now()
	c.log.Info("Collecting %s (%s)", name, node.Address)

	report, err := c.collect(ctx, node)
	if err != nil {
		c.log.Warn("Skipping %s: %s", name, errors.Summary(err))
		report = &mesh.NodeReport{Node: name, Address: node.Address, Err: err}
	}
	report.Duration = time.Since(start)

	if err == nil {
		c.log.Debug("%s: %d mesh peers, %d clients in %s",
			name, len(report.Peers), len(report.Clients), report.Duration.Round(time.Millisecond))
	}
	return report
}

func (c *Collector) collect(ctx context.Context, node config.Node) (*mesh.NodeReport, error) {
	name := node.DisplayName()

	client, err := c.dial(node)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	report := &mesh.NodeReport{
		Node:      name,
		Address:   hostOf(client.GetAddress(), node.Address),
		Neighbors: map[string]string{},
		Leases:    map[string]string{},
	}

	out, err := c.run(ctx, client, parsers.CmdInterfaces)
	if err != nil {
		return nil, err
	}
	ifaces, err := parsers.ParseInterfaces(out)
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Addr != "" {
			report.LocalMACs = append(report.LocalMACs, iface.Addr)
		}

		out, err := c.run(ctx, client, parsers.StationDumpCommand(iface.Name))
		if err != nil {
			return nil, err
		}
		stations, err := parsers.ParseStationDump(out)
		if err != nil {
			return nil, err
		}

		for _, st := range stations {
			if iface.IsMesh() {
				tput, source := st.Throughput()
				report.Peers = append(report.Peers, mesh.PeerObservation{
					Interface:        iface.Name,
					PeerMAC:          st.MAC,
					Signal:           st.Signal(),
					Throughput:       tput,
					ThroughputSource: source,
				})
				continue
			}
			report.Clients = append(report.Clients, mesh.ClientObservation{
				Interface: iface.Name,
				MAC:       st.MAC,
				Signal:    st.Signal(),
			})
		}
	}

	// Neighbour and lease tables only decorate client labels,
	// so failures here don't fail the node.
	if out, err := c.run(ctx, client, parsers.CmdNeighbors); err != nil {
		c.log.Warn("%s: couldn't read the neighbour table: %s", name, errors.Summary(err))
	} else {
		report.Neighbors = parsers.ParseNeighbors(out)
	}

	if out, err := c.run(ctx, client, parsers.CmdLeases); err != nil {
		c.log.Warn("%s: couldn't read DHCP leases: %s", name, errors.Summary(err))
	} else {
		report.Leases = parsers.ParseLeases(out)
	}

	return report, nil
}

// dial connects to node, making sure failures carry the SSH error code.
func (c *Collector) dial(node config.Node) (sshutil.SSHClient, error) {
	client, err := c.dialer.Dial(targetFor(node))
	if err != nil {
		var mmErr *errors.Error
		if stderrors.As(err, &mmErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't connect to '%s' at %s", node.DisplayName(), node.Address),
			"Check the address and credentials in meshmap.yaml.")
	}
	return client, nil
}

// run executes cmd with the collector's per-command timeout.
// A non-zero exit status is an error.
func (c *Collector) run(ctx context.Context, client sshutil.SSHClient, cmd string) (string, error) {
	return c.runWithTimeout(ctx, client, cmd, c.timeout)
}

func (c *Collector) runWithTimeout(ctx context.Context, client sshutil.SSHClient, cmd string, timeout time.Duration) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.log.Debug("%s: %s", client.GetHost(), cmd)
	stdout, stderr, code, err := client.ExecContext(cmdCtx, cmd)
	if err != nil {
		var mmErr *errors.Error
		if stderrors.As(err, &mmErr) {
			return "", err
		}
		if cmdCtx.Err() != nil {
			return "", errors.WrapWithCode(err, errors.ErrExec,
				fmt.Sprintf("Timed out running: %s", cmd),
				"The router may be overloaded. Raise 'timeout' in meshmap.yaml.")
		}
		return "", errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"Connection may have been closed. Try again.")
	}

	if code != 0 {
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = "no error output"
		}
		return string(stdout), errors.WrapWithCode(stderrors.New(detail), errors.ErrExec,
			fmt.Sprintf("'%s' exited with status %d", cmd, code),
			suggestionForExit(code))
	}

	return string(stdout), nil
}

func suggestionForExit(code int) string {
	if code == 127 {
		return "The command isn't installed on the router. Install it with opkg."
	}
	return "Run the command by hand on the router to see what's wrong."
}

func targetFor(node config.Node) sshutil.Target {
	return sshutil.Target{
		Host:         node.Address,
		User:         node.User,
		Port:         node.Port,
		Password:     node.Password,
		IdentityFile: node.IdentityFile,
	}
}

// hostOf returns the host part of a resolved host:port address,
// falling back when the address is empty or malformed.
func hostOf(address, fallback string) string {
	if address == "" {
		return fallback
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}

// mergeLeases folds every node's lease table into the snapshot's hostname
// map. The first node to name an IP wins.
func mergeLeases(snap *mesh.Snapshot) {
	for _, r := range snap.Reports {
		if !r.OK() {
			continue
		}
		for ip, host := range r.Leases {
			if _, ok := snap.Hostnames[ip]; !ok {
				snap.Hostnames[ip] = host
			}
		}
	}
}
