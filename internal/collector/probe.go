package collector

import (
	"context"
	"sort"
	"time"

	"github.com/rileyhilliard/meshmap/internal/collector/parsers"
	"github.com/rileyhilliard/meshmap/internal/config"
	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/mesh"
)

// The probe passes run after every node has been collected, because a
// node's mesh peers can only be matched to configured nodes once all local
// MACs are known. Each pass opens its own short-lived connections.

func (c *Collector) nodeByName(name string) (config.Node, bool) {
	for _, n := range c.nodes {
		if n.DisplayName() == name {
			return n, true
		}
	}
	return config.Node{}, false
}

// measureLatency pings every resolved mesh peer from each node.
func (c *Collector) measureLatency(ctx context.Context, snap *mesh.Snapshot) {
	count := c.probe.PingCount
	if count <= 0 {
		count = config.DefaultConfig().Probe.PingCount
	}
	// ping -W 1 waits up to a second per reply
	timeout := c.timeout + time.Duration(count)*time.Second

	for _, r := range snap.Reports {
		if !r.OK() || ctx.Err() != nil {
			continue
		}
		peers := snap.PeerNodes(r)
		if len(peers) == 0 {
			continue
		}
		node, ok := c.nodeByName(r.Node)
		if !ok {
			continue
		}

		client, err := c.dial(node)
		if err != nil {
			c.log.Warn("%s: skipping latency probe: %s", r.Node, errors.Summary(err))
			continue
		}

		for _, peer := range peers {
			target := snap.Report(peer).Address
			out, err := c.runWithTimeout(ctx, client, parsers.PingCommand(target, count), timeout)
			// ping exits 1 when nothing came back but still prints a summary
			if err != nil && out == "" {
				c.log.Warn("%s: ping %s failed: %s", r.Node, peer, errors.Summary(err))
				continue
			}
			rtt, err := parsers.ParsePing(out)
			if err != nil {
				c.log.Warn("%s: ping %s: %s", r.Node, peer, errors.Summary(err))
				continue
			}
			r.Latency = append(r.Latency, mesh.LatencySample{Target: peer, AverageRTT: rtt})
			c.log.Debug("%s -> %s: %.2f ms", r.Node, peer, rtt)
		}
		client.Close()
	}
}

// benchmark runs one iperf3 test per mesh pair. The lexically larger node
// serves and the smaller one connects to it.
func (c *Collector) benchmark(ctx context.Context, snap *mesh.Snapshot) {
	duration := c.probe.Iperf3Duration
	if duration <= 0 {
		duration = config.DefaultConfig().Probe.Iperf3Duration
	}
	timeout := c.timeout + duration

	for _, pair := range snap.Pairs() {
		if ctx.Err() != nil {
			return
		}
		mbps, err := c.benchmarkPair(ctx, snap, pair, duration, timeout)
		if err != nil {
			c.log.Warn("iperf3 %s <-> %s: %s", pair.A, pair.B, errors.Summary(err))
			continue
		}
		snap.Throughput[pair] = mbps
		c.log.Debug("iperf3 %s <-> %s: %.2f Mbit/s", pair.A, pair.B, mbps)
	}
}

func (c *Collector) benchmarkPair(ctx context.Context, snap *mesh.Snapshot, pair mesh.PairKey, duration, timeout time.Duration) (float64, error) {
	serverNode, _ := c.nodeByName(pair.B)
	clientNode, _ := c.nodeByName(pair.A)

	server, err := c.dial(serverNode)
	if err != nil {
		return 0, err
	}
	defer server.Close()

	if _, err := c.run(ctx, server, parsers.Iperf3ServerCommand()); err != nil {
		return 0, err
	}
	if c.iperfWarmup > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(c.iperfWarmup):
		}
	}

	client, err := c.dial(clientNode)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	target := snap.Report(pair.B).Address
	out, err := c.runWithTimeout(ctx, client, parsers.Iperf3ClientCommand(target, duration), timeout)
	if err != nil && out == "" {
		return 0, err
	}
	// iperf3 -J exits non-zero on failure but still explains it in the JSON
	return parsers.ParseIperf3(out)
}

// lookupHostnames resolves client IPs that no lease file named, using the
// first node that was collected successfully.
func (c *Collector) lookupHostnames(ctx context.Context, snap *mesh.Snapshot) {
	pending := unnamedClientIPs(snap)
	if len(pending) == 0 {
		return
	}

	var resolver *mesh.NodeReport
	for _, r := range snap.Reports {
		if r.OK() {
			resolver = r
			break
		}
	}
	if resolver == nil {
		return
	}
	node, ok := c.nodeByName(resolver.Node)
	if !ok {
		return
	}

	client, err := c.dial(node)
	if err != nil {
		c.log.Warn("%s: skipping hostname lookup: %s", resolver.Node, errors.Summary(err))
		return
	}
	defer client.Close()

	for _, ip := range pending {
		if ctx.Err() != nil {
			return
		}
		// getent exits 2 for unknown addresses, which is expected here
		out, err := c.run(ctx, client, parsers.GetentCommand(ip))
		if err != nil && !errors.IsCode(err, errors.ErrExec) {
			c.log.Warn("%s: getent %s: %s", resolver.Node, ip, errors.Summary(err))
			return
		}
		if host := parsers.ParseGetent(out); host != "" {
			snap.Hostnames[ip] = host
		}
	}
}

// unnamedClientIPs returns the sorted client IPs without a hostname.
func unnamedClientIPs(snap *mesh.Snapshot) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range snap.Reports {
		if !r.OK() {
			continue
		}
		for _, cl := range r.Clients {
			ip := r.Neighbors[cl.MAC]
			if ip == "" || seen[ip] || snap.Hostnames[ip] != "" {
				continue
			}
			seen[ip] = true
			out = append(out, ip)
		}
	}
	sort.Strings(out)
	return out
}
