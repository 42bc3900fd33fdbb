package mesh

import (
	"sort"
	"time"
)

// PeerObservation is a mesh station seen on one of a node's mesh interfaces.
type PeerObservation struct {
	Interface string
	PeerMAC   string
	Signal    Signal

	Throughput       float64 // Mbit/s, zero when unknown
	ThroughputSource ThroughputSource
}

// ClientObservation is a Wi-Fi station associated with a node's AP interface.
type ClientObservation struct {
	Interface string
	MAC       string
	Signal    Signal
}

// LatencySample is a ping result from a node to another configured node.
type LatencySample struct {
	Target     string // node name that was pinged
	AverageRTT float64
}

// NodeReport is everything a single node contributed to the snapshot.
// A failed node has Err set and no observations.
type NodeReport struct {
	Node    string // configured node name
	Address string

	// LocalMACs are the addresses of the node's own wireless interfaces.
	// Other nodes see these as PeerMAC values.
	LocalMACs []string

	Peers   []PeerObservation
	Clients []ClientObservation

	// Neighbors maps lowercase MAC to IPv4 from the node's ARP table.
	Neighbors map[string]string
	// Leases maps IPv4 to hostname from the node's DHCP lease file.
	Leases map[string]string

	Latency []LatencySample

	Duration time.Duration
	Err      error
}

// OK reports whether the node was collected successfully.
func (r *NodeReport) OK() bool {
	return r.Err == nil
}

// Snapshot is the result of one collection run.
type Snapshot struct {
	// Nodes lists every configured node name in config order,
	// including ones that failed.
	Nodes   []string
	Reports []*NodeReport

	// Hostnames maps client IPv4 to a resolved hostname, merged from
	// all lease files and explicit lookups.
	Hostnames map[string]string

	// Throughput holds iperf3 results keyed by PairKey.
	Throughput map[PairKey]float64

	Taken time.Time
}

// Report returns the report for the named node, or nil.
func (s *Snapshot) Report(node string) *NodeReport {
	for _, r := range s.Reports {
		if r.Node == node {
			return r
		}
	}
	return nil
}

// Failed returns the reports of nodes that couldn't be collected.
func (s *Snapshot) Failed() []*NodeReport {
	var out []*NodeReport
	for _, r := range s.Reports {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// PairKey identifies an unordered pair of node names.
// A is always the lexically smaller name.
type PairKey struct {
	A, B string
}

// NewPairKey returns the canonical key for two node names.
func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// MACIndex maps each local interface MAC of a collected node to that
// node's name. Failed nodes contribute nothing.
func (s *Snapshot) MACIndex() map[string]string {
	idx := make(map[string]string)
	for _, r := range s.Reports {
		if !r.OK() {
			continue
		}
		for _, mac := range r.LocalMACs {
			if _, taken := idx[mac]; !taken {
				idx[mac] = r.Node
			}
		}
	}
	return idx
}

// PeerNodes returns the configured nodes r sees as mesh peers, sorted.
// Peers whose MAC doesn't belong to any collected node are skipped, and so
// is r itself.
func (s *Snapshot) PeerNodes(r *NodeReport) []string {
	idx := s.MACIndex()
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.Peers {
		name, ok := idx[p.PeerMAC]
		if !ok || name == r.Node || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Pairs returns every node pair with a mesh observation in at least one
// direction, sorted by A then B.
func (s *Snapshot) Pairs() []PairKey {
	seen := make(map[PairKey]bool)
	var out []PairKey
	for _, r := range s.Reports {
		if !r.OK() {
			continue
		}
		for _, peer := range s.PeerNodes(r) {
			key := NewPairKey(r.Node, peer)
			if !seen[key] {
				seen[key] = true
				out = append(out, key)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
