package topology

import (
	"sort"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/mesh"
)

// Build assembles the graph for a snapshot.
//
// Every configured node becomes a vertex, including failed ones. Each
// distinct client MAC becomes one vertex. A mesh link is added once per node
// pair: the first observation supplies the metrics and the reverse
// direction only fills in what's missing. A client seen on two nodes gets
// two client links.
func Build(snap *mesh.Snapshot) (*Graph, error) {
	if snap == nil {
		return nil, errors.New(errors.ErrRender, "Nothing to draw", "No snapshot was collected.")
	}

	g := newGraph()
	idx := snap.MACIndex()

	for _, name := range snap.Nodes {
		n := &Node{Kind: KindMesh, Name: name}
		if r := snap.Report(name); r != nil {
			n.Address = r.Address
			n.Failed = !r.OK()
		}
		g.addNode(n)
	}

	addClients(g, snap, idx)
	addMeshLinks(g, snap, idx)

	if g.Len() == 0 {
		return nil, errors.New(errors.ErrRender, "Nothing to draw", "The snapshot has no nodes. Check 'nodes' in meshmap.yaml.")
	}
	return g, nil
}

func addClients(g *Graph, snap *mesh.Snapshot, idx map[string]string) {
	// Any node's ARP table can name a client, the observing node's first.
	globalIP := make(map[string]string)
	for _, r := range snap.Reports {
		for mac, ip := range r.Neighbors {
			if _, ok := globalIP[mac]; !ok {
				globalIP[mac] = ip
			}
		}
	}

	type association struct {
		report *mesh.NodeReport
		obs    mesh.ClientObservation
	}
	byMAC := make(map[string][]association)
	for _, r := range snap.Reports {
		if !r.OK() {
			continue
		}
		for _, c := range r.Clients {
			// Mesh nodes sometimes show up as stations on each other's APs.
			if _, isNode := idx[c.MAC]; isNode {
				continue
			}
			byMAC[c.MAC] = append(byMAC[c.MAC], association{report: r, obs: c})
		}
	}

	macs := make([]string, 0, len(byMAC))
	for mac := range byMAC {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	for _, mac := range macs {
		assocs := byMAC[mac]

		ip := assocs[0].report.Neighbors[mac]
		if ip == "" {
			ip = globalIP[mac]
		}
		client := g.addNode(&Node{
			Kind:     KindClient,
			MAC:      mac,
			Address:  ip,
			Hostname: snap.Hostnames[ip],
		})

		for _, a := range assocs {
			g.addEdge(&Edge{
				F:      client,
				T:      g.MeshNode(a.report.Node),
				Kind:   KindClient,
				Signal: a.obs.Signal,
			})
		}
	}
}

func addMeshLinks(g *Graph, snap *mesh.Snapshot, idx map[string]string) {
	for _, r := range snap.Reports {
		if !r.OK() {
			continue
		}
		for _, p := range r.Peers {
			peer, ok := idx[p.PeerMAC]
			if !ok || peer == r.Node {
				continue
			}
			key := mesh.NewPairKey(r.Node, peer)
			e, added := g.addEdge(&Edge{
				F:                g.MeshNode(key.A),
				T:                g.MeshNode(key.B),
				Kind:             KindMesh,
				Signal:           p.Signal,
				Throughput:       p.Throughput,
				ThroughputSource: p.ThroughputSource,
			})
			if added {
				continue
			}
			if !e.Signal.Valid {
				e.Signal = p.Signal
			}
			if e.Throughput == 0 && p.Throughput > 0 {
				e.Throughput = p.Throughput
				e.ThroughputSource = p.ThroughputSource
			}
		}
	}

	links := make(map[mesh.PairKey]*Edge)
	for _, e := range g.EdgesOf(KindMesh) {
		links[mesh.NewPairKey(e.F.Name, e.T.Name)] = e
	}

	for _, r := range snap.Reports {
		for _, s := range r.Latency {
			e, ok := links[mesh.NewPairKey(r.Node, s.Target)]
			if !ok || e.HasLatency {
				continue
			}
			e.Latency = s.AverageRTT
			e.HasLatency = true
		}
	}

	for key, mbps := range snap.Throughput {
		if e, ok := links[key]; ok {
			e.Throughput = mbps
			e.ThroughputSource = mesh.ThroughputIperf3
		}
	}
}
