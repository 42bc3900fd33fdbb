// Package topology turns a collection snapshot into an undirected graph of
// mesh nodes and Wi-Fi clients. Node and edge kinds are carried as
// attributes so the renderer and the DOT encoder can tell them apart.
package topology

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/meshmap/internal/mesh"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"
)

// Kind tags a node or an edge.
type Kind string

const (
	KindMesh   Kind = "mesh"
	KindClient Kind = "client"
)

// Node is a graph vertex: either a configured mesh node or a client station.
type Node struct {
	id   int64
	Kind Kind

	// Name is the configured node name. Empty for clients.
	Name    string
	Address string // node address or client IPv4
	MAC     string // clients only

	Hostname string // clients only

	// Failed marks a mesh node whose collection failed. It's drawn so the
	// operator notices, but has no edges.
	Failed bool
}

// ID implements graph.Node.
func (n *Node) ID() int64 { return n.id }

// Key identifies the node across builds: the node name for mesh nodes,
// the MAC for clients.
func (n *Node) Key() string {
	if n.Kind == KindMesh {
		return n.Name
	}
	return n.MAC
}

// Label is the multi-line text drawn next to the node.
func (n *Node) Label() string {
	if n.Kind == KindMesh {
		lines := []string{n.Name}
		if n.Address != "" && n.Address != n.Name {
			lines = append(lines, n.Address)
		}
		if n.Failed {
			lines = append(lines, "(unreachable)")
		}
		return strings.Join(lines, "\n")
	}

	var lines []string
	for _, s := range []string{n.Hostname, n.Address, n.MAC} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// DOTID implements dot.Node.
func (n *Node) DOTID() string { return strconv.Quote(n.Key()) }

// Attributes implements encoding.Attributer.
func (n *Node) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{
		{Key: "kind", Value: string(n.Kind)},
		{Key: "label", Value: strconv.Quote(n.Label())},
	}
	if n.Failed {
		attrs = append(attrs, encoding.Attribute{Key: "failed", Value: "true"})
	}
	return attrs
}

// Edge is a mesh link between two nodes or a client link from a client to
// the node it's associated with.
type Edge struct {
	F, T *Node
	Kind Kind

	Signal mesh.Signal

	// Mesh links only.
	Throughput       float64 // Mbit/s, zero when unknown
	ThroughputSource mesh.ThroughputSource
	Latency          float64 // ms
	HasLatency       bool
}

// From implements graph.Edge.
func (e *Edge) From() graph.Node { return e.F }

// To implements graph.Edge.
func (e *Edge) To() graph.Node { return e.T }

// ReversedEdge implements graph.Edge.
func (e *Edge) ReversedEdge() graph.Edge {
	r := *e
	r.F, r.T = e.T, e.F
	return &r
}

// Label formats the edge metrics, e.g. "-55 dBm (90%) / 300.00 Mbit/s / 2.00 ms".
// Client links carry signal only.
func (e *Edge) Label() string {
	if e.Kind == KindClient {
		return e.Signal.String()
	}

	var parts []string
	if e.Signal.Valid {
		parts = append(parts, e.Signal.String())
	}
	if e.Throughput > 0 {
		parts = append(parts, fmt.Sprintf("%.2f Mbit/s", e.Throughput))
	}
	if e.HasLatency {
		parts = append(parts, fmt.Sprintf("%.2f ms", e.Latency))
	}
	return strings.Join(parts, " / ")
}

// Style is the line style the edge is drawn with.
func (e *Edge) Style() string {
	if e.Kind == KindMesh {
		return "dashed"
	}
	return "solid"
}

// Attributes implements encoding.Attributer.
func (e *Edge) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{
		{Key: "kind", Value: string(e.Kind)},
		{Key: "label", Value: strconv.Quote(e.Label())},
		{Key: "style", Value: e.Style()},
	}
	if e.ThroughputSource != mesh.ThroughputNone {
		attrs = append(attrs, encoding.Attribute{Key: "throughput_source", Value: string(e.ThroughputSource)})
	}
	return attrs
}

// Graph is the assembled topology.
type Graph struct {
	g     *simple.UndirectedGraph
	nodes []*Node
	edges []*Edge

	byKey   map[nodeRef]*Node
	edgeIdx map[[2]int64]*Edge
}

// nodeRef indexes nodes by kind as well as key, so a mesh node whose name
// happens to be a MAC can't swallow a client vertex.
type nodeRef struct {
	kind Kind
	key  string
}

func (n *Node) ref() nodeRef { return nodeRef{kind: n.Kind, key: n.Key()} }

func newGraph() *Graph {
	return &Graph{
		g:       simple.NewUndirectedGraph(),
		byKey:   make(map[nodeRef]*Node),
		edgeIdx: make(map[[2]int64]*Edge),
	}
}

func (g *Graph) addNode(n *Node) *Node {
	if existing, ok := g.byKey[n.ref()]; ok {
		return existing
	}
	n.id = int64(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.byKey[n.ref()] = n
	g.g.AddNode(n)
	return n
}

// addEdge adds e unless its endpoints are already connected, in which case
// the existing edge is returned and e is discarded.
func (g *Graph) addEdge(e *Edge) (*Edge, bool) {
	key := edgeKey(e.F.ID(), e.T.ID())
	if existing, ok := g.edgeIdx[key]; ok {
		return existing, false
	}
	g.g.SetEdge(e)
	g.edges = append(g.edges, e)
	g.edgeIdx[key] = e
	return e, true
}

func edgeKey(u, v int64) [2]int64 {
	if v < u {
		u, v = v, u
	}
	return [2]int64{u, v}
}

// MeshNode returns the configured node with the given name, or nil.
func (g *Graph) MeshNode(name string) *Node {
	return g.byKey[nodeRef{kind: KindMesh, key: name}]
}

// Client returns the client vertex for mac, or nil.
func (g *Graph) Client(mac string) *Node {
	return g.byKey[nodeRef{kind: KindClient, key: mac}]
}

// Nodes returns every node: mesh nodes in configured order, then clients
// sorted by MAC.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns mesh links sorted by node pair, then client links sorted by
// client MAC and node.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind == KindMesh
		}
		if ka, kb := a.F.Key(), b.F.Key(); ka != kb {
			return ka < kb
		}
		return a.T.Key() < b.T.Key()
	})
	return out
}

// EdgesOf returns the edges of the given kind in Edges order.
func (g *Graph) EdgesOf(kind Kind) []*Edge {
	var out []*Edge
	for _, e := range g.Edges() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// NodesOf returns the nodes of the given kind in Nodes order.
func (g *Graph) NodesOf(kind Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Undirected exposes the underlying gonum graph for layout and encoding.
func (g *Graph) Undirected() *simple.UndirectedGraph { return g.g }

// AttributeSet is a canonical listing of every node and edge with its
// attributes. Two graphs built from the same snapshot have equal sets.
type AttributeSet struct {
	Nodes []string
	Edges []string
}

// Attributes returns the graph's AttributeSet.
func (g *Graph) Attributes() AttributeSet {
	var set AttributeSet
	for _, n := range g.nodes {
		set.Nodes = append(set.Nodes, n.Key()+" "+formatAttrs(n.Attributes()))
	}
	for _, e := range g.Edges() {
		set.Edges = append(set.Edges, e.F.Key()+" -- "+e.T.Key()+" "+formatAttrs(e.Attributes()))
	}
	return set
}

func formatAttrs(attrs []encoding.Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.Key + "=" + a.Value
	}
	sort.Strings(parts)
	return "[" + strings.Join(parts, " ") + "]"
}
