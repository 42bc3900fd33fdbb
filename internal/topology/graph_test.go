package topology

import (
	"errors"
	"testing"

	mmerrors "github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	macA     = "02:00:00:00:0a:01"
	macB     = "02:00:00:00:0b:01"
	macC     = "02:00:00:00:0c:01"
	laptop   = "aa:bb:cc:00:00:01"
	phone    = "aa:bb:cc:00:00:02"
	printer  = "aa:bb:cc:00:00:03"
	laptopIP = "192.168.1.50"
)

// twoNodeSnapshot is the A/B scenario: a -55 dBm, 300 Mbit/s, 2 ms link.
func twoNodeSnapshot() *mesh.Snapshot {
	return &mesh.Snapshot{
		Nodes: []string{"ap-a", "ap-b"},
		Reports: []*mesh.NodeReport{
			{
				Node:      "ap-a",
				Address:   "192.168.1.1",
				LocalMACs: []string{macA},
				Peers: []mesh.PeerObservation{
					{PeerMAC: macB, Signal: mesh.NewSignal(-55), Throughput: 300, ThroughputSource: mesh.ThroughputExpected},
				},
				Latency: []mesh.LatencySample{{Target: "ap-b", AverageRTT: 2}},
			},
			{
				Node:      "ap-b",
				Address:   "192.168.1.2",
				LocalMACs: []string{macB},
				Peers: []mesh.PeerObservation{
					{PeerMAC: macA, Signal: mesh.NewSignal(-60), Throughput: 250, ThroughputSource: mesh.ThroughputBitrate},
				},
				Latency: []mesh.LatencySample{{Target: "ap-a", AverageRTT: 9}},
			},
		},
		Hostnames:  map[string]string{},
		Throughput: map[mesh.PairKey]float64{},
	}
}

// threeNodeSnapshot adds clients (one double-associated) and a failed node.
func threeNodeSnapshot() *mesh.Snapshot {
	snap := twoNodeSnapshot()
	snap.Nodes = append(snap.Nodes, "ap-c")

	a, b := snap.Reports[0], snap.Reports[1]
	a.Clients = []mesh.ClientObservation{
		{MAC: laptop, Signal: mesh.NewSignal(-60)},
		{MAC: phone, Signal: mesh.NewSignal(-48)},
	}
	a.Neighbors = map[string]string{laptop: laptopIP}
	b.Clients = []mesh.ClientObservation{
		{MAC: laptop, Signal: mesh.NewSignal(-75)},
		{MAC: printer, Signal: mesh.NewSignal(-66)},
		{MAC: macA, Signal: mesh.NewSignal(-40)}, // a mesh node, not a client
	}
	snap.Hostnames[laptopIP] = "laptop"

	snap.Reports = append(snap.Reports, &mesh.NodeReport{
		Node:      "ap-c",
		Address:   "192.168.1.3",
		LocalMACs: []string{macC},
		Err:       errors.New("no route to host"),
	})
	// ap-c was seen by ap-b, but it failed so there's nothing to resolve it to
	b.Peers = append(b.Peers, mesh.PeerObservation{PeerMAC: macC, Signal: mesh.NewSignal(-80)})
	return snap
}

func TestBuild_NodeAndEdgeCounts(t *testing.T) {
	g, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	// 3 configured nodes + 3 distinct client MACs
	assert.Equal(t, 6, g.Len())
	assert.Len(t, g.NodesOf(KindMesh), 3)
	assert.Len(t, g.NodesOf(KindClient), 3)

	// 1 mesh pair + 4 client associations
	assert.Len(t, g.EdgesOf(KindMesh), 1)
	assert.Len(t, g.EdgesOf(KindClient), 4)
	assert.Equal(t, 5, g.Undirected().Edges().Len())
	assert.Equal(t, 6, g.Undirected().Nodes().Len())
}

func TestBuild_MeshLinkLabel(t *testing.T) {
	g, err := Build(twoNodeSnapshot())
	require.NoError(t, err)

	links := g.EdgesOf(KindMesh)
	require.Len(t, links, 1)

	label := links[0].Label()
	assert.Equal(t, "-55 dBm (90%) / 300.00 Mbit/s / 2.00 ms", label)
	assert.Contains(t, label, "-55")
	assert.Contains(t, label, "300")
	assert.Contains(t, label, "2.00 ms")
	assert.Equal(t, "dashed", links[0].Style())
}

func TestBuild_ReverseDirectionFillsGaps(t *testing.T) {
	snap := twoNodeSnapshot()
	a := snap.Reports[0]
	a.Peers[0].Signal = mesh.Signal{}
	a.Peers[0].Throughput = 0
	a.Peers[0].ThroughputSource = mesh.ThroughputNone
	a.Latency = nil

	g, err := Build(snap)
	require.NoError(t, err)

	e := g.EdgesOf(KindMesh)[0]
	assert.Equal(t, mesh.NewSignal(-60), e.Signal)
	assert.InDelta(t, 250.0, e.Throughput, 0.001)
	assert.Equal(t, mesh.ThroughputBitrate, e.ThroughputSource)
	assert.InDelta(t, 9.0, e.Latency, 0.001)
}

func TestBuild_Iperf3Overrides(t *testing.T) {
	snap := twoNodeSnapshot()
	snap.Throughput[mesh.NewPairKey("ap-b", "ap-a")] = 123.456

	g, err := Build(snap)
	require.NoError(t, err)

	e := g.EdgesOf(KindMesh)[0]
	assert.Equal(t, mesh.ThroughputIperf3, e.ThroughputSource)
	assert.Contains(t, e.Label(), "123.46 Mbit/s")
}

func TestBuild_DoubleAssociation(t *testing.T) {
	g, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	var laptopLinks []*Edge
	for _, e := range g.EdgesOf(KindClient) {
		if e.F.MAC == laptop {
			laptopLinks = append(laptopLinks, e)
		}
	}
	require.Len(t, laptopLinks, 2, "a client seen on two nodes keeps both links")
	assert.Equal(t, "ap-a", laptopLinks[0].T.Name)
	assert.Equal(t, "ap-b", laptopLinks[1].T.Name)
	assert.Equal(t, "-60 dBm (80%)", laptopLinks[0].Label())
	assert.Equal(t, "-75 dBm (50%)", laptopLinks[1].Label())
	assert.Equal(t, "solid", laptopLinks[0].Style())
}

func TestBuild_FailedNodeKeptWithoutEdges(t *testing.T) {
	g, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	c := g.MeshNode("ap-c")
	require.NotNil(t, c)
	assert.True(t, c.Failed)
	assert.Equal(t, "ap-c\n192.168.1.3\n(unreachable)", c.Label())
	assert.Equal(t, 0, g.Undirected().From(c.ID()).Len())
}

func TestBuild_ClientLabels(t *testing.T) {
	g, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	assert.Equal(t, "laptop\n192.168.1.50\n"+laptop, g.Client(laptop).Label())
	assert.Equal(t, phone, g.Client(phone).Label())
	assert.Nil(t, g.Client(macA), "mesh nodes are never clients")
}

func TestBuild_EveryEdgeEndpointIsANode(t *testing.T) {
	g, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	for _, e := range g.Edges() {
		assert.Same(t, e.F, lookup(g, e.F))
		assert.Same(t, e.T, lookup(g, e.T))
	}
}

func TestBuild_StructurallyIdentical(t *testing.T) {
	g1, err := Build(threeNodeSnapshot())
	require.NoError(t, err)
	g2, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	assert.Equal(t, g1.Attributes(), g2.Attributes())
}

func TestBuild_Ordering(t *testing.T) {
	g, err := Build(threeNodeSnapshot())
	require.NoError(t, err)

	var keys []string
	for _, n := range g.Nodes() {
		keys = append(keys, n.Key())
	}
	assert.Equal(t, []string{"ap-a", "ap-b", "ap-c", laptop, phone, printer}, keys)

	edges := g.Edges()
	assert.Equal(t, KindMesh, edges[0].Kind)
	for _, e := range edges[1:] {
		assert.Equal(t, KindClient, e.Kind)
	}
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(&mesh.Snapshot{})
	require.Error(t, err)
	assert.True(t, mmerrors.IsCode(err, mmerrors.ErrRender))

	_, err = Build(nil)
	assert.True(t, mmerrors.IsCode(err, mmerrors.ErrRender))
}

func TestBuild_OnlyFailedNodes(t *testing.T) {
	snap := &mesh.Snapshot{
		Nodes:   []string{"ap-a"},
		Reports: []*mesh.NodeReport{{Node: "ap-a", Err: errors.New("down")}},
	}
	g, err := Build(snap)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Empty(t, g.Edges())
}

func TestEdgeLabel_Partial(t *testing.T) {
	tests := []struct {
		name string
		edge Edge
		want string
	}{
		{"signal only", Edge{Kind: KindMesh, Signal: mesh.NewSignal(-70)}, "-70 dBm (60%)"},
		{"throughput only", Edge{Kind: KindMesh, Throughput: 54}, "54.00 Mbit/s"},
		{"latency only", Edge{Kind: KindMesh, Latency: 1.234, HasLatency: true}, "1.23 ms"},
		{"nothing", Edge{Kind: KindMesh}, ""},
		{"client unknown signal", Edge{Kind: KindClient}, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.edge.Label())
		})
	}
}

func TestNodeAttributes(t *testing.T) {
	n := &Node{Kind: KindMesh, Name: "ap-a", Address: "192.168.1.1", Failed: true}

	assert.Equal(t, `"ap-a"`, n.DOTID())
	attrs := n.Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, "kind", attrs[0].Key)
	assert.Equal(t, "mesh", attrs[0].Value)
	assert.Equal(t, `"ap-a\n192.168.1.1\n(unreachable)"`, attrs[1].Value)
}

func TestReversedEdge(t *testing.T) {
	a := &Node{id: 0, Kind: KindMesh, Name: "a"}
	b := &Node{id: 1, Kind: KindMesh, Name: "b"}
	e := &Edge{F: a, T: b, Kind: KindMesh, Throughput: 10}

	r := e.ReversedEdge().(*Edge)
	assert.Same(t, b, r.F)
	assert.Same(t, a, r.T)
	assert.InDelta(t, 10.0, r.Throughput, 0.001)
	assert.Same(t, a, e.F, "original is untouched")
}

func lookup(g *Graph, n *Node) *Node {
	if n.Kind == KindMesh {
		return g.MeshNode(n.Name)
	}
	return g.Client(n.MAC)
}

func TestBuild_MeshNameShapedLikeMAC(t *testing.T) {
	snap := &mesh.Snapshot{
		Nodes: []string{laptop},
		Reports: []*mesh.NodeReport{{
			Node:      laptop,
			Address:   "192.168.1.1",
			LocalMACs: []string{macA},
			Clients:   []mesh.ClientObservation{{Interface: "phy0-ap0", MAC: laptop, Signal: mesh.NewSignal(-60)}},
		}},
	}

	g, err := Build(snap)
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	require.NotNil(t, g.MeshNode(laptop))
	require.NotNil(t, g.Client(laptop))
	assert.NotSame(t, g.MeshNode(laptop), g.Client(laptop))
	assert.Len(t, g.EdgesOf(KindClient), 1)
}
