// Package render lays out a topology graph and writes it as an image or
// as Graphviz DOT.
package render

import (
	"math"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/topology"
	"gonum.org/v1/gonum/graph/layout"
)

// Point is a node position in the unit square.
type Point struct {
	X, Y float64
}

// Positions maps node IDs to their laid-out coordinates.
type Positions map[int64]Point

// LayoutOptions tunes the Eades spring embedder.
type LayoutOptions struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
}

// DefaultLayoutOptions work well for a handful of routers and a few dozen clients.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Updates:   100,
		Repulsion: 1,
		Rate:      0.05,
		Theta:     0.2,
	}
}

// Layout computes a force-directed layout for g. Coordinates are scaled
// into [0, 1] on both axes. Results vary between runs.
func Layout(g *topology.Graph, opts LayoutOptions) (Positions, error) {
	if g == nil || g.Len() == 0 {
		return nil, errors.New(errors.ErrRender, "Nothing to draw", "The graph has no nodes.")
	}

	eades := layout.EadesR2{
		Updates:   opts.Updates,
		Repulsion: opts.Repulsion,
		Rate:      opts.Rate,
		Theta:     opts.Theta,
	}
	o := layout.NewOptimizerR2(g.Undirected(), eades.Update)
	for o.Update() {
	}

	pos := make(Positions, g.Len())
	for _, n := range g.Nodes() {
		v := o.Coord2(n.ID())
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return nil, errors.New(errors.ErrRender,
				"Layout failed",
				"The force-directed layout diverged. Try again.")
		}
		pos[n.ID()] = Point{X: v.X, Y: v.Y}
	}

	normalize(pos)
	return pos, nil
}

// normalize scales positions into the unit square in place. A degenerate
// axis (a single node, or all nodes in a line) is centred.
func normalize(pos Positions) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	scale := func(v, lo, hi float64) float64 {
		if hi-lo < 1e-9 {
			return 0.5
		}
		return (v - lo) / (hi - lo)
	}

	for id, p := range pos {
		pos[id] = Point{X: scale(p.X, minX, maxX), Y: scale(p.Y, minY, maxY)}
	}
}
