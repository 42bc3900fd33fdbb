package render

import (
	"io"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/topology"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// WriteDOT encodes g as an undirected Graphviz graph. Node and edge kinds,
// labels and styles are carried as attributes.
func WriteDOT(w io.Writer, g *topology.Graph) error {
	if g == nil || g.Len() == 0 {
		return errors.New(errors.ErrRender, "Nothing to draw", "The graph has no nodes.")
	}

	b, err := dot.Marshal(g.Undirected(), "meshmap", "", "  ")
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRender, "Couldn't encode the graph as DOT", "")
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender, "Couldn't write DOT output", "")
	}
	return nil
}
