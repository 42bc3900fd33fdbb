package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/meshmap/internal/errors"
	"github.com/rileyhilliard/meshmap/internal/topology"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Colours by kind.
var (
	ColorMeshNode   = color.RGBA{R: 0x87, G: 0xce, B: 0xeb, A: 0xff} // sky blue
	ColorClientNode = color.RGBA{R: 0x90, G: 0xee, B: 0x90, A: 0xff} // light green
	ColorFailedNode = color.RGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff} // light grey
	ColorMeshEdge   = color.RGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}
	ColorClientEdge = color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xff}
)

// Options control the drawn output.
type Options struct {
	Title string

	// Width and Height are lengths like "12in" or "30cm".
	Width  string
	Height string

	Layout LayoutOptions
}

// DefaultOptions match a landscape letter page.
func DefaultOptions() Options {
	return Options{
		Width:  "12in",
		Height: "8in",
		Layout: DefaultLayoutOptions(),
	}
}

// Renderer writes graphs to files.
type Renderer struct {
	opts Options
}

// New creates a renderer with opts. Zero fields fall back to DefaultOptions.
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width == "" {
		opts.Width = def.Width
	}
	if opts.Height == "" {
		opts.Height = def.Height
	}
	if opts.Layout.Updates == 0 {
		opts.Layout = def.Layout
	}
	return &Renderer{opts: opts}
}

// RenderFile writes g to path. The extension selects the format:
// .dot writes Graphviz DOT, anything else gonum/plot supports is drawn.
func (r *Renderer) RenderFile(g *topology.Graph, path string) error {
	if g == nil || g.Len() == 0 {
		return errors.New(errors.ErrRender, "Nothing to draw", "The graph has no nodes.")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrRender,
				fmt.Sprintf("Couldn't create output directory %s", dir), "")
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".dot") {
		f, err := os.Create(path)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrRender,
				fmt.Sprintf("Couldn't create %s", path), "Check the output path is writable.")
		}
		defer f.Close()
		return WriteDOT(f, g)
	}

	p, err := r.Plot(g)
	if err != nil {
		return err
	}

	w, err := vg.ParseLength(r.opts.Width)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			fmt.Sprintf("Invalid output width %q", r.opts.Width), "Use a length like 12in, 30cm or 800pt.")
	}
	h, err := vg.ParseLength(r.opts.Height)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			fmt.Sprintf("Invalid output height %q", r.opts.Height), "Use a length like 8in, 20cm or 600pt.")
	}

	if err := p.Save(w, h, path); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			fmt.Sprintf("Couldn't save %s", path),
			"Supported formats: .png .svg .pdf .jpg .tif .eps .dot")
	}
	return nil
}

// Plot lays out g and returns the drawing without saving it.
func (r *Renderer) Plot(g *topology.Graph) (*plot.Plot, error) {
	pos, err := Layout(g, r.opts.Layout)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = r.opts.Title
	p.HideAxes()
	p.Legend.Top = true

	// Edges first so nodes sit on top of them.
	for _, e := range g.Edges() {
		from, to := pos[e.F.ID()], pos[e.T.ID()]
		line, err := plotter.NewLine(plotter.XYs{{X: from.X, Y: from.Y}, {X: to.X, Y: to.Y}})
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrRender, "Couldn't draw an edge", "")
		}
		line.LineStyle.Width = vg.Points(1.5)
		if e.Kind == topology.KindMesh {
			line.LineStyle.Color = ColorMeshEdge
			line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		} else {
			line.LineStyle.Color = ColorClientEdge
		}
		p.Add(line)
	}

	kinds := []struct {
		name   string
		color  color.Color
		kind   topology.Kind
		failed bool
	}{
		{"mesh node", ColorMeshNode, topology.KindMesh, false},
		{"unreachable", ColorFailedNode, topology.KindMesh, true},
		{"client", ColorClientNode, topology.KindClient, false},
	}
	for _, k := range kinds {
		var xys plotter.XYs
		for _, n := range g.NodesOf(k.kind) {
			if n.Failed == k.failed {
				pt := pos[n.ID()]
				xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
			}
		}
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrRender, "Couldn't draw nodes", "")
		}
		sc.GlyphStyle.Color = k.color
		sc.GlyphStyle.Radius = vg.Points(9)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(k.name, sc)
	}

	nodeLabels, err := r.nodeLabels(g, pos)
	if err != nil {
		return nil, err
	}
	p.Add(nodeLabels)

	if edgeLabels, err := r.edgeLabels(g, pos); err != nil {
		return nil, err
	} else if edgeLabels != nil {
		p.Add(edgeLabels)
	}

	return p, nil
}

func (r *Renderer) nodeLabels(g *topology.Graph, pos Positions) (*plotter.Labels, error) {
	var data plotter.XYLabels
	for _, n := range g.Nodes() {
		pt := pos[n.ID()]
		data.XYs = append(data.XYs, plotter.XY{X: pt.X, Y: pt.Y})
		data.Labels = append(data.Labels, n.Label())
	}

	labels, err := plotter.NewLabels(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRender, "Couldn't draw node labels", "")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(8)
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YTop
	}
	// below the glyph
	labels.Offset = vg.Point{Y: -vg.Points(11)}
	return labels, nil
}

// edgeLabels returns nil when no edge has anything to say.
func (r *Renderer) edgeLabels(g *topology.Graph, pos Positions) (*plotter.Labels, error) {
	var data plotter.XYLabels
	for _, e := range g.Edges() {
		label := e.Label()
		if label == "" {
			continue
		}
		from, to := pos[e.F.ID()], pos[e.T.ID()]
		data.XYs = append(data.XYs, plotter.XY{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2})
		data.Labels = append(data.Labels, label)
	}
	if len(data.Labels) == 0 {
		return nil, nil
	}

	labels, err := plotter.NewLabels(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRender, "Couldn't draw edge labels", "")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(7)
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	return labels, nil
}
