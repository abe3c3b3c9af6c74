// Package render draws a board preview with gogpu/gg.
package render

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/nongrid/pkg/board"
	"github.com/Faultbox/nongrid/pkg/geom"
)

// Format is an output image encoding.
type Format int

const (
	PNG Format = iota
	BMP
)

// FormatFromPath picks the encoding from a file extension; anything that is
// not .bmp is PNG.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		return BMP
	}
	return PNG
}

// Options controls the image size and spacing.
type Options struct {
	Width       int
	Height      int
	Margin      float64
	StoneRadius float64 // zero picks a third of the shortest edge
}

var (
	background = gg.RGB(0.86, 0.70, 0.45)
	lineColour = gg.RGB(0.25, 0.18, 0.10)
	frontier   = gg.RGB(0.75, 0.15, 0.10)
)

// tileColours tints tiles by side count.
var tileColours = map[int]gg.RGBA{
	3:  gg.RGB(0.90, 0.76, 0.52),
	4:  gg.RGB(0.88, 0.73, 0.48),
	6:  gg.RGB(0.92, 0.79, 0.56),
	8:  gg.RGB(0.86, 0.71, 0.46),
	12: gg.RGB(0.84, 0.68, 0.42),
}

// view maps board coordinates into the image.
type view struct {
	scale  float64
	dx, dy float64
}

func (v view) at(p geom.Point) (float64, float64) {
	return p.X*v.scale + v.dx, p.Y*v.scale + v.dy
}

func fit(b *board.Board, opts Options, radius float64) view {
	verts := b.Vertices()
	points := make([]geom.Point, len(verts))
	for i, vx := range verts {
		points[i] = vx.Point
	}
	r := geom.Bounds(points)
	size := r.Size()

	pad := opts.Margin + radius
	availW := float64(opts.Width) - 2*pad
	availH := float64(opts.Height) - 2*pad
	scale := 1.0
	if size.X > 0 && size.Y > 0 {
		scale = math.Min(availW/size.X, availH/size.Y)
	} else if size.X > 0 {
		scale = availW / size.X
	} else if size.Y > 0 {
		scale = availH / size.Y
	}
	if scale <= 0 {
		scale = 1
	}

	c := r.Center()
	return view{
		scale: scale,
		dx:    float64(opts.Width)/2 - c.X*scale,
		dy:    float64(opts.Height)/2 - c.Y*scale,
	}
}

// shortestEdge returns the shortest distance between neighbours, or 0 for
// a board without edges.
func shortestEdge(b *board.Board) float64 {
	shortest := math.Inf(1)
	verts := b.Vertices()
	for _, v := range verts {
		for _, n := range v.Neighbors {
			if n > v.ID {
				shortest = math.Min(shortest, geom.Distance(v.Point, verts[n].Point))
			}
		}
	}
	if math.IsInf(shortest, 1) {
		return 0
	}
	return shortest
}

// Draw paints tiles, open frontier edges and stones onto a new context.
// The caller closes the context.
func Draw(b *board.Board, opts Options) (*gg.Context, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("render: invalid image size %dx%d", opts.Width, opts.Height)
	}

	edge := shortestEdge(b)
	radius := opts.StoneRadius
	if radius <= 0 {
		radius = edge / 3
	}
	if radius <= 0 {
		radius = 6
	}
	// radius is in board units until scaled below
	v := fit(b, opts, 0)
	if edge > 0 {
		v = fit(b, opts, radius*v.scale)
	}
	px := radius * v.scale

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(background)

	for _, poly := range b.Polygons() {
		col, ok := tileColours[poly.Sides]
		if !ok {
			col = background
		}
		tracePolygon(dc, v, poly)
		dc.SetColor(col.Color())
		if err := dc.FillPreserve(); err != nil {
			dc.Close()
			return nil, err
		}
		dc.SetColor(lineColour.Color())
		dc.SetLineWidth(1)
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, err
		}
	}

	// Boards loaded from records have no tiles; draw the graph edges.
	if len(b.Polygons()) == 0 {
		dc.SetColor(lineColour.Color())
		dc.SetLineWidth(1)
		verts := b.Vertices()
		for _, vx := range verts {
			for _, n := range vx.Neighbors {
				if n < vx.ID {
					continue
				}
				x1, y1 := v.at(vx.Point)
				x2, y2 := v.at(verts[n].Point)
				dc.DrawLine(x1, y1, x2, y2)
			}
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, err
		}
	}

	if open := b.Frontier(); len(open) > 0 {
		dc.SetColor(frontier.Color())
		dc.SetLineWidth(2)
		dc.SetDash(4, 3)
		for _, fe := range open {
			x1, y1 := v.at(fe.Edge.A)
			x2, y2 := v.at(fe.Edge.B)
			dc.DrawLine(x1, y1, x2, y2)
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, err
		}
		dc.ClearDash()
	}

	for _, vx := range b.Vertices() {
		x, y := v.at(vx.Point)
		switch vx.Colour {
		case board.Black:
			if err := disc(dc, x, y, px, gg.RGB(0.08, 0.08, 0.08)); err != nil {
				dc.Close()
				return nil, err
			}
		case board.White:
			if err := disc(dc, x, y, px, gg.RGB(0.97, 0.97, 0.95)); err != nil {
				dc.Close()
				return nil, err
			}
		default:
			dc.DrawCircle(x, y, math.Max(1.5, px/5))
			dc.SetColor(lineColour.Color())
			if err := dc.Fill(); err != nil {
				dc.Close()
				return nil, err
			}
		}
	}

	return dc, nil
}

func tracePolygon(dc *gg.Context, v view, poly geom.Polygon) {
	for i, p := range poly.Points {
		x, y := v.at(p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func disc(dc *gg.Context, x, y, r float64, fill gg.RGBA) error {
	dc.DrawCircle(x, y, r)
	dc.SetColor(fill.Color())
	if err := dc.FillPreserve(); err != nil {
		return err
	}
	dc.SetColor(lineColour.Color())
	dc.SetLineWidth(1)
	return dc.Stroke()
}

// Encode draws b and writes it to w.
func Encode(w io.Writer, b *board.Board, opts Options, format Format) error {
	dc, err := Draw(b, opts)
	if err != nil {
		return err
	}
	defer dc.Close()

	if format == BMP {
		return bmp.Encode(w, dc.Image())
	}
	return dc.EncodePNG(w)
}
