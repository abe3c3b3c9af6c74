package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Polygon is a closed convex regular polygon. Points wind counter-clockwise.
type Polygon struct {
	Points []Point
	Sides  int
}

// Edges returns the polygon edges in winding order; edge i runs from
// Points[i] to Points[i+1].
func (p Polygon) Edges() []Edge {
	edges := make([]Edge, len(p.Points))
	for i, a := range p.Points {
		edges[i] = Edge{A: a, B: p.Points[(i+1)%len(p.Points)]}
	}
	return edges
}

// Centroid returns the average of the corners.
func (p Polygon) Centroid() Point {
	var c Point
	if len(p.Points) == 0 {
		return c
	}
	for _, pt := range p.Points {
		c = c.Add(pt)
	}
	return c.Mul(1 / float64(len(p.Points)))
}

// Bounds returns the bounding rectangle of the polygon.
func (p Polygon) Bounds() r2.Rect {
	return Bounds(p.Points)
}

// HasEdge reports whether e joins two consecutive corners of p.
func (p Polygon) HasEdge(e Edge) bool {
	for _, pe := range p.Edges() {
		if pe.Equal(e) {
			return true
		}
	}
	return false
}

// Overlaps reports whether the interiors of p and other intersect.
// Polygons sharing an edge or a corner do not overlap.
func (p Polygon) Overlaps(other Polygon) bool {
	margin := Point{X: -Tolerance, Y: -Tolerance}
	if !p.Bounds().Expanded(margin).Intersects(other.Bounds().Expanded(margin)) {
		return false
	}
	for _, poly := range []Polygon{p, other} {
		for _, e := range poly.Edges() {
			axis := e.B.Sub(e.A).Ortho().Normalize()
			minA, maxA := project(p.Points, axis)
			minB, maxB := project(other.Points, axis)
			if maxA-minB < Tolerance || maxB-minA < Tolerance {
				return false
			}
		}
	}
	return true
}

func project(points []Point, axis Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, pt := range points {
		d := pt.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
