// Package geom provides the planar primitives used to grow polygon tilings.
package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Tolerance is the per-axis distance under which two coordinates are equal.
const Tolerance = 0.01

// Geometry errors.
var (
	ErrUnsupportedSides = errors.New("unsupported polygon side count")
)

// supportedSides lists the regular polygons a tiling can be built from.
var supportedSides = map[int]bool{3: true, 4: true, 6: true, 8: true, 12: true}

// Point is a 2D coordinate.
type Point = r2.Point

// Pt is a convenience constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Equal reports whether p and q coincide within Tolerance on both axes.
// It is not transitive; use Index to pick a canonical representative.
func Equal(p, q Point) bool {
	return math.Abs(p.X-q.X) < Tolerance && math.Abs(p.Y-q.Y) < Tolerance
}

// CCW reports whether p1 -> p2 -> p3 turns counter-clockwise.
func CCW(p1, p2, p3 Point) bool {
	return p2.Sub(p1).Cross(p3.Sub(p1)) > 0
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return p.Sub(q).Norm()
}

// SupportedSides reports whether a regular polygon with n sides can be used.
func SupportedSides(n int) bool {
	return supportedSides[n]
}

// Bounds returns the bounding rectangle of points.
func Bounds(points []Point) r2.Rect {
	if len(points) == 0 {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(points...)
}

func rotate(p Point, angle float64) Point {
	sin, cos := math.Sincos(angle)
	return Point{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}

// Edge is a segment between two points. The direction matters for winding
// but equality ignores it.
type Edge struct {
	A, B Point
}

// Equal reports whether e and other join the same endpoints in either order.
func (e Edge) Equal(other Edge) bool {
	return (Equal(e.A, other.A) && Equal(e.B, other.B)) ||
		(Equal(e.A, other.B) && Equal(e.B, other.A))
}

// Reverse returns the edge walked from B to A.
func (e Edge) Reverse() Edge {
	return Edge{A: e.B, B: e.A}
}

// Length returns the edge length.
func (e Edge) Length() float64 {
	return Distance(e.A, e.B)
}

// Midpoint returns the point halfway between A and B.
func (e Edge) Midpoint() Point {
	return e.A.Add(e.B).Mul(0.5)
}

// String returns the edge as "(ax, ay)->(bx, by)".
func (e Edge) String() string {
	return fmt.Sprintf("(%.2f, %.2f)->(%.2f, %.2f)", e.A.X, e.A.Y, e.B.X, e.B.Y)
}

// RegularPolygonOnEdge builds the regular polygon with the given number of
// sides whose first two corners are e.A and e.B. The polygon lies to the
// left of A->B, so its corners wind counter-clockwise.
func RegularPolygonOnEdge(e Edge, sides int) (Polygon, error) {
	if !SupportedSides(sides) {
		return Polygon{}, fmt.Errorf("%w: %d", ErrUnsupportedSides, sides)
	}

	step := 2 * math.Pi / float64(sides)
	dir := e.B.Sub(e.A)
	points := make([]Point, sides)
	points[0] = e.A
	points[1] = e.B
	for i := 2; i < sides; i++ {
		dir = rotate(dir, step)
		points[i] = points[i-1].Add(dir)
	}
	return Polygon{Points: points, Sides: sides}, nil
}
