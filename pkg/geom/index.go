package geom

import "math"

type cell struct {
	x, y int64
}

// Index deduplicates points by tolerance equality. Points are bucketed on a
// grid of Tolerance-sized cells, so a lookup only inspects the 3x3 cells
// around the query. The first point inserted for a location stays its
// canonical representative.
type Index struct {
	points  []Point
	buckets map[cell][]int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{buckets: make(map[cell][]int)}
}

// Len returns the number of distinct points.
func (idx *Index) Len() int {
	return len(idx.points)
}

// Point returns the canonical point with the given id.
func (idx *Index) Point(id int) Point {
	return idx.points[id]
}

// Points returns a copy of all canonical points in insertion order.
func (idx *Index) Points() []Point {
	out := make([]Point, len(idx.points))
	copy(out, idx.points)
	return out
}

// Find returns the id of the canonical point equal to p.
// When several candidates match, the oldest wins.
func (idx *Index) Find(p Point) (int, bool) {
	c := cellOf(p)
	best := -1
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range idx.buckets[cell{c.x + dx, c.y + dy}] {
				if Equal(idx.points[id], p) && (best < 0 || id < best) {
					best = id
				}
			}
		}
	}
	return best, best >= 0
}

// Insert returns the id of the point equal to p, adding p when none exists.
func (idx *Index) Insert(p Point) (id int, existed bool) {
	if id, ok := idx.Find(p); ok {
		return id, true
	}
	id = len(idx.points)
	idx.points = append(idx.points, p)
	c := cellOf(p)
	idx.buckets[c] = append(idx.buckets[c], id)
	return id, false
}

func cellOf(p Point) cell {
	return cell{
		x: int64(math.Floor(p.X / Tolerance)),
		y: int64(math.Floor(p.Y / Tolerance)),
	}
}
