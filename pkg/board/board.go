// Package board plays Go on the vertex graph of a polygon tiling: stone
// placement, groups and liberties, capture, scoring and the record format
// used to persist and sync positions.
package board

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/nongrid/pkg/geom"
	"github.com/Faultbox/nongrid/pkg/tiling"
)

var (
	// ErrIllegalMove is the parent of every rejected placement.
	ErrIllegalMove = errors.New("illegal move")
	// ErrOccupied error occurs when placing on a vertex that holds a stone
	ErrOccupied = fmt.Errorf("%w: the vertex is occupied", ErrIllegalMove)
	// ErrSuicide error occurs when a placement captures nothing and leaves
	// its own group without liberties
	ErrSuicide = fmt.Errorf("%w: self-capture", ErrIllegalMove)
	// ErrColour error occurs when placing something other than black or white
	ErrColour = fmt.Errorf("%w: only black and white stones allowed", ErrIllegalMove)
	// ErrPosition error occurs when the vertex does not exist
	ErrPosition = fmt.Errorf("%w: vertex is out of range", ErrIllegalMove)
	// ErrMalformedRecord error occurs when serialized vertices do not
	// describe a consistent board
	ErrMalformedRecord = errors.New("malformed board record")
)

// Vertex is a read-only view of one playable point.
type Vertex struct {
	ID        int
	Point     geom.Point
	Colour    Colour
	Neighbors []int
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger used for move diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

type snapshot struct {
	stones []Colour
	pass   bool
}

// Board is a game position on a fixed vertex graph. The graph is shared
// between clones and never modified once built.
// A Board is not safe for concurrent use.
type Board struct {
	points    []geom.Point
	neighbors [][]int
	mesh      *tiling.Mesh

	stones  []Colour
	turn    Colour
	passes  int
	moves   int
	history []snapshot

	log *zap.Logger
}

func newBoard(opts []Option) *Board {
	b := &Board{turn: Black, log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New freezes mesh and builds an empty board on its vertices.
func New(mesh *tiling.Mesh, opts ...Option) (*Board, error) {
	if mesh == nil || mesh.VertexCount() == 0 {
		return nil, fmt.Errorf("%w: mesh has no vertices", tiling.ErrConfiguration)
	}
	mesh.InitNeighbors()

	b := newBoard(opts)
	b.mesh = mesh
	vertices := mesh.Vertices()
	b.points = make([]geom.Point, len(vertices))
	b.neighbors = make([][]int, len(vertices))
	for i, v := range vertices {
		b.points[i] = v.Point
		b.neighbors[i] = v.Neighbors
	}
	b.stones = make([]Colour, len(vertices))
	return b, nil
}

// FromRecords builds a board without a mesh, taking the graph and the
// position from records. Like New it starts with an empty history.
func FromRecords(records []Record, opts ...Option) (*Board, error) {
	b := newBoard(opts)
	if err := b.load(records); err != nil {
		return nil, err
	}
	return b, nil
}

// NewGrid builds a traditional n x n board with the given line spacing.
func NewGrid(n int, spacing float64, opts ...Option) (*Board, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: grid size %d", tiling.ErrConfiguration, n)
	}
	at := func(r, c int) int { return r*n + c }

	records := make([]Record, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			var ns []int
			if r > 0 {
				ns = append(ns, at(r-1, c))
			}
			if c > 0 {
				ns = append(ns, at(r, c-1))
			}
			if c < n-1 {
				ns = append(ns, at(r, c+1))
			}
			if r < n-1 {
				ns = append(ns, at(r+1, c))
			}
			records = append(records, Record{
				Index:     at(r, c),
				X:         float64(c) * spacing,
				Y:         float64(r) * spacing,
				Neighbors: ns,
			})
		}
	}
	return FromRecords(records, opts...)
}

// Len returns the number of vertices.
func (b *Board) Len() int {
	return len(b.points)
}

// At returns the colour on vertex v, or Empty for an unknown vertex.
func (b *Board) At(v int) Colour {
	if v < 0 || v >= len(b.stones) {
		return Empty
	}
	return b.stones[v]
}

// Neighbors returns the ids adjacent to v.
func (b *Board) Neighbors(v int) []int {
	if v < 0 || v >= len(b.neighbors) {
		return nil
	}
	return append([]int(nil), b.neighbors[v]...)
}

// Vertices returns a view of every vertex in id order.
func (b *Board) Vertices() []Vertex {
	out := make([]Vertex, len(b.points))
	for i, p := range b.points {
		out[i] = Vertex{
			ID:        i,
			Point:     p,
			Colour:    b.stones[i],
			Neighbors: append([]int(nil), b.neighbors[i]...),
		}
	}
	return out
}

// Mesh returns the tiling the board was built from, or nil for boards
// loaded from records.
func (b *Board) Mesh() *tiling.Mesh {
	return b.mesh
}

// Polygons returns the tiles to draw. Boards without a mesh have none.
func (b *Board) Polygons() []geom.Polygon {
	if b.mesh == nil {
		return nil
	}
	return b.mesh.Polygons()
}

// Frontier returns the open edges left by the generator.
func (b *Board) Frontier() []tiling.FrontierEdge {
	if b.mesh == nil {
		return nil
	}
	return b.mesh.Frontier()
}

// CurrentPlayer returns the colour to move.
func (b *Board) CurrentPlayer() Colour {
	return b.turn
}

// SetTurn hands the move to c, for hosts that track the turn themselves.
func (b *Board) SetTurn(c Colour) error {
	if !c.IsPlayer() {
		return fmt.Errorf("%w: %v cannot move", ErrColour, c)
	}
	b.turn = c
	return nil
}

// Moves returns the number of accepted placements and passes.
func (b *Board) Moves() int {
	return b.moves
}

// Stones returns how many stones of colour c are on the board.
func (b *Board) Stones(c Colour) int {
	n := 0
	for _, s := range b.stones {
		if s == c {
			n++
		}
	}
	return n
}

// NearestVertex returns the vertex closest to q within maxRadius. Ties go to
// the lower id.
func (b *Board) NearestVertex(q geom.Point, maxRadius float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range b.points {
		d := geom.Distance(p, q)
		if d <= maxRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// Clone returns an independent copy of the position sharing the graph.
func (b *Board) Clone() *Board {
	c := *b
	c.stones = append([]Colour(nil), b.stones...)
	c.history = append([]snapshot(nil), b.history...)
	return &c
}

// Equal reports whether both boards hold the same stones with the same
// player to move.
func (b *Board) Equal(other *Board) bool {
	return b.turn == other.turn && sameStones(b.stones, other.stones)
}

// logger returns the board logger; a zero Board logs nothing.
func (b *Board) logger() *zap.Logger {
	if b.log == nil {
		return zap.NewNop()
	}
	return b.log
}

func sameStones(a, b []Colour) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
