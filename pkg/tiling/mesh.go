// Package tiling grows planar meshes of regular polygons round by round from
// fill commands and derives their vertex adjacency.
package tiling

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/nongrid/pkg/geom"
)

// Tiling errors.
var (
	// ErrConfiguration is returned for unsupported side counts, malformed
	// commands and invalid mesh options.
	ErrConfiguration = errors.New("tiling configuration error")
	// ErrFrozen is returned when growing a mesh after InitNeighbors.
	ErrFrozen = fmt.Errorf("%w: mesh is frozen", ErrConfiguration)
	// ErrGeometryInconsistency signals a frontier edge that does not bound
	// exactly one polygon. The mesh is unusable afterwards.
	ErrGeometryInconsistency = errors.New("geometry inconsistency")
)

// DefaultEdgeLength is the side length of every polygon unless overridden.
const DefaultEdgeLength = 40.0

const minEdgeLength = 10 * geom.Tolerance

// State is the lifecycle stage of a mesh.
type State int

// Mesh states.
const (
	Empty   State = iota // only the seed edge exists
	Growing              // at least one polygon attached
	Stable               // adjacency derived, no more growth
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Growing:
		return "Growing"
	case Stable:
		return "Stable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Vertex is a mesh corner shared by every polygon touching it.
type Vertex struct {
	ID        int
	Point     geom.Point
	Neighbors []int
}

// FrontierEdge is an open edge a polygon may still be attached to.
// Edge runs in the owning polygon's counter-clockwise order. Polygon is the
// owner index, or -1 for the seed edge of an empty mesh.
type FrontierEdge struct {
	Edge    geom.Edge
	Polygon int
}

type edgeKey struct {
	a, b int
}

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type options struct {
	origin     geom.Point
	edgeLength float64
	log        *zap.Logger
}

// Option configures a Mesh.
type Option func(*options)

// WithSeed sets the start of the seed edge and the polygon side length.
// The seed edge runs along the x axis from origin.
func WithSeed(origin geom.Point, edgeLength float64) Option {
	return func(o *options) {
		o.origin = origin
		o.edgeLength = edgeLength
	}
}

// WithLogger sets the logger used for growth diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Mesh is a growing tiling: a shared vertex pool, the polygons referencing
// it and the ordered frontier of open edges.
// A Mesh is not safe for concurrent use.
type Mesh struct {
	index     *geom.Index
	polygons  [][]int
	shapes    []geom.Polygon
	edgeCount map[edgeKey]int
	frontier  []FrontierEdge
	boundary  []geom.Edge
	neighbors [][]int
	round     int
	state     State
	broken    error
	log       *zap.Logger
}

// New creates an empty mesh holding only its seed edge.
func New(opts ...Option) (*Mesh, error) {
	o := options{edgeLength: DefaultEdgeLength, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.edgeLength >= minEdgeLength) {
		return nil, fmt.Errorf("%w: edge length %v is below %v", ErrConfiguration, o.edgeLength, minEdgeLength)
	}

	// The first polygon is built on the reversed seed, i.e. above the x axis.
	seed := geom.Edge{A: o.origin.Add(geom.Pt(o.edgeLength, 0)), B: o.origin}
	return &Mesh{
		index:     geom.NewIndex(),
		edgeCount: make(map[edgeKey]int),
		frontier:  []FrontierEdge{{Edge: seed, Polygon: -1}},
		log:       o.log,
	}, nil
}

// Loop advances the mesh by one round. The command for the i-th frontier
// edge is commands[i mod len(commands)]. On a configuration error the mesh
// is left untouched.
func (m *Mesh) Loop(mode Mode, commands []Command) error {
	if m.broken != nil {
		return m.broken
	}
	if m.state == Stable {
		return ErrFrozen
	}
	if mode != Fill && mode != Place {
		return fmt.Errorf("%w: unknown round mode %d", ErrConfiguration, int(mode))
	}
	if len(commands) == 0 {
		return fmt.Errorf("%w: empty fill command list", ErrConfiguration)
	}
	for i, cmd := range commands {
		if err := cmd.Validate(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}

	commandAt := func(i int) Command {
		return commands[i%len(commands)]
	}

	current := m.frontier
	next := make([]FrontierEdge, 0, len(current))
	placed := false
	attached := 0

	for i, fe := range current {
		// A polygon attached earlier this round may have covered the edge.
		if m.bounds(fe.Edge) >= 2 {
			continue
		}

		cmd := commandAt(i)
		if mode == Place && cmd.Kind == Attach && placed {
			cmd = SkipCmd
		}

		switch cmd.Kind {
		case Skip:
			next = append(next, fe)
		case Close:
			m.boundary = append(m.boundary, fe.Edge)
		case Attach:
			edges, ok := m.attach(fe, cmd.Sides)
			if !ok {
				next = append(next, fe)
				continue
			}
			placed = true
			attached++
			next = append(next, edges...)
		}
	}

	frontier := make([]FrontierEdge, 0, len(next))
	for _, fe := range next {
		if m.bounds(fe.Edge) < 2 {
			frontier = append(frontier, fe)
		}
	}
	m.frontier = frontier
	m.round++

	if err := m.checkFrontier(); err != nil {
		m.broken = err
		m.log.Error("tiling corrupted", zap.Int("round", m.round), zap.Error(err))
		return err
	}

	m.log.Debug("tiling round",
		zap.Int("round", m.round),
		zap.Stringer("mode", mode),
		zap.Int("attached", attached),
		zap.Int("frontier", len(m.frontier)),
		zap.Int("vertices", m.index.Len()),
		zap.Int("polygons", len(m.polygons)),
	)
	return nil
}

// attach builds a polygon on the far side of fe and returns its new
// frontier edges. It refuses polygons overlapping the mesh.
func (m *Mesh) attach(fe FrontierEdge, sides int) ([]FrontierEdge, bool) {
	poly, err := geom.RegularPolygonOnEdge(fe.Edge.Reverse(), sides)
	if err != nil {
		return nil, false
	}

	for i, other := range m.shapes {
		if poly.Overlaps(other) {
			m.log.Debug("attach refused: overlap",
				zap.Stringer("edge", fe.Edge),
				zap.Int("sides", sides),
				zap.Int("polygon", i),
			)
			return nil, false
		}
	}

	// Two corners resolving to one vertex would collapse the polygon.
	seen := make(map[int]bool, sides)
	for _, p := range poly.Points {
		if id, ok := m.index.Find(p); ok {
			if seen[id] {
				m.log.Debug("attach refused: degenerate corners", zap.Stringer("edge", fe.Edge))
				return nil, false
			}
			seen[id] = true
		}
	}

	ids := make([]int, sides)
	points := make([]geom.Point, sides)
	merged := 0
	for k, p := range poly.Points {
		id, existed := m.index.Insert(p)
		if existed {
			merged++
		}
		ids[k] = id
		points[k] = m.index.Point(id)
	}

	owner := len(m.polygons)
	m.polygons = append(m.polygons, ids)
	m.shapes = append(m.shapes, geom.Polygon{Points: points, Sides: sides})
	for k := range ids {
		m.edgeCount[keyOf(ids[k], ids[(k+1)%sides])]++
	}
	if m.state == Empty {
		m.state = Growing
	}

	// Edge 0 is the consumed frontier edge, except for the seed which
	// bounds nothing on its other side yet.
	start := 1
	if fe.Polygon < 0 {
		start = 0
	}
	var out []FrontierEdge
	for k := start; k < sides; k++ {
		a, b := ids[k], ids[(k+1)%sides]
		if m.edgeCount[keyOf(a, b)] == 1 {
			out = append(out, FrontierEdge{
				Edge:    geom.Edge{A: points[k], B: points[(k+1)%sides]},
				Polygon: owner,
			})
		}
	}

	m.log.Debug("polygon attached",
		zap.Int("polygon", owner),
		zap.Int("sides", sides),
		zap.Int("merged", merged),
	)
	return out, true
}

// bounds returns how many polygons e bounds.
func (m *Mesh) bounds(e geom.Edge) int {
	a, ok := m.index.Find(e.A)
	if !ok {
		return 0
	}
	b, ok := m.index.Find(e.B)
	if !ok {
		return 0
	}
	return m.edgeCount[keyOf(a, b)]
}

func (m *Mesh) checkFrontier() error {
	for i, fe := range m.frontier {
		if fe.Polygon < 0 {
			if len(m.polygons) > 0 {
				return fmt.Errorf("%w: seed edge %s still open in a non-empty mesh", ErrGeometryInconsistency, fe.Edge)
			}
			continue
		}
		if n := m.bounds(fe.Edge); n != 1 {
			return fmt.Errorf("%w: frontier edge %d %s bounds %d polygons", ErrGeometryInconsistency, i, fe.Edge, n)
		}
		if fe.Polygon >= len(m.shapes) || !m.shapes[fe.Polygon].HasEdge(fe.Edge) {
			return fmt.Errorf("%w: frontier edge %d %s is not an edge of polygon %d", ErrGeometryInconsistency, i, fe.Edge, fe.Polygon)
		}
	}
	return nil
}

// InitNeighbors derives the symmetric vertex adjacency from consecutive
// polygon corners and freezes the mesh. Calling it again rebuilds the same
// adjacency.
func (m *Mesh) InitNeighbors() {
	sets := make([]map[int]bool, m.index.Len())
	for i := range sets {
		sets[i] = make(map[int]bool)
	}
	for _, ids := range m.polygons {
		for k := range ids {
			a, b := ids[k], ids[(k+1)%len(ids)]
			sets[a][b] = true
			sets[b][a] = true
		}
	}

	m.neighbors = make([][]int, len(sets))
	for i, set := range sets {
		list := make([]int, 0, len(set))
		for n := range set {
			list = append(list, n)
		}
		sort.Ints(list)
		m.neighbors[i] = list
	}
	m.state = Stable
}

// State returns the lifecycle stage.
func (m *Mesh) State() State {
	return m.state
}

// Round returns the number of completed rounds.
func (m *Mesh) Round() int {
	return m.round
}

// VertexCount returns the number of distinct vertices.
func (m *Mesh) VertexCount() int {
	return m.index.Len()
}

// Vertices returns a copy of the vertex pool. Neighbor lists are empty until
// InitNeighbors runs.
func (m *Mesh) Vertices() []Vertex {
	out := make([]Vertex, m.index.Len())
	for i := range out {
		out[i] = Vertex{ID: i, Point: m.index.Point(i)}
		if i < len(m.neighbors) {
			out[i].Neighbors = append([]int(nil), m.neighbors[i]...)
		}
	}
	return out
}

// Polygons returns the polygon geometry in attach order.
func (m *Mesh) Polygons() []geom.Polygon {
	out := make([]geom.Polygon, len(m.shapes))
	for i, s := range m.shapes {
		out[i] = geom.Polygon{Points: append([]geom.Point(nil), s.Points...), Sides: s.Sides}
	}
	return out
}

// PolygonVertices returns, for each polygon, the ids of its corners.
func (m *Mesh) PolygonVertices() [][]int {
	out := make([][]int, len(m.polygons))
	for i, ids := range m.polygons {
		out[i] = append([]int(nil), ids...)
	}
	return out
}

// Frontier returns the open edges in positional order.
func (m *Mesh) Frontier() []FrontierEdge {
	return append([]FrontierEdge(nil), m.frontier...)
}

// Boundary returns the closed edges that still bound a single polygon.
func (m *Mesh) Boundary() []geom.Edge {
	var out []geom.Edge
	for _, e := range m.boundary {
		if m.bounds(e) < 2 {
			out = append(out, e)
		}
	}
	return out
}
