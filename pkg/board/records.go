package board

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Faultbox/nongrid/pkg/geom"
)

// Record is the wire form of one vertex.
type Record struct {
	Index     int     `json:"index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Player    Colour  `json:"player"`
	Neighbors []int   `json:"neighbors,omitempty"`
}

// SavePoints returns one record per vertex in id order.
func (b *Board) SavePoints() []Record {
	return b.records(b.stones)
}

func (b *Board) records(stones []Colour) []Record {
	out := make([]Record, len(b.points))
	for i, p := range b.points {
		out[i] = Record{
			Index:     i,
			X:         p.X,
			Y:         p.Y,
			Player:    stones[i],
			Neighbors: append([]int(nil), b.neighbors[i]...),
		}
	}
	return out
}

// History returns every recorded position, oldest first.
func (b *Board) History() [][]Record {
	out := make([][]Record, len(b.history))
	for i, s := range b.history {
		out[i] = b.records(s.stones)
	}
	return out
}

// LoadPoints replaces the position with records. A board that already has a
// graph only accepts records matching it; a board built without one takes
// its graph from the records. On error the board is unchanged.
//
// After a load White moves if Black has more stones on the board, otherwise
// Black. The loaded position is appended to the history.
func (b *Board) LoadPoints(records []Record) error {
	if err := b.load(records); err != nil {
		return err
	}
	b.record(false)
	return nil
}

// load replaces the position without recording it.
func (b *Board) load(records []Record) error {
	ordered, err := orderRecords(records)
	if err != nil {
		return err
	}

	rebuild := len(b.points) == 0 && b.mesh == nil
	var (
		points    []geom.Point
		neighbors [][]int
	)
	if rebuild {
		points, neighbors, err = graphFromRecords(ordered)
	} else {
		err = b.matchRecords(ordered)
	}
	if err != nil {
		return err
	}

	stones := make([]Colour, len(ordered))
	for i, r := range ordered {
		stones[i] = r.Player
	}

	if rebuild {
		b.points, b.neighbors = points, neighbors
	}
	b.stones = stones
	b.turn = Black
	if b.Stones(Black) > b.Stones(White) {
		b.turn = White
	}
	b.passes = 0
	return nil
}

// orderRecords checks indices and colours and returns the records sorted
// by index.
func orderRecords(records []Record) ([]Record, error) {
	ordered := make([]Record, len(records))
	filled := make([]bool, len(records))
	for i, r := range records {
		if r.Index < 0 || r.Index >= len(records) {
			return nil, fmt.Errorf("%w: record %d has index %d of %d", ErrMalformedRecord, i, r.Index, len(records))
		}
		if filled[r.Index] {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrMalformedRecord, r.Index)
		}
		if !r.Player.valid() {
			return nil, fmt.Errorf("%w: record %d has unknown colour %d", ErrMalformedRecord, r.Index, int(r.Player))
		}
		filled[r.Index] = true
		ordered[r.Index] = r
	}
	return ordered, nil
}

func (b *Board) matchRecords(records []Record) error {
	if len(records) != len(b.points) {
		return fmt.Errorf("%w: got %d records for %d vertices", ErrMalformedRecord, len(records), len(b.points))
	}
	for i, r := range records {
		if !geom.Equal(b.points[i], geom.Pt(r.X, r.Y)) {
			return fmt.Errorf("%w: vertex %d is at %v, record says (%v, %v)", ErrMalformedRecord, i, b.points[i], r.X, r.Y)
		}
		if r.Neighbors == nil {
			continue
		}
		got := append([]int(nil), r.Neighbors...)
		sort.Ints(got)
		if !sameInts(got, b.neighbors[i]) {
			return fmt.Errorf("%w: vertex %d neighbours %v do not match %v", ErrMalformedRecord, i, r.Neighbors, b.neighbors[i])
		}
	}
	return nil
}

func graphFromRecords(records []Record) ([]geom.Point, [][]int, error) {
	idx := geom.NewIndex()
	points := make([]geom.Point, len(records))
	neighbors := make([][]int, len(records))
	for i, r := range records {
		p := geom.Pt(r.X, r.Y)
		if id, existed := idx.Insert(p); existed {
			return nil, nil, fmt.Errorf("%w: vertices %d and %d share coordinate %v", ErrMalformedRecord, id, i, p)
		}
		points[i] = p

		seen := make(map[int]bool, len(r.Neighbors))
		list := make([]int, 0, len(r.Neighbors))
		for _, n := range r.Neighbors {
			if n < 0 || n >= len(records) || n == i {
				return nil, nil, fmt.Errorf("%w: vertex %d has invalid neighbour %d", ErrMalformedRecord, i, n)
			}
			if seen[n] {
				return nil, nil, fmt.Errorf("%w: vertex %d lists neighbour %d twice", ErrMalformedRecord, i, n)
			}
			seen[n] = true
			list = append(list, n)
		}
		sort.Ints(list)
		neighbors[i] = list
	}

	for i, list := range neighbors {
		for _, n := range list {
			back := neighbors[n]
			if k := sort.SearchInts(back, i); k == len(back) || back[k] != i {
				return nil, nil, fmt.Errorf("%w: vertex %d lists %d but not the other way round", ErrMalformedRecord, i, n)
			}
		}
	}
	return points, neighbors, nil
}

func sameInts(a, b []int) bool {
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

// MarshalRecords encodes records as JSON.
func MarshalRecords(records []Record) ([]byte, error) {
	return json.Marshal(records)
}

// UnmarshalRecords decodes JSON records.
func UnmarshalRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return records, nil
}
