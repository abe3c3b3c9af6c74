package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/nongrid/pkg/geom"
	"github.com/Faultbox/nongrid/pkg/tiling"
)

// squaresBoard builds four squares sharing the vertex (40, 0).
func squaresBoard(t *testing.T) *Board {
	t.Helper()
	m, err := tiling.New()
	if err != nil {
		t.Fatalf("tiling.New() error: %v", err)
	}
	if err := m.Loop(tiling.Fill, tiling.MustParseCommands("4")); err != nil {
		t.Fatalf("Loop() error: %v", err)
	}
	for _, e := range []geom.Edge{
		{A: geom.Pt(0, 0), B: geom.Pt(40, 0)},
		{A: geom.Pt(40, 0), B: geom.Pt(40, 40)},
		{A: geom.Pt(40, -40), B: geom.Pt(40, 0)},
	} {
		frontier := m.Frontier()
		cmds := make([]tiling.Command, len(frontier))
		for i, fe := range frontier {
			cmds[i] = tiling.SkipCmd
			if fe.Edge.Equal(e) {
				cmds[i] = tiling.AttachCmd(4)
			}
		}
		if err := m.Loop(tiling.Fill, cmds); err != nil {
			t.Fatalf("Loop() error: %v", err)
		}
	}

	b, err := New(m, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return b
}

func vertexNear(t *testing.T, b *Board, x, y float64) int {
	t.Helper()
	v, ok := b.NearestVertex(geom.Pt(x, y), 1)
	if !ok {
		t.Fatalf("no vertex near (%v, %v)", x, y)
	}
	return v
}

func grid(t *testing.T, n int) *Board {
	t.Helper()
	b, err := NewGrid(n, 40, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("NewGrid() error: %v", err)
	}
	return b
}

func place(t *testing.T, b *Board, c Colour, vertices ...int) {
	t.Helper()
	for _, v := range vertices {
		if _, err := b.PlaceStone(v, c); err != nil {
			t.Fatalf("PlaceStone(%d, %v) error: %v", v, c, err)
		}
	}
}

func TestNewFromMesh(t *testing.T) {
	b := squaresBoard(t)
	if b.Len() != 9 {
		t.Fatalf("expected 9 vertices, got %d", b.Len())
	}
	if b.Mesh().State() != tiling.Stable {
		t.Errorf("expected the mesh to be frozen")
	}
	if len(b.Polygons()) != 4 {
		t.Errorf("expected 4 polygons, got %d", len(b.Polygons()))
	}
	if len(b.Frontier()) != 8 {
		t.Errorf("expected 8 frontier edges, got %d", len(b.Frontier()))
	}
	centre := vertexNear(t, b, 40, 0)
	if n := len(b.Neighbors(centre)); n != 4 {
		t.Errorf("expected the centre to have 4 neighbours, got %d", n)
	}
	if b.CurrentPlayer() != Black {
		t.Errorf("expected Black to move first, got %v", b.CurrentPlayer())
	}

	empty, err := tiling.New()
	if err != nil {
		t.Fatalf("tiling.New() error: %v", err)
	}
	if _, err := New(empty); !errors.Is(err, tiling.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for an empty mesh, got %v", err)
	}
}

func TestNewGrid(t *testing.T) {
	b := grid(t, 3)
	if diff := cmp.Diff([]int{1, 3}, b.Neighbors(0)); diff != "" {
		t.Errorf("corner neighbours mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 3, 5, 7}, b.Neighbors(4)); diff != "" {
		t.Errorf("centre neighbours mismatch (-want +got):\n%s", diff)
	}
	if _, err := NewGrid(0, 40); !errors.Is(err, tiling.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for an empty grid, got %v", err)
	}
}

func TestPlaceStoneErrors(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 4)
	before := b.SavePoints()
	history := len(b.History())

	tests := []struct {
		name   string
		vertex int
		colour Colour
		want   error
	}{
		{"empty colour", 0, Empty, ErrColour},
		{"unknown colour", 0, Colour(5), ErrColour},
		{"negative vertex", -1, Black, ErrPosition},
		{"vertex out of range", 9, White, ErrPosition},
		{"occupied", 4, White, ErrOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.PlaceStone(tt.vertex, tt.colour)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrIllegalMove) {
				t.Errorf("expected an illegal move error, got %v", err)
			}
		})
	}

	if diff := cmp.Diff(before, b.SavePoints()); diff != "" {
		t.Errorf("rejected moves changed the board (-want +got):\n%s", diff)
	}
	if len(b.History()) != history {
		t.Errorf("rejected moves were recorded in history")
	}
	if b.CurrentPlayer() != White {
		t.Errorf("expected White to move, got %v", b.CurrentPlayer())
	}
}

func TestCapture(t *testing.T) {
	b := grid(t, 3)
	place(t, b, White, 0)
	place(t, b, Black, 1)

	captured, err := b.PlaceStone(3, Black)
	if err != nil {
		t.Fatalf("PlaceStone() error: %v", err)
	}
	if diff := cmp.Diff([]int{0}, captured); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}

	want := []Colour{Empty, Black, Empty, Black, Empty, Empty, Empty, Empty, Empty}
	for v, c := range want {
		if b.At(v) != c {
			t.Errorf("vertex %d: expected %v, got %v", v, c, b.At(v))
		}
	}
}

func TestCaptureGroup(t *testing.T) {
	b := grid(t, 3)
	place(t, b, White, 0, 1, 2)
	place(t, b, Black, 3, 4)

	captured, err := b.PlaceStone(5, Black)
	if err != nil {
		t.Fatalf("PlaceStone() error: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, captured); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}
	if b.Stones(White) != 0 || b.Stones(Black) != 3 {
		t.Errorf("expected 3 black and 0 white stones, got %d and %d", b.Stones(Black), b.Stones(White))
	}
}

func TestSuicideRejected(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 1, 3)
	before := b.SavePoints()
	turn := b.CurrentPlayer()

	_, err := b.PlaceStone(0, White)
	if !errors.Is(err, ErrSuicide) {
		t.Fatalf("expected ErrSuicide, got %v", err)
	}
	if !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected an illegal move error, got %v", err)
	}
	if diff := cmp.Diff(before, b.SavePoints()); diff != "" {
		t.Errorf("suicide changed the board (-want +got):\n%s", diff)
	}
	if b.CurrentPlayer() != turn {
		t.Errorf("suicide changed the player to move")
	}
}

func TestSelfAtariCaptureIsLegal(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 1, 3)
	place(t, b, White, 2, 4, 6)

	captured, err := b.PlaceStone(0, White)
	if err != nil {
		t.Fatalf("PlaceStone() error: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3}, captured); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}
	if g := b.GroupAt(0); len(g.Liberties) == 0 {
		t.Errorf("expected the capturing stone to gain liberties, got %+v", g)
	}
}

func TestSquaresCentre(t *testing.T) {
	b := squaresBoard(t)
	centre := vertexNear(t, b, 40, 0)
	mids := []int{
		vertexNear(t, b, 0, 0),
		vertexNear(t, b, 40, 40),
		vertexNear(t, b, 80, 0),
		vertexNear(t, b, 40, -40),
	}
	corners := []int{
		vertexNear(t, b, 0, 40),
		vertexNear(t, b, 80, 40),
		vertexNear(t, b, 0, -40),
		vertexNear(t, b, 80, -40),
	}
	place(t, b, White, mids...)

	t.Run("open corners", func(t *testing.T) {
		c := b.Clone()
		if _, err := c.PlaceStone(centre, Black); !errors.Is(err, ErrSuicide) {
			t.Errorf("expected the centre to be suicide for Black, got %v", err)
		}
		captured, err := c.PlaceStone(centre, White)
		if err != nil {
			t.Fatalf("PlaceStone() error: %v", err)
		}
		if len(captured) != 0 {
			t.Errorf("expected no captures, got %v", captured)
		}
		if g := c.GroupAt(centre); len(g.Members) != 5 || len(g.Liberties) != 4 {
			t.Errorf("expected a 5-stone group with 4 liberties, got %+v", g)
		}
	})

	t.Run("corners filled", func(t *testing.T) {
		c := b.Clone()
		records := c.SavePoints()
		for _, v := range corners {
			records[v].Player = Black
		}
		if err := c.LoadPoints(records); err != nil {
			t.Fatalf("LoadPoints() error: %v", err)
		}

		captured, err := c.PlaceStone(centre, Black)
		if err != nil {
			t.Fatalf("PlaceStone() error: %v", err)
		}
		if len(captured) != 4 {
			t.Fatalf("expected 4 captures, got %v", captured)
		}
		for _, v := range mids {
			if c.At(v) != Empty {
				t.Errorf("vertex %d was not captured", v)
			}
		}
		for _, v := range append(corners, centre) {
			if c.At(v) != Black {
				t.Errorf("vertex %d lost its stone", v)
			}
		}
	})
}

func TestGroupAt(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 0, 1)
	place(t, b, White, 4)

	g := b.GroupAt(1)
	want := Group{Colour: Black, Members: []int{0, 1}, Liberties: []int{2, 3}}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}

	empty := b.GroupAt(8)
	if empty.Colour != Empty || len(empty.Members) != 6 || empty.Liberties != nil {
		t.Errorf("unexpected empty region %+v", empty)
	}
	if g := b.GroupAt(42); len(g.Members) != 0 {
		t.Errorf("expected no group for an unknown vertex, got %+v", g)
	}
	if groups := b.Groups(Black); len(groups) != 1 {
		t.Errorf("expected 1 black group, got %d", len(groups))
	}
}

func TestPassAndGameOver(t *testing.T) {
	b := grid(t, 3)
	b.Pass()
	if b.GameOver() {
		t.Fatal("one pass should not end the game")
	}
	if b.CurrentPlayer() != White {
		t.Errorf("expected White to move after a pass, got %v", b.CurrentPlayer())
	}
	place(t, b, White, 4)
	b.Pass()
	b.Pass()
	if !b.GameOver() {
		t.Error("expected two consecutive passes to end the game")
	}
	if b.Moves() != 4 || len(b.History()) != 4 {
		t.Errorf("expected 4 moves in history, got %d and %d", b.Moves(), len(b.History()))
	}
}

func TestRepeats(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 1, 3)
	if b.Repeats() {
		t.Fatal("fresh positions should not repeat")
	}

	place(t, b, White, 2, 4, 6)
	before := b.Clone()
	if _, err := b.PlaceStone(0, White); err != nil {
		t.Fatalf("PlaceStone() error: %v", err)
	}
	if b.Repeats() {
		t.Fatal("capture produced a new position")
	}
	if b.Equal(before) {
		t.Fatal("capture did not change the position")
	}

	if err := b.LoadPoints(before.SavePoints()); err != nil {
		t.Fatalf("LoadPoints() error: %v", err)
	}
	if !b.Repeats() {
		t.Error("expected a reloaded earlier position to repeat")
	}
}

func TestScoreEmptyBoard(t *testing.T) {
	records := make([]Record, 19)
	for i := range records {
		records[i] = Record{Index: i, X: float64(i) * 40}
		if i > 0 {
			records[i].Neighbors = append(records[i].Neighbors, i-1)
		}
		if i < 18 {
			records[i].Neighbors = append(records[i].Neighbors, i+1)
		}
	}
	b, err := FromRecords(records)
	if err != nil {
		t.Fatalf("FromRecords() error: %v", err)
	}
	if b.Len() != 19 {
		t.Fatalf("expected 19 vertices, got %d", b.Len())
	}
	if s := b.Score(); s != (Score{}) {
		t.Errorf("expected a zero score, got %+v", s)
	}
}

func TestScore(t *testing.T) {
	// 0 1 2
	// 3 4 5
	// 6 7 8
	b := grid(t, 3)
	place(t, b, Black, 1)
	if got := b.Score(); got.Black.Total() != 9 || got.White.Total() != 0 {
		t.Errorf("expected 9-0, got %+v", got)
	}

	// One empty region touching both colours is neutral.
	place(t, b, White, 7)
	got := b.Score()
	want := Score{Black: PlayerScore{Stones: 1}, White: PlayerScore{Stones: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}

	// 0 is walled in by Black, 8 by White; 2, 4 and 6 stay neutral.
	place(t, b, Black, 3)
	place(t, b, White, 5)
	got = b.Score()
	want = Score{
		Black: PlayerScore{Stones: 2, Territory: 1},
		White: PlayerScore{Stones: 2, Territory: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
	if got.For(White) != got.White || got.For(Empty) != (PlayerScore{}) {
		t.Errorf("unexpected For() results")
	}
}

func TestScoreAfterCapture(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 0)
	place(t, b, White, 1)
	captured, err := b.PlaceStone(3, White)
	if err != nil {
		t.Fatalf("PlaceStone() error: %v", err)
	}
	if diff := cmp.Diff([]int{0}, captured); diff != "" {
		t.Errorf("captured mismatch (-want +got):\n%s", diff)
	}

	want := Score{White: PlayerScore{Stones: 2, Territory: 7}}
	if diff := cmp.Diff(want, b.Score()); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestNearestVertex(t *testing.T) {
	b := grid(t, 3)
	tests := []struct {
		name   string
		q      geom.Point
		radius float64
		want   int
		ok     bool
	}{
		{"exact", geom.Pt(40, 40), 5, 4, true},
		{"close", geom.Pt(43, 78), 10, 7, true},
		{"tie goes to lower id", geom.Pt(20, 0), 20, 0, true},
		{"out of radius", geom.Pt(20, 20), 10, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.NearestVertex(tt.q, tt.radius)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NearestVertex(%v, %v) = %d, %v; want %d, %v", tt.q, tt.radius, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := grid(t, 3)
	place(t, b, Black, 4)
	c := b.Clone()
	place(t, c, White, 0)

	if b.At(0) != Empty {
		t.Error("placing on a clone changed the original")
	}
	if len(b.History()) != 1 || len(c.History()) != 2 {
		t.Errorf("unexpected history lengths %d and %d", len(b.History()), len(c.History()))
	}
}

func TestConstructorsStartWithoutHistory(t *testing.T) {
	fromRecords, err := FromRecords(grid(t, 2).SavePoints())
	if err != nil {
		t.Fatalf("FromRecords() error: %v", err)
	}

	tests := []struct {
		name string
		b    *Board
	}{
		{"mesh", squaresBoard(t)},
		{"grid", grid(t, 3)},
		{"records", fromRecords},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := len(tt.b.History()); n != 0 || tt.b.Moves() != 0 {
				t.Fatalf("expected no history, got %d snapshots and %d moves", n, tt.b.Moves())
			}
			if _, err := tt.b.Play(0); err != nil {
				t.Fatalf("Play() error: %v", err)
			}
			tt.b.Pass()
			if n := len(tt.b.History()); n != 2 || tt.b.Moves() != 2 {
				t.Errorf("expected 2 snapshots and 2 moves, got %d and %d", n, tt.b.Moves())
			}
			if tt.b.Repeats() {
				t.Error("a pass should not count as a repetition")
			}
		})
	}
}

func TestZeroBoard(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		vertex   int
		captured []int
		err      error
	}{
		{
			name: "capture",
			records: []Record{
				{Index: 0, X: 0, Player: White, Neighbors: []int{1}},
				{Index: 1, X: 40, Neighbors: []int{0}},
			},
			vertex:   1,
			captured: []int{0},
		},
		{
			name: "suicide",
			records: []Record{
				{Index: 0, X: 0, Neighbors: []int{1}},
				{Index: 1, X: 40, Player: White, Neighbors: []int{0, 2}},
				{Index: 2, X: 80, Player: White, Neighbors: []int{1, 3}},
				{Index: 3, X: 120, Neighbors: []int{2}},
			},
			vertex: 0,
			err:    ErrSuicide,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Board
			if err := b.LoadPoints(tt.records); err != nil {
				t.Fatalf("LoadPoints() error: %v", err)
			}
			captured, err := b.PlaceStone(tt.vertex, Black)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if diff := cmp.Diff(tt.captured, captured); diff != "" {
				t.Errorf("captured mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	b := grid(t, 3)
	c := b.Clone()
	if !b.Equal(c) {
		t.Fatal("expected a fresh clone to be equal")
	}
	if err := c.SetTurn(White); err != nil {
		t.Fatalf("SetTurn() error: %v", err)
	}
	if b.Equal(c) {
		t.Error("boards with different players to move should differ")
	}
	place(t, b, White, 4)
	place(t, c, White, 4)
	if !b.Equal(c) {
		t.Error("expected the same stone and player to move to be equal")
	}
}

func TestSetTurn(t *testing.T) {
	b := grid(t, 3)
	if err := b.SetTurn(White); err != nil {
		t.Fatalf("SetTurn() error: %v", err)
	}
	if b.CurrentPlayer() != White {
		t.Errorf("expected White to move, got %v", b.CurrentPlayer())
	}
	if _, err := b.Play(4); err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if b.At(4) != White || b.CurrentPlayer() != Black {
		t.Errorf("expected a white stone and Black to move, got %v and %v", b.At(4), b.CurrentPlayer())
	}
	if err := b.SetTurn(Empty); !errors.Is(err, ErrColour) {
		t.Errorf("expected ErrColour, got %v", err)
	}
}
