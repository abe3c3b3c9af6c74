package board

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Group is a maximal connected set of same-colour vertices.
type Group struct {
	Colour    Colour
	Members   []int
	Liberties []int
}

// PlaceStone puts a stone of colour c on vertex v and removes every adjacent
// opponent group left without liberties. It returns the captured vertex ids
// in ascending order. A rejected move leaves the board unchanged.
func (b *Board) PlaceStone(v int, c Colour) ([]int, error) {
	if !c.IsPlayer() {
		return nil, fmt.Errorf("%w: got colour: %v", ErrColour, c)
	}
	if v < 0 || v >= len(b.stones) {
		return nil, fmt.Errorf("%w: got vertex %d of %d", ErrPosition, v, len(b.stones))
	}
	if b.stones[v] != Empty {
		return nil, fmt.Errorf("%w: vertex %d holds %v", ErrOccupied, v, b.stones[v])
	}

	b.stones[v] = c

	var captured []int
	checked := make(map[int]bool)
	for _, n := range b.neighbors[v] {
		if b.stones[n] != c.Opponent() || checked[n] {
			continue
		}
		g := b.group(n)
		for _, m := range g.Members {
			checked[m] = true
		}
		if len(g.Liberties) == 0 {
			captured = append(captured, g.Members...)
		}
	}

	if len(captured) == 0 && len(b.group(v).Liberties) == 0 {
		b.stones[v] = Empty
		b.logger().Debug("move rejected",
			zap.Int("vertex", v),
			zap.Stringer("colour", c),
			zap.Error(ErrSuicide),
		)
		return nil, fmt.Errorf("%w: vertex %d", ErrSuicide, v)
	}

	for _, m := range captured {
		b.stones[m] = Empty
	}
	sort.Ints(captured)

	b.turn = c.Opponent()
	b.passes = 0
	b.moves++
	b.record(false)

	if len(captured) > 0 {
		b.logger().Debug("stones captured",
			zap.Int("vertex", v),
			zap.Stringer("colour", c),
			zap.Ints("captured", captured),
		)
	}
	return captured, nil
}

// Play places a stone for the player to move.
func (b *Board) Play(v int) ([]int, error) {
	return b.PlaceStone(v, b.turn)
}

// Pass hands the move to the opponent without placing a stone.
func (b *Board) Pass() {
	b.turn = b.turn.Opponent()
	b.passes++
	b.moves++
	b.record(true)
}

// Passes returns the number of consecutive passes ending the game so far.
func (b *Board) Passes() int {
	return b.passes
}

// GameOver reports whether both players passed in a row.
func (b *Board) GameOver() bool {
	return b.passes >= 2
}

// GroupAt returns the group containing v. For an empty vertex it is the
// connected empty region, which has no liberties.
func (b *Board) GroupAt(v int) Group {
	if v < 0 || v >= len(b.stones) {
		return Group{}
	}
	return b.group(v)
}

// Groups returns every group of colour c ordered by their lowest vertex.
func (b *Board) Groups(c Colour) []Group {
	var groups []Group
	seen := make(map[int]bool)
	for v, s := range b.stones {
		if s != c || seen[v] {
			continue
		}
		g := b.group(v)
		for _, m := range g.Members {
			seen[m] = true
		}
		groups = append(groups, g)
	}
	return groups
}

func (b *Board) group(start int) Group {
	colour := b.stones[start]
	members := []int{start}
	inGroup := map[int]bool{start: true}
	libs := make(map[int]bool)

	for i := 0; i < len(members); i++ {
		for _, n := range b.neighbors[members[i]] {
			switch {
			case b.stones[n] == colour:
				if !inGroup[n] {
					inGroup[n] = true
					members = append(members, n)
				}
			case b.stones[n] == Empty:
				libs[n] = true
			}
		}
	}

	g := Group{Colour: colour, Members: members}
	if colour != Empty {
		g.Liberties = make([]int, 0, len(libs))
		for n := range libs {
			g.Liberties = append(g.Liberties, n)
		}
		sort.Ints(g.Liberties)
	}
	sort.Ints(g.Members)
	return g
}

// Repeats reports whether the position after the latest placement already
// occurred earlier in the game. Repetition is not enforced by PlaceStone;
// callers that want a ko rule check this.
func (b *Board) Repeats() bool {
	if len(b.history) < 2 {
		return false
	}
	last := b.history[len(b.history)-1]
	if last.pass {
		return false
	}
	for _, s := range b.history[:len(b.history)-1] {
		if sameStones(s.stones, last.stones) {
			return true
		}
	}
	return false
}

func (b *Board) record(pass bool) {
	b.history = append(b.history, snapshot{
		stones: append([]Colour(nil), b.stones...),
		pass:   pass,
	})
}
