// Package ai picks moves for a computer player with an iterative deepening
// alpha-beta search over a hand-tuned position evaluation.
package ai

import (
	"github.com/Faultbox/nongrid/pkg/board"
)

// Thresholds for counting an empty region as weakly held.
const (
	contestedMaxRegion = 15
	contestedMaxEnemy  = 1
	contestedMinRatio  = 1.6
)

// PlayerStats summarises one side of a position.
type PlayerStats struct {
	Score     int     // stones plus territory
	Contested int     // score counting weakly held regions as owned
	Stones    int     // stones on the board
	Liberties []int   // liberty count per group, ordered by lowest vertex
	Danger    float64 // weighted count of groups short of liberties
}

// Stats is the evaluation input for a position.
type Stats struct {
	Black PlayerStats
	White PlayerStats
}

// For returns the stats of colour c.
func (s Stats) For(c board.Colour) PlayerStats {
	if c == board.White {
		return s.White
	}
	return s.Black
}

// Collect computes the stats of b.
func Collect(b *board.Board) Stats {
	score := b.Score()
	cb, cw := contestedScores(b)

	s := Stats{
		Black: PlayerStats{Score: score.Black.Total(), Contested: cb, Stones: b.Stones(board.Black)},
		White: PlayerStats{Score: score.White.Total(), Contested: cw, Stones: b.Stones(board.White)},
	}
	s.Black.Liberties, s.Black.Danger = liberties(b, board.Black)
	s.White.Liberties, s.White.Danger = liberties(b, board.White)
	return s
}

func liberties(b *board.Board, c board.Colour) ([]int, float64) {
	groups := b.Groups(c)
	libs := make([]int, len(groups))
	danger := 0.0
	for i, g := range groups {
		libs[i] = len(g.Liberties)
		switch libs[i] {
		case 1:
			danger += 2.0
		case 2:
			danger += 0.75
		case 3:
			danger += 0.25
		case 4:
			danger += 0.1
		}
	}
	return libs, danger
}

// contestedScores credits small empty regions to the side that clearly
// dominates their border, together with the few enemy stones inside it.
func contestedScores(b *board.Board) (black, white int) {
	black, white = b.Stones(board.Black), b.Stones(board.White)

	seen := make(map[int]bool)
	for v := 0; v < b.Len(); v++ {
		if seen[v] || b.At(v) != board.Empty {
			continue
		}
		region := b.GroupAt(v)
		border := make(map[int]bool)
		for _, m := range region.Members {
			seen[m] = true
			for _, n := range b.Neighbors(m) {
				if b.At(n) != board.Empty {
					border[n] = true
				}
			}
		}

		size := len(region.Members)
		var nb, nw int
		for n := range border {
			if b.At(n) == board.Black {
				nb++
			} else {
				nw++
			}
		}
		if size > contestedMaxRegion {
			continue
		}
		if nb > nw && nw <= contestedMaxEnemy && dominates(nb, nw) {
			black += size + nw
		}
		if nw > nb && nb <= contestedMaxEnemy && dominates(nw, nb) {
			white += size + nb
		}
	}
	return black, white
}

func dominates(mine, theirs int) bool {
	return theirs == 0 || float64(mine)/float64(theirs) >= contestedMinRatio
}

// Eval scores the change from before to after from me's point of view.
// Positive values favour me.
func Eval(before, after Stats, me board.Colour) float64 {
	mb, ma := before.For(me), after.For(me)
	ob, oa := before.For(me.Opponent()), after.For(me.Opponent())

	score := 0.3 * float64(ma.Score-mb.Score+ob.Score-oa.Score)
	danger := mb.Danger - ma.Danger + oa.Danger - ob.Danger
	groups := float64(len(mb.Liberties) - len(ma.Liberties) + len(oa.Liberties) - len(ob.Liberties))
	stones := float64(ma.Stones - mb.Stones + ob.Stones - oa.Stones)
	libs := 0.3 * float64(sum(ma.Liberties)-sum(mb.Liberties)+sum(ob.Liberties)-sum(oa.Liberties))
	contested := 0.5 * float64(ma.Contested-mb.Contested+ob.Contested-oa.Contested)
	return score + danger + groups + stones + libs + contested
}

func sum(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}
