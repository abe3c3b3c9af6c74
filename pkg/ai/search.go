package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/nongrid/pkg/board"
)

// ErrGameOver is returned when searching a finished game.
var ErrGameOver = errors.New("the game is over")

// Default search limits.
const (
	DefaultDepth  = 10
	DefaultBudget = time.Second
)

// Move is a placement or a pass.
type Move struct {
	Pass   bool
	Vertex int
}

// PassMove is the move that places nothing.
var PassMove = Move{Pass: true}

// String returns "pass" or the vertex id.
func (m Move) String() string {
	if m.Pass {
		return "pass"
	}
	return fmt.Sprintf("%d", m.Vertex)
}

// Apply plays m for the player to move.
func Apply(b *board.Board, m Move) ([]int, error) {
	if m.Pass {
		b.Pass()
		return nil, nil
	}
	return b.Play(m.Vertex)
}

// Options bounds a search.
type Options struct {
	Depth  int           // deepest iteration, DefaultDepth when zero
	Budget time.Duration // wall time, DefaultBudget when zero
	Logger *zap.Logger
}

type searcher struct {
	ctx      context.Context
	deadline time.Time
	me       board.Colour
	root     Stats
}

func (s *searcher) expired() bool {
	return s.ctx.Err() != nil || time.Now().After(s.deadline)
}

type candidate struct {
	move Move
	next *board.Board
}

// candidates lists the pass and every legal placement for the player to
// move that does not recreate an earlier position.
func candidates(b *board.Board) []candidate {
	pass := b.Clone()
	pass.Pass()
	out := []candidate{{move: PassMove, next: pass}}

	me := b.CurrentPlayer()
	for v := 0; v < b.Len(); v++ {
		if b.At(v) != board.Empty {
			continue
		}
		next := b.Clone()
		if _, err := next.PlaceStone(v, me); err != nil {
			continue
		}
		if next.Repeats() {
			continue
		}
		out = append(out, candidate{move: Move{Vertex: v}, next: next})
	}
	return out
}

// Search returns the best move for the player to move in b. It deepens one
// ply at a time and keeps the choice of the last depth that finished before
// the budget ran out or ctx was cancelled. The first depth always
// finishes.
func Search(ctx context.Context, b *board.Board, opts Options) (Move, error) {
	if err := ctx.Err(); err != nil {
		return Move{}, err
	}
	if b.GameOver() {
		return Move{}, ErrGameOver
	}
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	me := b.CurrentPlayer()
	stats := Collect(b)

	// Take the win when the opponent has just passed.
	if b.Passes() == 1 && stats.For(me).Score > stats.For(me.Opponent()).Score {
		log.Debug("passing while ahead", zap.Stringer("colour", me))
		return PassMove, nil
	}

	s := &searcher{
		ctx:      ctx,
		deadline: time.Now().Add(opts.Budget),
		me:       me,
		root:     stats,
	}

	best := PassMove
	for depth := 1; depth <= opts.Depth; depth++ {
		move, val, ok := s.searchRoot(b, depth)
		if !ok {
			break
		}
		best = move
		log.Debug("search depth finished",
			zap.Int("depth", depth),
			zap.Stringer("move", move),
			zap.Float64("value", val),
		)
	}

	return best, nil
}

func (s *searcher) searchRoot(b *board.Board, depth int) (Move, float64, bool) {
	alpha, beta := math.Inf(-1), math.Inf(1)
	best, bestVal := PassMove, math.Inf(-1)
	for _, c := range candidates(b) {
		val, ok := s.alphaBeta(c.next, depth-1, alpha, beta, false)
		if !ok {
			return Move{}, 0, false
		}
		if val > bestVal {
			best, bestVal = c.move, val
			alpha = math.Max(alpha, val)
		}
	}
	return best, bestVal, true
}

// alphaBeta returns the value of b for the searching player and false when
// the search ran out of time.
func (s *searcher) alphaBeta(b *board.Board, depth int, alpha, beta float64, maximizing bool) (float64, bool) {
	if depth == 0 || b.GameOver() {
		return Eval(s.root, Collect(b), s.me), true
	}
	if s.expired() {
		return 0, false
	}

	v := math.Inf(1)
	if maximizing {
		v = math.Inf(-1)
	}
	for _, c := range candidates(b) {
		val, ok := s.alphaBeta(c.next, depth-1, alpha, beta, !maximizing)
		if !ok {
			return 0, false
		}
		if maximizing {
			v = math.Max(v, val)
			alpha = math.Max(alpha, v)
		} else {
			v = math.Min(v, val)
			beta = math.Min(beta, v)
		}
		if alpha >= beta {
			break
		}
	}
	return v, true
}
