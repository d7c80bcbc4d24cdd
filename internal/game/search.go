package game

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

type Difficulty string

const (
	Standard Difficulty = "standard"
	Maximum  Difficulty = "maximum"
)

// DefaultRandomRate is the chance that Standard plays a random cell.
const DefaultRandomRate = 0.2

func ParseDifficulty(name string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard", "medium", "normal", "":
		return Standard, nil
	case "maximum", "hard", "max":
		return Maximum, nil
	}
	return "", fmt.Errorf("unknown difficulty: %s", name)
}

// Search scores b for mover with depth-adjusted minimax.
// Closer wins score higher and later losses score higher than early ones.
func Search(b Board, depth int, maximizing bool, mover, opponent Cell) int {
	return search(&b, depth, maximizing, mover, opponent)
}

// search places and removes marks in place; b must be private to the call tree.
func search(b *Board, depth int, maximizing bool, mover, opponent Cell) int {
	switch Winner(*b) {
	case mover:
		return 10 - depth
	case opponent:
		return depth - 10
	}
	if b.Full() {
		return 0
	}

	if maximizing {
		best := math.MinInt
		for i := range b {
			if b[i] != Empty {
				continue
			}
			b[i] = mover
			score := search(b, depth+1, false, mover, opponent)
			b[i] = Empty
			if score > best {
				best = score
			}
		}
		return best
	}

	best := math.MaxInt
	for i := range b {
		if b[i] != Empty {
			continue
		}
		b[i] = opponent
		score := search(b, depth+1, true, mover, opponent)
		b[i] = Empty
		if score < best {
			best = score
		}
	}
	return best
}

// OptimalMove returns the lowest index among the best-scoring cells for mover.
func OptimalMove(b Board, mover, opponent Cell) (int, bool) {
	free := b.EmptyCells()
	if len(free) == 0 {
		return -1, false
	}
	work := b
	bestScore, bestMove := math.MinInt, free[0]
	for _, i := range free {
		work[i] = mover
		score := search(&work, 0, false, mover, opponent)
		work[i] = Empty
		if score > bestScore {
			bestScore = score
			bestMove = i
		}
	}
	return bestMove, true
}

type EngineOption func(*Engine)

func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) { e.rand = rand.New(rand.NewSource(seed)) }
}

// WithRandomRate overrides the Standard random-move probability; values outside [0,1] are ignored.
func WithRandomRate(p float64) EngineOption {
	return func(e *Engine) {
		if p >= 0 && p <= 1 {
			e.randomRate = p
		}
	}
}

// Engine picks moves for a difficulty. It is safe for concurrent use.
type Engine struct {
	randMu     sync.Mutex
	rand       *rand.Rand
	randomRate float64
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		rand:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		randomRate: DefaultRandomRate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BestMove returns the cell mover should play, or false when b is full.
func (e *Engine) BestMove(b Board, mover, opponent Cell, d Difficulty) (int, bool) {
	free := b.EmptyCells()
	if len(free) == 0 {
		return -1, false
	}
	if d != Maximum {
		e.randMu.Lock()
		roll := e.rand.Float64()
		pick := e.rand.Intn(len(free))
		e.randMu.Unlock()
		if roll < e.randomRate {
			return free[pick], true
		}
	}
	return OptimalMove(b, mover, opponent)
}

func (e *Engine) RandomRate() float64 { return e.randomRate }
