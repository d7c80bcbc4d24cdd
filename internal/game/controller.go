package game

import (
	"errors"
	"fmt"
)

type State string

const (
	InProgress State = "in_progress"
	Won        State = "won"
	Drawn      State = "drawn"
)

var (
	ErrOutOfBounds   = errors.New("cell index out of range")
	ErrInvalidSymbol = errors.New("symbol must be X or O")
	ErrCellOccupied  = errors.New("cell already occupied")
	ErrGameOver      = errors.New("game is already over")
	ErrNotYourTurn   = errors.New("not this symbol's turn")
)

// MoveError is returned for a rejected ply. Nothing is applied when it occurs.
type MoveError struct {
	Index  int
	Symbol Cell
	Reason error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s@%d rejected: %v", e.Symbol, e.Index, e.Reason)
}

func (e *MoveError) Unwrap() error { return e.Reason }

// TurnResult is the snapshot after one ply.
type TurnResult struct {
	Board    Board  `json:"board"`
	XNext    bool   `json:"xNext"`
	Winner   Cell   `json:"winner"`
	Line     *Line  `json:"line,omitempty"`
	Terminal bool   `json:"terminal"`
	State    State  `json:"state"`
	Message  string `json:"message"`
}

// NewGame returns the initial snapshot with X to move.
func NewGame() TurnResult {
	return Evaluate(Board{}, true)
}

// Evaluate derives the snapshot for a committed board.
func Evaluate(b Board, xNext bool) TurnResult {
	r := TurnResult{Board: b, XNext: xNext, State: InProgress}
	if w := Winner(b); w != Empty {
		r.Winner = w
		if l, ok := WinningLine(b, w); ok {
			r.Line = &l
		}
		r.Terminal = true
		r.State = Won
		r.Message = fmt.Sprintf("Game Over! Player %s Wins! 🎉", w)
		return r
	}
	if b.Full() {
		r.Terminal = true
		r.State = Drawn
		r.Message = "It's a Draw! 🤝"
		return r
	}
	r.Message = fmt.Sprintf("Player %s's Turn", ToMove(xNext))
	return r
}

// ToMove maps the turn flag to a symbol.
func ToMove(xNext bool) Cell {
	if xNext {
		return X
	}
	return O
}

// ApplyMove places s at index and flips the turn.
func ApplyMove(b Board, xNext bool, index int, s Cell) (TurnResult, error) {
	reject := func(reason error) (TurnResult, error) {
		return TurnResult{}, &MoveError{Index: index, Symbol: s, Reason: reason}
	}
	switch {
	case index < 0 || index >= Size:
		return reject(ErrOutOfBounds)
	case !s.IsSymbol():
		return reject(ErrInvalidSymbol)
	case Winner(b) != Empty || b.Full():
		return reject(ErrGameOver)
	case b[index] != Empty:
		return reject(ErrCellOccupied)
	case s != ToMove(xNext):
		return reject(ErrNotYourTurn)
	}
	b[index] = s
	return Evaluate(b, !xNext), nil
}

type Result string

const (
	ResultNone Result = ""
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// Classify maps a terminal result to the outcome seen by perspective.
func Classify(r TurnResult, perspective Cell) Result {
	if !r.Terminal {
		return ResultNone
	}
	if r.Winner == Empty {
		return ResultDraw
	}
	if r.Winner == perspective {
		return ResultWin
	}
	return ResultLoss
}
