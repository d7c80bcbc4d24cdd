package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Cell is the content of one square.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other symbol; Empty stays Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// MarshalJSON writes "X", "O" or null.
func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.IsSymbol() {
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*c = Empty
		return nil
	}
	v, err := ParseSymbol(*s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// IsSymbol reports whether c is a placeable mark.
func (c Cell) IsSymbol() bool { return c == X || c == O }

// ParseSymbol accepts "X"/"O" in any case.
func ParseSymbol(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
}

const Size = 9

// Board is a row-major 3x3 grid. The zero value is an empty board.
type Board [Size]Cell

var (
	ErrBoardLength  = errors.New("board must have 9 cells")
	ErrBoardCell    = errors.New("board has an invalid cell")
	ErrBoardBalance = errors.New("board mark counts are not reachable")
	ErrBoardWinners = errors.New("board has winners for both symbols")
)

// NewBoard validates cells and returns a board reachable under alternating play.
func NewBoard(cells []Cell) (Board, error) {
	var b Board
	if len(cells) != Size {
		return b, ErrBoardLength
	}
	for i, c := range cells {
		if c > O {
			return Board{}, fmt.Errorf("%w at %d", ErrBoardCell, i)
		}
		b[i] = c
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// ParseBoard reads 9 characters of X, O and '.', '-', '_' or ' ' for empty.
func ParseBoard(s string) (Board, error) {
	rs := []rune(s)
	if len(rs) != Size {
		return Board{}, ErrBoardLength
	}
	cells := make([]Cell, Size)
	for i, r := range rs {
		switch r {
		case 'X', 'x':
			cells[i] = X
		case 'O', 'o':
			cells[i] = O
		case '.', '-', '_', ' ':
			cells[i] = Empty
		default:
			return Board{}, fmt.Errorf("%w at %d: %q", ErrBoardCell, i, r)
		}
	}
	return NewBoard(cells)
}

// Validate checks the alternating-turn invariant with X moving first.
func (b Board) Validate() error {
	x, o := b.Count(X), b.Count(O)
	if x != o && x != o+1 {
		return ErrBoardBalance
	}
	xWin, oWin := false, false
	for _, l := range Lines {
		switch b.lineOwner(l) {
		case X:
			xWin = true
		case O:
			oWin = true
		}
	}
	if xWin && oWin {
		return ErrBoardWinners
	}
	return nil
}

func (b Board) Count(c Cell) int {
	n := 0
	for _, v := range b {
		if v == c {
			n++
		}
	}
	return n
}

func (b Board) Full() bool { return b.Count(Empty) == 0 }

// EmptyCells lists free indices in increasing order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, Size)
	for i, v := range b {
		if v == Empty {
			out = append(out, i)
		}
	}
	return out
}

func (b Board) String() string {
	var sb strings.Builder
	sb.Grow(Size)
	for _, v := range b {
		if v == Empty {
			sb.WriteByte('.')
			continue
		}
		sb.WriteString(v.String())
	}
	return sb.String()
}

func (b Board) lineOwner(l Line) Cell {
	a := b[l[0]]
	if a != Empty && a == b[l[1]] && a == b[l[2]] {
		return a
	}
	return Empty
}
