package game

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBoard(t *testing.T, s string) Board {
	t.Helper()
	b, err := ParseBoard(s)
	require.NoError(t, err)
	return b
}

func TestWinnerEachLine(t *testing.T) {
	for _, l := range Lines {
		var b Board
		for _, i := range l {
			b[i] = O
		}
		require.Equal(t, O, Winner(b), "line %v", l)
		got, ok := WinningLine(b, O)
		require.True(t, ok)
		require.Equal(t, l, got)
		require.False(t, IsDraw(b))
	}
}

func TestWinnerEmptyAndDraw(t *testing.T) {
	require.Equal(t, Empty, Winner(Board{}))
	require.False(t, IsDraw(Board{}))

	b := Board{O, X, O, X, O, X, X, O, X}
	require.Equal(t, Empty, Winner(b))
	require.True(t, IsDraw(b))
	_, ok := WinningLine(b, X)
	require.False(t, ok)
}

func TestWinnerFirstLineWinsOnImpossibleBoard(t *testing.T) {
	b := Board{X, X, X, O, O, O}
	require.Equal(t, X, Winner(b))
	l, ok := WinningLine(b, O)
	require.True(t, ok)
	require.Equal(t, Line{3, 4, 5}, l)
}

func TestNewBoardValidation(t *testing.T) {
	_, err := NewBoard(make([]Cell, 8))
	require.ErrorIs(t, err, ErrBoardLength)

	_, err = NewBoard([]Cell{3, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrBoardCell)

	_, err = ParseBoard("XX.......")
	require.ErrorIs(t, err, ErrBoardBalance)

	_, err = ParseBoard("O........")
	require.ErrorIs(t, err, ErrBoardBalance)

	_, err = ParseBoard("XXXOOO.X.")
	require.ErrorIs(t, err, ErrBoardWinners)

	b := mustBoard(t, "XO.X.O...")
	require.Equal(t, "XO.X.O...", b.String())
	require.Equal(t, []int{2, 4, 6, 7, 8}, b.EmptyCells())
}

func TestSearchPrefersFasterWins(t *testing.T) {
	won := Board{X, X, X, O, O}
	require.Equal(t, 9, Search(won, 1, true, X, O))
	require.Equal(t, 7, Search(won, 3, true, X, O))
	require.Greater(t, Search(won, 1, true, X, O), Search(won, 3, true, X, O))

	lost := Board{O, O, O, X, X}
	require.Equal(t, -9, Search(lost, 1, true, X, O))
	require.Less(t, Search(lost, 1, true, X, O), Search(lost, 3, true, X, O))

	require.Equal(t, 0, Search(Board{O, X, O, X, O, X, X, O, X}, 4, false, X, O))
}

func TestOptimalMoveTakesImmediateWin(t *testing.T) {
	// X can win at 2 now or block at 5.
	b := mustBoard(t, "XX.OO....")
	move, ok := OptimalMove(b, X, O)
	require.True(t, ok)
	require.Equal(t, 2, move)

	work := b
	work[2] = X
	require.Equal(t, 10, Search(work, 0, false, X, O))
}

func TestOptimalMoveBlocks(t *testing.T) {
	b := mustBoard(t, "XX..O....")
	move, ok := OptimalMove(b, O, X)
	require.True(t, ok)
	require.Equal(t, 2, move)
}

func TestBestMoveFullBoard(t *testing.T) {
	e := NewEngine(WithSeed(1))
	full := Board{O, X, O, X, O, X, X, O, X}
	for _, d := range []Difficulty{Standard, Maximum} {
		_, ok := e.BestMove(full, X, O, d)
		require.False(t, ok)
	}
}

func TestBestMoveDoesNotMutate(t *testing.T) {
	e := NewEngine(WithSeed(7))
	b := mustBoard(t, "X...O..X.")
	before := b
	_, ok := e.BestMove(b, O, X, Maximum)
	require.True(t, ok)
	require.Equal(t, before, b)
}

func TestStandardDifficultyRandomRate(t *testing.T) {
	b := mustBoard(t, "XX..O....")

	never := NewEngine(WithSeed(3), WithRandomRate(0))
	for i := 0; i < 20; i++ {
		move, ok := never.BestMove(b, O, X, Standard)
		require.True(t, ok)
		require.Equal(t, 2, move)
	}

	always := NewEngine(WithSeed(3), WithRandomRate(1))
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		move, ok := always.BestMove(b, O, X, Standard)
		require.True(t, ok)
		require.Equal(t, Empty, b[move])
		seen[move] = true
	}
	require.Greater(t, len(seen), 1)

	// Maximum ignores the random rate.
	move, _ := always.BestMove(b, O, X, Maximum)
	require.Equal(t, 2, move)
}

func TestMaximumSelfPlayDraws(t *testing.T) {
	e := NewEngine(WithSeed(11))
	r := NewGame()
	for !r.Terminal {
		mover := ToMove(r.XNext)
		move, ok := e.BestMove(r.Board, mover, mover.Opponent(), Maximum)
		require.True(t, ok)
		next, err := ApplyMove(r.Board, r.XNext, move, mover)
		require.NoError(t, err)
		r = next
	}
	require.Equal(t, Drawn, r.State)
	require.Equal(t, "It's a Draw! 🤝", r.Message)
}

// Maximum must never lose, whichever side it plays and whatever the opponent does.
func TestMaximumNeverLosesAgainstAnyReply(t *testing.T) {
	e := NewEngine(WithSeed(11))
	for _, side := range []Cell{X, O} {
		games := 0
		var walk func(b Board, xNext bool)
		walk = func(b Board, xNext bool) {
			if w := Winner(b); w != Empty || b.Full() {
				require.NotEqual(t, side.Opponent(), w, "%s lost on %v", side, b)
				games++
				return
			}
			mover := ToMove(xNext)
			if mover == side {
				idx, ok := e.BestMove(b, side, side.Opponent(), Maximum)
				require.True(t, ok)
				require.Equal(t, Empty, b[idx])
				b[idx] = side
				walk(b, !xNext)
				return
			}
			for _, i := range b.EmptyCells() {
				next := b
				next[i] = mover
				walk(next, !xNext)
			}
		}
		walk(Board{}, true)
		require.Positive(t, games)
	}
}

// From every reachable open position the engine keeps the best available score.
func TestMaximumKeepsBestScoreInEveryPosition(t *testing.T) {
	e := NewEngine(WithSeed(11))
	seen := map[Board]bool{}
	var walk func(b Board, xNext bool)
	walk = func(b Board, xNext bool) {
		if seen[b] || Winner(b) != Empty || b.Full() {
			return
		}
		seen[b] = true
		mover := ToMove(xNext)
		opp := mover.Opponent()

		best := math.MinInt
		for _, i := range b.EmptyCells() {
			next := b
			next[i] = mover
			if s := Search(next, 0, false, mover, opp); s > best {
				best = s
			}
		}
		idx, ok := e.BestMove(b, mover, opp, Maximum)
		require.True(t, ok)
		chosen := b
		chosen[idx] = mover
		require.Equal(t, best, Search(chosen, 0, false, mover, opp), "position %v, %s to move", b, mover)

		for _, i := range b.EmptyCells() {
			next := b
			next[i] = mover
			walk(next, !xNext)
		}
	}
	walk(Board{}, true)
	require.Greater(t, len(seen), 4000)
}

func TestApplyMoveAlternates(t *testing.T) {
	r := NewGame()
	require.Equal(t, "Player X's Turn", r.Message)

	next, err := ApplyMove(r.Board, r.XNext, 4, X)
	require.NoError(t, err)
	require.False(t, next.XNext)
	require.Equal(t, 1, 9-next.Board.Count(Empty))
	require.Equal(t, X, next.Board[4])
	require.Equal(t, "Player O's Turn", next.Message)
	require.Equal(t, InProgress, next.State)
	require.Equal(t, Empty, r.Board[4])
}

func TestApplyMoveWinningSequence(t *testing.T) {
	r := NewGame()
	var err error
	for i, idx := range []int{0, 3, 1, 4, 2} {
		r, err = ApplyMove(r.Board, r.XNext, idx, ToMove(i%2 == 0))
		require.NoError(t, err)
	}
	require.True(t, r.Terminal)
	require.Equal(t, Won, r.State)
	require.Equal(t, X, r.Winner)
	require.NotNil(t, r.Line)
	require.Equal(t, Line{0, 1, 2}, *r.Line)
	require.Equal(t, "Game Over! Player X Wins! 🎉", r.Message)

	require.Equal(t, ResultWin, Classify(r, X))
	require.Equal(t, ResultLoss, Classify(r, O))
}

func TestApplyMoveDrawSequence(t *testing.T) {
	r := NewGame()
	var err error
	for _, idx := range []int{1, 0, 3, 2, 5, 4, 6, 7, 8} {
		r, err = ApplyMove(r.Board, r.XNext, idx, ToMove(r.XNext))
		require.NoError(t, err)
	}
	require.Equal(t, Board{O, X, O, X, O, X, X, O, X}, r.Board)
	require.True(t, IsDraw(r.Board))
	require.Equal(t, Empty, Winner(r.Board))
	require.Nil(t, r.Line)
	require.Equal(t, ResultDraw, Classify(r, O))
}

func TestApplyMoveRejections(t *testing.T) {
	won := Board{X, X, X, O, O}
	b := mustBoard(t, "X........")

	cases := []struct {
		name  string
		board Board
		xNext bool
		index int
		sym   Cell
		want  error
	}{
		{"out of range", b, false, 9, O, ErrOutOfBounds},
		{"negative", b, false, -1, O, ErrOutOfBounds},
		{"empty symbol", b, false, 1, Empty, ErrInvalidSymbol},
		{"occupied", b, false, 0, O, ErrCellOccupied},
		{"wrong turn", b, false, 1, X, ErrNotYourTurn},
		{"game over", won, false, 8, O, ErrGameOver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ApplyMove(tc.board, tc.xNext, tc.index, tc.sym)
			require.ErrorIs(t, err, tc.want)
			var me *MoveError
			require.True(t, errors.As(err, &me))
			require.Equal(t, tc.index, me.Index)
		})
	}
	require.Equal(t, ResultNone, Classify(NewGame(), X))
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]Difficulty{"hard": Maximum, "MAX": Maximum, "medium": Standard, "": Standard} {
		got, err := ParseDifficulty(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseDifficulty("nightmare")
	require.Error(t, err)
}

func TestTurnResultJSON(t *testing.T) {
	r, err := ApplyMove(Board{}, true, 0, X)
	require.NoError(t, err)
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"board":["X",null,null,null,null,null,null,null,null]`)

	var back TurnResult
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, r, back)
}
