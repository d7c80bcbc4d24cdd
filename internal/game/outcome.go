package game

// Line is one winning triple of board indices.
type Line [3]int

// Lines holds the winning lines in evaluation order: rows, columns, diagonals.
var Lines = [8]Line{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the symbol of the first completed line, or Empty.
func Winner(b Board) Cell {
	for _, l := range Lines {
		if w := b.lineOwner(l); w != Empty {
			return w
		}
	}
	return Empty
}

// IsDraw reports a full board without a completed line.
func IsDraw(b Board) bool {
	return b.Full() && Winner(b) == Empty
}

// WinningLine returns the first line completed by s.
func WinningLine(b Board, s Cell) (Line, bool) {
	if !s.IsSymbol() {
		return Line{}, false
	}
	for _, l := range Lines {
		if b.lineOwner(l) == s {
			return l, true
		}
	}
	return Line{}, false
}
