package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// String returns "X", "O", or "" for an empty cell.
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

// Next returns the other player's mark. Empty stays Empty.
func (c Cell) Next() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ParseCell parses "X" or "O" (any case).
func ParseCell(s string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrBadCell, s)
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Line is an index triple that wins when all three cells hold the same mark.
type Line [3]int

// Lines holds the winning lines in scan order: rows, columns, diagonals.
var Lines = [8]Line{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Outcome is the result of a board position.
type Outcome uint8

const (
	InProgress Outcome = iota
	XWins
	OWins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "x_wins"
	case OWins:
		return "o_wins"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Errors returned by board operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrInvalidMark = errors.New("invalid mark")
	ErrBoardSize   = errors.New("board must have 9 cells")
	ErrBadCell     = errors.New("bad cell")
)

// NewBoard returns an empty board.
func NewBoard() Board { return Board{} }

// BoardFromCells copies cells into a Board.
func BoardFromCells(cells []Cell) (Board, error) {
	var b Board
	if len(cells) != len(b) {
		return b, fmt.Errorf("%w: got %d", ErrBoardSize, len(cells))
	}
	for i, c := range cells {
		if c > O {
			return Board{}, fmt.Errorf("%w: %d at index %d", ErrBadCell, c, i)
		}
		b[i] = c
	}
	return b, nil
}

// ParseBoard reads nine characters, one per cell. X and O are marks;
// '_', '-', '.' and ' ' are empty.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != len(b) {
		return b, fmt.Errorf("%w: got %d", ErrBoardSize, len(s))
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '_', '-', '.', ' ':
			b[i] = Empty
		default:
			return Board{}, fmt.Errorf("%w: %q at index %d", ErrBadCell, s[i], i)
		}
	}
	return b, nil
}

// String renders the board in ParseBoard form, '_' for empty cells.
func (b Board) String() string {
	var sb strings.Builder
	for _, c := range b {
		if c == Empty {
			sb.WriteByte('_')
			continue
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Winner returns the mark of the first completed line, or Empty.
func (b Board) Winner() Cell {
	if ln, ok := b.WinningLine(); ok {
		return b[ln[0]]
	}
	return Empty
}

// WinningLine returns the first completed line in scan order.
func (b Board) WinningLine() (Line, bool) {
	for _, ln := range Lines {
		c := b[ln[0]]
		if c != Empty && b[ln[1]] == c && b[ln[2]] == c {
			return ln, true
		}
	}
	return Line{}, false
}

// Full reports whether every cell holds a mark.
func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Over reports whether the position is won or full.
func (b Board) Over() bool {
	return b.Winner() != Empty || b.Full()
}

// Outcome classifies the position. A completed line wins even on a full board.
func (b Board) Outcome() Outcome {
	switch b.Winner() {
	case X:
		return XWins
	case O:
		return OWins
	}
	if b.Full() {
		return Draw
	}
	return InProgress
}

// EmptyCells lists the indices of empty cells in ascending order.
func (b Board) EmptyCells() []int {
	out := make([]int, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// Place returns a copy of b with mark c at idx.
func (b Board) Place(idx int, c Cell) (Board, error) {
	if idx < 0 || idx >= len(b) {
		return b, ErrOutOfBounds
	}
	if c != X && c != O {
		return b, ErrInvalidMark
	}
	if b[idx] != Empty {
		return b, ErrOccupied
	}
	b[idx] = c
	return b, nil
}
