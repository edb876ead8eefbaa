package domain

import "errors"

// Game holds the current state of a Tic-Tac-Toe round.
type Game struct {
	Board  Board
	Turn   Cell
	Winner Cell
	// Line is the completed line when Winner is set.
	Line  Line
	Over  bool
	Moves int
}

// ErrGameOver is returned when playing into a finished round.
var ErrGameOver = errors.New("game over")

// New returns a new game with X to move.
func New() Game {
	return Game{Board: NewBoard(), Turn: X}
}

// Play attempts to play the current turn at row r, column c (0..2).
func (g *Game) Play(r, c int) error {
	if g.Over {
		return ErrGameOver
	}
	if r < 0 || r > 2 || c < 0 || c > 2 {
		return ErrOutOfBounds
	}
	return g.PlayAt(r*3 + c)
}

// PlayAt plays the current turn at a row-major cell index.
func (g *Game) PlayAt(idx int) error {
	if g.Over {
		return ErrGameOver
	}
	next, err := g.Board.Place(idx, g.Turn)
	if err != nil {
		return err
	}
	g.Board = next
	g.Moves++

	// win takes precedence over a full board
	if ln, ok := g.Board.WinningLine(); ok {
		g.Winner = g.Board[ln[0]]
		g.Line = ln
		g.Over = true
		return nil
	}
	if g.Board.Full() {
		g.Winner = Empty
		g.Over = true
		return nil
	}

	g.Turn = g.Turn.Next()
	return nil
}

// Outcome reports the round's result.
func (g Game) Outcome() Outcome {
	return g.Board.Outcome()
}

// Highlighted reports whether idx is part of the winning line.
func (g Game) Highlighted(idx int) bool {
	if g.Winner == Empty {
		return false
	}
	for _, i := range g.Line {
		if i == idx {
			return true
		}
	}
	return false
}
