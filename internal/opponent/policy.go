// Package opponent picks moves for the computer player.
//
// The strongest tier looks one ply ahead: it takes a winning cell, then a
// blocking cell, then the centre, then a random corner, then any random cell.
// It is beatable on purpose.
package opponent

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/jaminalder/tictactoe/internal/domain"
)

// NoMove is returned when the board has no empty cell.
const NoMove = -1

// Difficulty selects the move policy.
type Difficulty uint8

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// ErrUnknownDifficulty is returned by ParseDifficulty.
var ErrUnknownDifficulty = errors.New("unknown difficulty")

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", uint8(d))
	}
}

// ParseDifficulty parses "easy", "medium" or "hard".
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Easy, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Rand is the random source used for tie-breaks. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// globalRand uses the math/rand top-level functions, which are safe for
// concurrent use.
type globalRand struct{}

func (globalRand) Intn(n int) int   { return rand.Intn(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

var corners = [4]int{0, 2, 6, 8}

const center = 4

// SelectMove returns the cell index the computer playing me should take,
// or NoMove when the board is full. A nil rng uses the process-wide source.
func SelectMove(b domain.Board, d Difficulty, me domain.Cell, rng Rand) int {
	if rng == nil {
		rng = globalRand{}
	}
	free := b.EmptyCells()
	if len(free) == 0 {
		return NoMove
	}
	switch d {
	case Hard:
		return smartMove(b, free, me, rng)
	case Medium:
		if rng.Float64() < 0.5 {
			return smartMove(b, free, me, rng)
		}
		return pick(free, rng)
	default:
		return pick(free, rng)
	}
}

func smartMove(b domain.Board, free []int, me domain.Cell, rng Rand) int {
	if idx, ok := completingMove(b, free, me); ok {
		return idx
	}
	if idx, ok := completingMove(b, free, me.Next()); ok {
		return idx
	}
	if b[center] == domain.Empty {
		return center
	}
	open := make([]int, 0, len(corners))
	for _, i := range corners {
		if b[i] == domain.Empty {
			open = append(open, i)
		}
	}
	if len(open) > 0 {
		return pick(open, rng)
	}
	return pick(free, rng)
}

// completingMove returns the lowest free index where mark would win.
func completingMove(b domain.Board, free []int, mark domain.Cell) (int, bool) {
	if mark == domain.Empty {
		return NoMove, false
	}
	for _, idx := range free {
		next, err := b.Place(idx, mark)
		if err != nil {
			continue
		}
		if next.Winner() == mark {
			return idx, true
		}
	}
	return NoMove, false
}

func pick(cells []int, rng Rand) int {
	return cells[rng.Intn(len(cells))]
}
