package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/jaminalder/tictactoe/internal/opponent"
)

// Mode decides who sits in the O seat.
type Mode uint8

const (
	TwoPlayer Mode = iota
	VsComputer
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown mode")

func (m Mode) String() string {
	if m == VsComputer {
		return "computer"
	}
	return "two-player"
}

// ParseMode accepts the names used by the create form and the JSON API.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "two-player", "local", "pvp":
		return TwoPlayer, nil
	case "computer", "ai", "single-player":
		return VsComputer, nil
	}
	return TwoPlayer, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Theme is the cosmetic variant a game page is drawn with.
type Theme string

const (
	ThemePlain  Theme = "plain"
	ThemeRetro  Theme = "retro"
	ThemeModern Theme = "modern"
)

// ParseTheme maps unknown names to ThemePlain.
func ParseTheme(s string) Theme {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeRetro, ThemeModern:
		return t
	}
	return ThemePlain
}

// Options are fixed when a game is created.
type Options struct {
	Mode       Mode
	Difficulty opponent.Difficulty
	Theme      Theme
}

// Score tallies finished rounds of one game.
type Score struct {
	X     int
	O     int
	Draws int
}

func (s *Score) record(g domain.Game) {
	switch g.Winner {
	case domain.X:
		s.X++
	case domain.O:
		s.O++
	default:
		s.Draws++
	}
}
