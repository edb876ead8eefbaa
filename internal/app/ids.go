package app

import "github.com/google/uuid"

// ComputerID is the player id seated as O in VsComputer games.
const ComputerID = "computer"

// NewPlayerID returns a random UUIDv4 string for cookies and API clients.
func NewPlayerID() string { return uuid.NewString() }

func newGameID() string { return uuid.NewString() }
