package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/jaminalder/tictactoe/internal/opponent"
)

// Errors exposed by the service layer.
var (
	ErrNotFound    = errors.New("game not found")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNotAPlayer  = errors.New("not a player")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	Game    domain.Game
	X       string
	O       string
	Options Options
	Score   Score
	// Round counts restarts; a pending computer move only lands in its own round.
	Round   int
	Created time.Time
	Updated time.Time
}

// Seat returns the mark held by playerID, or Empty for spectators.
func (gs GameState) Seat(playerID string) domain.Cell {
	switch {
	case playerID == "":
		return domain.Empty
	case gs.X == playerID:
		return domain.X
	case gs.O == playerID:
		return domain.O
	}
	return domain.Empty
}

// Config tunes a Service.
type Config struct {
	// ComputerDelay is the computer's thinking time. Zero plays the reply
	// before Play returns.
	ComputerDelay time.Duration
	// Seed seeds the computer's random source; zero uses the clock.
	Seed int64
	// SubscriberBuffer is the channel capacity per subscriber (default 1).
	SubscriberBuffer int
	Logger           zerolog.Logger
}

type subscriber struct {
	ch        chan GameState
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers.
type Service struct {
	mu     sync.Mutex
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	timers map[*time.Timer]struct{} // pending computer replies
	closed bool
	rng    *rand.Rand
	cfg    Config
	log    zerolog.Logger
}

// NewService creates a service.
func NewService(cfg Config) *Service {
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		timers: make(map[*time.Timer]struct{}),
		rng:    rand.New(rand.NewSource(seed)),
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "games").Logger(),
	}
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame(opts Options) (*GameState, error) {
	if opts.Theme == "" {
		opts.Theme = ThemePlain
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	gs := &GameState{ID: newGameID(), Game: domain.New(), Options: opts, Created: now, Updated: now}
	if opts.Mode == VsComputer {
		gs.O = ComputerID
	}
	s.games[gs.ID] = gs
	s.log.Info().
		Str("game", gs.ID).
		Stringer("mode", opts.Mode).
		Stringer("difficulty", opts.Difficulty).
		Str("theme", string(opts.Theme)).
		Msg("game created")
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Join assigns a seat to the player if available; returns Empty for spectators.
func (s *Service) Join(id, playerID string) (domain.Cell, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	switch {
	case playerID == "" || playerID == ComputerID:
	case gs.X == "" || gs.X == playerID:
		gs.X = playerID
		side = domain.X
	case gs.O == "" || gs.O == playerID:
		gs.O = playerID
		side = domain.O
	}
	gs.Updated = time.Now()
	cp := *gs
	return side, &cp, nil
}

// Play validates seat and turn, applies a move at row r, column c, and broadcasts.
func (s *Service) Play(id, playerID string, r, c int) (*GameState, error) {
	return s.apply(id, playerID, func(g *domain.Game) error { return g.Play(r, c) })
}

// PlayAt is Play addressed by row-major cell index.
func (s *Service) PlayAt(id, playerID string, idx int) (*GameState, error) {
	return s.apply(id, playerID, func(g *domain.Game) error { return g.PlayAt(idx) })
}

func (s *Service) apply(id, playerID string, move func(*domain.Game) error) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Validate player is seated
	seat := gs.Seat(playerID)
	if seat == domain.Empty || playerID == ComputerID {
		return nil, ErrNotAPlayer
	}
	if gs.Game.Over {
		return nil, domain.ErrGameOver
	}
	if seat != gs.Game.Turn {
		return nil, ErrNotYourTurn
	}
	if err := move(&gs.Game); err != nil {
		return nil, err
	}
	s.settleLocked(gs)

	if s.computerToMove(gs) {
		if s.cfg.ComputerDelay <= 0 {
			s.computerMoveLocked(gs)
		} else if !s.closed {
			round := gs.Round
			var t *time.Timer
			t = time.AfterFunc(s.cfg.ComputerDelay, func() { s.playComputer(id, round, t) })
			s.timers[t] = struct{}{}
		}
	}

	cp := *gs
	s.broadcastLocked(cp)
	return &cp, nil
}

func (s *Service) computerToMove(gs *GameState) bool {
	return gs.Options.Mode == VsComputer && !gs.Game.Over && gs.Seat(ComputerID) == gs.Game.Turn
}

// playComputer runs a delayed computer reply unless the round moved on.
func (s *Service) playComputer(id string, round int, t *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, t)
	if s.closed {
		return
	}
	gs, ok := s.games[id]
	if !ok || gs.Round != round || !s.computerToMove(gs) {
		return
	}
	s.computerMoveLocked(gs)
	s.broadcastLocked(*gs)
}

func (s *Service) computerMoveLocked(gs *GameState) {
	mark := gs.Seat(ComputerID)
	idx := opponent.SelectMove(gs.Game.Board, gs.Options.Difficulty, mark, s.rng)
	if idx == opponent.NoMove {
		return
	}
	if err := gs.Game.PlayAt(idx); err != nil {
		s.log.Error().Err(err).Str("game", gs.ID).Int("cell", idx).Msg("computer move rejected")
		return
	}
	s.log.Debug().
		Str("game", gs.ID).
		Stringer("difficulty", gs.Options.Difficulty).
		Int("cell", idx).
		Msg("computer moved")
	s.settleLocked(gs)
}

// settleLocked stamps the update and tallies a round that just finished.
func (s *Service) settleLocked(gs *GameState) {
	gs.Updated = time.Now()
	if !gs.Game.Over {
		return
	}
	gs.Score.record(gs.Game)
	s.log.Info().
		Str("game", gs.ID).
		Int("round", gs.Round).
		Stringer("outcome", gs.Game.Outcome()).
		Int("moves", gs.Game.Moves).
		Msg("round finished")
}

// Restart starts a new round with X to move; the score is kept.
func (s *Service) Restart(id string) (*GameState, error) {
	return s.update(id, func(gs *GameState) {
		gs.Game = domain.New()
		gs.Round++
	})
}

// ResetScore clears the tally without touching the current round.
func (s *Service) ResetScore(id string) (*GameState, error) {
	return s.update(id, func(gs *GameState) { gs.Score = Score{} })
}

func (s *Service) update(id string, fn func(*GameState)) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(gs)
	gs.Updated = time.Now()
	cp := *gs
	s.broadcastLocked(cp)
	return &cp, nil
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
// The channel is closed on unsubscribe, when ctx ends, or when the subscriber falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan GameState, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan GameState, s.cfg.SubscriberBuffer)}
	set[sub] = struct{}{}

	done := make(chan struct{})
	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			close(done)
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			sub.close()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsub()
		case <-done:
		}
	}()
	return sub.ch, unsub, nil
}

// broadcastLocked fans gs out without blocking; slow subscribers are closed and dropped.
func (s *Service) broadcastLocked(gs GameState) {
	set := s.subs[gs.ID]
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- gs:
		default:
			delete(set, sub)
			sub.close()
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn().Str("game", gs.ID).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
}

// Close stops pending computer replies and closes every subscriber channel.
// Games stay readable; later delayed replies are not scheduled.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
	n := 0
	for id, set := range s.subs {
		for sub := range set {
			sub.close()
			n++
		}
		delete(s.subs, id)
	}
	s.log.Info().Int("subscribers", n).Msg("service closed")
}
