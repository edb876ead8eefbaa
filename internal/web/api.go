package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/domain"
	"github.com/jaminalder/tictactoe/internal/opponent"
)

type scoreJSON struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

type stateJSON struct {
	ID         string    `json:"id"`
	Board      string    `json:"board"`
	Cells      [9]string `json:"cells"`
	Turn       string    `json:"turn"`
	Winner     string    `json:"winner,omitempty"`
	Line       []int     `json:"line,omitempty"`
	Over       bool      `json:"over"`
	Outcome    string    `json:"outcome"`
	Moves      int       `json:"moves"`
	Round      int       `json:"round"`
	Mode       string    `json:"mode"`
	Difficulty string    `json:"difficulty"`
	Theme      string    `json:"theme"`
	Score      scoreJSON `json:"score"`
}

func newStateJSON(gs app.GameState) stateJSON {
	g := gs.Game
	out := stateJSON{
		ID:         gs.ID,
		Board:      g.Board.String(),
		Turn:       g.Turn.String(),
		Winner:     g.Winner.String(),
		Over:       g.Over,
		Outcome:    g.Outcome().String(),
		Moves:      g.Moves,
		Round:      gs.Round,
		Mode:       gs.Options.Mode.String(),
		Difficulty: gs.Options.Difficulty.String(),
		Theme:      string(gs.Options.Theme),
		Score:      scoreJSON{X: gs.Score.X, O: gs.Score.O, Draws: gs.Score.Draws},
	}
	for i, c := range g.Board {
		out.Cells[i] = c.String()
	}
	if g.Winner != domain.Empty {
		out.Line = g.Line[:]
	}
	return out
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotAPlayer):
		return http.StatusForbidden
	case errors.Is(err, app.ErrNotYourTurn), errors.Is(err, domain.ErrOccupied), errors.Is(err, domain.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrBoardSize),
		errors.Is(err, domain.ErrBadCell), errors.Is(err, domain.ErrInvalidMark),
		errors.Is(err, opponent.ErrUnknownDifficulty), errors.Is(err, app.ErrUnknownMode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("api request failed")
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

// decode reads a JSON body into v. An empty body leaves v zero.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("bad request: %w", err)
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
}

type createRequest struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	Theme      string `json:"theme"`
	Player     string `json:"player"`
}

type seatResponse struct {
	Player string    `json:"player"`
	Seat   string    `json:"seat"`
	State  stateJSON `json:"state"`
}

func (h *handlers) apiCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	opts, err := parseOptions(req.Mode, req.Difficulty, req.Theme)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gs, err := h.svc.CreateGame(opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.seat(w, r, gs.ID, req.Player, http.StatusCreated)
}

type joinRequest struct {
	Player string `json:"player"`
}

func (h *handlers) apiJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	h.seat(w, r, chi.URLParam(r, "id"), req.Player, http.StatusOK)
}

// seat claims a seat for player, minting an id when none is given.
func (h *handlers) seat(w http.ResponseWriter, r *http.Request, id, player string, status int) {
	if player == "" {
		player = app.NewPlayerID()
	}
	side, gs, err := h.svc.Join(id, player)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, seatResponse{Player: player, Seat: side.String(), State: newStateJSON(*gs)})
}

func (h *handlers) apiGet(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, app.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newStateJSON(*gs))
}

type moveRequest struct {
	Player string `json:"player"`
	Index  *int   `json:"index"`
}

func (h *handlers) apiMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Index == nil {
		writeError(w, r, domain.ErrOutOfBounds)
		return
	}
	gs, err := h.svc.PlayAt(chi.URLParam(r, "id"), req.Player, *req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateJSON(*gs))
}

func (h *handlers) apiRestart(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.Restart(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateJSON(*gs))
}

func (h *handlers) apiResetScore(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.ResetScore(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateJSON(*gs))
}

type evaluateRequest struct {
	Board string `json:"board"`
}

type evaluateResponse struct {
	Board   string `json:"board"`
	Winner  string `json:"winner,omitempty"`
	Line    []int  `json:"line,omitempty"`
	Full    bool   `json:"full"`
	Over    bool   `json:"over"`
	Outcome string `json:"outcome"`
	Empty   []int  `json:"empty"`
}

// apiEvaluate runs the rules engine on a board supplied by the client.
func (h *handlers) apiEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	b, err := domain.ParseBoard(req.Board)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := evaluateResponse{
		Board:   b.String(),
		Winner:  b.Winner().String(),
		Full:    b.Full(),
		Over:    b.Over(),
		Outcome: b.Outcome().String(),
		Empty:   b.EmptyCells(),
	}
	if ln, ok := b.WinningLine(); ok {
		resp.Line = ln[:]
	}
	writeJSON(w, http.StatusOK, resp)
}

type suggestRequest struct {
	Board      string `json:"board"`
	Difficulty string `json:"difficulty"`
	Symbol     string `json:"symbol"`
}

type suggestResponse struct {
	Index int    `json:"index"`
	Next  string `json:"next"`
}

// apiSuggest asks the computer policy for a move on a client board.
func (h *handlers) apiSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decode(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	b, err := domain.ParseBoard(req.Board)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := opponent.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	me, err := domain.ParseCell(req.Symbol)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		Index: opponent.SelectMove(b, d, me, nil),
		Next:  me.Next().String(),
	})
}
