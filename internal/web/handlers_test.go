package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/opponent"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	s := app.NewService(app.Config{Seed: 1, Logger: zerolog.Nop()})
	h := NewServer(s, Config{Logger: zerolog.Nop()})
	return s, h
}

func postForm(h http.Handler, path string, form url.Values, player string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if player != "" {
		req.AddCookie(&http.Cookie{Name: "player_id", Value: player})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
	for _, want := range []string{`name="mode"`, `name="difficulty"`, `name="theme"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("index should offer %s", want)
		}
	}
}

func TestCreateRedirectsToGame(t *testing.T) {
	svc, h := newTestServer(t)
	rr := postForm(h, "/game", url.Values{"mode": {"computer"}, "difficulty": {"hard"}, "theme": {"retro"}}, "")
	if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
	gs, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	if !ok {
		t.Fatalf("created game not found")
	}
	if gs.Options.Mode != app.VsComputer || gs.Options.Difficulty != opponent.Hard || gs.Options.Theme != app.ThemeRetro {
		t.Fatalf("options not applied: %+v", gs.Options)
	}
}

func TestCreateRejectsUnknownDifficulty(t *testing.T) {
	_, h := newTestServer(t)
	rr := postForm(h, "/game", url.Values{"difficulty": {"impossible"}}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{Theme: app.ThemeModern})

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var playerID string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "player_id" {
			playerID = c.Value
			break
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	latest, ok := svc.Get(gs.ID)
	if !ok || (latest.X != playerID && latest.O != playerID) {
		t.Fatalf("expected auto-claim X or O; have X=%q O=%q pid=%q", latest.X, latest.O, playerID)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, `class="theme-modern"`) {
		t.Fatalf("expected modern theme class in page")
	}
	if !strings.Contains(body, "X to move") {
		t.Fatalf("expected status line in page")
	}
}

func TestPagesRenderFullDocument(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{Theme: app.ThemeRetro})

	for _, path := range []string{"/", "/game/" + gs.ID} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		body := rr.Body.String()
		for _, want := range []string{"<!doctype html>", `<script src="https://unpkg.com/htmx.org@1.9.12">`, "<style>", "</html>"} {
			if !strings.Contains(body, want) {
				t.Fatalf("GET %s: missing %q in %q", path, want, body)
			}
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/"+gs.ID, nil))
	body := rr.Body.String()
	if !strings.Contains(body, `class="theme-retro"`) {
		t.Fatalf("expected retro theme class, got %q", body)
	}
	if strings.Count(body, `action="/game/`+gs.ID+`/play"`) != 9 {
		t.Fatalf("expected every cell form to post to the play route, got %q", body)
	}
}

func TestUnknownGamePageIs404(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/game/nope", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})
	// First GET to auto-claim X for an anonymous player
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/game/"+gs.ID, nil))

	rr := postForm(h, "/game/"+gs.ID+"/join", url.Values{}, "p2")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.O != "p2" {
		t.Fatalf("expected O seat for p2, got X=%q O=%q", latest.X, latest.O)
	}
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")

	rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"0"}, "c": {"0"}}, "p1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") || !strings.Contains(rr.Body.String(), "O to move") {
		t.Fatalf("expected board fragment with O to move, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Moves != 1 {
		t.Fatalf("expected move applied, moves=%d", latest.Game.Moves)
	}

	// wrong turn is reported inside the fragment
	rr = postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"1"}, "c": {"1"}}, "p1")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Not your turn") {
		t.Fatalf("expected inline error, got %d %q", rr.Code, rr.Body.String())
	}
	rr = postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"x"}}, "p2")
	if !strings.Contains(rr.Body.String(), "Out of bounds") {
		t.Fatalf("expected out of bounds message, got %q", rr.Body.String())
	}
}

func TestPlayAgainstComputerShowsReplyAndHighlight(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{Mode: app.VsComputer, Difficulty: opponent.Hard})
	svc.Join(gs.ID, "p1")

	rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"0"}, "c": {"0"}}, "p1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Board.String() != "X___O____" {
		t.Fatalf("expected computer in the centre, got %s", latest.Game.Board)
	}

	// X: 0, 1 then computer blocks 2; X: 6, computer blocks 3; O now holds 2,3,4
	// and X 0,1,6; X plays 8, computer wins on 3,4,5
	for _, m := range [][2]string{{"0", "1"}, {"2", "0"}, {"2", "2"}} {
		postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {m[0]}, "c": {m[1]}}, "p1")
	}
	latest, _ = svc.Get(gs.ID)
	if !latest.Game.Over || latest.Score.O != 1 {
		t.Fatalf("expected computer win, got board=%s score=%+v", latest.Game.Board, latest.Score)
	}
	rr = postForm(h, "/game/"+gs.ID+"/join", url.Values{}, "p1")
	body := rr.Body.String()
	if !strings.Contains(body, "The computer wins!") || strings.Count(body, "cell win") != 3 {
		t.Fatalf("expected computer win with 3 highlighted cells, got %q", body)
	}
}

func TestRestartAndResetScoreEndpoints(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")
	for i, idx := range []int{0, 3, 1, 4, 2} {
		svc.PlayAt(gs.ID, []string{"p1", "p2"}[i%2], idx)
	}

	rr := postForm(h, "/game/"+gs.ID+"/restart", url.Values{}, "p1")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "X 1 · O 0 · Draws 0") {
		t.Fatalf("expected score kept after restart, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Game.Moves != 0 || latest.Round != 1 {
		t.Fatalf("expected new round, got moves=%d round=%d", latest.Game.Moves, latest.Round)
	}
	rr = postForm(h, "/game/"+gs.ID+"/reset-score", url.Values{}, "p1")
	if !strings.Contains(rr.Body.String(), "X 0 · O 0 · Draws 0") {
		t.Fatalf("expected cleared score, got %q", rr.Body.String())
	}
	rr = postForm(h, "/game/nope/restart", url.Values{}, "p1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	rrCreate := postForm(h, "/game", url.Values{}, "")
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestWriteEventPrefixesEveryLine(t *testing.T) {
	var sb strings.Builder
	writeEvent(&sb, "board", []byte("<div>\n  <p>x</p>\n</div>\n"))
	want := "event: board\ndata: <div>\ndata:   <p>x</p>\ndata: </div>\n\n"
	if sb.String() != want {
		t.Fatalf("unexpected framing:\n%q\nwant\n%q", sb.String(), want)
	}
}
