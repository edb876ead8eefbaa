package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jaminalder/tictactoe/internal/app"
	"github.com/jaminalder/tictactoe/internal/domain"
)

type templates struct {
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-Tac-Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>` + themeCSS + `</style>
</head><body class="theme-{{.Theme}}">{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it.
	// Pages execute "base"; the clones only redefine "content".
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(indexTemplate))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<h1>Tic-Tac-Toe</h1>
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div hx-sse="swap:board">{{template "board" .Board}}</div>
</div>
<p><a href="/">New game</a></p>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const themeCSS = `
.board{display:grid;grid-template-columns:repeat(3,4rem);gap:.3rem}
.board button{width:4rem;height:4rem;font-size:2rem}
.board .win button{background:#ffe066}
.theme-retro{background:#000;color:#33ff33;font-family:monospace}
.theme-retro .board button{background:#111;color:#33ff33;border:2px solid #33ff33;image-rendering:pixelated}
.theme-modern{font-family:system-ui,sans-serif;background:linear-gradient(135deg,#667eea,#764ba2);color:#fff}
.theme-modern .board button{border:0;border-radius:.75rem;background:rgba(255,255,255,.85)}
`

const indexTemplate = `<h1>Tic-Tac-Toe</h1>
<form action="/game" method="post">
  <label>Mode
    <select name="mode">
      <option value="two-player">Two players</option>
      <option value="computer">Against the computer</option>
    </select>
  </label>
  <label>Difficulty
    <select name="difficulty">
      <option value="easy">Easy</option>
      <option value="medium" selected>Medium</option>
      <option value="hard">Hard</option>
    </select>
  </label>
  <label>Theme
    <select name="theme">
      <option value="plain">Plain</option>
      <option value="retro">Retro</option>
      <option value="modern">Modern</option>
    </select>
  </label>
  <button>Create</button>
</form>`

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <p class="status">{{.Status}}</p>
  <p class="score">X {{.Score.X}} · O {{.Score.O}} · Draws {{.Score.Draws}}</p>
  {{/* 3x3 grid */}}
  <div class="board">
  {{range $r := iter 3}}
    {{range $c := iter 3}}
      {{$cell := index $.Cells (add (mul $r 3) $c)}}
      <form class="cell{{if $cell.Win}} win{{end}}" action="/game/{{$.ID}}/play" hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{$r}}">
        <input type="hidden" name="c" value="{{$c}}">
        <button type="submit"{{if not $cell.Open}} disabled{{end}}>{{$cell.Mark}}</button>
      </form>
    {{end}}
  {{end}}
  </div>
  <form action="/game/{{.ID}}/restart" hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post"><button>New round</button></form>
  <form action="/game/{{.ID}}/reset-score" hx-post="/game/{{.ID}}/reset-score" hx-target="#board" hx-swap="outerHTML" method="post"><button>Reset score</button></form>
</div>
`

type cellView struct {
	Mark string
	Win  bool
	Open bool
}

// boardView is the data behind a board fragment.
type boardView struct {
	ID     string
	Cells  [9]cellView
	Status string
	Score  app.Score
	Error  string
}

func newBoardView(gs app.GameState, errMsg string) boardView {
	v := boardView{ID: gs.ID, Score: gs.Score, Error: errMsg, Status: status(gs)}
	for i, c := range gs.Game.Board {
		v.Cells[i] = cellView{
			Mark: c.String(),
			Win:  gs.Game.Highlighted(i),
			Open: c == domain.Empty && !gs.Game.Over,
		}
	}
	return v
}

func status(gs app.GameState) string {
	g := gs.Game
	switch {
	case g.Over && g.Winner != domain.Empty:
		if gs.Options.Mode == app.VsComputer && gs.Seat(app.ComputerID) == g.Winner {
			return "The computer wins!"
		}
		return g.Winner.String() + " wins!"
	case g.Over:
		return "It's a draw!"
	case gs.Options.Mode == app.VsComputer && gs.Seat(app.ComputerID) == g.Turn:
		return "The computer is thinking..."
	}
	return g.Turn.String() + " to move"
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := app.NewPlayerID()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	return v
}
