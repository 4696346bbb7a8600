// Package templates renders the bond checker page and its fragments as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/a-h/templ"
)

// PageData is everything the index page shows.
type PageData struct {
	State core.Snapshot

	// Filtered preview lists and the queries that produced them.
	Own          []core.Identifier
	Winning      []core.WinningEntry
	OwnQuery     string
	WinningQuery string

	OwnAccept     string // accept attribute for the own file input: ".csv,.xlsx"
	WinningAccept string
	MaxFileSize   int64

	Error *core.UserMessage
}

// writer collects the first write error so components can render without
// checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) rawf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}

// Page renders the full index page.
func Page(d PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>Prize Bond Checker</title>`)
		w.raw(`<link rel="stylesheet" href="/static/app.css"></head><body>`)
		w.raw(`<header><h1>Prize Bond Checker</h1><p>Check your winning bonds instantly</p></header><main>`)

		if d.Error != nil {
			if w.err == nil {
				w.err = ErrorAlert(d.Error.Message, d.Error.Action, d.Error.Code).Render(ctx, out)
			}
		}

		samplesSection(w)

		w.raw(`<section class="uploads">`)
		if d.MaxFileSize > 0 {
			w.raw(`<p class="hint">Files up to `)
			w.text(FileSize(d.MaxFileSize))
			w.raw(`.</p>`)
		}
		uploadCard(w, uploadCardData{
			Category:   core.CategoryOwn,
			Action:     "/own",
			Accept:     d.OwnAccept,
			Help:       "Upload your Excel or CSV file containing your prize bond numbers",
			Loaded:     d.State.OwnLoaded,
			File:       d.State.OwnFile,
			Count:      len(d.State.Own),
			Noun:       "bond",
			QueryParam: "own_q",
			Query:      d.OwnQuery,
		})
		if d.State.OwnLoaded {
			rows := make([]string, len(d.Own))
			for i, id := range d.Own {
				rows[i] = id.Number
			}
			previewTable(w, rows, len(d.State.Own))
		}
		w.raw(`</div>`)

		uploadCard(w, uploadCardData{
			Category:   core.CategoryWinning,
			Action:     "/winning",
			Accept:     d.WinningAccept,
			Help:       "Upload the winning numbers file (Text, Excel, or CSV). All 6-digit bond numbers are extracted from text files.",
			Loaded:     d.State.WinningLoaded,
			File:       d.State.WinningFile,
			Count:      len(d.State.Winning),
			Noun:       "winner",
			QueryParam: "win_q",
			Query:      d.WinningQuery,
		})
		if d.State.WinningLoaded {
			rows := make([]string, len(d.Winning))
			for i, e := range d.Winning {
				rows[i] = e.Number
			}
			previewTable(w, rows, len(d.State.Winning))
		}
		w.raw(`</div></section>`)

		w.raw(`<section class="check"><form method="post" action="/check">`)
		if d.State.CanCheck() {
			w.raw(`<button type="submit">Check for Matches</button>`)
		} else {
			w.raw(`<button type="submit" disabled>Check for Matches</button>`)
		}
		w.raw(`</form><form method="post" action="/reset"><button type="submit" class="secondary">Start Over</button></form></section>`)

		if w.err == nil {
			w.err = Results(d.State).Render(ctx, out)
		}

		instructions(w)
		w.raw(`</main><footer><p>Files are read on the server and kept only for your session.</p></footer></body></html>`)
		return w.err
	})
}

type uploadCardData struct {
	Category   core.Category
	Action     string
	Accept     string
	Help       string
	Loaded     bool
	File       string
	Count      int
	Noun       string
	QueryParam string
	Query      string
}

// uploadCard opens a card div that the caller closes after the preview table.
func uploadCard(w *writer, c uploadCardData) {
	w.rawf(`<div class="card" id="%s">`, c.Category)
	w.raw(`<h2>`)
	w.text(c.Category.Label())
	w.raw(`</h2><p>`)
	w.text(c.Help)
	w.raw(`</p>`)

	w.raw(`<form method="post" enctype="multipart/form-data" action="`)
	w.text(c.Action)
	w.raw(`"><input type="file" name="file" required accept="`)
	w.text(c.Accept)
	w.raw(`"><button type="submit">`)
	if c.Loaded {
		w.raw(`Change File`)
	} else {
		w.raw(`Upload`)
	}
	w.raw(`</button></form>`)

	if !c.Loaded {
		return
	}

	w.raw(`<p class="loaded">`)
	w.text(CountLabel(c.Count, c.Noun) + " loaded")
	if c.File != "" {
		w.raw(` from <code>`)
		w.text(c.File)
		w.raw(`</code>`)
	}
	w.raw(`</p>`)

	w.raw(`<form method="get" action="/" class="search"><input type="search" name="`)
	w.text(c.QueryParam)
	w.raw(`" placeholder="Search bond number..." value="`)
	w.text(c.Query)
	w.raw(`"><button type="submit">Search</button></form>`)
}

// previewTable lists numbers with their position in the filtered list.
func previewTable(w *writer, numbers []string, total int) {
	if len(numbers) < total {
		w.rawf(`<p class="hint">Showing %d of %d</p>`, len(numbers), total)
	}
	w.raw(`<div class="preview"><table><thead><tr><th>#</th><th>Bond Number</th></tr></thead><tbody>`)
	for i, n := range numbers {
		w.raw(`<tr><td>`)
		w.raw(strconv.Itoa(i + 1))
		w.raw(`</td><td class="mono">`)
		w.text(n)
		w.raw(`</td></tr>`)
	}
	w.raw(`</tbody></table></div>`)
}

// Results renders the match results section. Nothing is shown before a check
// has run, so stale "no matches" messages never appear.
func Results(s core.Snapshot) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section id="results">`)
		switch {
		case !s.Checked:
		case len(s.Matches) == 0:
			w.raw(`<div class="no-matches"><h3>No Matches Found</h3>`)
			w.raw(`<p>Unfortunately, none of your bonds matched the winning numbers this time.</p></div>`)
		default:
			w.raw(`<div class="winners"><h2>Congratulations!</h2><p>You have `)
			w.text(CountLabel(len(s.Matches), "winning bond"))
			w.raw(`!</p><ul>`)
			for _, m := range s.Matches {
				w.raw(`<li><span class="mono">`)
				w.text(m.Number)
				w.raw(`</span> <span class="prize">`)
				w.text(m.Prize)
				w.raw(`</span>`)
				if m.Denomination != nil {
					w.rawf(` <span class="denomination">Rs. %d</span>`, *m.Denomination)
				}
				w.raw(`</li>`)
			}
			w.raw(`</ul><a href="/api/matches/export" download>Download results (CSV)</a></div>`)
		}
		w.raw(`</section>`)
		return w.err
	})
}

// ErrorAlert renders an error banner with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert" role="alert"><strong>`)
		w.text(message)
		w.raw(`</strong>`)
		if action != "" {
			w.raw(` <span>`)
			w.text(action)
			w.raw(`</span>`)
		}
		if code != "" {
			w.raw(` <small>Code: `)
			w.text(code)
			w.raw(`</small>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}

func samplesSection(w *writer) {
	w.raw(`<section class="samples"><h2>Sample Templates</h2>`)
	w.raw(`<p>Not sure how to format your files? Download a sample to see what is expected.</p><ul>`)
	w.raw(`<li><a href="/samples/my-bonds.xlsx" download>My Bonds Sample</a> Excel format (.xlsx)</li>`)
	w.raw(`<li><a href="/samples/my-bonds.csv" download>My Bonds Sample</a> CSV format (.csv)</li>`)
	w.raw(`<li><a href="/samples/draw-result.txt" download>Winning Numbers Sample</a> Text format (.txt)</li>`)
	w.raw(`</ul></section>`)
}

func instructions(w *writer) {
	steps := []string{
		"Upload your Excel or CSV file containing your prize bond numbers in the first section",
		"Upload the winning numbers file (Text, Excel, or CSV). Every 6-digit number in a text file is picked up",
		`Click "Check for Matches" to see if you have any winning bonds`,
		"Your winning bonds are listed below the button with their prize information",
	}
	w.raw(`<section class="how-to"><h3>How to Use</h3><ol>`)
	for _, s := range steps {
		w.raw(`<li>`)
		w.text(s)
		w.raw(`</li>`)
	}
	w.raw(`</ol></section>`)
}

// CountLabel formats n with the noun, adding "s" unless n is 1.
func CountLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// FileSize formats a byte count for display: "10 MB", "512 KB", "900 bytes".
func FileSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + " MB"
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatInt(n>>10, 10) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

// AcceptList joins extensions for an input accept attribute.
func AcceptList(exts []string) string {
	return strings.Join(exts, ",")
}
