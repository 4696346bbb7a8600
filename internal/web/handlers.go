package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/bondcheck/internal/core"
	"github.com/JonMunkholm/bondcheck/internal/logging"
	"github.com/JonMunkholm/bondcheck/internal/samples"
	"github.com/JonMunkholm/bondcheck/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleIndex renders the checker page for the current session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	q := r.URL.Query()

	data := templates.PageData{
		State:         snap,
		OwnQuery:      q.Get("own_q"),
		WinningQuery:  q.Get("win_q"),
		OwnAccept:     templates.AcceptList(core.Extensions(core.CategoryOwn)),
		WinningAccept: templates.AcceptList(core.Extensions(core.CategoryWinning)),
		MaxFileSize:   s.cfg.Upload.MaxFileSize,
	}
	data.Own = core.FilterIdentifiers(snap.Own, data.OwnQuery)
	data.Winning = core.FilterWinning(snap.Winning, data.WinningQuery)

	if code := q.Get("err"); code != "" {
		if msg, ok := core.MessageForCode(code); ok {
			data.Error = &msg
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// CheckResponse is returned by the JSON check endpoint.
type CheckResponse struct {
	Matches []core.MatchResult `json:"matches"`
	Count   int                `json:"count"`
}

// check runs the matcher for the request's session, then waits out the
// configured display delay.
func (s *Server) check(ctx context.Context) ([]core.MatchResult, error) {
	sess := sessionFrom(ctx)

	// Results are stored only once the delay has passed, so a request
	// cancelled during it leaves the session unchecked.
	if d := s.cfg.Match.DisplayDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	matches, err := sess.Check()
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "session_id", sess.ID()).Info("bonds checked", "matches", len(matches))
	return matches, nil
}

func (s *Server) handleCheckForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.check(r.Context()); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	redirectToPage(w, r, "#results")
}

func (s *Server) handleCheckAPI(w http.ResponseWriter, r *http.Request) {
	matches, err := s.check(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Matches: matches, Count: len(matches)})
}

// handleState returns the session snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Snapshot())
}

// ListResponse is a filtered preview list.
type ListResponse[T any] struct {
	Query string `json:"query,omitempty"`
	Total int    `json:"total"`
	Items []T    `json:"items"`
}

func (s *Server) handleListOwn(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, ListResponse[core.Identifier]{
		Query: q,
		Total: len(snap.Own),
		Items: core.FilterIdentifiers(snap.Own, q),
	})
}

func (s *Server) handleListWinning(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, ListResponse[core.WinningEntry]{
		Query: q,
		Total: len(snap.Winning),
		Items: core.FilterWinning(snap.Winning, q),
	})
}

// handleExportMatches downloads the last check's results as CSV.
func (s *Server) handleExportMatches(w http.ResponseWriter, r *http.Request) {
	snap := sessionFrom(r.Context()).Snapshot()
	if !snap.Checked {
		respondError(w, r, core.ErrNothingToMatch, http.StatusConflict)
		return
	}

	var buf bytes.Buffer
	if err := core.WriteMatchesCSV(&buf, snap.Matches); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bond-matches.csv"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleResetForm(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).Reset()
	redirectToPage(w, r, "")
}

func (s *Server) handleResetAPI(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Reset()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// sampleFiles maps download names to their generators and content types.
var sampleFiles = map[string]struct {
	contentType string
	write       func(*bytes.Buffer) error
}{
	samples.OwnCSVName: {"text/csv; charset=utf-8", func(b *bytes.Buffer) error { return samples.WriteOwnCSV(b) }},
	samples.OwnXLSXName: {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		func(b *bytes.Buffer) error { return samples.WriteOwnXLSX(b) }},
	samples.DrawName: {"text/plain; charset=utf-8", func(b *bytes.Buffer) error { return samples.WriteDrawResult(b) }},
}

// handleSample serves a generated sample input file.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sample, ok := sampleFiles[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := sample.write(&buf); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", sample.contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(buf.Bytes())
}

// HealthResponse reports server load for monitoring.
type HealthResponse struct {
	Status   string              `json:"status"`
	Sessions int                 `json:"sessions"`
	Reads    core.LimiterStatus  `json:"reads"`
	Formats  map[string][]string `json:"formats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Sessions: s.store.Len(),
		Formats: map[string][]string{
			string(core.CategoryOwn):     core.Extensions(core.CategoryOwn),
			string(core.CategoryWinning): core.Extensions(core.CategoryWinning),
		},
	}
	if s.limiter != nil {
		resp.Reads = s.limiter.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
