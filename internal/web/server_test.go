package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/bondcheck/internal/config"
	"github.com/JonMunkholm/bondcheck/internal/core"
	_ "github.com/JonMunkholm/bondcheck/internal/core/readers"
	"github.com/JonMunkholm/bondcheck/internal/samples"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("BONDCHECK_CONFIG", "")
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	limiter := core.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	store := core.NewSessionStore(core.StoreConfig{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Session: core.SessionOptions{
			PrizeLabel: cfg.Match.PrizeLabel,
			Limiter:    limiter,
		},
	})
	s := NewServer(cfg, store, limiter)
	t.Cleanup(s.Close)
	return s
}

// client replays the session cookie across requests.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, srv: srv}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	req.RemoteAddr = "192.0.2.10:5000"
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *client) post(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodPost, target, nil))
}

func (c *client) upload(target, fileName string, data []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	part, err := mp.CreateFormFile("file", fileName)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	part.Write(data)
	mp.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	return c.do(req)
}

func sampleBytes(t *testing.T, write func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return buf.Bytes()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestFormFlow(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	if c.cookie == nil {
		t.Fatal("expected session cookie on first visit")
	}
	if !strings.Contains(rec.Body.String(), "Prize Bond Checker") {
		t.Error("page missing heading")
	}

	own := sampleBytes(t, func(b *bytes.Buffer) error { return samples.WriteOwnCSV(b) })
	rec = c.upload("/own", samples.OwnCSVName, own)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/#own" {
		t.Fatalf("upload own: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}

	draw := sampleBytes(t, func(b *bytes.Buffer) error { return samples.WriteDrawResult(b) })
	rec = c.upload("/winning", samples.DrawName, draw)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("upload winning: status %d", rec.Code)
	}

	rec = c.post("/check")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/#results" {
		t.Fatalf("check: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}

	body := c.get("/").Body.String()
	want := "You have 4 winning bonds!"
	if !strings.Contains(body, want) {
		t.Errorf("page missing %q", want)
	}
	for _, n := range samples.Winners() {
		if !strings.Contains(body, n) {
			t.Errorf("page missing winner %s", n)
		}
	}

	rec = c.get("/api/matches/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "bond-matches.csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if lines := strings.Count(rec.Body.String(), "\n"); lines != 5 {
		t.Errorf("export has %d lines, want header + 4", lines)
	}

	rec = c.post("/reset")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("reset status = %d", rec.Code)
	}
	state := decode[core.Snapshot](t, c.get("/api/state"))
	if state.OwnLoaded || state.WinningLoaded || state.Checked {
		t.Errorf("state after reset = %+v", state)
	}
}

func TestCheckWithoutListsRedirectsWithCode(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	rec := c.post("/check")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "/?err=MATCH001" {
		t.Fatalf("Location = %q", loc)
	}

	body := c.get(loc).Body.String()
	if !strings.Contains(body, "Please upload both files first") {
		t.Error("page does not render the error message")
	}
}

func TestUnknownErrorCodeIgnored(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	rec := c.get("/?err=" + url.QueryEscape("<script>"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `role="alert"`) {
		t.Error("unknown code should not render an alert")
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		file       string
		data       []byte
		wantStatus int
		wantCode   string
	}{
		{"unsupported own format", "/api/own", "bonds.pdf", []byte("%PDF"), http.StatusUnsupportedMediaType, "FILE002"},
		{"text not accepted for own list", "/api/own", "bonds.txt", []byte("123456"), http.StatusUnsupportedMediaType, "FILE002"},
		{"corrupt workbook", "/api/winning", "draw.xlsx", []byte("not a zip"), http.StatusUnprocessableEntity, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, testConfig(t))
			c := newClient(t, srv)

			rec := c.upload(tt.target, tt.file, tt.data)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestUploadFailureKeepsPreviousList(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	rec := c.upload("/api/own", "mine.csv", []byte("111111\n222222\n"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first upload status = %d", rec.Code)
	}
	got := decode[UploadResponse](t, rec)
	if diff := cmp.Diff(UploadResponse{Category: core.CategoryOwn, FileName: "mine.csv", Count: 2, Loaded: true}, got); diff != "" {
		t.Errorf("upload response mismatch (-want +got):\n%s", diff)
	}

	rec = c.upload("/own", "mine.pdf", []byte("junk"))
	if loc := rec.Header().Get("Location"); loc != "/?err=FILE002" {
		t.Errorf("Location = %q", loc)
	}

	list := decode[ListResponse[core.Identifier]](t, c.get("/api/own"))
	if list.Total != 2 {
		t.Errorf("own list total = %d after failed upload, want 2", list.Total)
	}
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 1024
	srv := newTestServer(t, cfg)
	c := newClient(t, srv)

	rec := c.upload("/api/own", "big.csv", bytes.Repeat([]byte("123456\n"), 1000))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if code := decode[ErrorResponse](t, rec).Code; code != "FILE001" {
		t.Errorf("code = %q", code)
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/api/own", strings.NewReader("x=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := c.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := decode[ErrorResponse](t, rec).Code; code != "FILE004" {
		t.Errorf("code = %q", code)
	}
}

func TestAPICheck(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	rec := c.post("/api/check")
	if rec.Code != http.StatusConflict {
		t.Fatalf("empty check status = %d, want 409", rec.Code)
	}

	c.upload("/api/own", "mine.csv", []byte("Bond\n123456\n654321\n000001\n"))
	c.upload("/api/winning", "draw.txt", []byte("Draw 98: 654321 and 999999, also 123456."))

	rec = c.post("/api/check")
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d (%s)", rec.Code, rec.Body.String())
	}
	got := decode[CheckResponse](t, rec)
	want := CheckResponse{
		Count: 2,
		Matches: []core.MatchResult{
			{Number: "123456", Prize: core.DefaultPrizeLabel},
			{Number: "654321", Prize: core.DefaultPrizeLabel},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("check mismatch (-want +got):\n%s", diff)
	}
}

func TestExportBeforeCheck(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	rec := c.get("/api/matches/export")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestListFilter(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	c.upload("/api/winning", "draw.txt", []byte("123456 123999 555555"))

	got := decode[ListResponse[core.WinningEntry]](t, c.get("/api/winning?q=123"))
	if got.Total != 3 || len(got.Items) != 2 || got.Query != "123" {
		t.Errorf("filtered list = %+v", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := newClient(t, srv)
	bob := newClient(t, srv)

	alice.upload("/api/own", "mine.csv", []byte("123456\n"))
	bob.get("/")

	if got := decode[core.Snapshot](t, bob.get("/api/state")); got.OwnLoaded {
		t.Error("second session sees first session's list")
	}
	if got := decode[core.Snapshot](t, alice.get("/api/state")); !got.OwnLoaded {
		t.Error("first session lost its list")
	}
}

func TestSessionCookieRefreshed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.TTL = 30 * time.Minute
	srv := newTestServer(t, cfg)
	c := newClient(t, srv)

	first := c.get("/api/state")
	var id string
	for i, rec := range []*httptest.ResponseRecorder{first, c.get("/api/state"), c.get("/api/state")} {
		var got *http.Cookie
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == SessionCookie {
				got = ck
			}
		}
		if got == nil {
			t.Fatalf("request %d: no session cookie", i)
		}
		if got.MaxAge != int((30 * time.Minute).Seconds()) {
			t.Errorf("request %d: MaxAge = %d, want 1800", i, got.MaxAge)
		}
		if i == 0 {
			id = got.Value
		} else if got.Value != id {
			t.Errorf("request %d: session id changed from %q to %q", i, id, got.Value)
		}
	}
}

func TestDisplayDelayHonoursCancellation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Match.DisplayDelay = time.Minute
	cfg.Server.RequestTimeout = 50 * time.Millisecond
	srv := newTestServer(t, cfg)
	c := newClient(t, srv)

	c.upload("/api/own", "mine.csv", []byte("123456\n"))
	c.upload("/api/winning", "draw.txt", []byte("123456"))

	start := time.Now()
	rec := c.post("/api/check")
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("check waited %v despite request timeout", elapsed)
	}
	if rec.Code == http.StatusOK {
		t.Fatalf("check should not succeed after timeout")
	}

	// Nothing is stored when the request ends during the delay.
	if state := decode[core.Snapshot](t, c.get("/api/state")); state.Checked || len(state.Matches) != 0 {
		t.Errorf("session checked after cancelled request: %+v", state)
	}
}

func TestSamples(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	tests := []struct {
		name        string
		wantStatus  int
		contentType string
	}{
		{samples.OwnCSVName, http.StatusOK, "text/csv"},
		{samples.OwnXLSXName, http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{samples.DrawName, http.StatusOK, "text/plain"},
		{"passwords.txt", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.get("/samples/" + tt.name)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.contentType != "" && !strings.HasPrefix(rec.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestHealth(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, cfg)
	c := newClient(t, srv)

	c.get("/")
	rec := c.get("/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[HealthResponse](t, rec)
	if got.Status != "ok" || got.Sessions != 1 {
		t.Errorf("health = %+v", got)
	}
	if got.Reads.MaxConcurrent != cfg.Upload.MaxConcurrent {
		t.Errorf("max concurrent = %d, want %d", got.Reads.MaxConcurrent, cfg.Upload.MaxConcurrent)
	}
	if len(got.Formats["own"]) == 0 || len(got.Formats["winning"]) == 0 {
		t.Errorf("formats = %v", got.Formats)
	}
}

func TestUploadRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.UploadLimit = 2
	srv := newTestServer(t, cfg)
	c := newClient(t, srv)

	for i := range 2 {
		if rec := c.upload("/api/own", "mine.csv", []byte("123456\n")); rec.Code != http.StatusOK {
			t.Fatalf("upload %d status = %d", i, rec.Code)
		}
	}

	rec := c.upload("/api/own", "mine.csv", []byte("123456\n"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if code := decode[ErrorResponse](t, rec).Code; code != "RATE001" {
		t.Errorf("code = %q", code)
	}

	// Reads are not counted against the upload limit.
	if rec := c.get("/api/state"); rec.Code != http.StatusOK {
		t.Errorf("state status = %d", rec.Code)
	}
}

func TestHTMXErrorFragment(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	c := newClient(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/check", nil)
	req.Header.Set("HX-Request", "true")
	rec := c.do(req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `role="alert"`) || !strings.Contains(rec.Body.String(), "MATCH001") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	rec := newClient(t, srv).get("/healthz")

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestStaticCSS(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	rec := newClient(t, srv).get("/static/app.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
