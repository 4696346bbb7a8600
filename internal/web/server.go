// Package web provides the HTTP server and handlers for the bond checker UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JonMunkholm/bondcheck/internal/config"
	"github.com/JonMunkholm/bondcheck/internal/core"
	mw "github.com/JonMunkholm/bondcheck/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the bond checker.
type Server struct {
	cfg     *config.Config
	store   *core.SessionStore
	limiter *core.Limiter
	router  *chi.Mux
	server  *http.Server

	rateLimiters []*rateLimiter
}

// NewServer creates a Server over a session store. The limiter is only read
// for health status; sessions hold their own reference to it.
func NewServer(cfg *config.Config, store *core.SessionStore, limiter *core.Limiter) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		limiter: limiter,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)

	// Sample inputs need no session.
	s.router.Get("/samples/{name}", s.handleSample)

	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)

		uploads := func(r chi.Router) {}
		if s.cfg.Rate.Enabled {
			uploadLimit := s.newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware
			uploads = func(r chi.Router) { r.Use(uploadLimit) }
		}

		// Page and form posts (redirect back to the page)
		r.Get("/", s.handleIndex)
		r.Group(func(r chi.Router) {
			uploads(r)
			r.Post("/own", s.handleUploadForm(core.CategoryOwn))
			r.Post("/winning", s.handleUploadForm(core.CategoryWinning))
		})
		r.Post("/check", s.handleCheckForm)
		r.Post("/reset", s.handleResetForm)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Get("/state", s.handleState)
			r.Get("/own", s.handleListOwn)
			r.Get("/winning", s.handleListWinning)
			r.Group(func(r chi.Router) {
				uploads(r)
				r.Post("/own", s.handleUploadAPI(core.CategoryOwn))
				r.Post("/winning", s.handleUploadAPI(core.CategoryWinning))
			})
			r.Post("/check", s.handleCheckAPI)
			r.Get("/matches/export", s.handleExportMatches)
			r.Post("/reset", s.handleResetAPI)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Close stops the rate limiter cleanup goroutines. Safe to call more than once.
func (s *Server) Close() {
	for _, rl := range s.rateLimiters {
		rl.stop()
	}
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The page is plain HTML forms; no scripts are needed.
			if enableCSP {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; script-src 'none'; style-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
