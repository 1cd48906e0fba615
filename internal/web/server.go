// Package web provides the HTTP server and JSON API for the table
// workspace editor.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gridnote/gridnote/internal/config"
	"github.com/gridnote/gridnote/internal/core"
	ownmw "github.com/gridnote/gridnote/internal/web/middleware"
)

// Server is the HTTP server for the workspace API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(ownmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(ownmw.APIKeyAuth(&s.cfg.Security))

		// Workspace
		r.Get("/workspace", s.handleWorkspace)
		r.Get("/state", s.handleState)

		// Pages
		r.Get("/pages", s.handleListPages)
		r.Post("/pages", s.handleCreatePage)
		r.Get("/pages/{pageID}", s.handleGetPage)
		r.Patch("/pages/{pageID}", s.handleRenamePage)
		r.Delete("/pages/{pageID}", s.handleDeletePage)
		r.Post("/pages/{pageID}/activate", s.handleActivatePage)
		r.Get("/pages/{pageID}/search", s.handleSearch)

		// Import and export
		r.Post("/pages/{pageID}/import", s.handleImport)
		r.Get("/pages/{pageID}/export", s.handleExportPage)

		// Tables
		r.Post("/pages/{pageID}/tables", s.handleCreateTable)
		r.Get("/pages/{pageID}/tables/{tableID}", s.handleGetTable)
		r.Patch("/pages/{pageID}/tables/{tableID}", s.handleRenameTable)
		r.Delete("/pages/{pageID}/tables/{tableID}", s.handleDeleteTable)
		r.Post("/pages/{pageID}/tables/{tableID}/duplicate", s.handleDuplicateTable)
		r.Get("/pages/{pageID}/tables/{tableID}/export", s.handleExportTable)

		// Edits
		r.Put("/pages/{pageID}/tables/{tableID}/cell", s.handleUpdateCell)
		r.Put("/pages/{pageID}/tables/{tableID}/header", s.handleUpdateHeader)
		r.Post("/pages/{pageID}/tables/{tableID}/rows", s.handleInsertRow)
		r.Delete("/pages/{pageID}/tables/{tableID}/rows/{index}", s.handleDeleteRow)
		r.Post("/pages/{pageID}/tables/{tableID}/columns", s.handleInsertColumn)
		r.Delete("/pages/{pageID}/tables/{tableID}/columns/{index}", s.handleDeleteColumn)

		// AI cell generation
		r.Post("/pages/{pageID}/tables/{tableID}/generate", s.handleGenerateCells)
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

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window

	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup prunes stale visitor entries every minute until stop is called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.prune(now)
		}
	}
}

// prune drops visitors idle for more than two windows.
func (rl *rateLimiter) prune(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

// stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// RealIP middleware already rewrote RemoteAddr when the header is set
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error: "Too many requests", Code: "RATE001",
				Action: "Wait a minute before retrying",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
