// Package adapthttp implements the loopback HTTP listener that completes a
// Telegram login for the command line client.
package adapthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"notes/internal/app"
)

// LoginResult is published once per completed login attempt.
type LoginResult struct {
	OK       bool
	Redirect string
	Error    string
}

// Server is the driving HTTP adapter that routes Telegram callbacks to the
// session store.
type Server struct {
	session *app.SessionStore
	botName string
	log     *zap.Logger
	metrics http.Handler
	now     func() time.Time
	results chan LoginResult
}

// New creates a Server that logs in through session. botName is the Telegram
// bot shown by the login widget.
func New(session *app.SessionStore, botName string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		session: session,
		botName: botName,
		log:     log,
		now:     time.Now,
		results: make(chan LoginResult, 1),
	}
}

// WithMetrics exposes h under /metrics.
func (s *Server) WithMetrics(h http.Handler) *Server {
	s.metrics = h
	return s
}

// Results delivers login outcomes. Outcomes nobody is waiting for are dropped.
func (s *Server) Results() <-chan LoginResult {
	return s.results
}

// Handler returns the root http.Handler for the listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(withNoCache)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Get("/login", s.handleLoginPage)
	r.Get("/login/callback", s.handleLoginCallback)
	r.Post("/telegram", s.handleWebAppLogin)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/session", s.handleSession)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) publish(res LoginResult) {
	select {
	case s.results <- res:
	default:
		s.log.Debug("login result dropped", zap.Bool("ok", res.OK))
	}
}
