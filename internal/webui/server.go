// Package webui serves a session's meshes and mutators over a JSON HTTP API.
package webui

import (
	"context"
	"net/http"
	"time"

	"github.com/metaflame/internal/repository"
	"github.com/metaflame/internal/session"
	"github.com/metaflame/pkg/utils"
)

// maxBodyBytes caps request bodies of the mutating endpoints.
const maxBodyBytes = 1 << 20

// Server represents the web UI server
type Server struct {
	session *session.Session
	exports repository.ExportRepository
	addr    string
	logger  utils.Logger
	clock   utils.Clock
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithExports enables GET /api/exports backed by repo.
func WithExports(repo repository.ExportRepository) Option {
	return func(s *Server) { s.exports = repo }
}

// WithClock sets the clock used for request timing.
func WithClock(clock utils.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// NewServer creates a new web UI server
func NewServer(sess *session.Session, addr string, logger utils.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	s := &Server{
		session: sess,
		addr:    addr,
		logger:  logger,
		clock:   utils.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/mesh", s.handleMesh)
	mux.HandleFunc("GET /api/inspector/tree", s.handleInspectorTree)
	mux.HandleFunc("GET /api/lookup", s.handleLookup)
	mux.HandleFunc("GET /api/highlight", s.handleHighlight)
	mux.HandleFunc("GET /api/exports", s.handleListExports)
	mux.HandleFunc("POST /api/view", s.handleView)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/recolor", s.handleRecolor)
	mux.HandleFunc("POST /api/scheme", s.handleScheme)

	return s.logRequests(mux)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting web server at http://%s", s.addr)
	s.logger.Info("Press Ctrl+C to stop")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. Start returns nil afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
		}).Debug("Handled request in %s", s.clock.Since(start))
	})
}
