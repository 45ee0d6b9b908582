// Package httpserver exposes the daemon's operational surface: health
// checks, Prometheus metrics, and a small read-only admin API over the
// active RTSP sessions. It never touches the control or media sockets
// directly, only the stats the rest of the daemon publishes.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rtspd/internal/logger"
	"rtspd/internal/middleware"
	"rtspd/internal/pool"
)

// Build information, set at compile time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// SessionLister is the subset of *server.Acceptor the admin API needs. It is
// an interface so this package never imports the server package directly.
type SessionLister interface {
	SessionIDs() []string
}

// Stats bundles the counters the admin surface reports on. Any field may be
// nil if the corresponding daemon feature is disabled.
type Stats struct {
	Sessions     SessionLister
	RateLimit    *middleware.RateLimiter
	SessionLimit *middleware.ConnectionLimiter
	BufferPool   *pool.BytePool
	FrameRate    int
	MediaFile    string
}

// Server serves the health, metrics, and admin endpoints.
type Server struct {
	addr      string
	log       *logger.Logger
	server    *http.Server
	stats     Stats
	startedAt time.Time
}

// New creates an HTTP server bound to addr.
func New(addr string, log *logger.Logger, stats Stats) *Server {
	return &Server{
		addr:      addr,
		log:       log,
		stats:     stats,
		startedAt: time.Now(),
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server
// fails to serve.
func (s *Server) Run(ctx context.Context) error {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/livez", s.handleLivez).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/version", s.handleVersion).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	r.HandleFunc("/admin/sessions", s.handleAdminSessions).Methods(http.MethodGet)
	r.HandleFunc("/admin/sessions/{id}", s.handleAdminSession).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server starting", "addr", s.addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("http server shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// handleReady reports whether the daemon can currently accept new sessions:
// it is not ready if the session limiter has no free slot for a new client.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := true
	var active int64
	if s.stats.SessionLimit != nil {
		total, _ := s.stats.SessionLimit.GetActiveConnections()
		active = total
		stats := s.stats.SessionLimit.Stats()
		if max, ok := stats["max_total"].(int64); ok && max > 0 {
			ready = active < max
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"ready":           ready,
		"time":            time.Now().Unix(),
		"active_sessions": active,
	})
}

func (s *Server) handleLivez(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"alive": true,
		"time":  time.Now().Unix(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"time":           time.Now().Unix(),
		"started_at":     s.startedAt.Unix(),
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"frame_rate":     s.stats.FrameRate,
		"media_file":     s.stats.MediaFile,
	}

	if s.stats.Sessions != nil {
		status["active_sessions"] = s.stats.Sessions.SessionIDs()
	}
	if s.stats.SessionLimit != nil {
		status["session_limit"] = s.stats.SessionLimit.Stats()
	}
	if s.stats.RateLimit != nil {
		status["rate_limit"] = s.stats.RateLimit.Stats()
	}
	if s.stats.BufferPool != nil {
		status["buffer_pool"] = s.stats.BufferPool.Stats()
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
	})
}

func (s *Server) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if s.stats.Sessions != nil {
		ids = s.stats.Sessions.SessionIDs()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"time":     time.Now().Unix(),
		"total":    len(ids),
		"sessions": ids,
	})
}

func (s *Server) handleAdminSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var ids []string
	if s.stats.Sessions != nil {
		ids = s.stats.Sessions.SessionIDs()
	}
	for _, candidate := range ids {
		if candidate == id {
			s.writeJSON(w, http.StatusOK, map[string]any{
				"id":     id,
				"active": true,
			})
			return
		}
	}
	s.writeJSON(w, http.StatusNotFound, map[string]any{
		"id":    id,
		"error": "session not found",
	})
}
