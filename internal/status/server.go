// Package status expone el estado del bot por HTTP para inspección local.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/session"
)

const defaultHistoryTail = 20

// Server sirve /healthz y la API de solo lectura del bot.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	sess    *session.Session
	board   *domain.Scoreboard
	history *domain.History
}

// New crea el servidor escuchando en addr.
func New(addr string, sess *session.Session, board *domain.Scoreboard, history *domain.History) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		sess:    sess,
		board:   board,
		history: history,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(10 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/scoreboard", s.handleScoreboard)
		r.Get("/session", s.handleSession)
		r.Get("/history", s.handleHistory)
	})
}

// Handler expone el router montado; lo usan los tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start bloquea sirviendo hasta Shutdown. ErrServerClosed no es un error.
func (s *Server) Start() error {
	slog.Info("status: http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status.Start: %w", err)
	}
	return nil
}

// Shutdown para el servidor drenando conexiones activas.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("status: shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "bacbo-signals",
	})
}

type scoreboardResponse struct {
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	ConsecutiveWins int     `json:"consecutive_wins"`
	TotalAttempts   int     `json:"total_attempts"`
	AssertivityRate float64 `json:"assertivity_rate"`
}

func (s *Server) handleScoreboard(w http.ResponseWriter, _ *http.Request) {
	score := s.board.Snapshot()
	s.writeJSON(w, http.StatusOK, scoreboardResponse{
		Wins:            score.Wins,
		Losses:          score.Losses,
		ConsecutiveWins: score.ConsecutiveWins,
		TotalAttempts:   score.TotalAttempts,
		AssertivityRate: score.AssertivityRate,
	})
}

type sessionResponse struct {
	Phase      string `json:"phase"`
	CycleID    string `json:"cycle_id,omitempty"`
	Rule       string `json:"rule,omitempty"`
	Target     string `json:"target,omitempty"`
	StageIndex int    `json:"stage_index"`
	MaxStages  int    `json:"max_stages"`
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	snap := s.sess.Snapshot()
	s.writeJSON(w, http.StatusOK, sessionResponse{
		Phase:      snap.Phase.String(),
		CycleID:    snap.CycleID,
		Rule:       snap.Rule,
		Target:     snap.Target,
		StageIndex: snap.StageIndex,
		MaxStages:  snap.MaxStages,
	})
}

type historyResponse struct {
	Seen     int      `json:"seen"`
	Outcomes []string `json:"outcomes"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := defaultHistoryTail
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	tail := s.history.Tail(n)
	labels := make([]string, 0, len(tail))
	for _, o := range tail {
		labels = append(labels, o.Label())
	}
	s.writeJSON(w, http.StatusOK, historyResponse{
		Seen:     s.history.Seen(),
		Outcomes: labels,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("status: failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		slog.Debug("status: http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
