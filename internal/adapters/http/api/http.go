// Package api serves the balancing and vote operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider

	Balance(ctx context.Context, req service.BalanceRequest) (service.BalanceResult, error)
	SkillScores(ctx context.Context, player string) (service.PlayerScores, error)

	RecordVote(ctx context.Context, v model.Vote) (service.Receipt, error)
	UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error)
	GetVote(ctx context.Context, id string) (model.Vote, error)
	ListVotes(ctx context.Context, voter string) ([]model.Vote, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	balanceHandler *BalanceHandler
	votesHandler   *VotesHandler
	logger         logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		balanceHandler: NewBalanceHandler(deps),
		votesHandler:   NewVotesHandler(deps),
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the chi router with every route attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/balance", s.balanceHandler.HandleBalance)
		r.Get("/players/{name}/scores", s.balanceHandler.HandlePlayerScores)

		r.Post("/votes", s.votesHandler.HandleRecord)
		r.Get("/votes", s.votesHandler.HandleList)
		r.Get("/votes/{id}", s.votesHandler.HandleGet)
		r.Put("/votes/{id}", s.votesHandler.HandleUpdate)
	})
	return r
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}
