package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/types"
)

// BalanceDependencies defines the interface for balancing operations.
type BalanceDependencies interface {
	Balance(ctx context.Context, req service.BalanceRequest) (service.BalanceResult, error)
	SkillScores(ctx context.Context, player string) (service.PlayerScores, error)
}

// BalanceHandler handles team balancing and score lookups.
type BalanceHandler struct {
	deps BalanceDependencies
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(deps BalanceDependencies) *BalanceHandler {
	return &BalanceHandler{deps: deps}
}

// HandleBalance handles POST /api/v1/balance. A run that finds no pair is
// still a 200 with found=false. Only names and search diagnostics go out.
func (h *BalanceHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	var req types.BalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.Balance(r.Context(), service.BalanceRequest{
		Players:        req.Players,
		TeamSize:       req.TeamSize,
		Tolerance:      req.Tolerance,
		MaxRelaxCycles: req.MaxRelaxCycles,
		Seed:           req.Seed,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.BalanceResponse{
		RunID:      res.RunID,
		Found:      res.Found,
		TeamA:      res.TeamA,
		TeamB:      res.TeamB,
		Gap:        res.Gap,
		Tolerance:  res.Tolerance,
		Bound:      res.Bound,
		Cycles:     res.Cycles,
		Candidates: res.Candidates,
		Reason:     res.Reason,
		Seed:       res.Seed,
		DurationMs: float64(res.Duration.Microseconds()) / 1000.0,
	})
}

// HandlePlayerScores handles GET /api/v1/players/{name}/scores. It is an
// operator diagnostic; balance responses never carry scores.
func (h *BalanceHandler) HandlePlayerScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.deps.SkillScores(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.PlayerScores{
		Player:  scores.Player,
		Skills:  scores.Skills,
		Overall: scores.Overall,
	})
}
