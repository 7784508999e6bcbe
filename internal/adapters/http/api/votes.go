package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
)

// HeaderVoter names the caller editing a vote.
const HeaderVoter = "X-Voter"

// VoteDependencies defines the interface for vote operations.
type VoteDependencies interface {
	RecordVote(ctx context.Context, v model.Vote) (service.Receipt, error)
	UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error)
	GetVote(ctx context.Context, id string) (model.Vote, error)
	ListVotes(ctx context.Context, voter string) ([]model.Vote, error)
}

// VotesHandler handles vote submission and edits.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// HandleRecord handles POST /api/v1/votes. Votes are persisted
// asynchronously: 202 when queued, 200 for a vote id already seen.
func (h *VotesHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req types.VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.deps.RecordVote(r.Context(), model.Vote{
		ID:      strings.TrimSpace(req.VoteID),
		Voter:   req.Voter,
		Player:  req.Player,
		Ratings: req.Ratings,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, types.Ack{Status: types.StatusDuplicate, VoteID: receipt.VoteID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, types.Ack{Status: types.StatusAccepted, VoteID: receipt.VoteID})
}

// HandleList handles GET /api/v1/votes?voter=.
func (h *VotesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	votes, err := h.deps.ListVotes(r.Context(), r.URL.Query().Get("voter"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]types.Vote, len(votes))
	for i, v := range votes {
		out[i] = toVote(v)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/v1/votes/{id}.
func (h *VotesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.GetVote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVote(v))
}

// HandleUpdate handles PUT /api/v1/votes/{id}. The X-Voter header must name
// the original voter.
func (h *VotesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	voter := strings.TrimSpace(r.Header.Get(HeaderVoter))
	if voter == "" {
		writeError(w, ErrMissingVoter)
		return
	}
	var req types.VoteUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Ratings) == 0 {
		writeError(w, fmt.Errorf("%w: ratings are required", ErrBadRequest))
		return
	}
	v, err := h.deps.UpdateVote(r.Context(), chi.URLParam(r, "id"), voter, req.Ratings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVote(v))
}

func toVote(v model.Vote) types.Vote { //nolint:gocritic // hugeParam
	return types.Vote{
		ID:        v.ID,
		Voter:     v.Voter,
		Player:    v.Player,
		Ratings:   v.Ratings,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
