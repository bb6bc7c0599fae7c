// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/marcreid1/diverank/internal/domain/ranking"
)

// RankingsHandler serves the leaderboard.
type RankingsHandler struct {
	deps Dependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps Dependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

type rankingsResponse struct {
	Rankings []ranking.Standing `json:"rankings"`
}

// HandleGetRankings handles GET /rankings requests.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	standings, err := h.deps.Rankings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rankingsResponse{Rankings: standings})
}
