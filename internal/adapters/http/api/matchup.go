// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/marcreid1/diverank/internal/domain/matchup"
)

// MatchupHandler serves the next pair to vote on.
type MatchupHandler struct {
	deps Dependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps Dependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

type matchupResponse struct {
	Matchup matchup.Matchup `json:"matchup"`
}

// HandleGetMatchup handles GET /matchup requests.
//
// Query parameters:
//   - actor: optional voter identity; omitted means anonymous.
//   - champion, side: optional "winner stays on" hint from the previous
//     round. Both must be present together.
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	q := r.URL.Query()

	var actorID *string
	if actor := q.Get("actor"); actor != "" {
		actorID = &actor
	}

	champ, err := parseChampion(q.Get("champion"), q.Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_champion", err)
		return
	}

	m, err := h.deps.SelectMatchup(r.Context(), actorID, champ)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matchupResponse{Matchup: m})
}

// parseChampion validates the champion/side query pair. Both empty means no
// hint; anything else must parse fully.
func parseChampion(championParam, sideParam string) (*matchup.Champion, error) {
	if championParam == "" && sideParam == "" {
		return nil, nil
	}
	if championParam == "" || sideParam == "" {
		return nil, fmt.Errorf("%w: champion and side must be provided together", ErrBadRequest)
	}

	id, err := strconv.ParseInt(championParam, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: champion must be a site id", ErrBadRequest)
	}
	side := matchup.Side(sideParam)
	if !side.Valid() {
		return nil, fmt.Errorf("%w: side must be %q or %q", ErrBadRequest, matchup.SideA, matchup.SideB)
	}
	return &matchup.Champion{SiteID: id, Side: side}, nil
}
