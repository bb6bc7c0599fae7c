// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ResetHandler deletes an actor's voting history.
type ResetHandler struct {
	deps Dependencies
}

// NewResetHandler creates a new history reset handler.
func NewResetHandler(deps Dependencies) *ResetHandler {
	return &ResetHandler{deps: deps}
}

// resetRequest mirrors the wire schema for POST /history/reset.
type resetRequest struct {
	Actor string `json:"actor"`
}

type resetResponse struct {
	Deleted int64 `json:"deleted"`
}

// HandleResetHistory handles POST /history/reset requests. The actor's
// comparisons are removed and every pair becomes votable for them again.
// Site ratings keep the points already applied.
func (h *ResetHandler) HandleResetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", errors.New("missing actor"))
		return
	}

	deleted, err := h.deps.ResetHistory(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resetResponse{Deleted: deleted})
}

// RebuildHandler recomputes every rating from recorded history.
type RebuildHandler struct {
	deps Dependencies
}

// NewRebuildHandler creates a new rating rebuild handler.
func NewRebuildHandler(deps Dependencies) *RebuildHandler {
	return &RebuildHandler{deps: deps}
}

type rebuildResponse struct {
	Sites int `json:"sites"`
}

// HandleRebuildRatings handles POST /admin/rebuild-ratings requests.
func (h *RebuildHandler) HandleRebuildRatings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	sites, err := h.deps.RebuildRatings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rebuildResponse{Sites: sites})
}
