// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/marcreid1/diverank/internal/domain/model"
)

// ComparisonHandler records vote outcomes.
type ComparisonHandler struct {
	deps Dependencies
}

// NewComparisonHandler creates a new comparison handler.
func NewComparisonHandler(deps Dependencies) *ComparisonHandler {
	return &ComparisonHandler{deps: deps}
}

// comparisonRequest mirrors the wire schema for POST /comparisons.
type comparisonRequest struct {
	WinnerID int64  `json:"winner_id"`
	LoserID  int64  `json:"loser_id"`
	Actor    string `json:"actor"`
}

func (c comparisonRequest) validate() error {
	switch {
	case c.WinnerID <= 0:
		return errors.New("missing winner_id")
	case c.LoserID <= 0:
		return errors.New("missing loser_id")
	}
	return nil
}

type comparisonResponse struct {
	Comparison model.Comparison `json:"comparison"`
}

// HandlePostComparison handles POST /comparisons requests.
func (h *ComparisonHandler) HandlePostComparison(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req comparisonRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err)
		return
	}

	var actorID *string
	if actor := strings.TrimSpace(req.Actor); actor != "" {
		actorID = &actor
	}

	comparison, err := h.deps.RecordComparison(r.Context(), req.WinnerID, req.LoserID, actorID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comparisonResponse{Comparison: comparison})
}
