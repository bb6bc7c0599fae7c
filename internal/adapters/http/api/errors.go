package api

import (
	"errors"
	"net/http"

	repository "github.com/marcreid1/diverank/internal/adapters/repository"
	"github.com/marcreid1/diverank/internal/domain/matchup"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// statusFor maps domain errors onto an HTTP status and wire error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, matchup.ErrAllMatchupsCompleted):
		return http.StatusConflict, "all_matchups_completed"
	case errors.Is(err, matchup.ErrInsufficientCatalog):
		return http.StatusConflict, "insufficient_catalog"
	case errors.Is(err, repository.ErrDuplicateComparison):
		return http.StatusConflict, "duplicate_comparison"
	case errors.Is(err, repository.ErrSiteNotFound):
		return http.StatusNotFound, "unknown_site"
	case errors.Is(err, repository.ErrSameSite):
		return http.StatusBadRequest, "same_site"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeDomainError renders err using the statusFor mapping.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
