// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/marcreid1/diverank/internal/domain/matchup"
	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/internal/domain/ranking"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SelectMatchup returns the next pair for the given actor scope. A nil
	// actorID means anonymous traffic; champ optionally keeps the previous
	// winner on screen.
	SelectMatchup(ctx context.Context, actorID *string, champ *matchup.Champion) (matchup.Matchup, error)

	// RecordComparison resolves one vote atomically.
	RecordComparison(ctx context.Context, winnerID, loserID int64, actorID *string) (model.Comparison, error)

	// Rankings returns the leaderboard ordered by rating.
	Rankings(ctx context.Context) ([]ranking.Standing, error)

	// ResetHistory deletes one actor's comparisons; returns how many.
	ResetHistory(ctx context.Context, actorID string) (int64, error)

	// RebuildRatings replays history from scratch; returns the site count.
	RebuildRatings(ctx context.Context) (int, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	matchupHandler    *MatchupHandler
	comparisonHandler *ComparisonHandler
	rankingsHandler   *RankingsHandler
	resetHandler      *ResetHandler
	rebuildHandler    *RebuildHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		matchupHandler:    NewMatchupHandler(deps),
		comparisonHandler: NewComparisonHandler(deps),
		rankingsHandler:   NewRankingsHandler(deps),
		resetHandler:      NewResetHandler(deps),
		rebuildHandler:    NewRebuildHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
	mux.HandleFunc("/comparisons", MetricsMiddleware(s.comparisonHandler.HandlePostComparison, "comparisons"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/history/reset", MetricsMiddleware(s.resetHandler.HandleResetHistory, "history_reset"))
	mux.HandleFunc("/admin/rebuild-ratings", MetricsMiddleware(s.rebuildHandler.HandleRebuildRatings, "rebuild_ratings"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
