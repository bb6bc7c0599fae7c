package sim

import "time"

// Config holds configuration for a voting simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Actors        int           // Number of simulated voters
	VotesPerActor int           // Vote budget per actor (0 = vote to exhaustion)
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	Verbose       bool          // Enable verbose logging
}

// site mirrors the catalog entry shape returned by the service.
type site struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Rating float64 `json:"rating"`
}

// matchupPayload mirrors GET /matchup responses.
type matchupPayload struct {
	Matchup struct {
		SiteA site `json:"site_a"`
		SiteB site `json:"site_b"`
	} `json:"matchup"`
}

// comparisonRequest mirrors the POST /comparisons body.
type comparisonRequest struct {
	WinnerID int64  `json:"winner_id"`
	LoserID  int64  `json:"loser_id"`
	Actor    string `json:"actor"`
}

// standing mirrors one GET /rankings entry.
type standing struct {
	Site       site `json:"site"`
	Rank       int  `json:"rank"`
	RankChange int  `json:"rank_change"`
}

// rankingsPayload mirrors GET /rankings responses.
type rankingsPayload struct {
	Rankings []standing `json:"rankings"`
}

// errorPayload mirrors the service's error envelope.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds simulation statistics.
type Stats struct {
	VotesAttempted  int64
	VotesRecorded   int64
	VotesDuplicate  int64
	VotesFailed     int64
	ActorsExhausted int64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
