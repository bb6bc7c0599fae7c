package sim

import (
	"fmt"
	"os"

	"github.com/marcreid1/diverank/pkg/logger"
)

// SetupLogging initializes the logger for the simulator binary.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`DiveRank Voting Simulator
=========================

Drives a running diverank service with concurrent simulated voters and
verifies the resulting leaderboard.

Usage:
  go run cmd/divesim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -actors int
        Number of simulated voters (default 20)
  -votes int
        Vote budget per actor, 0 votes to exhaustion (default 0)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Enable debug logging
  -help
        Show this help message

Examples:
  # Exhaust the catalog with 20 voters
  go run cmd/divesim/main.go

  # 100 voters, 10 votes each, against a remote instance
  go run cmd/divesim/main.go -actors 100 -votes 10 -url http://diverank:8080
`)
}
