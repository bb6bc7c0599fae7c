package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/marcreid1/diverank/internal/sim"
)

// Default configuration constants.
const (
	defaultActors     = 20
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the service")
		actors  = flag.Int("actors", defaultActors, "Number of simulated voters")
		votes   = flag.Int("votes", 0, "Vote budget per actor (0 = vote to exhaustion)")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sim.ShowHelp()
		return
	}

	if err := sim.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &sim.Config{
		BaseURL:       *baseURL,
		Actors:        *actors,
		VotesPerActor: *votes,
		Workers:       *workers,
		Timeout:       *timeout,
		Verbose:       *verbose,
	}

	if err := sim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
