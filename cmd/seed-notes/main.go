package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/quailscout/standsync/internal/seednotes"
	"github.com/quailscout/standsync/pkg/logger"
)

// Default configuration constants.
const (
	defaultUsers          = 10
	defaultTeamsPerUser   = 12
	defaultMatchesPerUser = 20
	defaultTimeout        = 10 * time.Second
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		eventKey = flag.String("event", "", "Event key (empty uses the server default)")
		apiKey   = flag.String("key", "", "API key for the sync endpoints")
		users    = flag.Int("users", defaultUsers, "Number of users to seed")
		teams    = flag.Int("teams", defaultTeamsPerUser, "Team notes per user")
		matches  = flag.Int("matches", defaultMatchesPerUser, "Match notes per user")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	runner := seednotes.NewRunner(seednotes.Config{
		BaseURL:        *baseURL,
		EventKey:       *eventKey,
		APIKey:         *apiKey,
		Users:          *users,
		TeamsPerUser:   *teams,
		MatchesPerUser: *matches,
		Timeout:        *timeout,
	})

	ctx := context.Background()
	if err := runner.Run(ctx); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
