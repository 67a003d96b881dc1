package seednotes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quailscout/standsync/internal/domain/types"
	"github.com/quailscout/standsync/pkg/logger"
)

// Config controls a seeding run.
type Config struct {
	BaseURL        string
	EventKey       string
	APIKey         string
	Users          int
	TeamsPerUser   int
	MatchesPerUser int
	Timeout        time.Duration
}

// Runner seeds generated datasets into a running service and verifies a
// round trip.
type Runner struct {
	cfg    Config
	client *http.Client
	gen    *Generator
	log    logger.Logger
}

// NewRunner creates a runner for the given configuration.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		gen:    NewGenerator(cfg.TeamsPerUser, cfg.MatchesPerUser),
		log:    logger.Named("seednotes"),
	}
}

// Run pushes datasets for the configured number of users, then verifies
// that the last user's dataset reads back equal and that the username
// enumeration contains every seeded user.
func (r *Runner) Run(ctx context.Context) error {
	seeded := make(map[string]types.View, r.cfg.Users)
	var lastUser string

	for i := 0; i < r.cfg.Users; i++ {
		username := r.gen.Username()
		view, err := r.gen.View()
		if err != nil {
			return err
		}
		if err := r.put(ctx, username, view); err != nil {
			return fmt.Errorf("seed user %s: %w", username, err)
		}
		seeded[username] = view
		lastUser = username
	}
	r.log.Info(ctx, "seeded users", logger.Int("count", len(seeded)))

	if lastUser == "" {
		return nil
	}

	got, err := r.fetch(ctx, lastUser)
	if err != nil {
		return fmt.Errorf("verify fetch for %s: %w", lastUser, err)
	}
	if !viewsEqual(seeded[lastUser], got) {
		return fmt.Errorf("round trip mismatch for %s", lastUser)
	}

	users, err := r.users(ctx)
	if err != nil {
		return fmt.Errorf("verify user list: %w", err)
	}
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u] = struct{}{}
	}
	for u := range seeded {
		if _, ok := known[u]; !ok {
			return fmt.Errorf("seeded user %s missing from enumeration", u)
		}
	}

	r.log.Info(ctx, "verification passed", logger.String("sampledUser", lastUser))
	return nil
}

func (r *Runner) put(ctx context.Context, username string, view types.View) error {
	body, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		r.endpoint("/stand-strategist", username), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("put view: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (r *Runner) fetch(ctx context.Context, username string) (types.View, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.endpoint("/stand-strategist", username), nil)
	if err != nil {
		return types.View{}, fmt.Errorf("build request: %w", err)
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return types.View{}, fmt.Errorf("get view: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return types.View{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var view types.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return types.View{}, fmt.Errorf("decode view: %w", err)
	}
	return view, nil
}

func (r *Runner) users(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.endpoint("/stand-strategist/users", ""), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	var users []string
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *Runner) endpoint(path, username string) string {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	if r.cfg.EventKey != "" {
		q.Set("event_key", r.cfg.EventKey)
	}
	u := r.cfg.BaseURL + path
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (r *Runner) authorize(req *http.Request) {
	if r.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", r.cfg.APIKey)
	}
}

func viewsEqual(a, b types.View) bool {
	if len(a.TeamData) != len(b.TeamData) || len(a.TIMData) != len(b.TIMData) {
		return false
	}
	for team, fields := range a.TeamData {
		if !fields.Equal(b.TeamData[team]) {
			return false
		}
	}
	for match, teams := range a.TIMData {
		bTeams := b.TIMData[match]
		if len(teams) != len(bTeams) {
			return false
		}
		for team, fields := range teams {
			if !fields.Equal(bTeams[team]) {
				return false
			}
		}
	}
	return true
}
