// Package service provides the core sync service that implements the
// dependencies required by the HTTP API. It reshapes flat annotation
// records into the nested client view on reads and flattens the view back
// into batched upserts on writes.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/quailscout/standsync/internal/adapters/repository"
	"github.com/quailscout/standsync/internal/domain/model"
	"github.com/quailscout/standsync/internal/domain/types"
	"github.com/quailscout/standsync/pkg/logger"
	"github.com/quailscout/standsync/pkg/metrics"
)

// Identity fields are authoritative from structural position and the
// username parameter; matching keys inside client data maps are dropped.
var identityKeys = []string{"team_number", "match_number", "username"}

// Service implements the sync operations over an annotation store.
type Service struct {
	mu sync.RWMutex

	store           repository.Store
	defaultEventKey string
	dbPath          string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects an already-open store. Start will not open another.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaultEventKey sets the partition used when a caller supplies no
// event key.
func WithDefaultEventKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.defaultEventKey = key
		}
	}
}

// WithDBPath sets the SQLite database path opened on Start. Empty keeps
// the in-memory store.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultEventKey: "practice",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the backing store if one was not injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		if s.dbPath != "" {
			store, err := repository.Open(s.dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
		} else {
			s.store = repository.NewMemoryStore()
			s.logger.Warn(ctx, "using in-memory store; data will not survive a restart")
		}
	}

	s.started = true
	s.logger.Info(ctx, "sync service started",
		logger.String("defaultEventKey", s.defaultEventKey))
	return nil
}

// Stop closes the backing store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "store close failed", logger.Error(err))
	}
	s.started = false
}

// resolveEventKey applies the default-partition policy.
func (s *Service) resolveEventKey(eventKey string) string {
	if eventKey == "" {
		return s.defaultEventKey
	}
	return eventKey
}

// Users returns the deduplicated usernames known to the event partition.
func (s *Service) Users(ctx context.Context, eventKey string) ([]string, error) {
	key := s.resolveEventKey(eventKey)
	users, err := s.store.ListUsernames(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list usernames for %s: %w", key, err)
	}
	if key == s.defaultEventKey {
		metrics.UpdateKnownUsernames(len(users))
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}

// Fetch assembles the client view for username from the two record
// families. A username with no records yields an empty view, not an error.
func (s *Service) Fetch(ctx context.Context, eventKey, username string) (types.View, error) {
	key := s.resolveEventKey(eventKey)
	view := types.NewView()

	teamNotes, err := s.store.TeamNotes(ctx, key, username)
	if err != nil {
		return types.View{}, fmt.Errorf("fetch team notes for %s: %w", username, err)
	}
	for _, n := range teamNotes {
		view.TeamData[n.Team] = n.Data
	}

	matchNotes, err := s.store.MatchNotes(ctx, key, username)
	if err != nil {
		return types.View{}, fmt.Errorf("fetch match notes for %s: %w", username, err)
	}
	for _, n := range matchNotes {
		teams := view.TIMData[n.Match]
		if teams == nil {
			teams = map[string]types.Fields{}
			view.TIMData[n.Match] = teams
		}
		teams[n.Team] = n.Data
	}

	return view, nil
}

// Update flattens the view into per-key records and issues one batched
// upsert per record family. Each touched record is replaced wholesale.
// The two batches are independent write units: if the team batch commits
// and the match batch fails, the store is left partially updated.
func (s *Service) Update(ctx context.Context, eventKey, username string, view types.View) error {
	key := s.resolveEventKey(eventKey)

	teamNotes := make([]model.TeamNote, 0, len(view.TeamData))
	for team, data := range view.TeamData {
		teamNotes = append(teamNotes, model.TeamNote{
			Team:     team,
			Username: username,
			Data:     stripIdentity(data),
		})
	}
	if err := s.store.PutTeamNotes(ctx, key, teamNotes); err != nil {
		return fmt.Errorf("write team notes for %s: %w", username, err)
	}

	var matchNotes []model.MatchNote
	for match, teams := range view.TIMData {
		for team, data := range teams {
			matchNotes = append(matchNotes, model.MatchNote{
				Match:    match,
				Team:     team,
				Username: username,
				Data:     stripIdentity(data),
			})
		}
	}
	if err := s.store.PutMatchNotes(ctx, key, matchNotes); err != nil {
		return fmt.Errorf("write match notes for %s: %w", username, err)
	}

	s.logger.Debug(ctx, "view updated",
		logger.String("eventKey", key),
		logger.String("username", username),
		logger.Int("teamNotes", len(teamNotes)),
		logger.Int("matchNotes", len(matchNotes)))
	return nil
}

// GetStats returns current service statistics.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	store := s.store
	storeKind := "memory"
	if s.dbPath != "" {
		storeKind = "sqlite"
	}
	s.mu.RUnlock()

	stats := map[string]any{
		"defaultEventKey": s.defaultEventKey,
		"store":           storeKind,
	}
	if store == nil {
		return stats
	}
	ctx := context.Background()
	teams, matches, err := store.CountRecords(ctx)
	if err != nil {
		stats["error"] = err.Error()
		return stats
	}
	stats["teamRecords"] = teams
	stats["matchRecords"] = matches
	if users, err := store.ListUsernames(ctx, s.defaultEventKey); err == nil {
		stats["users"] = len(users)
	}
	return stats
}

// stripIdentity drops identity-named keys from a client data map so the
// structural position stays authoritative.
func stripIdentity(data types.Fields) types.Fields {
	if data == nil {
		return types.Fields{}
	}
	out := make(types.Fields, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, k := range identityKeys {
		delete(out, k)
	}
	return out
}
