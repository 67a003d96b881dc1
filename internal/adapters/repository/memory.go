package repository

import (
	"context"
	"sync"

	"github.com/quailscout/standsync/internal/domain/model"
	"github.com/quailscout/standsync/internal/domain/types"
	"github.com/quailscout/standsync/pkg/metrics"
)

// In-memory Store implementation. Used by tests and when no database path
// is configured; state does not survive a restart.

type teamKey struct {
	team     string
	username string
}

type matchKey struct {
	match    string
	team     string
	username string
}

// MemoryStore keeps annotation records in maps keyed the same way the
// SQLite tables are.
type MemoryStore struct {
	mu     sync.RWMutex
	team   map[string]map[teamKey]model.TeamNote
	match  map[string]map[matchKey]model.MatchNote
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		team:  make(map[string]map[teamKey]model.TeamNote),
		match: make(map[string]map[matchKey]model.MatchNote),
	}
}

// ListUsernames returns the deduplicated usernames in the event partition.
func (s *MemoryStore) ListUsernames(ctx context.Context, eventKey string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	seen := make(map[string]struct{})
	for k := range s.team[eventKey] {
		seen[k.username] = struct{}{}
	}
	for k := range s.match[eventKey] {
		seen[k.username] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	return users, nil
}

// TeamNotes returns the team-scoped records owned by username.
func (s *MemoryStore) TeamNotes(ctx context.Context, eventKey, username string) ([]model.TeamNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var notes []model.TeamNote
	for k, n := range s.team[eventKey] {
		if k.username != username {
			continue
		}
		n.Data = cloneFields(n.Data)
		notes = append(notes, n)
	}
	return notes, nil
}

// MatchNotes returns the match-team-scoped records owned by username.
func (s *MemoryStore) MatchNotes(ctx context.Context, eventKey, username string) ([]model.MatchNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var notes []model.MatchNote
	for k, n := range s.match[eventKey] {
		if k.username != username {
			continue
		}
		n.Data = cloneFields(n.Data)
		notes = append(notes, n)
	}
	return notes, nil
}

// PutTeamNotes upserts the batch, replacing each keyed record wholesale.
func (s *MemoryStore) PutTeamNotes(ctx context.Context, eventKey string, notes []model.TeamNote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	part := s.team[eventKey]
	if part == nil {
		part = make(map[teamKey]model.TeamNote)
		s.team[eventKey] = part
	}
	for _, n := range notes {
		n.Data = cloneFields(n.Data)
		part[teamKey{team: n.Team, username: n.Username}] = n
	}
	metrics.RecordUpsertBatch("team", len(notes))
	s.updateRecordGauges()
	return nil
}

// PutMatchNotes upserts the batch, replacing each keyed record wholesale.
func (s *MemoryStore) PutMatchNotes(ctx context.Context, eventKey string, notes []model.MatchNote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	part := s.match[eventKey]
	if part == nil {
		part = make(map[matchKey]model.MatchNote)
		s.match[eventKey] = part
	}
	for _, n := range notes {
		n.Data = cloneFields(n.Data)
		part[matchKey{match: n.Match, team: n.Team, username: n.Username}] = n
	}
	metrics.RecordUpsertBatch("match", len(notes))
	s.updateRecordGauges()
	return nil
}

// CountRecords reports record totals across all partitions.
func (s *MemoryStore) CountRecords(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, 0, ErrClosed
	}
	teams, matches := 0, 0
	for _, part := range s.team {
		teams += len(part)
	}
	for _, part := range s.match {
		matches += len(part)
	}
	return teams, matches, nil
}

// Close marks the store closed; further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// updateRecordGauges refreshes the stored-record metrics. Caller holds mu.
func (s *MemoryStore) updateRecordGauges() {
	teams, matches := 0, 0
	for _, part := range s.team {
		teams += len(part)
	}
	for _, part := range s.match {
		matches += len(part)
	}
	metrics.UpdateStoreRecordCounts(teams, matches)
}

// cloneFields copies a data-point map so callers cannot mutate stored state.
func cloneFields(f types.Fields) types.Fields {
	if f == nil {
		return types.Fields{}
	}
	out := make(types.Fields, len(f))
	for k, v := range f {
		if v.Kind() == types.KindObject {
			v = types.Object(cloneFields(v.ObjectVal()))
		}
		out[k] = v
	}
	return out
}
