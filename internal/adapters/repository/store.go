// Package repository defines the annotation store interface and its
// SQLite and in-memory implementations.
package repository

import (
	"context"

	"github.com/quailscout/standsync/internal/domain/model"
)

// Store provides read/write access to per-event annotation records.
//
// Each individual upsert is atomic at the storage layer; a batch is not a
// transaction across record families, so concurrent writers race at
// per-key granularity and the last write wins.
type Store interface {
	// ListUsernames returns the deduplicated usernames present in either
	// record family of the event partition. Order is unspecified.
	ListUsernames(ctx context.Context, eventKey string) ([]string, error)

	// TeamNotes returns all team-scoped records owned by username in the
	// event partition.
	TeamNotes(ctx context.Context, eventKey, username string) ([]model.TeamNote, error)

	// MatchNotes returns all match-team-scoped records owned by username
	// in the event partition.
	MatchNotes(ctx context.Context, eventKey, username string) ([]model.MatchNote, error)

	// PutTeamNotes upserts the given team records in one batch. Each
	// record replaces any existing record with the same (team, username)
	// key wholesale. An empty batch issues no write.
	PutTeamNotes(ctx context.Context, eventKey string, notes []model.TeamNote) error

	// PutMatchNotes upserts the given match-team records in one batch,
	// keyed by (match, team, username). An empty batch issues no write.
	PutMatchNotes(ctx context.Context, eventKey string, notes []model.MatchNote) error

	// CountRecords reports stored record totals across all partitions.
	CountRecords(ctx context.Context) (teamRecords, matchRecords int, err error)

	// Close releases underlying resources.
	Close() error
}
