package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quailscout/standsync/internal/domain/model"
	"github.com/quailscout/standsync/internal/domain/types"
	"github.com/quailscout/standsync/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const defaultBusyTimeout = 5 * time.Second

// SQLiteStore persists annotation records in SQLite. One row per record,
// with the open data-point map serialized as a JSON TEXT column.
type SQLiteStore struct {
	sqlDB       *sql.DB
	busyTimeout time.Duration
}

// Open opens a SQLite store at path and applies embedded migrations.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}

	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	cleanPath := filepath.Clean(path)
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cleanPath, s.busyTimeout.Milliseconds())
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s.sqlDB = sqlDB
	return s, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ListUsernames returns the deduplicated usernames in the event partition.
func (s *SQLiteStore) ListUsernames(ctx context.Context, eventKey string) ([]string, error) {
	start := time.Now()
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT username FROM team_notes WHERE event_key = ?
		 UNION
		 SELECT username FROM match_notes WHERE event_key = ?`,
		eventKey, eventKey)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scan username: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return users, nil
}

// TeamNotes returns the team-scoped records owned by username.
func (s *SQLiteStore) TeamNotes(ctx context.Context, eventKey, username string) ([]model.TeamNote, error) {
	start := time.Now()
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT team_number, data FROM team_notes
		 WHERE event_key = ? AND username = ?`,
		eventKey, username)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query team notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []model.TeamNote
	for rows.Next() {
		var (
			team string
			raw  []byte
		)
		if err := rows.Scan(&team, &raw); err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scan team note: %w", err)
		}
		data, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("decode team note %s/%s: %w", team, username, err)
		}
		notes = append(notes, model.TeamNote{Team: team, Username: username, Data: data})
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("iterate team notes: %w", err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return notes, nil
}

// MatchNotes returns the match-team-scoped records owned by username.
func (s *SQLiteStore) MatchNotes(ctx context.Context, eventKey, username string) ([]model.MatchNote, error) {
	start := time.Now()
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT match_number, team_number, data FROM match_notes
		 WHERE event_key = ? AND username = ?`,
		eventKey, username)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("query match notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []model.MatchNote
	for rows.Next() {
		var (
			match string
			team  string
			raw   []byte
		)
		if err := rows.Scan(&match, &team, &raw); err != nil {
			metrics.RecordStoreError()
			return nil, fmt.Errorf("scan match note: %w", err)
		}
		data, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("decode match note %s/%s/%s: %w", match, team, username, err)
		}
		notes = append(notes, model.MatchNote{Match: match, Team: team, Username: username, Data: data})
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("iterate match notes: %w", err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return notes, nil
}

// PutTeamNotes upserts the batch inside a single transaction. Each record
// replaces any existing row with the same key wholesale.
func (s *SQLiteStore) PutTeamNotes(ctx context.Context, eventKey string, notes []model.TeamNote) error {
	if len(notes) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("begin team batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO team_notes (event_key, team_number, username, data, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (event_key, team_number, username)
		 DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("prepare team upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().UnixMilli()
	for _, n := range notes {
		raw, err := encodeFields(n.Data)
		if err != nil {
			return fmt.Errorf("encode team note %s/%s: %w", n.Team, n.Username, err)
		}
		if _, err := stmt.ExecContext(ctx, eventKey, n.Team, n.Username, raw, now); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("upsert team note %s/%s: %w", n.Team, n.Username, err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("commit team batch: %w", err)
	}
	metrics.RecordUpsertBatch("team", len(notes))
	return nil
}

// PutMatchNotes upserts the batch inside a single transaction.
func (s *SQLiteStore) PutMatchNotes(ctx context.Context, eventKey string, notes []model.MatchNote) error {
	if len(notes) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("begin match batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_notes (event_key, match_number, team_number, username, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_key, match_number, team_number, username)
		 DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("prepare match upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().UnixMilli()
	for _, n := range notes {
		raw, err := encodeFields(n.Data)
		if err != nil {
			return fmt.Errorf("encode match note %s/%s/%s: %w", n.Match, n.Team, n.Username, err)
		}
		if _, err := stmt.ExecContext(ctx, eventKey, n.Match, n.Team, n.Username, raw, now); err != nil {
			metrics.RecordStoreError()
			return fmt.Errorf("upsert match note %s/%s/%s: %w", n.Match, n.Team, n.Username, err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("commit match batch: %w", err)
	}
	metrics.RecordUpsertBatch("match", len(notes))
	return nil
}

// CountRecords reports record totals across all partitions.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int, int, error) {
	var teams, matches int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_notes`).Scan(&teams); err != nil {
		metrics.RecordStoreError()
		return 0, 0, fmt.Errorf("count team notes: %w", err)
	}
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_notes`).Scan(&matches); err != nil {
		metrics.RecordStoreError()
		return 0, 0, fmt.Errorf("count match notes: %w", err)
	}
	metrics.UpdateStoreRecordCounts(teams, matches)
	return teams, matches, nil
}

func encodeFields(f types.Fields) ([]byte, error) {
	if f == nil {
		f = types.Fields{}
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal data points: %w", err)
	}
	return raw, nil
}

func decodeFields(raw []byte) (types.Fields, error) {
	f := types.Fields{}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal data points: %w", err)
	}
	return f, nil
}
