package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/alde1022/spatix/internal/logging"
)

// StatsService records map lifecycle events in DuckDB for reporting. All
// methods are best-effort: a stats failure never fails the request that
// triggered it.
type StatsService struct {
	db *sql.DB
}

// NewStatsService creates the stats tables if needed. Returns nil when db
// is nil, so callers can wire it unconditionally.
func NewStatsService(db *sql.DB) *StatsService {
	if db == nil {
		return nil
	}
	s := &StatsService{db: db}
	s.migrate()
	return s
}

func (s *StatsService) migrate() {
	const ddl = `
CREATE TABLE IF NOT EXISTS map_stats (
	map_id     VARCHAR PRIMARY KEY,
	title      VARCHAR,
	layers     INTEGER,
	markers    INTEGER,
	views      BIGINT DEFAULT 0,
	created_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS map_views (
	map_id    VARCHAR,
	viewed_at TIMESTAMP
);`
	if _, err := s.db.Exec(ddl); err != nil {
		log := logging.Component("stats")
		log.Warn().Err(err).Msg("failed to create stats tables")
	}
}

// RecordCreated inserts a row for a freshly created map.
func (s *StatsService) RecordCreated(rec MapRecord) {
	if s == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO map_stats (map_id, title, layers, markers, views, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		rec.ID, rec.Title, len(rec.Config.Layers), len(rec.Config.Markers), rec.CreatedAt,
	)
	if err != nil {
		log := logging.Component("stats")
		log.Warn().Err(err).Str("map_id", rec.ID).Msg("failed to record map creation")
	}
}

// RecordView logs one view event and bumps the aggregate counter.
func (s *StatsService) RecordView(id string) {
	if s == nil {
		return
	}
	now := time.Now().UTC()
	if _, err := s.db.Exec(`INSERT INTO map_views (map_id, viewed_at) VALUES (?, ?)`, id, now); err != nil {
		log := logging.Component("stats")
		log.Warn().Err(err).Str("map_id", id).Msg("failed to record view event")
		return
	}
	if _, err := s.db.Exec(`UPDATE map_stats SET views = views + 1 WHERE map_id = ?`, id); err != nil {
		log := logging.Component("stats")
		log.Warn().Err(err).Str("map_id", id).Msg("failed to bump view counter")
	}
}

// ViewsSince counts view events for a map within the given window.
func (s *StatsService) ViewsSince(ctx context.Context, id string, since time.Time) (int64, error) {
	if s == nil {
		return 0, nil
	}
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM map_views WHERE map_id = ? AND viewed_at >= ?`, id, since,
	).Scan(&n)
	return n, err
}
