package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
)

type cacheStore struct {
	db *sqlx.DB
}

var _ cache.Store = (*cacheStore)(nil) // interface compliance check

// NewCacheStore keeps cache entries in the cache_entries table.
func NewCacheStore(db *sql.DB) cache.Store {
	return &cacheStore{db: sqlx.NewDb(db, "postgres")}
}

func (s *cacheStore) GetEntry(ctx context.Context, key string) (cache.Entry, error) {
	var entry cache.Entry
	err := s.db.GetContext(ctx, &entry, `SELECT value, timestamp FROM cache_entries WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return cache.Entry{}, cache.ErrNotFound
	}
	if err != nil {
		return cache.Entry{}, errors.Wrap(err, "selecting cache entry")
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}

func (s *cacheStore) SetEntry(ctx context.Context, key string, entry cache.Entry) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO cache_entries (key, value, timestamp) VALUES (:key, :value, :timestamp)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, timestamp = EXCLUDED.timestamp`,
		map[string]interface{}{"key": key, "value": entry.Value, "timestamp": entry.Timestamp.UTC()},
	)
	return errors.Wrap(err, "upserting cache entry")
}

func (s *cacheStore) RemoveEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return errors.Wrap(err, "deleting cache entry")
}

func (s *cacheStore) RemoveEntriesWithPrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE starts_with(key, $1)`, prefix)
	if err != nil {
		return 0, errors.Wrap(err, "deleting cache entries")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted cache entries")
}

func (s *cacheStore) RemoveEntriesBefore(ctx context.Context, prefix string, t time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE starts_with(key, $1) AND timestamp <= $2`, prefix, t.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired cache entries")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted cache entries")
}
