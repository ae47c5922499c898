package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/cache"
)

type cacheStore struct {
	db *cacheTable
}

var _ cache.Store = (*cacheStore)(nil) // interface compliance check

func (s *cacheStore) GetEntry(ctx context.Context, key string) (cache.Entry, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	if entry, ok := s.db.t[key]; ok {
		return entry, nil
	}
	return cache.Entry{}, cache.ErrNotFound
}

func (s *cacheStore) SetEntry(ctx context.Context, key string, entry cache.Entry) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	s.db.t[key] = entry
	return nil
}

func (s *cacheStore) RemoveEntry(ctx context.Context, key string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	delete(s.db.t, key)
	return nil
}

func (s *cacheStore) RemoveEntriesWithPrefix(ctx context.Context, prefix string) (int, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	var removed int
	for key := range s.db.t {
		if strings.HasPrefix(key, prefix) {
			delete(s.db.t, key)
			removed++
		}
	}
	return removed, nil
}

func (s *cacheStore) RemoveEntriesBefore(ctx context.Context, prefix string, t time.Time) (int, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	var removed int
	for key, entry := range s.db.t {
		if strings.HasPrefix(key, prefix) && !entry.Timestamp.After(t) {
			delete(s.db.t, key)
			removed++
		}
	}
	return removed, nil
}
