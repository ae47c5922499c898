// Package cache keeps derived scalar values (eg. enrollment counts) in a key-value Store
// and refreshes them once they are older than a TTL.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kat-co/vala"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

// State tells how trustworthy a Result's value is.
type State int

const (
	// Unknown means no value could be produced; Result.Err says why.
	Unknown State = iota
	// Fresh values are younger than the TTL or were just refreshed.
	Fresh
	// Stale values are past their TTL and the refresh failed.
	Stale
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

var ErrNotFound = errors.New("cache entry not found")

type (
	// Entry is a cached value and the time it was written.
	Entry struct {
		Value     int       `json:"value" db:"value"`
		Timestamp time.Time `json:"timestamp" db:"timestamp"`
	}

	// Store is a persisted key-value store.
	Store interface {
		// GetEntry returns ErrNotFound when key is missing.
		GetEntry(ctx context.Context, key string) (Entry, error)
		SetEntry(ctx context.Context, key string, entry Entry) error
		RemoveEntry(ctx context.Context, key string) error
		RemoveEntriesWithPrefix(ctx context.Context, prefix string) (int, error)
		// RemoveEntriesBefore removes the entries under prefix written at or before t.
		RemoveEntriesBefore(ctx context.Context, prefix string, t time.Time) (int, error)
	}

	// RefreshFunc computes the current value.
	RefreshFunc func(ctx context.Context) (int, error)

	// Result never collapses a failed lookup into a valid-looking value: check State.
	Result struct {
		Value     int       `json:"value"`
		State     State     `json:"state"`
		Timestamp time.Time `json:"timestamp"`
		Err       error     `json:"-"`
	}
)

func (r Result) OK() bool { return r.State == Fresh }

type TTLCache struct {
	store     Store
	namespace string
	ttl       time.Duration
	logger    core.Logger

	NowFunc func() time.Time // mockable
}

func New(store Store, namespace string, ttl time.Duration, logger core.Logger) *TTLCache {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.StringNotEmpty(namespace, "namespace"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &TTLCache{
		store:     store,
		namespace: namespace,
		ttl:       ttl,
		logger:    logger,
		NowFunc:   time.Now,
	}
}

func (c *TTLCache) TTL() time.Duration { return c.ttl }

// Key derives the store key of name: the namespace followed by name with whitespace runs
// collapsed into "_".
func (c *TTLCache) Key(name string) string {
	return c.namespace + strings.Join(strings.Fields(name), "_")
}

// Get returns the cached value of name while it is younger than the TTL, otherwise it calls
// refresh once and stores its value.
func (c *TTLCache) Get(ctx context.Context, name string, refresh RefreshFunc) Result {
	key := c.Key(name)
	now := c.NowFunc()

	entry, err := c.store.GetEntry(ctx, key)
	found := err == nil
	if err != nil && err != ErrNotFound {
		c.logger.Warn("reading cache entry "+key, err)
	}
	if found && now.Sub(entry.Timestamp) < c.ttl {
		return Result{Value: entry.Value, State: Fresh, Timestamp: entry.Timestamp}
	}

	val, err := refresh(ctx)
	if err != nil {
		c.logger.Error("refreshing cache entry "+key, err)
		if found {
			return Result{Value: entry.Value, State: Stale, Timestamp: entry.Timestamp, Err: err}
		}
		return Result{State: Unknown, Err: err}
	}

	fresh := Entry{Value: val, Timestamp: now}
	if err := c.store.SetEntry(ctx, key, fresh); err != nil {
		c.logger.Warn("writing cache entry "+key, err)
	}
	return Result{Value: val, State: Fresh, Timestamp: now}
}

// Invalidate removes the entries of the given names, or every entry of this cache's namespace
// when no name is given.
func (c *TTLCache) Invalidate(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		_, err := c.store.RemoveEntriesWithPrefix(ctx, c.namespace)
		return err
	}
	for _, name := range names {
		if err := c.store.RemoveEntry(ctx, c.Key(name)); err != nil {
			return err
		}
	}
	return nil
}

// Prune removes the entries of this cache's namespace that outlived the TTL and returns how many
// were removed. Fresh entries are kept.
func (c *TTLCache) Prune(ctx context.Context) (int, error) {
	return c.store.RemoveEntriesBefore(ctx, c.namespace, c.NowFunc().Add(-c.ttl))
}
