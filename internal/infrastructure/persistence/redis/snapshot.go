package redis

import (
	"context"
	"errors"
	"time"

	"github.com/edurisk/atrisk-tracker/internal/domain/student"
)

// SnapshotStore persists the last good record-store view so a new
// session can render immediately, marked stale, before the first real
// fetch lands.
type SnapshotStore struct {
	cache *Cache
	key   string
	ttl   time.Duration
}

// DefaultSnapshotTTL bounds how old a rendered warm start can be.
const DefaultSnapshotTTL = 30 * time.Minute

func NewSnapshotStore(cache *Cache, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{
		cache: cache,
		key:   PrefixSnapshot + "store",
		ttl:   ttl,
	}
}

// Save overwrites the stored snapshot. Empty snapshots clear the key
// instead, so a warm start never renders an empty roster as data.
func (s *SnapshotStore) Save(ctx context.Context, snap student.Snapshot) error {
	if snap.IsEmpty() {
		return s.cache.Delete(ctx, s.key)
	}
	return s.cache.Set(ctx, s.key, snap, s.ttl)
}

// Load returns the stored snapshot, or nil when there is none.
func (s *SnapshotStore) Load(ctx context.Context) (*student.Snapshot, error) {
	var snap student.Snapshot
	if err := s.cache.Get(ctx, s.key, &snap); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// Clear removes the stored snapshot, used after logout and delete-all.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}
