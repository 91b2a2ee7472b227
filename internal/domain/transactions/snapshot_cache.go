package transactions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centsible/centsible/internal/domain/dedupe"
)

// SnapshotCache keeps each user's duplicate-check snapshot warm so repeat
// uploads do not refetch the whole window. Entries expire on TTL and are
// refreshed in bulk by the nightly job.
type SnapshotCache struct {
	repo   *Repository
	limit  int
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[uuid.UUID]snapshotEntry
}

type snapshotEntry struct {
	snapshot  []dedupe.StoredTransaction
	fetchedAt time.Time
}

func NewSnapshotCache(repo *Repository, limit int, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SnapshotCache{
		repo:    repo,
		limit:   limit,
		ttl:     ttl,
		logger:  logger,
		entries: map[uuid.UUID]snapshotEntry{},
	}
}

// Get returns the user's snapshot, fetching through to the store when the
// cached copy is missing or stale.
func (c *SnapshotCache) Get(ctx context.Context, userID uuid.UUID) ([]dedupe.StoredTransaction, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.snapshot, nil
	}

	snapshot, err := c.repo.RecentSnapshot(ctx, userID, c.limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[userID] = snapshotEntry{snapshot: snapshot, fetchedAt: time.Now()}
	c.mu.Unlock()

	return snapshot, nil
}

// Invalidate drops the user's cached snapshot, forcing the next Get to hit
// the store. Called after a successful import.
func (c *SnapshotCache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// RefreshAll refetches every cached user's snapshot. Failures refresh what
// they can and report the last error.
func (c *SnapshotCache) RefreshAll(ctx context.Context) error {
	c.mu.RLock()
	users := make([]uuid.UUID, 0, len(c.entries))
	for userID := range c.entries {
		users = append(users, userID)
	}
	c.mu.RUnlock()

	var lastErr error
	refreshed := 0
	for _, userID := range users {
		snapshot, err := c.repo.RecentSnapshot(ctx, userID, c.limit)
		if err != nil {
			c.logger.Warn("snapshot refresh failed",
				slog.String("user_id", userID.String()),
				slog.Any("error", err))
			lastErr = err
			continue
		}
		c.mu.Lock()
		c.entries[userID] = snapshotEntry{snapshot: snapshot, fetchedAt: time.Now()}
		c.mu.Unlock()
		refreshed++
	}

	c.logger.Info("snapshot cache refreshed",
		slog.Int("users", refreshed),
		slog.Int("failed", len(users)-refreshed))

	return lastErr
}
