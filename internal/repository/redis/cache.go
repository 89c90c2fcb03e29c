package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
)

const (
	treeCachePrefix = "tree:"
	treeCacheTTL    = 30 * time.Second
)

// TreeCache keeps the assembled task tree of a workspace in Redis for the
// pull-based read path. Every committed mutation invalidates the workspace's
// entry, so a stale tree can only be served for at most the short TTL between
// a concurrent writer's commit and its invalidation landing.
type TreeCache struct {
	client *Client
}

// NewTreeCache creates a new tree cache
func NewTreeCache(client *Client) *TreeCache {
	return &TreeCache{client: client}
}

// Get retrieves the cached tree for a workspace; a miss returns (nil, nil)
func (c *TreeCache) Get(ctx context.Context, workspaceID uuid.UUID) ([]domain.Task, error) {
	key := fmt.Sprintf("%s%s", treeCachePrefix, workspaceID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}

	return tasks, nil
}

// Set caches the tree for a workspace
func (c *TreeCache) Set(ctx context.Context, workspaceID uuid.UUID, tasks []domain.Task) error {
	key := fmt.Sprintf("%s%s", treeCachePrefix, workspaceID.String())

	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, treeCacheTTL).Err()
}

// Invalidate removes the cached tree for a workspace
func (c *TreeCache) Invalidate(ctx context.Context, workspaceID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", treeCachePrefix, workspaceID.String())
	return c.client.rdb.Del(ctx, key).Err()
}

// FlushAll deletes every cached tree and returns how many keys were removed
func (c *TreeCache) FlushAll(ctx context.Context) (int64, error) {
	var deleted int64

	iter := c.client.rdb.Scan(ctx, 0, treeCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("failed to delete cache key: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan cache keys: %w", err)
	}

	return deleted, nil
}
