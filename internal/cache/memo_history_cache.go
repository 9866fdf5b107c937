package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"creditmemo/internal/model"
)

// MemoHistoryCache keeps each tenant's memo list in Redis. A short-lived dirty
// marker is set whenever a memo is queued so readers fall through to Postgres
// until the persist worker has caught up.
type MemoHistoryCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewMemoHistoryCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *MemoHistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &MemoHistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *MemoHistoryCache) GetHistory(ctx context.Context, tenantID string) ([]model.Memo, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey(tenantID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get memo history failed: %w", err)
	}

	var memos []model.Memo
	if err := json.Unmarshal([]byte(raw), &memos); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached memo history failed: %w", err)
	}
	return memos, true, nil
}

func (c *MemoHistoryCache) SetHistory(ctx context.Context, tenantID string, memos []model.Memo) error {
	payload, err := json.Marshal(memos)
	if err != nil {
		return fmt.Errorf("marshal memo history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(tenantID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set memo history failed: %w", err)
	}
	return nil
}

func (c *MemoHistoryCache) DeleteHistory(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, c.historyKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("redis delete memo history failed: %w", err)
	}
	return nil
}

func (c *MemoHistoryCache) MarkDirty(ctx context.Context, tenantID string) error {
	if err := c.client.Set(ctx, c.dirtyKey(tenantID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *MemoHistoryCache) IsDirty(ctx context.Context, tenantID string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(tenantID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *MemoHistoryCache) historyKey(tenantID string) string {
	return "memo:history:" + tenantID
}

func (c *MemoHistoryCache) dirtyKey(tenantID string) string {
	return "memo:history:dirty:" + tenantID
}
