package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface は空席数キャッシュのインターフェース
type AvailabilityCacheInterface interface {
	GetAvailableSeats(ctx context.Context, scheduleID string) (int, error)
	SetAvailableSeats(ctx context.Context, scheduleID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, scheduleID string) error
}

// AvailabilityCache は運行スケジュールの空席数キャッシュを管理する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableSeats はスケジュールの空席数をキャッシュから取得する
func (c *AvailabilityCache) GetAvailableSeats(ctx context.Context, scheduleID string) (int, error) {
	key := c.availableSeatsKey(scheduleID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableSeats はスケジュールの空席数をキャッシュに保存する
func (c *AvailabilityCache) SetAvailableSeats(ctx context.Context, scheduleID string, count int, ttl time.Duration) error {
	key := c.availableSeatsKey(scheduleID)
	err := c.client.Set(ctx, key, count, ttl).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はスケジュールのキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, scheduleID string) error {
	key := c.availableSeatsKey(scheduleID)
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) availableSeatsKey(scheduleID string) string {
	return fmt.Sprintf("seats:available:%s", scheduleID)
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)
