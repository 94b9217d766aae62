package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
	"reviewcatalog/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const ratingKeyPrefix = "rating"

// summaryCache реализует SummaryCache поверх Redis
type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	return &summaryCache{
		client: client,
		ttl:    ttl,
	}
}

// Get возвращает ErrSummaryNotFound, если сводки нет или истек TTL
func (c *summaryCache) Get(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := c.client.Get(ctx, entity.RatingSummaryKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, ratingKeyPrefix)
			return nil, ErrSummaryNotFound
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get rating summary from redis: %w", err)
	}
	metrics.RecordCacheHit(serviceName, ratingKeyPrefix)

	var summary entity.RatingSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rating summary: %w", err)
	}

	return &summary, nil
}

func (c *summaryCache) Set(ctx context.Context, summary *entity.RatingSummary) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal rating summary: %w", err)
	}

	if err := c.client.Set(ctx, entity.RatingSummaryKey(summary.ProductID), data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set rating summary in redis: %w", err)
	}

	return nil
}

func (c *summaryCache) SetMultiple(ctx context.Context, summaries []entity.RatingSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	pipe := c.client.Pipeline()
	for i := range summaries {
		data, err := json.Marshal(&summaries[i])
		if err != nil {
			return fmt.Errorf("failed to marshal rating summary for product %d: %w", summaries[i].ProductID, err)
		}
		pipe.Set(ctx, entity.RatingSummaryKey(summaries[i].ProductID), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set multiple rating summaries: %w", err)
	}

	return nil
}

func (c *summaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
