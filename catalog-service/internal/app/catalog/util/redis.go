package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "catalog-service"

	productsCacheKey    = "products:all"
	productKeyPrefix    = "products:"
	ratingSummaryPrefix = "rating:product:"
)

func productKey(id uint) string {
	return productKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

// RatingSummaryKey - ключ сводки рейтинга, которую пишет Background Worker
func RatingSummaryKey(productID uint) string {
	return ratingSummaryPrefix + strconv.FormatUint(uint64(productID), 10)
}

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromClient оборачивает готовый клиент (используется в тестах)
func NewRedisClientFromClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Ping проверяет доступность Redis для health check
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) GetProducts(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	found, err := r.getJSON(ctx, productsCacheKey, "products", &products)
	if err != nil || !found {
		return nil, err
	}
	if products == nil {
		products = make([]entity.Product, 0)
	}
	return products, nil
}

func (r *RedisClient) SetProducts(ctx context.Context, products []entity.Product, ttl time.Duration) error {
	return r.setJSON(ctx, productsCacheKey, products, ttl)
}

func (r *RedisClient) GetProduct(ctx context.Context, id uint) (*entity.Product, error) {
	var product entity.Product
	found, err := r.getJSON(ctx, productKey(id), "product", &product)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

func (r *RedisClient) SetProduct(ctx context.Context, product *entity.Product, ttl time.Duration) error {
	return r.setJSON(ctx, productKey(product.ID), product, ttl)
}

// InvalidateProduct удаляет из кеша список товаров и сам товар
// Вызывается после любой мутации отзывов, так как товар сериализуется вместе с отзывами
func (r *RedisClient) InvalidateProduct(ctx context.Context, id uint) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, productsCacheKey, productKey(id)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	return nil
}

func (r *RedisClient) GetRatingSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	var summary entity.RatingSummary
	found, err := r.getJSON(ctx, RatingSummaryKey(productID), "rating", &summary)
	if err != nil || !found {
		return nil, err
	}
	return &summary, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) getJSON(ctx context.Context, key, keyPrefix string, dest interface{}) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, keyPrefix)
			return false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	metrics.RecordCacheHit(serviceName, keyPrefix)
	return true, nil
}

func (r *RedisClient) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}

	return nil
}
