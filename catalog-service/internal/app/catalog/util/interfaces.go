package util

import (
	"context"
	"time"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
)

// RedisCache интерфейс кеша товаров и сводок рейтинга
// При промахе Get-методы возвращают nil, nil
type RedisCache interface {
	GetProducts(ctx context.Context) ([]entity.Product, error)
	SetProducts(ctx context.Context, products []entity.Product, ttl time.Duration) error
	GetProduct(ctx context.Context, id uint) (*entity.Product, error)
	SetProduct(ctx context.Context, product *entity.Product, ttl time.Duration) error
	InvalidateProduct(ctx context.Context, id uint) error
	GetRatingSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error)
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в Kafka
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
