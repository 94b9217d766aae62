package service

import (
	"context"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
)

// RatingServiceInterface определяет интерфейс пересчета сводок рейтинга
type RatingServiceInterface interface {
	// ProcessReviewEvent обрабатывает событие отзыва из Kafka
	ProcessReviewEvent(ctx context.Context, event *entity.ReviewEvent) error
	// RecalculateAll пересчитывает сводки всех товаров с отзывами
	RecalculateAll(ctx context.Context) error
	// GetSummary возвращает сводку рейтинга товара
	GetSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error)
}
