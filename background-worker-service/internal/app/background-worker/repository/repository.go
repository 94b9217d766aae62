package repository

import (
	"context"
	"errors"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
)

const serviceName = "background-worker"

var (
	ErrSummaryNotFound = errors.New("rating summary not found")
)

// RatingRepository агрегирует оценки из таблицы reviews в PostgreSQL
type RatingRepository interface {
	// ProductSummary считает количество и средний рейтинг отзывов товара
	// Для товара без отзывов возвращает нулевую сводку
	ProductSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error)

	// AllSummaries считает сводки по всем товарам, у которых есть отзывы
	AllSummaries(ctx context.Context) ([]entity.RatingSummary, error)
}

// SummaryCache хранит сводки рейтинга в Redis с TTL
type SummaryCache interface {
	Get(ctx context.Context, productID uint) (*entity.RatingSummary, error)
	Set(ctx context.Context, summary *entity.RatingSummary) error
	// SetMultiple сохраняет сводки батчем через pipeline
	SetMultiple(ctx context.Context, summaries []entity.RatingSummary) error
	Ping(ctx context.Context) error
}

// EventJournal - журнал обработанных событий отзывов в MongoDB
type EventJournal interface {
	Record(ctx context.Context, event *entity.ReviewEvent) error
}
