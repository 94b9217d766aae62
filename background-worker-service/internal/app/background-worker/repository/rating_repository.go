package repository

import (
	"context"
	"fmt"
	"time"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
	"reviewcatalog/pkg/metrics"

	"gorm.io/gorm"
)

const summaryColumns = "product_id, COUNT(*) AS review_count, COALESCE(AVG(rating), 0) AS average_rating"

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository создает репозиторий агрегатов рейтинга
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) ProductSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	var rows []entity.RatingSummary
	err := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Select(summaryColumns).
		Where("product_id = ?", productID).
		Group("product_id").
		Scan(&rows).Error
	timer.Done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rating for product %d: %w", productID, err)
	}

	summary := entity.RatingSummary{ProductID: productID}
	if len(rows) > 0 {
		summary = rows[0]
	}
	summary.UpdatedAt = time.Now().UTC()

	return &summary, nil
}

func (r *ratingRepository) AllSummaries(ctx context.Context) ([]entity.RatingSummary, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	summaries := make([]entity.RatingSummary, 0)
	err := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Select(summaryColumns).
		Group("product_id").
		Scan(&summaries).Error
	timer.Done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	now := time.Now().UTC()
	for i := range summaries {
		summaries[i].UpdatedAt = now
	}

	return summaries, nil
}
