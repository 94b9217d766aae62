package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
	"reviewcatalog/background-worker-service/internal/app/background-worker/repository"
	"reviewcatalog/pkg/logger"
	"reviewcatalog/pkg/metrics"
)

// ErrInvalidEvent - событие нельзя обработать, повторная доставка не поможет
var ErrInvalidEvent = errors.New("invalid review event")

// RatingService поддерживает сводки рейтинга товаров в Redis
type RatingService struct {
	ratings repository.RatingRepository
	cache   repository.SummaryCache
	journal repository.EventJournal
}

func NewRatingService(
	ratings repository.RatingRepository,
	cache repository.SummaryCache,
	journal repository.EventJournal,
) *RatingService {
	return &RatingService{
		ratings: ratings,
		cache:   cache,
		journal: journal,
	}
}

// ProcessReviewEvent журналирует событие и пересчитывает сводку товара
// Ошибка журнала не прерывает обработку
func (s *RatingService) ProcessReviewEvent(ctx context.Context, event *entity.ReviewEvent) error {
	start := time.Now()
	defer func() {
		metrics.WorkerEventProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	if !event.IsKnown() {
		logger.Warn().
			Str("event_type", event.EventType).
			Uint("product_id", event.ProductID).
			Msg("Unknown review event type, skipping")
		return nil
	}

	if event.ProductID == 0 {
		return fmt.Errorf("%w: missing product_id", ErrInvalidEvent)
	}

	if err := s.journal.Record(ctx, event); err != nil {
		logger.Warn().Err(err).
			Str("event_id", event.EventID.String()).
			Msg("Failed to journal review event")
	}

	summary, err := s.recalculateProduct(ctx, event.ProductID)
	if err != nil {
		return err
	}

	logger.Info().
		Str("event_type", event.EventType).
		Uint("product_id", summary.ProductID).
		Int64("review_count", summary.ReviewCount).
		Float64("average_rating", summary.AverageRating).
		Msg("Rating summary updated")

	return nil
}

// RecalculateAll пересчитывает сводки всех товаров одним запросом и пишет их батчем
func (s *RatingService) RecalculateAll(ctx context.Context) error {
	summaries, err := s.ratings.AllSummaries(ctx)
	if err != nil {
		metrics.WorkerRatingRecalculations.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to recalculate ratings: %w", err)
	}

	if err := s.cache.SetMultiple(ctx, summaries); err != nil {
		metrics.WorkerRatingRecalculations.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to store rating summaries: %w", err)
	}

	metrics.WorkerRatingRecalculations.WithLabelValues("success").Add(float64(len(summaries)))
	logger.Info().Int("products", len(summaries)).Msg("Rating summaries recalculated")

	return nil
}

// GetSummary читает сводку из Redis, при отсутствии считает ее заново
func (s *RatingService) GetSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	summary, err := s.cache.Get(ctx, productID)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, repository.ErrSummaryNotFound) {
		logger.Warn().Err(err).Uint("product_id", productID).Msg("Failed to read rating summary from cache")
	}

	return s.recalculateProduct(ctx, productID)
}

func (s *RatingService) recalculateProduct(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	summary, err := s.ratings.ProductSummary(ctx, productID)
	if err != nil {
		metrics.WorkerRatingRecalculations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to recalculate rating: %w", err)
	}

	if err := s.cache.Set(ctx, summary); err != nil {
		metrics.WorkerRatingRecalculations.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to store rating summary: %w", err)
	}

	metrics.WorkerRatingRecalculations.WithLabelValues("success").Inc()
	return summary, nil
}
