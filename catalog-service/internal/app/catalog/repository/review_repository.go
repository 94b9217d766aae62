package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/pkg/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation - код ошибки PostgreSQL unique_violation
const pgUniqueViolation = "23505"

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создает новый репозиторий отзывов
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create сохраняет отзыв
// Нарушение уникального индекса (product_id, author) возвращается как ErrDuplicateReview
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "reviews")

	result := r.db.WithContext(ctx).Create(review)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			timer.ObserveDuration()
			return ErrDuplicateReview
		}
		timer.Done(result.Error)
		return fmt.Errorf("failed to create review: %w", result.Error)
	}
	timer.ObserveDuration()

	return nil
}

// GetByProductAndAuthor ищет отзыв по точному совпадению product_id и author
func (r *reviewRepository) GetByProductAndAuthor(ctx context.Context, productID uint, author string) (*entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	var review entity.Review
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND author = ?", productID, author).
		First(&review)
	observe(timer, result.Error)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", result.Error)
	}

	return &review, nil
}

func (r *reviewRepository) GetByProductID(ctx context.Context, productID uint) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	reviews := make([]entity.Review, 0)
	result := r.db.WithContext(ctx).Where("product_id = ?", productID).Find(&reviews)
	observe(timer, result.Error)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", result.Error)
	}

	return reviews, nil
}

// UpdateRatingAndComment перезаписывает только rating и comment
// author, content и product_id не изменяются
func (r *reviewRepository) UpdateRatingAndComment(ctx context.Context, id uint, rating float64, comment string) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "reviews")

	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":  rating,
			"comment": comment,
		})
	observe(timer, result.Error)

	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "reviews")

	result := r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id)
	observe(timer, result.Error)

	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Summary считает количество отзывов и средний рейтинг товара
// Для товара без отзывов возвращает нулевую сводку
func (r *reviewRepository) Summary(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "reviews")

	var row struct {
		ReviewCount   int64
		AverageRating float64
	}
	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Select("COUNT(*) AS review_count, COALESCE(AVG(rating), 0) AS average_rating").
		Where("product_id = ?", productID).
		Scan(&row)
	observe(timer, result.Error)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to summarize reviews: %w", result.Error)
	}

	return &entity.RatingSummary{
		ProductID:     productID,
		ReviewCount:   row.ReviewCount,
		AverageRating: row.AverageRating,
		UpdatedAt:     time.Now(),
	}, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
