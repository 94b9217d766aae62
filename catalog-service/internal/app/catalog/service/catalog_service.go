package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/catalog-service/internal/app/catalog/repository"
	"reviewcatalog/catalog-service/internal/app/catalog/util"
	"reviewcatalog/pkg/logger"
	"reviewcatalog/pkg/metrics"

	"github.com/google/uuid"
)

// reinvalidateDelay - пауза перед повторной инвалидацией кеша товара после commit
// Чтение, загрузившее товар из БД до commit, могло успеть записать в кеш старую версию
const reinvalidateDelay = 500 * time.Millisecond

// ProductReviewService обрабатывает бизнес-логику товаров и отзывов
// Координирует работу Store (PostgreSQL), Redis кеша и Kafka producer
type ProductReviewService struct {
	store             repository.Store
	redisCache        util.RedisCache
	kafkaProducer     util.MessagePublisher
	cacheTTL          time.Duration
	reinvalidateDelay time.Duration
}

// NewProductReviewService создает сервис с внедрением зависимостей
func NewProductReviewService(
	store repository.Store,
	redisCache util.RedisCache,
	kafkaProducer util.MessagePublisher,
	cacheTTL time.Duration,
) *ProductReviewService {
	return &ProductReviewService{
		store:             store,
		redisCache:        redisCache,
		kafkaProducer:     kafkaProducer,
		cacheTTL:          cacheTTL,
		reinvalidateDelay: reinvalidateDelay,
	}
}

// === PRODUCTS ===

// GetAllProducts возвращает все товары; при пустой БД - пустой список
// Сначала проверяет кеш, при промахе загружает из БД и кеширует
func (s *ProductReviewService) GetAllProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := s.redisCache.GetProducts(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read products from cache")
	}
	if err == nil && products != nil {
		return products, nil
	}

	products, err = s.store.Products().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	if products == nil {
		products = make([]entity.Product, 0)
	}

	if err := s.redisCache.SetProducts(ctx, products, s.cacheTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache products")
	}

	return products, nil
}

// GetProductByID возвращает товар или ErrProductNotFound
func (s *ProductReviewService) GetProductByID(ctx context.Context, productID uint) (*entity.Product, error) {
	product, err := s.redisCache.GetProduct(ctx, productID)
	if err != nil {
		logger.Warn().Err(err).Uint("product_id", productID).Msg("Failed to read product from cache")
	}
	if err == nil && product != nil {
		return product, nil
	}

	product, err = s.store.Products().GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.redisCache.SetProduct(ctx, product, s.cacheTTL); err != nil {
		logger.Warn().Err(err).Uint("product_id", productID).Msg("Failed to cache product")
	}

	return product, nil
}

// GetProductReviews возвращает отзывы товара
func (s *ProductReviewService) GetProductReviews(ctx context.Context, productID uint) ([]entity.Review, error) {
	if err := s.ensureProductExists(ctx, s.store, productID); err != nil {
		return nil, err
	}

	reviews, err := s.store.Reviews().GetByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// GetProductRating возвращает сводку рейтинга товара
// Сводку поддерживает Background Worker; при её отсутствии считаем по БД
func (s *ProductReviewService) GetProductRating(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	summary, err := s.redisCache.GetRatingSummary(ctx, productID)
	if err != nil {
		logger.Warn().Err(err).Uint("product_id", productID).Msg("Failed to read rating summary from cache")
	}
	if err == nil && summary != nil {
		return summary, nil
	}

	if err := s.ensureProductExists(ctx, s.store, productID); err != nil {
		return nil, err
	}

	summary, err = s.store.Reviews().Summary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}

	return summary, nil
}

// === REVIEWS ===

// AddReviewToProduct добавляет отзыв к товару
// Проверки по порядку: товар существует, заданы rating и comment, автор ещё не оставлял отзыв
// Поле content всегда сохраняется пустой строкой
func (s *ProductReviewService) AddReviewToProduct(ctx context.Context, productID uint, req *entity.ReviewRequest) error {
	var review *entity.Review

	err := s.store.WithinTransaction(ctx, func(uow repository.UnitOfWork) error {
		if err := s.ensureProductExists(ctx, uow, productID); err != nil {
			return err
		}

		if req == nil || req.Rating == nil || req.Comment == nil {
			return ErrInvalidReviewData
		}
		review = &entity.Review{
			ProductID: productID,
			Author:    req.Author,
			Rating:    *req.Rating,
			Comment:   *req.Comment,
			Content:   "",
		}

		_, err := uow.Reviews().GetByProductAndAuthor(ctx, productID, req.Author)
		if err == nil {
			return ErrDuplicateReview
		}
		if !errors.Is(err, repository.ErrReviewNotFound) {
			return fmt.Errorf("failed to check existing review: %w", err)
		}

		if err := uow.Reviews().Create(ctx, review); err != nil {
			// Параллельная вставка того же автора ловится уникальным индексом
			if errors.Is(err, repository.ErrDuplicateReview) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsRating.Observe(review.Rating)
	s.afterReviewChange(ctx, entity.EventReviewCreated, review)

	return nil
}

// RemoveReviewFromProduct удаляет отзыв автора о товаре
// Повторный вызов возвращает ErrReviewNotFound
func (s *ProductReviewService) RemoveReviewFromProduct(ctx context.Context, productID uint, author string) error {
	var review *entity.Review

	err := s.store.WithinTransaction(ctx, func(uow repository.UnitOfWork) error {
		var err error
		review, err = s.findReview(ctx, uow, productID, author)
		if err != nil {
			return err
		}

		if err := uow.Reviews().Delete(ctx, review.ID); err != nil {
			if errors.Is(err, repository.ErrReviewNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	metrics.ReviewsDeleted.Inc()
	s.afterReviewChange(ctx, entity.EventReviewDeleted, review)

	return nil
}

// UpdateProductReview перезаписывает rating и comment существующего отзыва
// Оба поля обязательны, иначе ErrInvalidReviewData без обращения к БД
func (s *ProductReviewService) UpdateProductReview(ctx context.Context, productID uint, author string, req *entity.UpdateReviewRequest) error {
	if req == nil || req.Rating == nil || req.Comment == nil {
		return s.reject(ErrInvalidReviewData)
	}

	var review *entity.Review

	err := s.store.WithinTransaction(ctx, func(uow repository.UnitOfWork) error {
		var err error
		review, err = s.findReview(ctx, uow, productID, author)
		if err != nil {
			return err
		}

		if err := uow.Reviews().UpdateRatingAndComment(ctx, review.ID, *req.Rating, *req.Comment); err != nil {
			if errors.Is(err, repository.ErrReviewNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to update review: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	review.Rating = *req.Rating
	review.Comment = *req.Comment

	metrics.ReviewsUpdated.Inc()
	metrics.ReviewsRating.Observe(review.Rating)
	s.afterReviewChange(ctx, entity.EventReviewUpdated, review)

	return nil
}

func (s *ProductReviewService) ensureProductExists(ctx context.Context, uow repository.UnitOfWork, productID uint) error {
	exists, err := uow.Products().Exists(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return ErrProductNotFound
	}
	return nil
}

func (s *ProductReviewService) findReview(ctx context.Context, uow repository.UnitOfWork, productID uint, author string) (*entity.Review, error) {
	review, err := uow.Reviews().GetByProductAndAuthor(ctx, productID, author)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// reject учитывает отказ в метриках и возвращает ошибку без изменений
func (s *ProductReviewService) reject(err error) error {
	if reason := rejectionReason(err); reason != "" {
		metrics.ReviewsRejected.WithLabelValues(reason).Inc()
	}
	return err
}

// afterReviewChange выполняется после commit: инвалидирует кеш и отправляет событие
// Ошибки только логируются - изменение уже сохранено
func (s *ProductReviewService) afterReviewChange(ctx context.Context, eventType string, review *entity.Review) {
	if err := s.redisCache.InvalidateProduct(ctx, review.ProductID); err != nil {
		logger.Warn().Err(err).Uint("product_id", review.ProductID).Msg("Failed to invalidate product cache")
	}
	s.scheduleReinvalidation(review.ProductID)

	event := entity.ReviewEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		ProductID: review.ProductID,
		Author:    review.Author,
		Rating:    review.Rating,
		Timestamp: time.Now(),
	}
	if err := s.publishReviewEvent(ctx, event); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Uint("product_id", review.ProductID).
			Msg("Failed to publish review event")
	}
}

// scheduleReinvalidation повторно удаляет ключи товара через reinvalidateDelay
func (s *ProductReviewService) scheduleReinvalidation(productID uint) {
	time.AfterFunc(s.reinvalidateDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := s.redisCache.InvalidateProduct(ctx, productID); err != nil {
			logger.Warn().Err(err).Uint("product_id", productID).Msg("Failed to re-invalidate product cache")
		}
	})
}

// publishReviewEvent отправляет событие об отзыве в Kafka
// Key - ID товара, чтобы события одного товара шли по порядку
func (s *ProductReviewService) publishReviewEvent(ctx context.Context, event entity.ReviewEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	key := strconv.FormatUint(uint64(event.ProductID), 10)
	if err := s.kafkaProducer.PublishMessage(ctx, key, eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
