package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/pkg/metrics"

	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// GetAll получает все товары вместе с отзывами
// Порядок не задается - как вернет БД
func (r *productRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")

	products := make([]entity.Product, 0)
	result := r.db.WithContext(ctx).Preload("Reviews").Find(&products)
	observe(timer, result.Error)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get products: %w", result.Error)
	}

	return products, nil
}

// GetByID получает товар по ID вместе с отзывами
func (r *productRepository) GetByID(ctx context.Context, id uint) (*entity.Product, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")

	var product entity.Product
	result := r.db.WithContext(ctx).Preload("Reviews").First(&product, id)
	observe(timer, result.Error)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}

	return &product, nil
}

// Exists проверяет наличие товара без загрузки отзывов
func (r *productRepository) Exists(ctx context.Context, id uint) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")

	var count int64
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Count(&count)
	observe(timer, result.Error)

	if result.Error != nil {
		return false, fmt.Errorf("failed to check product: %w", result.Error)
	}

	return count > 0, nil
}
