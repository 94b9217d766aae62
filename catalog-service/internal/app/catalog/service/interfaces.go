package service

import (
	"context"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
)

type ProductReviewServiceInterface interface {
	GetAllProducts(ctx context.Context) ([]entity.Product, error)
	GetProductByID(ctx context.Context, productID uint) (*entity.Product, error)
	GetProductReviews(ctx context.Context, productID uint) ([]entity.Review, error)
	GetProductRating(ctx context.Context, productID uint) (*entity.RatingSummary, error)

	AddReviewToProduct(ctx context.Context, productID uint, req *entity.ReviewRequest) error
	RemoveReviewFromProduct(ctx context.Context, productID uint, author string) error
	UpdateProductReview(ctx context.Context, productID uint, author string, req *entity.UpdateReviewRequest) error
}
