package repository

import (
	"context"
	"errors"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/pkg/metrics"

	"gorm.io/gorm"
)

const serviceName = "catalog-service"

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review by this author already exists")
)

type ProductRepository interface {
	GetAll(ctx context.Context) ([]entity.Product, error)
	GetByID(ctx context.Context, id uint) (*entity.Product, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByProductAndAuthor(ctx context.Context, productID uint, author string) (*entity.Review, error)
	GetByProductID(ctx context.Context, productID uint) ([]entity.Review, error)
	UpdateRatingAndComment(ctx context.Context, id uint, rating float64, comment string) error
	Delete(ctx context.Context, id uint) error
	Summary(ctx context.Context, productID uint) (*entity.RatingSummary, error)
}

// UnitOfWork - набор репозиториев, работающих в рамках одной транзакции
type UnitOfWork interface {
	Products() ProductRepository
	Reviews() ReviewRepository
}

// Store даёт доступ к репозиториям вне транзакции и открывает транзакции
// fn выполняется внутри транзакции: nil - commit, ошибка или panic - rollback
type Store interface {
	UnitOfWork
	WithinTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// Migrate создает/обновляет схему таблиц products и reviews
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Product{}, &entity.Review{})
}

// observe фиксирует длительность запроса; отсутствие записи ошибкой БД не считается
func observe(timer *metrics.DbTimer, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	timer.Done(err)
}
