package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore создает Store поверх подключения GORM
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Products() ProductRepository {
	return NewProductRepository(s.db)
}

func (s *gormStore) Reviews() ReviewRepository {
	return NewReviewRepository(s.db)
}

// WithinTransaction выполняет fn в одной транзакции
// Соединение возвращается в пул на любом пути выхода
func (s *gormStore) WithinTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
