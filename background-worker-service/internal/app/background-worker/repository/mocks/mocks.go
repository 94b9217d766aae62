package mocks

import (
	"context"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"

	"github.com/stretchr/testify/mock"
)

// MockRatingRepository мок для RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) ProductSummary(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSummary), args.Error(1)
}

func (m *MockRatingRepository) AllSummaries(ctx context.Context) ([]entity.RatingSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RatingSummary), args.Error(1)
}

// MockSummaryCache мок для SummaryCache
type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Get(ctx context.Context, productID uint) (*entity.RatingSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RatingSummary), args.Error(1)
}

func (m *MockSummaryCache) Set(ctx context.Context, summary *entity.RatingSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSummaryCache) SetMultiple(ctx context.Context, summaries []entity.RatingSummary) error {
	args := m.Called(ctx, summaries)
	return args.Error(0)
}

func (m *MockSummaryCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventJournal мок для EventJournal
type MockEventJournal struct {
	mock.Mock
}

func (m *MockEventJournal) Record(ctx context.Context, event *entity.ReviewEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
