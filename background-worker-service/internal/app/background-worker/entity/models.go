package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventReviewCreated = "REVIEW_CREATED"
	EventReviewUpdated = "REVIEW_UPDATED"
	EventReviewDeleted = "REVIEW_DELETED"
)

// Review - строка таблицы reviews Catalog Service
// Воркер читает только product_id и rating
type Review struct {
	ID        uint    `gorm:"primaryKey"`
	ProductID uint    `gorm:"not null"`
	Rating    float64 `gorm:"not null"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewEvent - событие из топика review_events
type ReviewEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"` // REVIEW_CREATED, REVIEW_UPDATED, REVIEW_DELETED
	ProductID uint      `json:"product_id"`
	Author    string    `json:"author"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// IsKnown сообщает, относится ли тип события к отзывам
func (e *ReviewEvent) IsKnown() bool {
	switch e.EventType {
	case EventReviewCreated, EventReviewUpdated, EventReviewDeleted:
		return true
	}
	return false
}

// RatingSummary - агрегированный рейтинг товара
// Формат совпадает с тем, что читает Catalog Service из Redis
type RatingSummary struct {
	ProductID     uint      `json:"product_id" gorm:"column:product_id"`
	ReviewCount   int64     `json:"review_count" gorm:"column:review_count"`
	AverageRating float64   `json:"average_rating" gorm:"column:average_rating"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"-"`
}

// RatingSummaryKey возвращает ключ Redis для сводки рейтинга товара
func RatingSummaryKey(productID uint) string {
	return "rating:product:" + strconv.FormatUint(uint64(productID), 10)
}

// JournalEntry - запись журнала событий в MongoDB
type JournalEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	EventID     string             `bson:"event_id"`
	EventType   string             `bson:"event_type"`
	ProductID   uint               `bson:"product_id"`
	Author      string             `bson:"author"`
	Rating      float64            `bson:"rating"`
	OccurredAt  time.Time          `bson:"occurred_at"`
	ProcessedAt time.Time          `bson:"processed_at"`
}

// NewJournalEntry строит запись журнала из события
func NewJournalEntry(event *ReviewEvent) *JournalEntry {
	return &JournalEntry{
		EventID:    event.EventID.String(),
		EventType:  event.EventType,
		ProductID:  event.ProductID,
		Author:     event.Author,
		Rating:     event.Rating,
		OccurredAt: event.Timestamp,
	}
}
