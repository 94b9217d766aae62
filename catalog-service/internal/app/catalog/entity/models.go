package entity

import (
	"time"

	"github.com/google/uuid"
)

// Типы событий об отзывах, отправляемых в Kafka
const (
	EventReviewCreated = "REVIEW_CREATED"
	EventReviewUpdated = "REVIEW_UPDATED"
	EventReviewDeleted = "REVIEW_DELETED"
)

// Product представляет товар в каталоге
// Для этого сервиса товар доступен только на чтение
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url" gorm:"size:500"`
	CreatedAt   time.Time `json:"created_at"`
	Reviews     []Review  `json:"reviews" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// ToMap сериализует товар в словарь со строковыми ключами
func (p *Product) ToMap() map[string]interface{} {
	reviews := make([]map[string]interface{}, 0, len(p.Reviews))
	for i := range p.Reviews {
		reviews = append(reviews, p.Reviews[i].ToMap())
	}

	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"image_url":   p.ImageURL,
		"created_at":  p.CreatedAt,
		"reviews":     reviews,
	}
}

// Review - отзыв автора о товаре
// На один товар допускается не более одного отзыва от одного автора
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_reviews_product_author,priority:1"`
	Author    string    `json:"author" gorm:"size:255;not null;uniqueIndex:idx_reviews_product_author,priority:2"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment" gorm:"type:text"`
	Content   string    `json:"content" gorm:"type:text"` // всегда пустая строка
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         r.ID,
		"product_id": r.ProductID,
		"author":     r.Author,
		"rating":     r.Rating,
		"comment":    r.Comment,
		"content":    r.Content,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
}

// RatingSummary - агрегированный рейтинг товара
// Поддерживается Background Worker в Redis
type RatingSummary struct {
	ProductID     uint      `json:"product_id"`
	ReviewCount   int64     `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReviewEvent представляет событие изменения отзыва для Kafka
type ReviewEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"` // REVIEW_CREATED, REVIEW_UPDATED, REVIEW_DELETED
	ProductID uint      `json:"product_id"`
	Author    string    `json:"author"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
