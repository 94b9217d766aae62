package service

import (
	"errors"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound   = errors.New("product not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrDuplicateReview   = errors.New("user has already reviewed this product")
	ErrInvalidReviewData = errors.New("rating and comment are required")
)

// Сообщения об успехе мутирующих операций
const (
	MsgReviewAdded   = "Review added successfully"
	MsgReviewUpdated = "Review updated successfully"
	MsgReviewDeleted = "Review deleted successfully"
)

// Сообщения об ошибках, возвращаемые клиенту в поле "error"
const (
	ErrMsgProductNotFound   = "Product not found"
	ErrMsgDuplicateReview   = "User has already reviewed this product"
	ErrMsgReviewNotFound    = "Review not found"
	ErrMsgInvalidReviewData = "Rating and Comment are required"
	ErrMsgInternal          = "Internal server error"
)

// ResultFor преобразует результат операции в ответ вида {"message"} / {"error"}
func ResultFor(err error, successMsg string) entity.Result {
	if err == nil {
		return entity.Result{Message: successMsg}
	}
	return entity.Result{Error: ErrorMessage(err)}
}

func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return ErrMsgProductNotFound
	case errors.Is(err, ErrDuplicateReview):
		return ErrMsgDuplicateReview
	case errors.Is(err, ErrReviewNotFound):
		return ErrMsgReviewNotFound
	case errors.Is(err, ErrInvalidReviewData):
		return ErrMsgInvalidReviewData
	default:
		return ErrMsgInternal
	}
}

// rejectionReason - значение label reason для метрики reviews_rejected_total
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrDuplicateReview):
		return "duplicate_author"
	case errors.Is(err, ErrReviewNotFound):
		return "review_not_found"
	case errors.Is(err, ErrInvalidReviewData):
		return "invalid_data"
	default:
		return ""
	}
}
