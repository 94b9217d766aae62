package entity

// ReviewRequest - тело запроса на добавление отзыва
// Ключи JSON совпадают с публичным API: Author, Rating, Comment
type ReviewRequest struct {
	Author  string   `json:"Author" validate:"required"`
	Rating  *float64 `json:"Rating" validate:"required"`
	Comment *string  `json:"Comment" validate:"required"`
	Content string   `json:"Content,omitempty"` // игнорируется, в БД всегда пишется ""
}

// UpdateReviewRequest - тело запроса на обновление отзыва
// Оба поля обязательны; отсутствие любого из них - ошибка ErrInvalidReviewData
type UpdateReviewRequest struct {
	Rating  *float64 `json:"Rating"`
	Comment *string  `json:"Comment"`
}

// Result - ответ мутирующих операций: либо message, либо error
type Result struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r Result) IsError() bool {
	return r.Error != ""
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}
