package handler

import (
	"errors"
	"net/http"
	"strconv"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/catalog-service/internal/app/catalog/service"
	"reviewcatalog/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CatalogHandler обрабатывает HTTP запросы к товарам и отзывам
type CatalogHandler struct {
	catalogService service.ProductReviewServiceInterface
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService service.ProductReviewServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// === PRODUCTS ===

// GetAllProducts обрабатывает GET /products
func (h *CatalogHandler) GetAllProducts(c *gin.Context) {
	products, err := h.catalogService.GetAllProducts(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// GetProduct обрабатывает GET /products/:id
// Для несуществующего товара возвращает пустой объект {}
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.catalogService.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{})
			return
		}
		h.internalError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product.ToMap())
}

// GetProductReviews обрабатывает GET /products/:id/reviews
func (h *CatalogHandler) GetProductReviews(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	reviews, err := h.catalogService.GetProductReviews(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.Result{Error: service.ErrMsgProductNotFound})
			return
		}
		h.internalError(c, err, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
	})
}

// GetProductRating обрабатывает GET /products/:id/rating
func (h *CatalogHandler) GetProductRating(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	summary, err := h.catalogService.GetProductRating(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.Result{Error: service.ErrMsgProductNotFound})
			return
		}
		h.internalError(c, err, "Failed to get rating")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// === REVIEWS ===

// AddReview обрабатывает POST /products/:id/reviews
func (h *CatalogHandler) AddReview(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req entity.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.Result{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.Result{Error: formatValidationError(err)})
		return
	}

	err := h.catalogService.AddReviewToProduct(c.Request.Context(), productID, &req)
	h.respondResult(c, err, http.StatusCreated, service.MsgReviewAdded, "Failed to add review")
}

// UpdateReview обрабатывает PUT /products/:id/reviews/:author
// Наличие Rating и Comment проверяет сервис
func (h *CatalogHandler) UpdateReview(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req entity.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.Result{Error: "Invalid request body"})
		return
	}

	err := h.catalogService.UpdateProductReview(c.Request.Context(), productID, c.Param("author"), &req)
	h.respondResult(c, err, http.StatusOK, service.MsgReviewUpdated, "Failed to update review")
}

// DeleteReview обрабатывает DELETE /products/:id/reviews/:author
func (h *CatalogHandler) DeleteReview(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	err := h.catalogService.RemoveReviewFromProduct(c.Request.Context(), productID, c.Param("author"))
	h.respondResult(c, err, http.StatusOK, service.MsgReviewDeleted, "Failed to delete review")
}

// respondResult отдает {"message"} при успехе и {"error"} при ошибке
func (h *CatalogHandler) respondResult(c *gin.Context, err error, successStatus int, successMsg, failureMsg string) {
	if err == nil {
		c.JSON(successStatus, service.ResultFor(nil, successMsg))
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.internalError(c, err, failureMsg)
		return
	}

	c.JSON(status, service.ResultFor(err, successMsg))
}

func (h *CatalogHandler) internalError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	c.JSON(http.StatusInternalServerError, entity.Result{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateReview):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidReviewData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseProductID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.Result{Error: "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
