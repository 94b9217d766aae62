package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"
	"reviewcatalog/catalog-service/internal/app/catalog/repository"
	"reviewcatalog/catalog-service/internal/app/catalog/repository/mocks"
	"reviewcatalog/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Хелперы для создания тестового окружения

type testEnv struct {
	router    *gin.Engine
	handler   *CatalogHandler
	store     *mocks.MockStore
	cache     *mocks.MockRedisCache
	publisher *mocks.MockMessagePublisher
}

func setupTestEnv() *testEnv {
	store := mocks.NewMockStore()
	cache := new(mocks.MockRedisCache)
	publisher := new(mocks.MockMessagePublisher)

	catalogService := service.NewProductReviewService(store, cache, publisher, time.Minute)
	handler := NewCatalogHandler(catalogService)

	return &testEnv{
		router:    SetupRoutes(handler),
		handler:   handler,
		store:     store,
		cache:     cache,
		publisher: publisher,
	}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) entity.Result {
	var result entity.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

// ==================== Products ====================

func TestCatalogHandler_GetAllProducts_Success(t *testing.T) {
	// Arrange
	env := setupTestEnv()
	products := []entity.Product{{ID: 1, Name: "Keyboard"}, {ID: 2, Name: "Mouse"}}
	env.cache.On("GetProducts", mock.Anything).Return(products, nil)

	// Act
	w := env.do(http.MethodGet, "/products", nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var response entity.ProductListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Total)
	assert.Equal(t, "Mouse", response.Products[1].Name)
}

func TestCatalogHandler_GetAllProducts_Empty(t *testing.T) {
	// Arrange
	env := setupTestEnv()
	env.cache.On("GetProducts", mock.Anything).Return(nil, nil)
	env.store.ProductRepo.On("GetAll", mock.Anything).Return([]entity.Product{}, nil)
	env.cache.On("SetProducts", mock.Anything, mock.Anything, time.Minute).Return(nil)

	// Act
	w := env.do(http.MethodGet, "/products", nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products":[],"total":0}`, w.Body.String())
}

func TestCatalogHandler_GetAllProducts_Error(t *testing.T) {
	env := setupTestEnv()
	env.cache.On("GetProducts", mock.Anything).Return(nil, nil)
	env.store.ProductRepo.On("GetAll", mock.Anything).Return(nil, errors.New("db down"))

	w := env.do(http.MethodGet, "/products", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to get products", decodeResult(t, w).Error)
}

func TestCatalogHandler_GetProduct_Success(t *testing.T) {
	// Arrange
	env := setupTestEnv()
	product := &entity.Product{ID: 7, Name: "Laptop", Reviews: []entity.Review{{ID: 1, ProductID: 7, Author: "alice"}}}
	env.cache.On("GetProduct", mock.Anything, uint(7)).Return(product, nil)

	// Act
	w := env.do(http.MethodGet, "/products/7", nil)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(7), response["id"])
	assert.Equal(t, "Laptop", response["name"])
	assert.Len(t, response["reviews"], 1)
}

func TestCatalogHandler_GetProduct_NotFoundReturnsEmptyObject(t *testing.T) {
	// Arrange
	env := setupTestEnv()
	env.cache.On("GetProduct", mock.Anything, uint(42)).Return(nil, nil)
	env.store.ProductRepo.On("GetByID", mock.Anything, uint(42)).Return(nil, repository.ErrProductNotFound)

	// Act
	w := env.do(http.MethodGet, "/products/42", nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestCatalogHandler_GetProduct_InvalidID(t *testing.T) {
	// Arrange
	handler := setupTestEnv().handler

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/products/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	// Act
	handler.GetProduct(c)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid product ID", decodeResult(t, w).Error)
}

func TestCatalogHandler_GetProductReviews(t *testing.T) {
	env := setupTestEnv()
	env.store.ProductRepo.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	env.store.ReviewRepo.On("GetByProductID", mock.Anything, uint(1)).
		Return([]entity.Review{{ID: 1, ProductID: 1, Author: "alice", Rating: 5}}, nil)

	w := env.do(http.MethodGet, "/products/1/reviews", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response entity.ReviewListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Total)
}

func TestCatalogHandler_GetProductRating_NotFound(t *testing.T) {
	env := setupTestEnv()
	env.cache.On("GetRatingSummary", mock.Anything, uint(3)).Return(nil, nil)
	env.store.ProductRepo.On("Exists", mock.Anything, uint(3)).Return(false, nil)

	w := env.do(http.MethodGet, "/products/3/rating", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decodeResult(t, w).Error)
}

// ==================== Reviews ====================

func TestCatalogHandler_AddReview_Success(t *testing.T) {
	// Arrange
	env := setupTestEnv()
	env.store.ProductRepo.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	env.store.ReviewRepo.On("GetByProductAndAuthor", mock.Anything, uint(1), "alice").Return(nil, repository.ErrReviewNotFound)
	env.store.ReviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Review")).Return(nil)
	env.cache.On("InvalidateProduct", mock.Anything, uint(1)).Return(nil)
	env.publisher.On("PublishMessage", mock.Anything, "1", mock.Anything).Return(nil)

	// Act
	w := env.do(http.MethodPost, "/products/1/reviews", `{"Author":"alice","Rating":5,"Comment":"great"}`)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"Review added successfully"}`, w.Body.String())
}

func TestCatalogHandler_AddReview_ProductNotFound(t *testing.T) {
	env := setupTestEnv()
	env.store.ProductRepo.On("Exists", mock.Anything, uint(9)).Return(false, nil)

	w := env.do(http.MethodPost, "/products/9/reviews", `{"Author":"alice","Rating":5,"Comment":"great"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Product not found"}`, w.Body.String())
}

func TestCatalogHandler_AddReview_Duplicate(t *testing.T) {
	env := setupTestEnv()
	env.store.ProductRepo.On("Exists", mock.Anything, uint(1)).Return(true, nil)
	env.store.ReviewRepo.On("GetByProductAndAuthor", mock.Anything, uint(1), "alice").
		Return(&entity.Review{ID: 3, ProductID: 1, Author: "alice"}, nil)

	w := env.do(http.MethodPost, "/products/1/reviews", `{"Author":"alice","Rating":4,"Comment":"again"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"User has already reviewed this product"}`, w.Body.String())
}

func TestCatalogHandler_AddReview_InvalidJSON(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodPost, "/products/1/reviews", "invalid json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decodeResult(t, w).Error)
}

func TestCatalogHandler_AddReview_ValidationError(t *testing.T) {
	env := setupTestEnv()

	// Rating отсутствует
	w := env.do(http.MethodPost, "/products/1/reviews", `{"Author":"alice","Comment":"great"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating is required", decodeResult(t, w).Error)
	assert.Equal(t, 0, env.store.Transactions)
}

func TestCatalogHandler_UpdateReview_Success(t *testing.T) {
	// Arrange
	env := setupTestEnv()
	review := &entity.Review{ID: 3, ProductID: 1, Author: "alice", Rating: 5, Comment: "great"}
	env.store.ReviewRepo.On("GetByProductAndAuthor", mock.Anything, uint(1), "alice").Return(review, nil)
	env.store.ReviewRepo.On("UpdateRatingAndComment", mock.Anything, uint(3), 2.5, "worse").Return(nil)
	env.cache.On("InvalidateProduct", mock.Anything, uint(1)).Return(nil)
	env.publisher.On("PublishMessage", mock.Anything, "1", mock.Anything).Return(nil)

	// Act
	w := env.do(http.MethodPut, "/products/1/reviews/alice", `{"Rating":2.5,"Comment":"worse"}`)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Review updated successfully"}`, w.Body.String())
	env.store.ReviewRepo.AssertExpectations(t)
}

func TestCatalogHandler_UpdateReview_MissingFields(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodPut, "/products/1/reviews/alice", `{"Rating":2.5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Rating and Comment are required"}`, w.Body.String())
}

func TestCatalogHandler_UpdateReview_NotFound(t *testing.T) {
	env := setupTestEnv()
	env.store.ReviewRepo.On("GetByProductAndAuthor", mock.Anything, uint(1), "bob").Return(nil, repository.ErrReviewNotFound)

	w := env.do(http.MethodPut, "/products/1/reviews/bob", `{"Rating":1,"Comment":"x"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Review not found"}`, w.Body.String())
}

func TestCatalogHandler_DeleteReview_Success(t *testing.T) {
	env := setupTestEnv()
	review := &entity.Review{ID: 3, ProductID: 1, Author: "alice"}
	env.store.ReviewRepo.On("GetByProductAndAuthor", mock.Anything, uint(1), "alice").Return(review, nil)
	env.store.ReviewRepo.On("Delete", mock.Anything, uint(3)).Return(nil)
	env.cache.On("InvalidateProduct", mock.Anything, uint(1)).Return(nil)
	env.publisher.On("PublishMessage", mock.Anything, "1", mock.Anything).Return(nil)

	w := env.do(http.MethodDelete, "/products/1/reviews/alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Review deleted successfully"}`, w.Body.String())
}

func TestCatalogHandler_DeleteReview_NotFound(t *testing.T) {
	env := setupTestEnv()
	env.store.ReviewRepo.On("GetByProductAndAuthor", mock.Anything, uint(1), "alice").Return(nil, repository.ErrReviewNotFound)

	w := env.do(http.MethodDelete, "/products/1/reviews/alice", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Review not found"}`, w.Body.String())
}

func TestCatalogHandler_DeleteReview_InternalError(t *testing.T) {
	env := setupTestEnv()
	env.store.BeginErr = errors.New("connection refused")

	w := env.do(http.MethodDelete, "/products/1/reviews/alice", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete review", decodeResult(t, w).Error)
}

// ==================== Служебные маршруты ====================

func TestRouter_HealthAndMetrics(t *testing.T) {
	env := setupTestEnv()

	health := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), "catalog-service")

	metricsResp := env.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, metricsResp.Code)
}
