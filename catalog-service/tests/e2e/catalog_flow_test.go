//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"reviewcatalog/catalog-service/internal/app/catalog/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseURL - адрес запущенного catalog-service
// Для E2E тестов сервис должен быть запущен через docker-compose, товары заведены заранее
func baseURL() string {
	if value := os.Getenv("CATALOG_BASE_URL"); value != "" {
		return value
	}
	return "http://localhost:8081"
}

func newClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func doJSON(t *testing.T, client *http.Client, method, path string, body interface{}) (int, entity.Result) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req, err := http.NewRequest(method, baseURL()+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result entity.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

// firstProductID берет любой товар из каталога
func firstProductID(t *testing.T, client *http.Client) uint {
	t.Helper()

	resp, err := client.Get(baseURL() + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list entity.ProductListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	if list.Total == 0 {
		t.Skip("catalog has no products")
	}
	return list.Products[0].ID
}

// TestReviewFlow проходит полный цикл отзыва:
// добавление, повтор, обновление, удаление и повторное удаление
func TestReviewFlow(t *testing.T) {
	client := newClient()
	productID := firstProductID(t, client)
	author := fmt.Sprintf("e2e-author-%d", time.Now().UnixNano())
	reviewsPath := fmt.Sprintf("/products/%d/reviews", productID)
	authorPath := reviewsPath + "/" + url.PathEscape(author)

	rating := 4.0
	comment := "Good"

	// ==================== Step 1: Add Review ====================
	status, result := doJSON(t, client, http.MethodPost, reviewsPath, entity.ReviewRequest{
		Author:  author,
		Rating:  &rating,
		Comment: &comment,
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Review added successfully", result.Message)

	// ==================== Step 2: Duplicate ====================
	status, result = doJSON(t, client, http.MethodPost, reviewsPath, entity.ReviewRequest{
		Author:  author,
		Rating:  &rating,
		Comment: &comment,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User has already reviewed this product", result.Error)

	// ==================== Step 3: Update ====================
	newRating := 2.0
	newComment := "Meh"
	status, result = doJSON(t, client, http.MethodPut, authorPath, entity.UpdateReviewRequest{
		Rating:  &newRating,
		Comment: &newComment,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Review updated successfully", result.Message)

	resp, err := client.Get(baseURL() + reviewsPath)
	require.NoError(t, err)
	defer resp.Body.Close()

	var reviews entity.ReviewListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reviews))

	found := false
	for _, review := range reviews.Reviews {
		if review.Author == author {
			found = true
			assert.Equal(t, newRating, review.Rating)
			assert.Equal(t, newComment, review.Comment)
			assert.Empty(t, review.Content)
		}
	}
	assert.True(t, found, "Updated review should be in the list")

	// ==================== Step 4: Delete ====================
	status, result = doJSON(t, client, http.MethodDelete, authorPath, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Review deleted successfully", result.Message)

	// ==================== Step 5: Delete Again ====================
	status, result = doJSON(t, client, http.MethodDelete, authorPath, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Review not found", result.Error)
}

func TestAddReview_UnknownProduct(t *testing.T) {
	rating := 5.0
	comment := "x"

	status, result := doJSON(t, newClient(), http.MethodPost, "/products/999999999/reviews", entity.ReviewRequest{
		Author:  "ghost",
		Rating:  &rating,
		Comment: &comment,
	})

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found", result.Error)
}

// TestHealthCheck проверяет что сервис отвечает
func TestHealthCheck(t *testing.T) {
	resp, err := newClient().Get(baseURL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
