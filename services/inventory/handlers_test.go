package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func newTestRouter(repo InventoryRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := otel.Tracer("inventory-test")
	handler := NewInventoryHandler(NewInventoryUseCase(repo, tracer), tracer)

	router := gin.New()
	router.GET("/inventory/batches", handler.GetBatches)
	router.POST("/inventory/update", handler.UpdateInventory)
	router.POST("/inventory/restock", handler.RestockInventory)
	router.POST("/inventory/product", handler.CreateProduct)
	router.POST("/inventory/batch", handler.CreateBatch)
	router.GET("/health", handler.HealthCheck)
	return router
}

func postJSON(router *gin.Engine, path string, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeErrorBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestUpdateInventoryHandler_Success(t *testing.T) {
	repo := newMemoryRepository()
	product := repo.seedProduct("SKU-1")
	repo.seedBatch(product.ID, "B1", 5, expiry(1))
	router := newTestRouter(repo)

	recorder := postJSON(router, "/inventory/update",
		`{"sku":"SKU-1","batchQuantityToDeduct":{"B1":3},"deductionId":"d-1"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 2, repo.batchQuantity(product.ID, "B1"))
}

func TestUpdateInventoryHandler_UnknownProductIs404(t *testing.T) {
	router := newTestRouter(newMemoryRepository())

	recorder := postJSON(router, "/inventory/update",
		`{"sku":"NOPE","batchQuantityToDeduct":{"B1":1}}`)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	body := decodeErrorBody(t, recorder)
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, "Not Found", body["error"])
	assert.Equal(t, "Product with SKU 'NOPE' not found", body["message"])
	assert.Equal(t, "/inventory/update", body["path"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestUpdateInventoryHandler_InvalidOperationIs400(t *testing.T) {
	repo := newMemoryRepository()
	product := repo.seedProduct("SKU-1")
	repo.seedBatch(product.ID, "B1", 2, expiry(1))
	router := newTestRouter(repo)

	recorder := postJSON(router, "/inventory/update",
		`{"sku":"SKU-1","batchQuantityToDeduct":{"B1":8}}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeErrorBody(t, recorder)
	assert.Equal(t, "Bad Request", body["error"])
	assert.Equal(t, "Insufficient qty in batch: B1", body["message"])
	assert.Equal(t, 2, repo.batchQuantity(product.ID, "B1"))
}

func TestUpdateInventoryHandler_MissingBodyIs400(t *testing.T) {
	router := newTestRouter(newMemoryRepository())

	recorder := postJSON(router, "/inventory/update", `{not-json`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeErrorBody(t, recorder)
	assert.Equal(t, "Request body is missing", body["message"])
}

func TestUpdateInventoryHandler_UnknownHandlerTypeIs400(t *testing.T) {
	router := newTestRouter(newMemoryRepository())

	recorder := postJSON(router, "/inventory/update?handlerType=legacy",
		`{"sku":"SKU-1","batchQuantityToDeduct":{"B1":1}}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeErrorBody(t, recorder)
	assert.Equal(t, "invalid type", body["message"])
}

func TestGetBatchesHandler(t *testing.T) {
	repo := newMemoryRepository()
	product := repo.seedProduct("SKU-1")
	repo.seedBatch(product.ID, "LATER", 5, expiry(20))
	repo.seedBatch(product.ID, "SOONER", 3, expiry(5))
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/inventory/batches?sku=SKU-1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var batches []InventoryBatchDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &batches))
	require.Len(t, batches, 2)
	assert.Equal(t, "SOONER", batches[0].BatchNumber)
	assert.Equal(t, "LATER", batches[1].BatchNumber)
}

func TestRestockInventoryHandler(t *testing.T) {
	repo := newMemoryRepository()
	product := repo.seedProduct("SKU-1")
	repo.seedBatch(product.ID, "B1", 2, expiry(1))
	router := newTestRouter(repo)

	recorder := postJSON(router, "/inventory/restock",
		`{"sku":"SKU-1","batchQuantityToRestock":{"B1":3},"restockId":"r-1"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 5, repo.batchQuantity(product.ID, "B1"))
}

func TestCreateProductAndBatchHandlers(t *testing.T) {
	repo := newMemoryRepository()
	router := newTestRouter(repo)

	recorder := postJSON(router, "/inventory/product", `{"sku":"SKU-9","name":"Widget"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = postJSON(router, "/inventory/batch?sku=SKU-9",
		`{"batchNumber":"B1","quantity":4,"expiryDate":"2026-05-01"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var dto InventoryBatchDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &dto))
	assert.Equal(t, "B1", dto.BatchNumber)
	assert.Equal(t, 4, dto.Quantity)
}

func TestInventoryHealthCheck(t *testing.T) {
	router := newTestRouter(newMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "inventory-service")
}