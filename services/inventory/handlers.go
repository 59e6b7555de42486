package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InventoryHandler contém os handlers HTTP para inventário
type InventoryHandler struct {
	useCase *InventoryUseCase
	tracer  trace.Tracer
}

// NewInventoryHandler cria uma nova instância de InventoryHandler
func NewInventoryHandler(useCase *InventoryUseCase, tracer trace.Tracer) *InventoryHandler {
	return &InventoryHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// errorBody monta o corpo estruturado de erro: timestamp, status, reason
// phrase, mensagem e path da requisição
func errorBody(c *gin.Context, status int, message string) gin.H {
	return gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"path":      c.Request.URL.Path,
	}
}

// writeError mapeia a taxonomia de erros para status de transporte:
// produto inexistente -> 404, operação inválida -> 400, resto -> 500
func (h *InventoryHandler) writeError(c *gin.Context, err error) {
	var notFound *ProductNotFoundError
	var invalid *InvalidInventoryOperationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, errorBody(c, http.StatusNotFound, notFound.Error()))
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, errorBody(c, http.StatusBadRequest, invalid.Error()))
	default:
		log.Printf("❌ Unexpected error on %s: %v", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, errorBody(c, http.StatusInternalServerError, err.Error()))
	}
}

// GetBatches retorna os lotes de um SKU (ou todos, quando sku está ausente)
// em ordem ascendente de validade
func (h *InventoryHandler) GetBatches(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_batches")
	defer span.End()

	sku := c.Query("sku")
	span.SetAttributes(attribute.String("sku", sku))

	batches, err := h.useCase.BatchesForSKUOrAll(ctx, sku)
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, batches)
}

// UpdateInventory é o endpoint da dedução remota de estoque
func (h *InventoryHandler) UpdateInventory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_inventory")
	defer span.End()

	var req UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, errorBody(c, http.StatusBadRequest, errRequestBodyMissing))
		return
	}

	strategy, err := ParseDeductionStrategy(c.Query("handlerType"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("sku", req.SKU),
		attribute.String("deduction_id", req.DeductionID),
	)

	if err := h.useCase.UpdateInventory(ctx, req, strategy); err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// RestockInventory é o endpoint do re-crédito compensatório
func (h *InventoryHandler) RestockInventory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "restock_inventory")
	defer span.End()

	var req RestockInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, errorBody(c, http.StatusBadRequest, errRequestBodyMissing))
		return
	}

	span.SetAttributes(
		attribute.String("sku", req.SKU),
		attribute.String("restock_id", req.RestockID),
	)

	if err := h.useCase.RestockInventory(ctx, req); err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// CreateProduct cria um novo produto
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_product")
	defer span.End()

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, http.StatusBadRequest, errRequestBodyMissing))
		return
	}

	product, err := h.useCase.CreateProduct(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// CreateBatch cria um novo lote para um produto
func (h *InventoryHandler) CreateBatch(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_batch")
	defer span.End()

	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(c, http.StatusBadRequest, errRequestBodyMissing))
		return
	}

	sku := c.Query("sku")
	batch, err := h.useCase.CreateBatch(ctx, sku, req)
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// HealthCheck é o endpoint de health check
func (h *InventoryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inventory-service",
	})
}
