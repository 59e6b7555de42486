package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InventoryUseCase contém a lógica de negócio do inventário
type InventoryUseCase struct {
	repository InventoryRepository
	tracer     trace.Tracer
}

// NewInventoryUseCase cria uma nova instância de InventoryUseCase
func NewInventoryUseCase(
	repository InventoryRepository,
	tracer trace.Tracer,
) *InventoryUseCase {
	return &InventoryUseCase{
		repository: repository,
		tracer:     tracer,
	}
}

// UpdateInventory valida e aplica uma dedução multi-lote usando lock
// pessimista, em uma única transação: ou todas as entradas do mapeamento
// são deduzidas, ou nenhuma é. Replays com o mesmo deductionId são no-ops.
func (uc *InventoryUseCase) UpdateInventory(ctx context.Context, req UpdateInventoryRequest, strategy DeductionStrategy) error {
	ctx, span := uc.tracer.Start(ctx, "update_inventory")
	defer span.End()
	span.SetAttributes(
		attribute.String("sku", req.SKU),
		attribute.String("deduction_id", req.DeductionID),
		attribute.Int("batch_count", req.BatchQuantityToDeduct.Len()),
	)

	log.Printf("➡️ [DEDUCT] SKU: %s | DeductionID: %s | Batches: %d",
		req.SKU, req.DeductionID, req.BatchQuantityToDeduct.Len())

	validator, err := validatorFor(strategy, uc.repository)
	if err != nil {
		return err
	}

	// Pré-condições de forma antes de tocar o banco
	if strings.TrimSpace(req.SKU) == "" {
		return invalidOperation(errSKURequired)
	}
	if req.BatchQuantityToDeduct.Len() == 0 {
		return invalidOperation(errBatchQuantityRequired)
	}

	// Sem chave do chamador não há proteção de replay; gera uma chave
	// local apenas para manter a trilha de movimentos consistente
	if req.DeductionID == "" {
		req.DeductionID = uuid.New().String()
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	product, err := uc.repository.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		return fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		log.Printf("❌ DEDUCT FAILED: Product not found | SKU=%s", req.SKU)
		return &ProductNotFoundError{SKU: req.SKU}
	}

	// Verificar idempotência dentro da transação
	exists, err := uc.repository.MovementExists(ctx, tx, req.DeductionID, MovementTypeDeducted)
	if err != nil {
		return fmt.Errorf("error to check idempotency: %w", err)
	}
	if exists {
		log.Printf("ℹ️  [IDEMPOTENCY] Dedução já processada para DeductionID=%s", req.DeductionID)
		return nil
	}

	if err := validator.deduct(ctx, tx, product, req); err != nil {
		log.Printf("❌ [DEDUCT] SKU=%s Failed: %v", req.SKU, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("erro ao comitar dedução: %w", err)
	}

	log.Printf("✅ [DEDUCT] Success: SKU=%s DeductionID=%s", req.SKU, req.DeductionID)
	return nil
}

// RestockInventory aplica um re-crédito compensatório, também idempotente
// pela chave do movimento
func (uc *InventoryUseCase) RestockInventory(ctx context.Context, req RestockInventoryRequest) error {
	ctx, span := uc.tracer.Start(ctx, "restock_inventory")
	defer span.End()
	span.SetAttributes(
		attribute.String("sku", req.SKU),
		attribute.String("restock_id", req.RestockID),
	)

	log.Printf("↩️ [RESTOCK] SKU: %s | RestockID: %s", req.SKU, req.RestockID)

	if strings.TrimSpace(req.SKU) == "" {
		return invalidOperation(errSKURequired)
	}
	if req.BatchQuantityToRestock.Len() == 0 {
		return invalidOperation("batchQuantityToRestock must be provided and non-empty")
	}
	if req.RestockID == "" {
		req.RestockID = uuid.New().String()
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	product, err := uc.repository.GetProductBySKU(ctx, req.SKU)
	if err != nil {
		return fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		return &ProductNotFoundError{SKU: req.SKU}
	}

	exists, err := uc.repository.MovementExists(ctx, tx, req.RestockID, MovementTypeRestocked)
	if err != nil {
		return fmt.Errorf("error to check idempotency: %w", err)
	}
	if exists {
		log.Printf("ℹ️  [IDEMPOTENCY] Re-crédito já processado para RestockID=%s", req.RestockID)
		return nil
	}

	err = req.BatchQuantityToRestock.Range(func(batchNumber string, quantity *int) error {
		if quantity == nil || *quantity <= 0 {
			return invalidOperation(errQuantityPositiveFmt, batchNumber)
		}
		batch, err := uc.repository.GetBatchForUpdate(ctx, tx, product.ID, batchNumber)
		if err != nil {
			return fmt.Errorf("failed to lock batch %s: %w", batchNumber, err)
		}
		if batch == nil {
			return invalidOperation(errBatchNotFoundFmt, batchNumber, req.SKU)
		}
		if err := uc.repository.AdjustBatchQuantity(ctx, tx, batch.ID, *quantity); err != nil {
			return fmt.Errorf("failed to restock batch %s: %w", batchNumber, err)
		}
		return uc.repository.RecordMovement(ctx, tx, InventoryMovement{
			MovementKey:    req.RestockID,
			ProductID:      product.ID,
			BatchNumber:    batchNumber,
			ChangeQuantity: *quantity,
			MovementType:   MovementTypeRestocked,
		})
	})
	if err != nil {
		log.Printf("❌ [RESTOCK] SKU=%s Failed: %v", req.SKU, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("erro ao comitar re-crédito: %w", err)
	}

	log.Printf("✅ [RESTOCK] Success: SKU=%s RestockID=%s", req.SKU, req.RestockID)
	return nil
}

// BatchesForSKUOrAll retorna os lotes conforme o parâmetro sku:
//   - sku em branco => todos os lotes (modo permissivo para chamadores
//     que não são o fluxo de pedidos)
//   - sku informado mas sem produto => lista vazia
//   - sku informado e produto existe => lotes daquele produto
//
// Sempre em ordem ascendente de validade.
func (uc *InventoryUseCase) BatchesForSKUOrAll(ctx context.Context, sku string) ([]InventoryBatchDTO, error) {
	ctx, span := uc.tracer.Start(ctx, "query_batches")
	defer span.End()
	span.SetAttributes(attribute.String("sku", sku))

	if strings.TrimSpace(sku) == "" {
		batches, err := uc.repository.GetAllBatches(ctx)
		if err != nil {
			return nil, err
		}
		return toBatchDTOs(batches), nil
	}

	product, err := uc.repository.GetProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return []InventoryBatchDTO{}, nil
	}

	batches, err := uc.repository.GetBatchesByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return toBatchDTOs(batches), nil
}

// CreateProduct cria um novo produto
func (uc *InventoryUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return nil, invalidOperation(errSKURequired)
	}

	product := &Product{SKU: req.SKU, Name: req.Name}
	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	log.Printf("✅ Product created: SKU=%s", product.SKU)
	return product, nil
}

// CreateBatch cria um novo lote para um produto existente
func (uc *InventoryUseCase) CreateBatch(ctx context.Context, sku string, req CreateBatchRequest) (*InventoryBatchDTO, error) {
	if strings.TrimSpace(req.BatchNumber) == "" {
		return nil, invalidOperation("batchNumber must be provided")
	}
	if req.Quantity < 0 {
		return nil, invalidOperation("quantity must not be negative")
	}
	expiry, err := time.Parse(expiryDateLayout, req.ExpiryDate)
	if err != nil {
		return nil, invalidOperation("expiryDate must be in format %s", expiryDateLayout)
	}

	product, err := uc.repository.GetProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &ProductNotFoundError{SKU: sku}
	}

	batch := &InventoryBatch{
		ProductID:   product.ID,
		BatchNumber: req.BatchNumber,
		Quantity:    req.Quantity,
		ExpiryDate:  expiry,
	}
	if err := uc.repository.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	log.Printf("✅ Batch created: SKU=%s Batch=%s Qty=%d", sku, batch.BatchNumber, batch.Quantity)
	dto := toBatchDTO(*batch)
	return &dto, nil
}
