package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fefo-commerce/batch-fulfillment/pkg/batchmap"
)

// OrderUseCase coordena o placement: valida a requisição, consulta os
// lotes no serviço de inventário, roda o alocador, dispara a dedução
// remota e só então persiste o pedido.
type OrderUseCase struct {
	repository      Repository
	inventoryClient InventoryClient
	tracer          trace.Tracer
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(
	repository Repository,
	inventoryClient InventoryClient,
	tracer trace.Tracer,
) *OrderUseCase {
	return &OrderUseCase{
		repository:      repository,
		inventoryClient: inventoryClient,
		tracer:          tracer,
	}
}

// PlaceOrder executa a sequência de placement na ordem estrita:
// validar -> buscar lotes -> alocar -> deduzir remoto -> persistir.
// Rejeições de negócio em qualquer passo viram OrderResponse com
// success=false e nenhum pedido parcial; falhas de infraestrutura sobem
// sem embrulho para o adaptador de transporte. Nenhum passo é retentado.
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "place_order")
	defer span.End()
	if req != nil {
		span.SetAttributes(
			attribute.String("sku", req.SKU),
			attribute.Int("quantity", req.Quantity),
		)
	}

	response, err := uc.placeOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		if isBusinessRejection(err) {
			log.Printf("ℹ️ [ORDER] Rejected: %v", err)
			return &OrderResponse{Success: false, Error: err.Error()}, nil
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("order_number", response.Order.OrderNumber))
	return response, nil
}

func (uc *OrderUseCase) placeOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	// 1. VALIDATED
	if err := ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	log.Printf("➡️ [ORDER] SKU: %s | Quantity: %d", req.SKU, req.Quantity)

	// 2. BATCHES_FETCHED — falha remota aqui é infraestrutura, não
	// "sem estoque"
	batches, err := uc.inventoryClient.GetBatchesBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}

	// 3. Lista vazia encerra antes da alocação
	if len(batches) == 0 {
		return nil, insufficientInventory("Insufficient inventory: no batches available")
	}

	// 4. ALLOCATED
	allocation, err := Allocate(batches, req.Quantity)
	if err != nil {
		return nil, err
	}

	// 5. DEDUCTED — mesma SKU, mesmo mapeamento, chave de idempotência
	// nova por placement
	deductionID := uuid.New().String()
	err = uc.inventoryClient.DeductInventory(ctx, InventoryUpdateRequest{
		SKU:                   req.SKU,
		BatchQuantityToDeduct: allocation,
		DeductionID:           deductionID,
	})
	if err != nil {
		log.Printf("❌ [ORDER] Deduction failed: SKU=%s DeductionID=%s: %v", req.SKU, deductionID, err)
		return nil, err
	}

	// 6. PERSISTED
	order := NewOrder(req.SKU, req.Quantity)
	if err := uc.repository.CreateOrder(ctx, order); err != nil {
		// Estoque já deduzido e pedido não gravado: emite o re-crédito
		// compensatório antes de reportar a falha de infraestrutura
		uc.compensateDeduction(ctx, req.SKU, allocation, deductionID)
		return nil, fmt.Errorf("failed to persist order after successful deduction: %w", err)
	}

	log.Printf("✅ [ORDER] Placed: %s | SKU=%s Quantity=%d", order.OrderNumber, order.SKU, order.Quantity)
	return &OrderResponse{Success: true, Order: order}, nil
}

// compensateDeduction tenta devolver ao inventário as quantidades já
// deduzidas de um placement que não pôde ser persistido. Se o re-crédito
// também falhar, os dois lados ficam irreconciliáveis e isso é alertado em
// vez de assumido como consistente.
func (uc *OrderUseCase) compensateDeduction(ctx context.Context, sku string, allocation *batchmap.BatchQuantities, deductionID string) {
	log.Printf("↩️ [ORDER] Compensating deduction: SKU=%s DeductionID=%s", sku, deductionID)

	err := uc.inventoryClient.RestockInventory(ctx, InventoryRestockRequest{
		SKU:                    sku,
		BatchQuantityToRestock: allocation,
		RestockID:              deductionID,
	})
	if err != nil {
		log.Printf("🚨 [ORDER] IRRECONCILABLE STATE: deduction %s for SKU=%s applied but order not persisted and restock failed: %v",
			deductionID, sku, err)
		return
	}

	log.Printf("♻️  [ORDER] Deduction compensated: SKU=%s DeductionID=%s", sku, deductionID)
}

// GetOrder busca um pedido pelo número
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderNumber string) (*Order, error) {
	return uc.repository.GetOrderByNumber(ctx, orderNumber)
}

// ListOrders lista os pedidos mais recentes
func (uc *OrderUseCase) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	return uc.repository.ListOrders(ctx, limit)
}
