package main

import (
	"time"

	"github.com/fefo-commerce/batch-fulfillment/pkg/batchmap"
)

// expiryDateLayout é o formato de data usado no corpo das mensagens
const expiryDateLayout = "2006-01-02"

// Product representa um produto dono de lotes de estoque
type Product struct {
	ID   int64  `json:"id" db:"id"`
	SKU  string `json:"sku" db:"sku"`
	Name string `json:"name" db:"name"`
}

// InventoryBatch representa um lote datado de estoque de um produto.
// A referência ao produto é uma FK simples (product_id), sem ponteiro de
// volta: a posse é unidirecional.
type InventoryBatch struct {
	ID          int64     `json:"id" db:"id"`
	ProductID   int64     `json:"productId" db:"product_id"`
	BatchNumber string    `json:"batchNumber" db:"batch_number"`
	Quantity    int       `json:"quantity" db:"quantity"`
	ExpiryDate  time.Time `json:"expiryDate" db:"expiry_date"`
}

// InventoryBatchDTO é a representação de um lote nas respostas da API
type InventoryBatchDTO struct {
	BatchNumber string `json:"batchNumber"`
	Quantity    int    `json:"quantity"`
	ExpiryDate  string `json:"expiryDate"`
}

func toBatchDTO(b InventoryBatch) InventoryBatchDTO {
	return InventoryBatchDTO{
		BatchNumber: b.BatchNumber,
		Quantity:    b.Quantity,
		ExpiryDate:  b.ExpiryDate.Format(expiryDateLayout),
	}
}

func toBatchDTOs(batches []InventoryBatch) []InventoryBatchDTO {
	out := make([]InventoryBatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchDTO(b))
	}
	return out
}

// UpdateInventoryRequest é o payload da dedução de estoque. DeductionID é a
// chave de idempotência gerada pelo chamador: um replay com a mesma chave
// não deduz duas vezes.
type UpdateInventoryRequest struct {
	SKU                   string                    `json:"sku"`
	BatchQuantityToDeduct *batchmap.BatchQuantities `json:"batchQuantityToDeduct"`
	DeductionID           string                    `json:"deductionId,omitempty"`
}

// RestockInventoryRequest é o payload do re-crédito compensatório emitido
// pelo serviço de pedidos quando a persistência do pedido falha após uma
// dedução bem-sucedida
type RestockInventoryRequest struct {
	SKU                    string                    `json:"sku"`
	BatchQuantityToRestock *batchmap.BatchQuantities `json:"batchQuantityToRestock"`
	RestockID              string                    `json:"restockId,omitempty"`
}

// CreateProductRequest é o payload de criação de produto
type CreateProductRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// CreateBatchRequest é o payload de criação de lote
type CreateBatchRequest struct {
	BatchNumber string `json:"batchNumber"`
	Quantity    int    `json:"quantity"`
	ExpiryDate  string `json:"expiryDate"`
}

// InventoryMovement registra uma movimentação durável de estoque. A dupla
// (movement_key, movement_type, batch_number) é única e sustenta o replay
// idempotente das deduções e compensações.
type InventoryMovement struct {
	ID             string    `json:"id" db:"id"`
	MovementKey    string    `json:"movementKey" db:"movement_key"`
	ProductID      int64     `json:"productId" db:"product_id"`
	BatchNumber    string    `json:"batchNumber" db:"batch_number"`
	ChangeQuantity int       `json:"changeQuantity" db:"change_quantity"`
	MovementType   string    `json:"movementType" db:"movement_type"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// MovementType representa os tipos de movimentação de estoque
const (
	MovementTypeDeducted  = "deducted"
	MovementTypeRestocked = "restocked"
)
