package main

import (
	"time"

	"github.com/google/uuid"
)

// Order representa um pedido persistido. Criado uma única vez após a
// dedução remota bem-sucedida; nunca é mutado depois.
type Order struct {
	ID          int64     `json:"id" db:"id"`
	OrderNumber string    `json:"orderNumber" db:"order_number"`
	SKU         string    `json:"sku" db:"sku"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Status      string    `json:"status" db:"status"`
	Metadata    string    `json:"metadata" db:"metadata"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// NewOrder cria uma nova instância de Order com número único e status PLACED
func NewOrder(sku string, quantity int) *Order {
	return &Order{
		OrderNumber: uuid.New().String(),
		SKU:         sku,
		Quantity:    quantity,
		Status:      OrderStatusPlaced,
		Metadata:    orderMetadataAutoPicked,
		CreatedAt:   time.Now(),
	}
}

// OrderStatusPlaced é o único status terminal de sucesso; não existe fluxo
// de cancelamento ou compensação sobre o pedido em si
const OrderStatusPlaced = "PLACED"

// orderMetadataAutoPicked anota que os lotes foram selecionados
// automaticamente pelo alocador
const orderMetadataAutoPicked = "auto-picked"

// OrderRequest representa a requisição para colocar um pedido
type OrderRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// OrderResponse é o resultado do placement: sucesso com o pedido
// persistido, ou rejeição de negócio com a razão no corpo
type OrderResponse struct {
	Success bool   `json:"success"`
	Order   *Order `json:"order"`
	Error   string `json:"error,omitempty"`
}

// InventoryBatchDTO é um lote como retornado pelo serviço de inventário,
// já em ordem ascendente de validade
type InventoryBatchDTO struct {
	BatchNumber string `json:"batchNumber"`
	Quantity    int    `json:"quantity"`
	ExpiryDate  string `json:"expiryDate"`
}
