package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fefo-commerce/batch-fulfillment/pkg/batchmap"
)

const (
	fetchBatchesErrorMsg    = "Failed to fetch inventory batches from inventory service."
	updateInventoryErrorMsg = "Failed to update inventory in inventory service."
	restockErrorMsg         = "Failed to restock inventory in inventory service."
)

// InventoryUpdateRequest é o payload da dedução remota. DeductionID é a
// chave de idempotência anexada a cada dedução para que um retry pós
// timeout não deduza duas vezes.
type InventoryUpdateRequest struct {
	SKU                   string                    `json:"sku"`
	BatchQuantityToDeduct *batchmap.BatchQuantities `json:"batchQuantityToDeduct"`
	DeductionID           string                    `json:"deductionId"`
}

// InventoryRestockRequest é o payload do re-crédito compensatório
type InventoryRestockRequest struct {
	SKU                    string                    `json:"sku"`
	BatchQuantityToRestock *batchmap.BatchQuantities `json:"batchQuantityToRestock"`
	RestockID              string                    `json:"restockId"`
}

// inventoryErrorBody é o corpo estruturado de erro do serviço de inventário
type inventoryErrorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// InventoryClient abstrai as duas operações de rede contra o serviço de
// inventário, mais o re-crédito compensatório
type InventoryClient interface {
	GetBatchesBySKU(ctx context.Context, sku string) ([]InventoryBatchDTO, error)
	DeductInventory(ctx context.Context, req InventoryUpdateRequest) error
	RestockInventory(ctx context.Context, req InventoryRestockRequest) error
}

// RestyInventoryClient implementa InventoryClient sobre HTTP/JSON
type RestyInventoryClient struct {
	client *resty.Client
}

// NewInventoryClient cria uma nova instância de RestyInventoryClient
func NewInventoryClient(baseURL string) *RestyInventoryClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &RestyInventoryClient{client: client}
}

// GetBatchesBySKU busca os lotes disponíveis de um SKU, ordenados por
// validade ascendente. Falha de rede ou 5xx sobe como erro de
// infraestrutura — nunca é tratada como "sem estoque".
func (c *RestyInventoryClient) GetBatchesBySKU(ctx context.Context, sku string) ([]InventoryBatchDTO, error) {
	var batches []InventoryBatchDTO

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("sku", sku).
		SetResult(&batches).
		Get("/inventory/batches")
	if err != nil {
		return nil, fmt.Errorf("%s %w", fetchBatchesErrorMsg, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s status=%d body=%s", fetchBatchesErrorMsg, resp.StatusCode(), resp.String())
	}

	return batches, nil
}

// DeductInventory aplica a dedução no serviço de inventário. Uma resposta
// 4xx é uma rejeição de negócio e volta com a mensagem do servidor
// literalmente; transporte quebrado ou 5xx é falha de infraestrutura.
func (c *RestyInventoryClient) DeductInventory(ctx context.Context, req InventoryUpdateRequest) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/inventory/update")
	if err != nil {
		return fmt.Errorf("%s %w", updateInventoryErrorMsg, err)
	}

	return classifyInventoryResponse(resp, updateInventoryErrorMsg)
}

// RestockInventory emite o re-crédito compensatório
func (c *RestyInventoryClient) RestockInventory(ctx context.Context, req InventoryRestockRequest) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/inventory/restock")
	if err != nil {
		return fmt.Errorf("%s %w", restockErrorMsg, err)
	}

	return classifyInventoryResponse(resp, restockErrorMsg)
}

func classifyInventoryResponse(resp *resty.Response, prefix string) error {
	if !resp.IsError() {
		return nil
	}

	status := resp.StatusCode()
	if status >= 400 && status < 500 {
		message := prefix
		var body inventoryErrorBody
		if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
			message = body.Message
		}
		return &InventoryRejectionError{Status: status, Message: message}
	}

	return fmt.Errorf("%s status=%d body=%s", prefix, status, resp.String())
}
