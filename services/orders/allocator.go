package main

import (
	"github.com/fefo-commerce/batch-fulfillment/pkg/batchmap"
)

// Allocate seleciona os lotes que satisfazem a quantidade pedida, por
// first-fit guloso na ordem fornecida — o chamador entrega os lotes já
// ordenados por validade ascendente, então o estoque que vence primeiro é
// consumido primeiro (FEFO).
//
// Função pura: nunca muta a entrada e nunca toca armazenamento. Retorna o
// mapeamento ordenado batchNumber -> quantidade a deduzir, ou
// InsufficientInventoryError quando não há lotes ou o total disponível é
// menor que o pedido. Em caso de falha nenhuma alocação parcial é
// retornada.
func Allocate(batches []InventoryBatchDTO, requestedQuantity int) (*batchmap.BatchQuantities, error) {
	if len(batches) == 0 {
		return nil, insufficientInventory("Insufficient inventory: no batches available")
	}

	remaining := requestedQuantity
	allocation := batchmap.New()

	for _, batch := range batches {
		if remaining <= 0 {
			break
		}
		deduct := batch.Quantity
		if remaining < deduct {
			deduct = remaining
		}
		if deduct > 0 {
			allocation.Set(batch.BatchNumber, deduct)
			remaining -= deduct
		}
	}

	if remaining > 0 {
		return nil, insufficientInventory("Insufficient inventory to fulfill requested quantity")
	}

	return allocation, nil
}
