package main

import (
	"context"
	"fmt"
)

// DeductionStrategy seleciona a variante de validação/mutação aplicada a
// uma dedução. O conjunto de estratégias é fixo e conhecido em tempo de
// compilação, então a seleção é um enum fechado em vez de um registro
// dinâmico por chave de string.
type DeductionStrategy string

const (
	// DeductionDefault valida cada entrada na ordem do mapeamento e aplica
	// todas as deduções em uma única transação (tudo-ou-nada)
	DeductionDefault DeductionStrategy = "default"
)

// ParseDeductionStrategy converte o valor vindo do transporte em uma
// estratégia conhecida
func ParseDeductionStrategy(raw string) (DeductionStrategy, error) {
	switch raw {
	case "", string(DeductionDefault):
		return DeductionDefault, nil
	default:
		return "", invalidOperation("invalid type")
	}
}

// deductionValidator valida e aplica uma dedução dentro da transação aberta
// pelo caso de uso. Os decrementos só se tornam visíveis no commit: uma
// falha em qualquer entrada desfaz todas as já aplicadas.
type deductionValidator interface {
	deduct(ctx context.Context, tx Tx, product *Product, req UpdateInventoryRequest) error
}

func validatorFor(strategy DeductionStrategy, repository InventoryRepository) (deductionValidator, error) {
	switch strategy {
	case DeductionDefault:
		return &defaultDeductionValidator{repository: repository}, nil
	default:
		return nil, invalidOperation("invalid type")
	}
}

// defaultDeductionValidator avalia as pré-condições de cada entrada,
// independentemente e na ordem do mapeamento:
//  1. quantidade presente
//  2. quantidade > 0
//  3. lote existe sob o produto
//  4. saldo do lote >= quantidade
//
// A primeira violação interrompe e devolve o sinal de falha daquela entrada.
type defaultDeductionValidator struct {
	repository InventoryRepository
}

func (v *defaultDeductionValidator) deduct(ctx context.Context, tx Tx, product *Product, req UpdateInventoryRequest) error {
	return req.BatchQuantityToDeduct.Range(func(batchNumber string, quantity *int) error {
		if quantity == nil {
			return invalidOperation(errQuantityRequiredFmt, batchNumber)
		}
		if *quantity <= 0 {
			return invalidOperation(errQuantityPositiveFmt, batchNumber)
		}

		batch, err := v.repository.GetBatchForUpdate(ctx, tx, product.ID, batchNumber)
		if err != nil {
			return fmt.Errorf("failed to lock batch %s: %w", batchNumber, err)
		}
		if batch == nil {
			return invalidOperation(errBatchNotFoundFmt, batchNumber, req.SKU)
		}
		if batch.Quantity < *quantity {
			return invalidOperation(errInsufficientQtyFmt, batchNumber)
		}

		if err := v.repository.AdjustBatchQuantity(ctx, tx, batch.ID, -*quantity); err != nil {
			return fmt.Errorf("failed to deduct batch %s: %w", batchNumber, err)
		}
		return v.repository.RecordMovement(ctx, tx, InventoryMovement{
			MovementKey:    req.DeductionID,
			ProductID:      product.ID,
			BatchNumber:    batchNumber,
			ChangeQuantity: -*quantity,
			MovementType:   MovementTypeDeducted,
		})
	})
}
