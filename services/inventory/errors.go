package main

import "fmt"

// Mensagens de validação da dedução, na ordem em que as pré-condições são
// avaliadas. Cada uma produz um sinal de falha distinto para o chamador.
const (
	errRequestBodyMissing    = "Request body is missing"
	errSKURequired           = "SKU must be provided"
	errBatchQuantityRequired = "batchQuantityToDeduct must be provided and non-empty"
	errQuantityRequiredFmt   = "Quantity for batch '%s' must be provided"
	errQuantityPositiveFmt   = "Quantity to deduct for batch '%s' must be greater than 0"
	errProductNotFoundFmt    = "Product with SKU '%s' not found"
	errBatchNotFoundFmt      = "Batch '%s' not found for product SKU '%s'"
	errInsufficientQtyFmt    = "Insufficient qty in batch: %s"
)

// InvalidInventoryOperationError indica entrada malformada ou violação de
// regra de negócio na operação de estoque. Mapeia para client error no
// transporte; o chamador corrige a entrada, nunca há retry automático.
type InvalidInventoryOperationError struct {
	Message string
}

func (e *InvalidInventoryOperationError) Error() string {
	return e.Message
}

func invalidOperation(format string, args ...any) error {
	return &InvalidInventoryOperationError{Message: fmt.Sprintf(format, args...)}
}

// ProductNotFoundError indica que o SKU referenciado não existe. É uma
// rejeição, não um defeito.
type ProductNotFoundError struct {
	SKU string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf(errProductNotFoundFmt, e.SKU)
}
