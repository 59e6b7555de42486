package main

import "fmt"

// InvalidRequestError indica requisição de pedido malformada (SKU ausente,
// quantidade não positiva). Rejeição local, sem chamada remota.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// InsufficientInventoryError indica que a quantidade pedida excede o
// disponível somando todos os lotes, ou que não há lotes
type InsufficientInventoryError struct {
	Message string
}

func (e *InsufficientInventoryError) Error() string {
	return e.Message
}

// InventoryRejectionError carrega, literalmente, a razão de rejeição
// devolvida pelo serviço de inventário na dedução (campos inválidos,
// produto ou lote desconhecido, saldo insuficiente)
type InventoryRejectionError struct {
	Status  int
	Message string
}

func (e *InventoryRejectionError) Error() string {
	return e.Message
}

// isBusinessRejection separa as rejeições de negócio das falhas de
// infraestrutura: só as primeiras viram resultado estruturado; as demais
// sobem sem embrulho para o adaptador de transporte
func isBusinessRejection(err error) bool {
	switch err.(type) {
	case *InvalidRequestError, *InsufficientInventoryError, *InventoryRejectionError:
		return true
	}
	return false
}

func insufficientInventory(format string, args ...any) error {
	return &InsufficientInventoryError{Message: fmt.Sprintf(format, args...)}
}
