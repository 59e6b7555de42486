package main

import "strings"

const (
	errOrderRequestRequired = "Order request must be provided"
	errSKURequired          = "SKU must be provided"
	errQuantityInvalid      = "Quantity must be greater than 0"
)

// ValidateOrderRequest checa a forma da requisição de pedido antes de
// qualquer chamada remota: SKU não em branco e quantidade positiva
func ValidateOrderRequest(req *OrderRequest) error {
	if req == nil {
		return &InvalidRequestError{Message: errOrderRequestRequired}
	}
	if strings.TrimSpace(req.SKU) == "" {
		return &InvalidRequestError{Message: errSKURequired}
	}
	if req.Quantity <= 0 {
		return &InvalidRequestError{Message: errQuantityInvalid}
	}
	return nil
}
