package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOrderNotFound indica que o número de pedido não existe
var ErrOrderNotFound = errors.New("order not found")

// Repository define a interface para operações de banco de dados de pedidos
type Repository interface {
	// CreateOrder cria um novo pedido no banco de dados
	CreateOrder(ctx context.Context, order *Order) error

	// GetOrderByNumber busca um pedido pelo número
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrders lista os pedidos mais recentes
	ListOrders(ctx context.Context, limit int) ([]Order, error)
}

// OrderRepository implementa Repository usando PostgreSQL
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository cria uma nova instância de OrderRepository
func NewOrderRepository(db *pgxpool.Pool) Repository {
	return &OrderRepository{
		db: db,
	}
}

// CreateOrder cria um novo pedido no banco de dados
func (r *OrderRepository) CreateOrder(ctx context.Context, order *Order) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, sku, quantity, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, order.OrderNumber, order.SKU, order.Quantity, order.Status, order.Metadata, order.CreatedAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrderByNumber busca um pedido pelo número
func (r *OrderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT id, order_number, sku, quantity, status, metadata, created_at
		FROM orders WHERE order_number = $1
	`, orderNumber).Scan(&order.ID, &order.OrderNumber, &order.SKU, &order.Quantity, &order.Status, &order.Metadata, &order.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders lista os pedidos mais recentes
func (r *OrderRepository) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, order_number, sku, quantity, status, metadata, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.SKU, &o.Quantity, &o.Status, &o.Metadata, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
