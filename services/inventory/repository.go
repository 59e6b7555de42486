package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepository define a interface para operações de banco de dados
// de inventário. Toda mutação de lote acontece dentro de uma transação com
// a linha travada (SELECT ... FOR UPDATE): é essa trava por linha que
// impede oversell quando duas deduções concorrentes leem o mesmo saldo.
type InventoryRepository interface {
	GetProductBySKU(ctx context.Context, sku string) (*Product, error)
	GetBatchesByProduct(ctx context.Context, productID int64) ([]InventoryBatch, error)
	GetAllBatches(ctx context.Context) ([]InventoryBatch, error)
	CreateProduct(ctx context.Context, product *Product) error
	CreateBatch(ctx context.Context, batch *InventoryBatch) error

	BeginTx(ctx context.Context) (Tx, error)
	GetBatchForUpdate(ctx context.Context, tx Tx, productID int64, batchNumber string) (*InventoryBatch, error)
	AdjustBatchQuantity(ctx context.Context, tx Tx, batchID int64, delta int) error
	MovementExists(ctx context.Context, tx Tx, movementKey string, movementType string) (bool, error)
	RecordMovement(ctx context.Context, tx Tx, movement InventoryMovement) error
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// PostgresInventoryRepository implementa InventoryRepository usando PostgreSQL
type PostgresInventoryRepository struct {
	db *pgxpool.Pool
}

// NewInventoryRepository cria uma nova instância de PostgresInventoryRepository
func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &PostgresInventoryRepository{
		db: db,
	}
}

// GetProductBySKU busca um produto pelo SKU. Retorna nil quando não existe.
func (r *PostgresInventoryRepository) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	var product Product
	err := r.db.QueryRow(ctx, `
		SELECT id, sku, name
		FROM products
		WHERE sku = $1
	`, sku).Scan(&product.ID, &product.SKU, &product.Name)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by sku: %w", err)
	}
	return &product, nil
}

// GetBatchesByProduct busca os lotes de um produto em ordem ascendente de
// validade (o lote que vence primeiro é consumido primeiro)
func (r *PostgresInventoryRepository) GetBatchesByProduct(ctx context.Context, productID int64) ([]InventoryBatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, batch_number, quantity, expiry_date
		FROM inventory_batches
		WHERE product_id = $1
		ORDER BY expiry_date ASC, batch_number ASC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

// GetAllBatches retorna todos os lotes, ainda em ordem de validade
func (r *PostgresInventoryRepository) GetAllBatches(ctx context.Context) ([]InventoryBatch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, batch_number, quantity, expiry_date
		FROM inventory_batches
		ORDER BY expiry_date ASC, batch_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

func scanBatches(rows pgx.Rows) ([]InventoryBatch, error) {
	batches := []InventoryBatch{}
	for rows.Next() {
		var b InventoryBatch
		if err := rows.Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.Quantity, &b.ExpiryDate); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// CreateProduct cria um novo produto
func (r *PostgresInventoryRepository) CreateProduct(ctx context.Context, product *Product) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (sku, name)
		VALUES ($1, $2)
		RETURNING id
	`, product.SKU, product.Name).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// CreateBatch cria um novo lote para um produto
func (r *PostgresInventoryRepository) CreateBatch(ctx context.Context, batch *InventoryBatch) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO inventory_batches (product_id, batch_number, quantity, expiry_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, batch.ProductID, batch.BatchNumber, batch.Quantity, batch.ExpiryDate).Scan(&batch.ID)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// BeginTx inicia uma nova transação
func (r *PostgresInventoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// GetBatchForUpdate obtém o lote com lock pessimista (FOR UPDATE).
// A linha fica bloqueada até o Commit ou Rollback. Retorna nil quando o
// lote não existe sob o produto.
func (r *PostgresInventoryRepository) GetBatchForUpdate(ctx context.Context, tx Tx, productID int64, batchNumber string) (*InventoryBatch, error) {
	pgTx := tx.(*PostgresTx).tx

	var b InventoryBatch
	err := pgTx.QueryRow(ctx, `
		SELECT id, product_id, batch_number, quantity, expiry_date
		FROM inventory_batches
		WHERE product_id = $1 AND batch_number = $2
		FOR UPDATE
	`, productID, batchNumber).Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.Quantity, &b.ExpiryDate)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch with lock: %w", err)
	}
	return &b, nil
}

// AdjustBatchQuantity aplica um delta (negativo para dedução) ao saldo do
// lote. A cláusula quantity + delta >= 0 é a última linha de defesa do
// invariante quantity >= 0, somada ao CHECK do schema.
func (r *PostgresInventoryRepository) AdjustBatchQuantity(ctx context.Context, tx Tx, batchID int64, delta int) error {
	pgTx := tx.(*PostgresTx).tx

	tag, err := pgTx.Exec(ctx, `
		UPDATE inventory_batches
		SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
	`, batchID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust batch quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch %d would go negative by %d", batchID, delta)
	}
	return nil
}

// MovementExists verifica se já existe um movimento para a chave e o tipo
// especificados (checagem de idempotência dentro da transação)
func (r *PostgresInventoryRepository) MovementExists(ctx context.Context, tx Tx, movementKey string, movementType string) (bool, error) {
	pgTx := tx.(*PostgresTx).tx

	var exists bool
	err := pgTx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM inventory_movements
			WHERE movement_key = $1 AND movement_type = $2
		)
	`, movementKey, movementType).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RecordMovement insere o registro de movimentação de um lote
func (r *PostgresInventoryRepository) RecordMovement(ctx context.Context, tx Tx, movement InventoryMovement) error {
	pgTx := tx.(*PostgresTx).tx

	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	_, err := pgTx.Exec(ctx, `
		INSERT INTO inventory_movements (id, movement_key, product_id, batch_number, change_quantity, movement_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, movement.ID, movement.MovementKey, movement.ProductID, movement.BatchNumber, movement.ChangeQuantity, movement.MovementType)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}
	return nil
}
