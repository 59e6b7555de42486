package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryInventoryRepository é uma implementação em memória de
// InventoryRepository para os testes de caso de uso. As transações são
// serializadas por um mutex (o equivalente grosseiro do SELECT ... FOR
// UPDATE) e as mutações ficam em staging até o Commit: um Rollback
// descarta tudo, como no banco real.
type memoryInventoryRepository struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	nextID int64

	products  map[string]*Product
	batches   map[int64]*InventoryBatch
	movements map[string]struct{}
}

func newMemoryRepository() *memoryInventoryRepository {
	return &memoryInventoryRepository{
		products:  map[string]*Product{},
		batches:   map[int64]*InventoryBatch{},
		movements: map[string]struct{}{},
	}
}

func movementKeyFor(movementKey, movementType, batchNumber string) string {
	return movementKey + "|" + movementType + "|" + batchNumber
}

func (r *memoryInventoryRepository) seedProduct(sku string) *Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p := &Product{ID: r.nextID, SKU: sku, Name: "product " + sku}
	r.products[sku] = p
	return p
}

func (r *memoryInventoryRepository) seedBatch(productID int64, batchNumber string, quantity int, expiry time.Time) *InventoryBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b := &InventoryBatch{
		ID:          r.nextID,
		ProductID:   productID,
		BatchNumber: batchNumber,
		Quantity:    quantity,
		ExpiryDate:  expiry,
	}
	r.batches[b.ID] = b
	return b
}

func (r *memoryInventoryRepository) batchQuantity(productID int64, batchNumber string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.ProductID == productID && b.BatchNumber == batchNumber {
			return b.Quantity
		}
	}
	return -1
}

func (r *memoryInventoryRepository) movementCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movements)
}

func (r *memoryInventoryRepository) GetProductBySKU(_ context.Context, sku string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[sku]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *memoryInventoryRepository) GetBatchesByProduct(_ context.Context, productID int64) ([]InventoryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batches := []InventoryBatch{}
	for _, b := range r.batches {
		if b.ProductID == productID {
			batches = append(batches, *b)
		}
	}
	sortBatchesByExpiry(batches)
	return batches, nil
}

func (r *memoryInventoryRepository) GetAllBatches(_ context.Context) ([]InventoryBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batches := []InventoryBatch{}
	for _, b := range r.batches {
		batches = append(batches, *b)
	}
	sortBatchesByExpiry(batches)
	return batches, nil
}

func sortBatchesByExpiry(batches []InventoryBatch) {
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].ExpiryDate.Equal(batches[j].ExpiryDate) {
			return batches[i].ExpiryDate.Before(batches[j].ExpiryDate)
		}
		return batches[i].BatchNumber < batches[j].BatchNumber
	})
}

func (r *memoryInventoryRepository) CreateProduct(_ context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.SKU]; exists {
		return fmt.Errorf("duplicate sku %s", product.SKU)
	}
	r.nextID++
	product.ID = r.nextID
	copied := *product
	r.products[product.SKU] = &copied
	return nil
}

func (r *memoryInventoryRepository) CreateBatch(_ context.Context, batch *InventoryBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	batch.ID = r.nextID
	copied := *batch
	r.batches[batch.ID] = &copied
	return nil
}

// memoryTx acumula deltas e movimentos até o Commit. O txMu do repositório
// fica retido durante toda a transação, serializando deduções concorrentes
// do mesmo jeito que o lock de linha do Postgres serializa.
type memoryTx struct {
	repo   *memoryInventoryRepository
	deltas map[int64]int
	moves  []InventoryMovement
	done   bool
}

func (r *memoryInventoryRepository) BeginTx(_ context.Context) (Tx, error) {
	r.txMu.Lock()
	return &memoryTx{repo: r, deltas: map[int64]int{}}, nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already closed")
	}
	t.repo.mu.Lock()
	for id, delta := range t.deltas {
		t.repo.batches[id].Quantity += delta
	}
	for _, m := range t.moves {
		t.repo.movements[movementKeyFor(m.MovementKey, m.MovementType, m.BatchNumber)] = struct{}{}
	}
	t.repo.mu.Unlock()
	t.done = true
	t.repo.txMu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.repo.txMu.Unlock()
	return nil
}

func (r *memoryInventoryRepository) GetBatchForUpdate(_ context.Context, tx Tx, productID int64, batchNumber string) (*InventoryBatch, error) {
	mt := tx.(*memoryTx)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.ProductID == productID && b.BatchNumber == batchNumber {
			copied := *b
			copied.Quantity += mt.deltas[b.ID]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryInventoryRepository) AdjustBatchQuantity(_ context.Context, tx Tx, batchID int64, delta int) error {
	mt := tx.(*memoryTx)
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %d not found", batchID)
	}
	if b.Quantity+mt.deltas[batchID]+delta < 0 {
		return fmt.Errorf("batch %d would go negative by %d", batchID, delta)
	}
	mt.deltas[batchID] += delta
	return nil
}

func (r *memoryInventoryRepository) MovementExists(_ context.Context, tx Tx, movementKey string, movementType string) (bool, error) {
	mt := tx.(*memoryTx)
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := movementKey + "|" + movementType + "|"
	for key := range r.movements {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			return true, nil
		}
	}
	for _, m := range mt.moves {
		if m.MovementKey == movementKey && m.MovementType == movementType {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryInventoryRepository) RecordMovement(_ context.Context, tx Tx, movement InventoryMovement) error {
	mt := tx.(*memoryTx)
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	mt.moves = append(mt.moves, movement)
	return nil
}
