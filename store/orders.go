package store

import (
	"context"
	"fmt"

	"gemtasks/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderStore reads and deletes orders in Postgres.
type OrderStore struct {
	dbPool *pgxpool.Pool
}

func NewOrderStore(dbPool *pgxpool.Pool) *OrderStore {
	return &OrderStore{dbPool: dbPool}
}

// FindByID returns (nil, nil) when the order does not exist.
func (s *OrderStore) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.dbPool.QueryRow(ctx, `
		SELECT id, status, created_at, updated_at
		FROM orders WHERE id = $1`, id).Scan(
		&order.ID, &order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order %s: %w", id, err)
	}
	return &order, nil
}

func (s *OrderStore) Delete(ctx context.Context, id string) error {
	if _, err := s.dbPool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}
