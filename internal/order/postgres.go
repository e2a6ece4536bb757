package order

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps orders in an `orders` table. Unlike the file store it
// needs no process-level mutex: each append is a single insert.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// LoadAll returns all persisted orders in creation order.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]Order, error) {
	orders := []Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT id, chat_id, product_id, product_name_ru, product_name_en,
		       price, currency, customer_name, customer_phone, created_at
		FROM orders
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

// Append inserts one order.
func (s *PostgresStore) Append(ctx context.Context, o Order) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO orders (id, chat_id, product_id, product_name_ru, product_name_en,
		                    price, currency, customer_name, customer_phone, created_at)
		VALUES (:id, :chat_id, :product_id, :product_name_ru, :product_name_en,
		        :price, :currency, :customer_name, :customer_phone, :created_at)`, o)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}
