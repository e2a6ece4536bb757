// Package order defines completed purchase requests and their durable storage.
package order

import (
	"context"
	"sync"
	"time"
)

// Order is an immutable record of a completed purchase request.
// JSON field names are part of the on-disk format and must not change.
type Order struct {
	ID            int64     `json:"id" db:"id"`
	ChatID        string    `json:"chatId" db:"chat_id"`
	ProductID     string    `json:"productId" db:"product_id"`
	ProductNameRU string    `json:"productName_ru" db:"product_name_ru"`
	ProductNameEN string    `json:"productName_en" db:"product_name_en"`
	Price         int       `json:"price" db:"price"`
	Currency      string    `json:"currency" db:"currency"`
	Name          string    `json:"name" db:"customer_name"`
	Phone         string    `json:"phone" db:"customer_phone"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Store is the durable, append-only order collection.
type Store interface {
	// LoadAll reads the full persisted collection. An absent or unreadable
	// backing resource yields an empty collection, never an error.
	LoadAll(ctx context.Context) ([]Order, error)
	// Append persists one new order.
	Append(ctx context.Context, o Order) error
}

// IDGenerator issues strictly increasing order identifiers. IDs are derived
// from the wall clock in milliseconds but bumped past the previous value, so
// two orders completing within the same clock tick never collide while the
// creation-order sortability of timestamp ids is preserved.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by the system clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns the next unique order id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
