package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/logger"
)

// FileStore persists orders as a pretty-printed JSON array in a single file.
// Writes go through a temp file and rename, so a reader never observes a
// partially written collection. A process-wide mutex serializes the
// read-append-rewrite cycle; the store assumes no external writers.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore prepares the backing directory and returns the store.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create orders dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// LoadAll reads the persisted collection. An absent or corrupt file is
// treated as an empty collection rather than a failure.
func (s *FileStore) LoadAll(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx), nil
}

func (s *FileStore) loadLocked(ctx context.Context) []Order {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Store.Warn("orders file unreadable",
				slog.String("event", "orders.load"),
				slog.String("path", s.path),
				slog.String("err", err.Error()),
			)
		}
		return []Order{}
	}
	var orders []Order
	if err := json.Unmarshal(data, &orders); err != nil {
		logger.Store.Warn("orders file corrupt, starting empty",
			slog.String("event", "orders.load"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return []Order{}
	}
	return orders
}

// Append reads the current collection, appends the order, and atomically
// rewrites the whole file.
func (s *FileStore) Append(ctx context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	orders := s.loadLocked(ctx)
	orders = append(orders, o)

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".orders-*.json")
	if err != nil {
		return fmt.Errorf("create temp orders file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp orders file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp orders file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace orders file: %w", err)
	}

	logger.Store.Info("order appended",
		slog.String("event", "orders.append"),
		slog.Int64("order_id", o.ID),
		slog.Int("total", len(orders)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
