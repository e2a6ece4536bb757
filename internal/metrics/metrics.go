// Package metrics exposes Prometheus counters for bot activity.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/logger"
)

var (
	// UpdatesTotal counts inbound Telegram updates by kind.
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Inbound Telegram updates processed, by update kind.",
	}, []string{"kind"})

	// OrdersTotal counts successfully persisted orders.
	OrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_orders_total",
		Help: "Orders persisted to the order store.",
	})

	// OrderStoreErrors counts failed order store writes.
	OrderStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_order_store_errors_total",
		Help: "Order store append failures.",
	})

	// SendErrors counts failed outbound Telegram sends.
	SendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Outbound Telegram send failures.",
	})
)

// Serve runs the /metrics listener until ctx is done. An empty addr disables
// the listener entirely.
func Serve(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.L.Info("metrics listener started",
			slog.String("component", "metrics"),
			slog.String("event", "listen"),
			slog.String("addr", addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("metrics listener failed",
				slog.String("component", "metrics"),
				slog.String("event", "listen"),
				slog.String("err", err.Error()),
			)
		}
	}()
}
