package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/catalog"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/config"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/database"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/dialog"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/logger"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/metrics"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/order"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/session"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/telegram"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("catalog load failed: %w", err)
	}
	tr, err := i18n.NewTranslator()
	if err != nil {
		return fmt.Errorf("locales load failed: %w", err)
	}

	orders, err := buildOrderStore(cfg)
	if err != nil {
		return err
	}

	notifier := telegram.NewOperatorNotifier(cfg.Telegram.OperatorID, tr)
	machine := dialog.New(dialog.Options{
		Sessions:   session.NewMemoryStore(),
		Catalog:    cat,
		Orders:     orders,
		IDs:        order.NewIDGenerator(),
		Notifier:   notifier,
		Translator: tr,
	})

	reg := telegram.NewRegistry()
	handlers := telegram.NewHandlers(machine)
	handlers.Register(reg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics.Serve(ctx, cfg.Metrics.Listen)

	startedAt := time.Now()
	return telegram.Run(ctx, telegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(cfg),
		Routes:      handlers.Routes(reg),
		OnStart: func(ctx context.Context, bot *tele.Bot) error {
			notifier.Bind(bot)
			logger.L.With("component", "app").Info("app ready",
				slog.String("event", "ready"),
				slog.Duration("startup_duration", logger.Took(startedAt)),
			)
			return nil
		},
	})
}

func buildOrderStore(cfg *config.Config) (order.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		if err := database.RunMigrations(cfg.Storage.Database); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		db, err := database.Connect(cfg.Storage.Database)
		if err != nil {
			return nil, fmt.Errorf("database initialization failed: %w", err)
		}
		return order.NewPostgresStore(db), nil
	default:
		store, err := order.NewFileStore(cfg.Storage.File.Path)
		if err != nil {
			return nil, fmt.Errorf("order file store init failed: %w", err)
		}
		return store, nil
	}
}
