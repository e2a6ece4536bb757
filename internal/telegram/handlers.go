package telegram

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/dialog"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/logger"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/metrics"
)

// Handlers adapts dialog machine operations to Telebot endpoints.
type Handlers struct {
	machine *dialog.Machine
}

// NewHandlers builds the adapter for the given machine.
func NewHandlers(machine *dialog.Machine) *Handlers {
	return &Handlers{machine: machine}
}

// Register wires commands and callback handlers into the registry.
func (h *Handlers) Register(reg *Registry) {
	reg.RegisterCommand("/start", Command{
		Handler: h.event("start", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
			return h.machine.Start(ctx, c.Chat().ID)
		}),
		Description: "Choose language and open the menu",
	})
	reg.RegisterCommand("/help", Command{
		Handler: h.event("help", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
			return h.machine.Help(ctx, c.Chat().ID)
		}),
		Description: "How this bot works",
	})

	_ = reg.RegisterCallback(dialog.CallbackLang, h.event("lang", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
		return h.machine.SetLanguage(ctx, c.Chat().ID, CallbackPayload(c))
	}))
	_ = reg.RegisterCallback(dialog.CallbackMenu, h.event("menu", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
		if CallbackPayload(c) == dialog.MenuHelp {
			return h.machine.Help(ctx, c.Chat().ID)
		}
		return h.machine.OpenCatalog(ctx, c.Chat().ID)
	}))
	_ = reg.RegisterCallback(dialog.CallbackProduct, h.event("select_product", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
		return h.machine.SelectProduct(ctx, c.Chat().ID, CallbackPayload(c))
	}))
	_ = reg.RegisterCallback(dialog.CallbackBuy, h.event("buy", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
		return h.machine.InitiatePurchase(ctx, c.Chat().ID, CallbackPayload(c))
	}))

	reg.SetCallbackNotFound(func(c tele.Context) error {
		logger.Wire.Warn("unknown callback",
			slog.String("event", "tg.callback.unknown"),
			slog.String("key", CallbackKey(c)),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
	})
	reg.SetTextFallback(h.event("text", func(ctx context.Context, c tele.Context) ([]dialog.Reply, error) {
		return h.machine.HandleText(ctx, c.Chat().ID, c.Text())
	}))

	logger.Wire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
}

// Routes builds the generic callback and text routes.
func (h *Handlers) Routes(reg *Registry) []Route {
	callbackHandler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}

		// Acknowledge every button press so the client stops its spinner,
		// regardless of how handling turns out.
		_ = c.Respond()

		key := CallbackKey(c)
		handler, ok := reg.GetCallback(key)
		if !ok || handler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				return nil
			}
			return fallback(c)
		}
		return handler(c)
	}

	routes := []Route{
		{Endpoint: tele.OnCallback, Handler: callbackHandler},
	}
	if fallback := reg.TextFallback(); fallback != nil {
		routes = append(routes, Route{Endpoint: tele.OnText, Handler: fallback})
	}

	for cmd, def := range reg.Commands() {
		routes = append(routes, Route{Endpoint: cmd, Handler: def.Handler})
	}
	return routes
}

type eventFunc func(ctx context.Context, c tele.Context) ([]dialog.Reply, error)

// event wraps a dialog operation: runs it, delivers the produced replies and
// logs one summary line.
func (h *Handlers) event(name string, fn eventFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := context.Background()

		replies, err := fn(ctx, c)
		if err == nil {
			err = deliver(c, replies)
		}

		logger.TG.LogAttrs(ctx, slog.LevelInfo, "handler.summary",
			slog.String("handler", name),
			slog.String("status", logger.Status(err)),
			slog.Int64("chat_id", c.Chat().ID),
			slog.Int("messages", len(replies)),
			slog.Duration("duration", logger.Took(start)),
		)
		return err
	}
}

// deliver sends each reply in order, preserving the machine's sequencing.
func deliver(c tele.Context, replies []dialog.Reply) error {
	for _, r := range replies {
		var opts []interface{}
		if markup := InlineMarkup(r.Buttons); markup != nil {
			opts = append(opts, markup)
		}
		if r.Markdown {
			opts = append(opts, tele.ModeMarkdown)
		}
		if err := c.Send(r.Text, opts...); err != nil {
			metrics.SendErrors.Inc()
			return err
		}
	}
	return nil
}
