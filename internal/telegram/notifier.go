package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/catalog"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/logger"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/order"
)

// OperatorNotifier sends a fixed-format message to the single configured
// operator chat for every completed order. The notification text always uses
// the default language so the operator sees a uniform format regardless of
// the customer's language choice.
type OperatorNotifier struct {
	mu     sync.RWMutex
	bot    *tele.Bot
	chatID int64
	tr     *i18n.Translator
}

// NewOperatorNotifier creates a notifier bound to the operator chat id.
// Bind must be called with a live bot before the first notification.
func NewOperatorNotifier(chatID int64, tr *i18n.Translator) *OperatorNotifier {
	return &OperatorNotifier{chatID: chatID, tr: tr}
}

// Bind attaches the bot used for outbound sends.
func (n *OperatorNotifier) Bind(bot *tele.Bot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bot = bot
}

// NotifyOrder delivers the completed order facts to the operator.
func (n *OperatorNotifier) NotifyOrder(ctx context.Context, o order.Order, p catalog.Product) error {
	n.mu.RLock()
	bot := n.bot
	n.mu.RUnlock()
	if bot == nil {
		return fmt.Errorf("operator notifier: bot not bound")
	}

	text := n.tr.T(i18n.DefaultLang, "operator_order",
		p.Name(i18n.DefaultLang), o.Price, o.Currency, o.Name, o.Phone, o.ChatID)

	if _, err := bot.Send(&tele.Chat{ID: n.chatID}, text); err != nil {
		return fmt.Errorf("notify operator: %w", err)
	}
	logger.TG.Info("operator notified",
		slog.String("event", "tg.notify"),
		slog.Int64("order_id", o.ID),
		slog.Int64("operator_chat_id", n.chatID),
	)
	return nil
}
