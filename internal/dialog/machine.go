// Package dialog implements the per-conversation purchase state machine.
// Every inbound event is translated into zero or more outbound replies and
// at most one persistence side effect.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/catalog"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/logger"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/metrics"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/order"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/session"
)

var phoneRe = regexp.MustCompile(`^[0-9]+$`)

// Notifier delivers a completed order to the operator.
type Notifier interface {
	NotifyOrder(ctx context.Context, o order.Order, p catalog.Product) error
}

// Options wires the machine's collaborators.
type Options struct {
	Sessions   session.Store
	Catalog    *catalog.Catalog
	Orders     order.Store
	IDs        *order.IDGenerator
	Notifier   Notifier
	Translator *i18n.Translator
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Machine drives the purchase dialog for all conversations.
type Machine struct {
	sessions session.Store
	catalog  *catalog.Catalog
	orders   order.Store
	ids      *order.IDGenerator
	notifier Notifier
	tr       *i18n.Translator
	now      func() time.Time

	// Per-conversation locks serialize events for the same chat so rapid
	// double submissions cannot interleave state mutations.
	locks sync.Map
}

// New constructs a Machine from its collaborators.
func New(opts Options) *Machine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Machine{
		sessions: opts.Sessions,
		catalog:  opts.Catalog,
		orders:   opts.Orders,
		ids:      opts.IDs,
		notifier: opts.Notifier,
		tr:       opts.Translator,
		now:      now,
	}
}

func (m *Machine) lockFor(chatID int64) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(chatID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Start shows the language chooser. It is always allowed and never touches
// the dialog step, so /start mid-dialog simply re-offers the chooser.
func (m *Machine) Start(ctx context.Context, chatID int64) ([]Reply, error) {
	lang := m.sessions.Language(chatID)
	chooser := [][]Button{{
		{Text: "Русский", Unique: CallbackLang, Data: string(i18n.LangRU)},
		{Text: "English", Unique: CallbackLang, Data: string(i18n.LangEN)},
	}}
	return []Reply{{Text: m.tr.T(lang, "choose_lang"), Buttons: chooser}}, nil
}

// Help returns the localized static help text with the main menu.
func (m *Machine) Help(ctx context.Context, chatID int64) ([]Reply, error) {
	lang := m.sessions.Language(chatID)
	return []Reply{{Text: m.tr.T(lang, "help"), Buttons: m.mainMenu(lang)}}, nil
}

// SetLanguage records the language preference and confirms it together with
// the main menu. The dialog step is left untouched.
func (m *Machine) SetLanguage(ctx context.Context, chatID int64, raw string) ([]Reply, error) {
	lang := i18n.ParseLang(raw)
	m.sessions.SetLanguage(chatID, lang)
	logger.Dialog.Debug("language set",
		slog.String("event", "dialog.lang"),
		slog.Int64("chat_id", chatID),
		slog.String("lang", string(lang)),
	)
	return []Reply{
		textReply(m.tr.T(lang, "lang_saved")),
		{Text: m.tr.T(lang, "start"), Buttons: m.mainMenu(lang)},
	}, nil
}

// OpenCatalog lists every product as a selectable button. Allowed from any
// state and mutates nothing.
func (m *Machine) OpenCatalog(ctx context.Context, chatID int64) ([]Reply, error) {
	lang := m.sessions.Language(chatID)
	products := m.catalog.Products()
	rows := make([][]Button, 0, len(products))
	for _, p := range products {
		label := fmt.Sprintf("%s · %d %s", p.Name(lang), p.Price, p.Currency)
		rows = append(rows, []Button{{Text: label, Unique: CallbackProduct, Data: p.ID}})
	}
	return []Reply{{Text: m.tr.T(lang, "catalog_title"), Buttons: rows}}, nil
}

// SelectProduct shows the product card with a buy action. No state entry is
// created yet; pressing the same product twice yields identical replies.
func (m *Machine) SelectProduct(ctx context.Context, chatID int64, productID string) ([]Reply, error) {
	lang := m.sessions.Language(chatID)
	p, ok := m.catalog.FindByID(productID)
	if !ok {
		return m.notFound(chatID, lang, productID), nil
	}
	card := m.tr.T(lang, "product_card", p.Name(lang), p.Price, p.Currency, p.Description(lang))
	buy := [][]Button{{{Text: m.tr.T(lang, "buy_button"), Unique: CallbackBuy, Data: p.ID}}}
	return []Reply{markdownReply(card, buy...)}, nil
}

// InitiatePurchase starts (or restarts) the data-collection dialog for the
// product and asks for the customer's name.
func (m *Machine) InitiatePurchase(ctx context.Context, chatID int64, productID string) ([]Reply, error) {
	mu := m.lockFor(chatID)
	mu.Lock()
	defer mu.Unlock()

	lang := m.sessions.Language(chatID)
	if _, ok := m.catalog.FindByID(productID); !ok {
		return m.notFound(chatID, lang, productID), nil
	}

	m.sessions.Set(chatID, session.State{Step: session.StepAwaitName, ProductID: productID})
	logger.Dialog.Info("purchase started",
		slog.String("event", "dialog.purchase"),
		slog.Int64("chat_id", chatID),
		slog.String("product_id", productID),
	)
	return []Reply{textReply(m.tr.T(lang, "ask_name"))}, nil
}

// HandleText routes free-text input according to the conversation's step.
func (m *Machine) HandleText(ctx context.Context, chatID int64, text string) ([]Reply, error) {
	mu := m.lockFor(chatID)
	mu.Lock()
	defer mu.Unlock()

	lang := m.sessions.Language(chatID)
	text = strings.TrimSpace(text)

	st, ok := m.sessions.Get(chatID)
	if !ok || st.Step == session.StepNone {
		if strings.HasPrefix(text, "/") {
			// Commands are routed elsewhere; an unregistered one is ignored.
			return nil, nil
		}
		return []Reply{{Text: m.tr.T(lang, "unknown"), Buttons: m.mainMenu(lang)}}, nil
	}

	switch st.Step {
	case session.StepAwaitName:
		st.Name = text
		st.Step = session.StepAwaitPhone
		m.sessions.Set(chatID, st)
		return []Reply{textReply(m.tr.T(lang, "ask_phone"))}, nil

	case session.StepAwaitPhone:
		return m.completePurchase(ctx, chatID, lang, st, text)
	}

	return nil, nil
}

// completePurchase validates the phone, persists the order, confirms to the
// user and notifies the operator. The caller holds the conversation lock.
func (m *Machine) completePurchase(ctx context.Context, chatID int64, lang i18n.Lang, st session.State, phone string) ([]Reply, error) {
	if !phoneRe.MatchString(phone) {
		// Validation failure: stay in the same step, user may retry.
		return []Reply{textReply(m.tr.T(lang, "invalid_phone"))}, nil
	}
	st.Phone = phone

	p, ok := m.catalog.FindByID(st.ProductID)
	if !ok {
		// The product vanished mid-dialog. Terminal: clear state, no retry.
		m.sessions.Delete(chatID)
		logger.Dialog.Warn("product vanished mid-dialog",
			slog.String("event", "dialog.order"),
			slog.String("status", "fail"),
			slog.Int64("chat_id", chatID),
			slog.String("product_id", st.ProductID),
		)
		return []Reply{textReply(m.tr.T(lang, "product_missing"))}, nil
	}

	o := order.Order{
		ID:            m.ids.Next(),
		ChatID:        strconv.FormatInt(chatID, 10),
		ProductID:     p.ID,
		ProductNameRU: p.NameRU,
		ProductNameEN: p.NameEN,
		Price:         p.Price,
		Currency:      p.Currency,
		Name:          st.Name,
		Phone:         st.Phone,
		CreatedAt:     m.now().UTC(),
	}

	if err := m.orders.Append(ctx, o); err != nil {
		// State is kept so the user can resubmit the phone and retry the write.
		metrics.OrderStoreErrors.Inc()
		logger.Dialog.Error("order append failed",
			slog.String("event", "dialog.order"),
			slog.String("status", "fail"),
			slog.Int64("chat_id", chatID),
			slog.Int64("order_id", o.ID),
			slog.String("err", err.Error()),
		)
		return []Reply{textReply(m.tr.T(lang, "order_failed"))}, nil
	}
	metrics.OrdersTotal.Inc()

	replies := []Reply{markdownReply(
		m.tr.T(lang, "order_confirmed", p.Name(lang), p.Price, p.Currency, st.Name, st.Phone),
		m.mainMenu(lang)...,
	)}

	if err := m.notifier.NotifyOrder(ctx, o, p); err != nil {
		logger.Dialog.Error("operator notification failed",
			slog.String("event", "dialog.notify"),
			slog.String("status", "fail"),
			slog.Int64("order_id", o.ID),
			slog.String("err", err.Error()),
		)
	}

	m.sessions.Delete(chatID)
	logger.Dialog.Info("order completed",
		slog.String("event", "dialog.order"),
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.Int64("order_id", o.ID),
		slog.String("product_id", p.ID),
	)
	return replies, nil
}

func (m *Machine) notFound(chatID int64, lang i18n.Lang, productID string) []Reply {
	logger.Dialog.Debug("product not found",
		slog.String("event", "dialog.lookup"),
		slog.Int64("chat_id", chatID),
		slog.String("product_id", productID),
	)
	return []Reply{{Text: m.tr.T(lang, "not_found"), Buttons: m.mainMenu(lang)}}
}

func (m *Machine) mainMenu(lang i18n.Lang) [][]Button {
	return [][]Button{{
		{Text: m.tr.T(lang, "menu_catalog"), Unique: CallbackMenu, Data: MenuCatalog},
		{Text: m.tr.T(lang, "menu_help"), Unique: CallbackMenu, Data: MenuHelp},
	}}
}
