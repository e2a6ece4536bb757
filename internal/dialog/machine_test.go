package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/catalog"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/order"
	"github.com/StrongArr0w/Arr0w-services-bot/internal/session"
)

type stubOrders struct {
	orders []order.Order
	err    error
}

func (s *stubOrders) LoadAll(ctx context.Context) ([]order.Order, error) {
	return s.orders, nil
}

func (s *stubOrders) Append(ctx context.Context, o order.Order) error {
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, o)
	return nil
}

type stubNotifier struct {
	notified []order.Order
	err      error
}

func (s *stubNotifier) NotifyOrder(ctx context.Context, o order.Order, p catalog.Product) error {
	if s.err != nil {
		return s.err
	}
	s.notified = append(s.notified, o)
	return nil
}

type fixture struct {
	machine  *Machine
	sessions session.Store
	orders   *stubOrders
	notifier *stubNotifier
	tr       *i18n.Translator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	tr, err := i18n.NewTranslator()
	if err != nil {
		t.Fatalf("i18n.NewTranslator: %v", err)
	}
	sessions := session.NewMemoryStore()
	orders := &stubOrders{}
	notifier := &stubNotifier{}
	m := New(Options{
		Sessions:   sessions,
		Catalog:    cat,
		Orders:     orders,
		IDs:        order.NewIDGenerator(),
		Notifier:   notifier,
		Translator: tr,
		Now:        func() time.Time { return time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC) },
	})
	return &fixture{machine: m, sessions: sessions, orders: orders, notifier: notifier, tr: tr}
}

func onlyReply(t *testing.T, replies []Reply, err error) Reply {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	return replies[0]
}

func TestUnknownTextWhenIdle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	replies1, err1 := f.machine.HandleText(ctx, 1, "hello there")
	r := onlyReply(t, replies1, err1)
	if r.Text != f.tr.T(i18n.LangRU, "unknown") {
		t.Errorf("reply = %q, want unknown-input text", r.Text)
	}
	if len(r.Buttons) == 0 {
		t.Error("unknown-input reply must carry the main menu")
	}
	if _, ok := f.sessions.Get(1); ok {
		t.Error("idle conversation must stay without state")
	}
}

func TestCommandMarkerIgnoredWhenIdle(t *testing.T) {
	f := newFixture(t)

	replies, err := f.machine.HandleText(context.Background(), 1, "/something")
	if err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if len(replies) != 0 {
		t.Errorf("command-marker input produced %d replies, want 0", len(replies))
	}
}

func TestSelectProductNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	replies2, err2 := f.machine.SelectProduct(ctx, 1, "nope")
	r := onlyReply(t, replies2, err2)
	if r.Text != f.tr.T(i18n.LangRU, "not_found") {
		t.Errorf("reply = %q, want not-found text", r.Text)
	}
	if _, ok := f.sessions.Get(1); ok {
		t.Error("not-found select must not create state")
	}
}

func TestInitiatePurchaseNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	replies3, err3 := f.machine.InitiatePurchase(ctx, 1, "nope")
	r := onlyReply(t, replies3, err3)
	if r.Text != f.tr.T(i18n.LangRU, "not_found") {
		t.Errorf("reply = %q, want not-found text", r.Text)
	}
	if _, ok := f.sessions.Get(1); ok {
		t.Error("not-found purchase must not create state")
	}
}

func TestSelectProductIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	replies4, err4 := f.machine.SelectProduct(ctx, 1, "bot_pro")
	first := onlyReply(t, replies4, err4)
	replies5, err5 := f.machine.SelectProduct(ctx, 1, "bot_pro")
	second := onlyReply(t, replies5, err5)

	if first.Text != second.Text || !first.Markdown || !second.Markdown {
		t.Error("repeated select must yield identical product cards")
	}
	if len(first.Buttons) != 1 || first.Buttons[0][0].Unique != CallbackBuy || first.Buttons[0][0].Data != "bot_pro" {
		t.Errorf("product card buy button wrong: %+v", first.Buttons)
	}
	if _, ok := f.sessions.Get(1); ok {
		t.Error("select must not mutate state")
	}
}

func TestOpenCatalogListsEveryProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	replies6, err6 := f.machine.OpenCatalog(ctx, 1)
	r := onlyReply(t, replies6, err6)
	if r.Text != f.tr.T(i18n.LangRU, "catalog_title") {
		t.Errorf("title = %q", r.Text)
	}
	if len(r.Buttons) != 3 {
		t.Fatalf("got %d catalog rows, want 3", len(r.Buttons))
	}
	for _, row := range r.Buttons {
		if row[0].Unique != CallbackProduct {
			t.Errorf("catalog button unique = %q, want %q", row[0].Unique, CallbackProduct)
		}
	}
	if !strings.Contains(r.Buttons[0][0].Text, "300 €") {
		t.Errorf("first label %q missing formatted price", r.Buttons[0][0].Text)
	}
}

func TestPurchaseScenarioComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(101)

	replies7, err7 := f.machine.InitiatePurchase(ctx, chat, "bot_base")
	r := onlyReply(t, replies7, err7)
	if r.Text != f.tr.T(i18n.LangRU, "ask_name") {
		t.Errorf("reply = %q, want ask_name", r.Text)
	}

	replies8, err8 := f.machine.HandleText(ctx, chat, "Alice")
	r = onlyReply(t, replies8, err8)
	if r.Text != f.tr.T(i18n.LangRU, "ask_phone") {
		t.Errorf("reply = %q, want ask_phone", r.Text)
	}

	replies9, err9 := f.machine.HandleText(ctx, chat, "12345")
	r = onlyReply(t, replies9, err9)
	if !r.Markdown || !strings.Contains(r.Text, "Alice") || !strings.Contains(r.Text, "12345") {
		t.Errorf("confirmation reply wrong: %q", r.Text)
	}

	if len(f.orders.orders) != 1 {
		t.Fatalf("persisted %d orders, want exactly 1", len(f.orders.orders))
	}
	o := f.orders.orders[0]
	if o.ProductID != "bot_base" || o.Name != "Alice" || o.Phone != "12345" ||
		o.Price != 300 || o.Currency != "€" || o.ChatID != "101" {
		t.Errorf("order fields wrong: %+v", o)
	}
	if !o.CreatedAt.Equal(time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("createdAt = %v", o.CreatedAt)
	}

	if len(f.notifier.notified) != 1 {
		t.Fatalf("operator notified %d times, want exactly 1", len(f.notifier.notified))
	}
	if _, ok := f.sessions.Get(chat); ok {
		t.Error("state must be deleted after completion")
	}
}

func TestPurchaseScenarioInvalidPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(202)

	if _, err := f.machine.InitiatePurchase(ctx, chat, "bot_pro"); err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if _, err := f.machine.HandleText(ctx, chat, "Bob"); err != nil {
		t.Fatalf("HandleText name: %v", err)
	}

	// Retrying with different invalid values behaves identically every time.
	for _, phone := range []string{"555-1234", "phone", "12 34", "+4912345"} {
		replies10, err10 := f.machine.HandleText(ctx, chat, phone)
		r := onlyReply(t, replies10, err10)
		if r.Text != f.tr.T(i18n.LangRU, "invalid_phone") {
			t.Errorf("reply for %q = %q, want validation error", phone, r.Text)
		}
		st, ok := f.sessions.Get(chat)
		if !ok || st.Step != session.StepAwaitPhone || st.Name != "Bob" {
			t.Errorf("state after %q = %+v, want unchanged await-phone", phone, st)
		}
	}

	if len(f.orders.orders) != 0 {
		t.Error("no order may be persisted on validation failure")
	}
	if len(f.notifier.notified) != 0 {
		t.Error("no notification may be sent on validation failure")
	}
}

func TestLanguageSelectionAffectsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	replies, err := f.machine.SetLanguage(ctx, 5, "en")
	if err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("got %d replies, want confirmation plus menu", len(replies))
	}
	if replies[0].Text != f.tr.T(i18n.LangEN, "lang_saved") {
		t.Errorf("confirmation = %q", replies[0].Text)
	}

	replies11, err11 := f.machine.OpenCatalog(ctx, 5)
	r := onlyReply(t, replies11, err11)
	if !strings.Contains(r.Buttons[0][0].Text, "Base Telegram bot") {
		t.Errorf("catalog label %q not in English", r.Buttons[0][0].Text)
	}

	// A fresh conversation id still defaults to Russian.
	replies12, err12 := f.machine.OpenCatalog(ctx, 6)
	r = onlyReply(t, replies12, err12)
	if !strings.Contains(r.Buttons[0][0].Text, "Базовый Telegram-бот") {
		t.Errorf("fresh conversation label %q not in Russian", r.Buttons[0][0].Text)
	}
}

func TestLanguageSelectionKeepsStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(77)

	if _, err := f.machine.InitiatePurchase(ctx, chat, "bot_base"); err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if _, err := f.machine.SetLanguage(ctx, chat, "en"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}

	st, ok := f.sessions.Get(chat)
	if !ok || st.Step != session.StepAwaitName || st.ProductID != "bot_base" {
		t.Errorf("language change altered dialog state: %+v", st)
	}
}

func TestProductVanishedMidDialog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(303)

	// A state entry referencing a product that no longer resolves.
	f.sessions.Set(chat, session.State{Step: session.StepAwaitPhone, ProductID: "ghost", Name: "Carol"})

	replies13, err13 := f.machine.HandleText(ctx, chat, "12345")
	r := onlyReply(t, replies13, err13)
	if r.Text != f.tr.T(i18n.LangRU, "product_missing") {
		t.Errorf("reply = %q, want terminal error", r.Text)
	}
	if _, ok := f.sessions.Get(chat); ok {
		t.Error("terminal failure must clear the state")
	}
	if len(f.orders.orders) != 0 || len(f.notifier.notified) != 0 {
		t.Error("terminal failure must not persist or notify")
	}
}

func TestStoreFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(404)

	if _, err := f.machine.InitiatePurchase(ctx, chat, "bot_base"); err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if _, err := f.machine.HandleText(ctx, chat, "Dave"); err != nil {
		t.Fatalf("HandleText name: %v", err)
	}

	f.orders.err = errors.New("disk full")
	replies14, err14 := f.machine.HandleText(ctx, chat, "12345")
	r := onlyReply(t, replies14, err14)
	if r.Text != f.tr.T(i18n.LangRU, "order_failed") {
		t.Errorf("reply = %q, want generic failure", r.Text)
	}
	st, ok := f.sessions.Get(chat)
	if !ok || st.Step != session.StepAwaitPhone {
		t.Errorf("state after store failure = %+v, want unchanged await-phone", st)
	}
	if len(f.notifier.notified) != 0 {
		t.Error("failed write must not notify the operator")
	}

	// The write can be retried once the store recovers.
	f.orders.err = nil
	if _, err := f.machine.HandleText(ctx, chat, "12345"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(f.orders.orders) != 1 {
		t.Fatalf("persisted %d orders after retry, want 1", len(f.orders.orders))
	}
	if _, ok := f.sessions.Get(chat); ok {
		t.Error("state must be deleted after successful retry")
	}
}

func TestNotifierFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(505)

	if _, err := f.machine.InitiatePurchase(ctx, chat, "bot_base"); err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if _, err := f.machine.HandleText(ctx, chat, "Eve"); err != nil {
		t.Fatalf("HandleText name: %v", err)
	}

	f.notifier.err = errors.New("operator unreachable")
	replies15, err15 := f.machine.HandleText(ctx, chat, "999")
	r := onlyReply(t, replies15, err15)
	if !strings.Contains(r.Text, "Eve") {
		t.Errorf("user confirmation missing after notifier failure: %q", r.Text)
	}
	if len(f.orders.orders) != 1 {
		t.Error("order must persist even when notification fails")
	}
	if _, ok := f.sessions.Get(chat); ok {
		t.Error("state must be cleared even when notification fails")
	}
}

func TestTrimmedInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const chat = int64(606)

	if _, err := f.machine.InitiatePurchase(ctx, chat, "bot_base"); err != nil {
		t.Fatalf("InitiatePurchase: %v", err)
	}
	if _, err := f.machine.HandleText(ctx, chat, "  Frank  "); err != nil {
		t.Fatalf("HandleText name: %v", err)
	}
	if _, err := f.machine.HandleText(ctx, chat, " 4242 "); err != nil {
		t.Fatalf("HandleText phone: %v", err)
	}

	if len(f.orders.orders) != 1 {
		t.Fatalf("persisted %d orders, want 1", len(f.orders.orders))
	}
	o := f.orders.orders[0]
	if o.Name != "Frank" || o.Phone != "4242" {
		t.Errorf("input not trimmed: name=%q phone=%q", o.Name, o.Phone)
	}
}

func TestStartOffersLanguageChooser(t *testing.T) {
	f := newFixture(t)

	replies16, err16 := f.machine.Start(context.Background(), 1)
	r := onlyReply(t, replies16, err16)
	if len(r.Buttons) != 1 || len(r.Buttons[0]) != 2 {
		t.Fatalf("chooser layout wrong: %+v", r.Buttons)
	}
	if r.Buttons[0][0].Unique != CallbackLang || r.Buttons[0][1].Unique != CallbackLang {
		t.Error("chooser buttons must dispatch on the language callback")
	}
	if r.Buttons[0][0].Data != "ru" || r.Buttons[0][1].Data != "en" {
		t.Errorf("chooser payloads wrong: %+v", r.Buttons[0])
	}
}
