package catalog

import (
	"testing"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	products := c.Products()
	if len(products) != 3 {
		t.Fatalf("got %d products, want 3", len(products))
	}
	wantOrder := []string{"bot_base", "bot_pro", "bot_business"}
	for i, id := range wantOrder {
		if products[i].ID != id {
			t.Errorf("products[%d].ID = %q, want %q", i, products[i].ID, id)
		}
	}
}

func TestFindByID(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p, ok := c.FindByID("bot_base")
	if !ok {
		t.Fatal("bot_base not found")
	}
	if p.Price != 300 || p.Currency != "€" {
		t.Errorf("bot_base price = %d %s, want 300 €", p.Price, p.Currency)
	}
	if p.Name(i18n.LangEN) != "Base Telegram bot" {
		t.Errorf("english name = %q", p.Name(i18n.LangEN))
	}
	if p.Name(i18n.LangRU) != "Базовый Telegram-бот" {
		t.Errorf("russian name = %q", p.Name(i18n.LangRU))
	}
	if p.Description(i18n.LangEN) == "" || p.Description(i18n.LangRU) == "" {
		t.Error("descriptions must be present in both languages")
	}

	if _, ok := c.FindByID("missing"); ok {
		t.Error("lookup of unknown id must miss")
	}
}
