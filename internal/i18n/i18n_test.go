package i18n

import (
	"strings"
	"testing"
)

func TestParseLang(t *testing.T) {
	cases := []struct {
		raw  string
		want Lang
	}{
		{"ru", LangRU},
		{"en", LangEN},
		{"", LangRU},
		{"de", LangRU},
	}
	for _, tc := range cases {
		if got := ParseLang(tc.raw); got != tc.want {
			t.Errorf("ParseLang(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestTranslatorLookup(t *testing.T) {
	tr, err := NewTranslator()
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}

	if got := tr.T(LangEN, "ask_name"); !strings.Contains(got, "Enter your name") {
		t.Errorf("en ask_name = %q", got)
	}
	if got := tr.T(LangRU, "ask_name"); !strings.Contains(got, "Введите ваше имя") {
		t.Errorf("ru ask_name = %q", got)
	}
}

func TestTranslatorFormatting(t *testing.T) {
	tr, err := NewTranslator()
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}

	got := tr.T(LangEN, "order_confirmed", "Base Telegram bot", 300, "€", "Alice", "12345")
	for _, want := range []string{"Base Telegram bot", "300 €", "Alice", "12345"} {
		if !strings.Contains(got, want) {
			t.Errorf("order_confirmed missing %q in %q", want, got)
		}
	}
}

func TestTranslatorFallbacks(t *testing.T) {
	tr, err := NewTranslator()
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}

	if got := tr.T(LangEN, "no_such_key"); got != "no_such_key" {
		t.Errorf("unknown key = %q, want the key itself", got)
	}
	// Unknown language falls back to the default table.
	if got := tr.T(Lang("de"), "ask_name"); !strings.Contains(got, "Введите") {
		t.Errorf("unknown lang ask_name = %q, want default language text", got)
	}
}
