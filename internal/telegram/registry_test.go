package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(c tele.Context) error { return nil }

func TestRegisterCommandValidation(t *testing.T) {
	r := NewRegistry()

	r.RegisterCommand("/start", Command{Handler: noopHandler, Description: "start"})
	r.RegisterCommand("start", Command{Handler: noopHandler, Description: "no slash"})
	r.RegisterCommand("/empty", Command{Description: "nil handler"})
	r.RegisterCommand("/start", Command{Handler: noopHandler, Description: "duplicate"})

	if len(r.Commands()) != 1 {
		t.Fatalf("registered %d commands, want 1", len(r.Commands()))
	}
	if _, cmd, ok := r.LookupCommand("/start"); !ok || cmd.Description != "start" {
		t.Error("duplicate registration replaced the original command")
	}
}

func TestLookupCommandAddsSlash(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/help", Command{Handler: noopHandler, Description: "help"})

	name, _, ok := r.LookupCommand("help")
	if !ok || name != "/help" {
		t.Errorf("LookupCommand(help) = (%q, %v)", name, ok)
	}
}

func TestListCommandsSortedAndFiltered(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", Command{Handler: noopHandler, Description: "start"})
	r.RegisterCommand("/help", Command{Handler: noopHandler, Description: "help"})
	r.RegisterCommand("/debug", Command{Handler: noopHandler, Description: "debug", Hidden: true})

	visible := r.ListCommands(true)
	if len(visible) != 2 {
		t.Fatalf("got %d visible commands, want 2", len(visible))
	}
	if visible[0].Text != "/help" || visible[1].Text != "/start" {
		t.Errorf("commands not sorted: %v", visible)
	}
	if all := r.ListCommands(false); len(all) != 3 {
		t.Errorf("got %d commands with hidden, want 3", len(all))
	}
}

func TestRegisterCallbackDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterCallback("prod", noopHandler); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.RegisterCallback("prod", noopHandler); err == nil {
		t.Error("duplicate callback registration accepted")
	}
	if err := r.RegisterCallback("", noopHandler); err == nil {
		t.Error("empty callback key accepted")
	}
	if err := r.RegisterCallback("buy", nil); err == nil {
		t.Error("nil callback handler accepted")
	}

	if _, ok := r.GetCallback("prod"); !ok {
		t.Error("registered callback not retrievable")
	}
	if _, ok := r.GetCallback("nope"); ok {
		t.Error("unregistered callback retrievable")
	}
}

func TestFallbackSetters(t *testing.T) {
	r := NewRegistry()

	if r.CallbackNotFound() == nil {
		t.Fatal("fresh registry must carry a default callback fallback")
	}
	r.SetCallbackNotFound(nil)
	if r.CallbackNotFound() == nil {
		t.Error("nil must not clear the callback fallback")
	}

	called := false
	r.SetCallbackNotFound(func(c tele.Context) error {
		called = true
		return nil
	})
	if err := r.CallbackNotFound()(nil); err != nil || !called {
		t.Error("replacement callback fallback not installed")
	}

	if r.TextFallback() != nil {
		t.Error("fresh registry must have no text fallback")
	}
	r.SetTextFallback(noopHandler)
	if r.TextFallback() == nil {
		t.Error("text fallback not stored")
	}
}

func TestListCallbacksSorted(t *testing.T) {
	r := NewRegistry()
	for _, key := range []string{"prod", "buy", "lang", "menu"} {
		if err := r.RegisterCallback(key, noopHandler); err != nil {
			t.Fatalf("RegisterCallback(%q): %v", key, err)
		}
	}
	got := r.ListCallbacks()
	want := []string{"buy", "lang", "menu", "prod"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
