// Package session keeps per-conversation dialog state and language
// preferences. State is process-local and intentionally ephemeral: it is
// lost on restart, which only resets in-flight dialogs.
package session

import (
	"sync"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
)

// Step identifies the position of a conversation within the purchase dialog.
type Step string

const (
	// StepNone indicates there is no active dialog with the user.
	StepNone Step = ""
	// StepAwaitName means the bot is waiting for the customer's name.
	StepAwaitName Step = "await_name"
	// StepAwaitPhone means the bot is waiting for the customer's phone.
	StepAwaitPhone Step = "await_phone"
)

// State stores the partially collected purchase request for one conversation.
type State struct {
	Step      Step
	ProductID string
	Name      string
	Phone     string
}

// Store abstracts per-conversation state so the dialog machine never touches
// a concrete backend. The in-memory implementation below is the only one the
// bot ships with; the interface leaves room for a persistent backend.
type Store interface {
	Get(chatID int64) (State, bool)
	Set(chatID int64, st State)
	Delete(chatID int64)

	Language(chatID int64) i18n.Lang
	SetLanguage(chatID int64, lang i18n.Lang)
}

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
	langs  map[int64]i18n.Lang
}

// NewMemoryStore constructs the in-memory Store implementation.
func NewMemoryStore() Store {
	return &memoryStore{
		states: make(map[int64]State),
		langs:  make(map[int64]i18n.Lang),
	}
}

// Get returns the dialog state for a conversation if one exists.
func (m *memoryStore) Get(chatID int64) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[chatID]
	return st, ok
}

// Set stores (or overwrites) the dialog state for a conversation.
func (m *memoryStore) Set(chatID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = st
}

// Delete removes the dialog state for a conversation. Language preference
// is kept so a completed order does not reset the user's language.
func (m *memoryStore) Delete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, chatID)
}

// Language returns the recorded language preference, defaulting to Russian.
func (m *memoryStore) Language(chatID int64) i18n.Lang {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if lang, ok := m.langs[chatID]; ok {
		return lang
	}
	return i18n.DefaultLang
}

// SetLanguage records the language preference for a conversation.
func (m *memoryStore) SetLanguage(chatID int64, lang i18n.Lang) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.langs[chatID] = lang
}
