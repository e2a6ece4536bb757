package dialog

// Button is a transport-agnostic inline button. Unique and Data form the
// opaque callback identity the transport dispatches on; Text is display only.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Reply is one outbound message produced by the state machine.
type Reply struct {
	Text     string
	Markdown bool
	Buttons  [][]Button
}

// Callback uniques understood by the transport layer. Dispatch happens on
// these identifiers, never on localized button labels.
const (
	CallbackLang    = "lang"
	CallbackMenu    = "menu"
	CallbackProduct = "prod"
	CallbackBuy     = "buy"
)

// Menu payloads carried by CallbackMenu buttons.
const (
	MenuCatalog = "catalog"
	MenuHelp    = "help"
)

func textReply(text string) Reply {
	return Reply{Text: text}
}

func markdownReply(text string, buttons ...[]Button) Reply {
	return Reply{Text: text, Markdown: true, Buttons: buttons}
}
