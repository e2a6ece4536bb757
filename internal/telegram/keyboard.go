package telegram

import (
	tele "gopkg.in/telebot.v4"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/dialog"
)

// InlineMarkup builds an inline keyboard from dialog button rows.
// Returns nil when there are no buttons so callers can pass it straight
// to Send.
func InlineMarkup(rows [][]dialog.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}
