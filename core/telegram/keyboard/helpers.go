// Package keyboard builds reply and inline markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// DefaultCancelText labels cancel buttons when no label is provided.
const DefaultCancelText = "❌ Отмена"

// RemoveKeyboard hides a previously shown reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resizable reply keyboard, one slice per row.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		btns := make([]tele.Btn, 0, len(labels))
		for _, label := range labels {
			btns = append(btns, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(btns...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineRows builds an inline keyboard from rows of buttons.
func InlineRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}

// Cancel returns an inline keyboard with a single cancel button bound to unique.
// An empty label falls back to DefaultCancelText.
func Cancel(unique, label string) *tele.ReplyMarkup {
	if label == "" {
		label = DefaultCancelText
	}
	return InlineRows([]InlineBtn{{Text: label, Unique: unique}})
}
