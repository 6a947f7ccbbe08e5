package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d. A nil d makes sends synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

func deliver(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, "sendMessage", run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	default:
		return err
	}
}

// SendText sends plain text with an optional reply markup.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return deliver(c, "send.text", func() error {
		return c.Send(text, opts)
	})
}

// SendMDV2 sends a MarkdownV2 formatted message with an optional reply markup.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdownV2}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return deliver(c, "send.mdv2", func() error {
		return c.Send(text, opts)
	})
}

// Answer acknowledges a callback with an optional toast text.
// It is a no-op for non-callback updates.
func Answer(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}
