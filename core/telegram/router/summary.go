// Package router turns registry entries into telebot routes with shared logging and recovery.
package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	"github.com/m3rciful/pager/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary describes one handler run for the handler.handled log line.
type summary struct {
	name    string
	start   time.Time
	status  string
	outcome string
	extras  []slog.Attr
}

func run(c tele.Context, s summary, fn func() error) error {
	tghelpers.WithHandler(c, s.name)
	var err error
	if fn != nil {
		err = fn()
	}
	logSummary(c, s, err)
	return err
}

func logSummary(c tele.Context, s summary, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	msgs, kb := middleware.Counters(c)

	status, outcome := s.status, s.outcome
	if status == "" {
		status = logger.Status(err)
	}
	if outcome == "" {
		outcome = logger.Status(err)
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", s.name),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(s.start)),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", append(attrs, s.extras...)...)
}

// handlerName normalises a command or key into a log-friendly handler name.
func handlerName(prefix, name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		name = "unknown"
	}
	name = strings.ReplaceAll(name, " ", "_")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// errorCode prefers an explicit Code() and falls back to the innermost error type name.
func errorCode(err error) string {
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}

// wrap applies the per-route middleware every route shares.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.Recover(middleware.Logger(h))
}
