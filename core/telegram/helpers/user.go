package helpers

import (
	"context"
	"errors"
)

var errNoLookup = errors.New("helpers: user lookup is not configured")

// TelegramLookup resolves a Telegram user id to a domain entity.
type TelegramLookup[T any] interface {
	ByTelegramID(ctx context.Context, tgID int64) (T, error)
}

// CurrentUser resolves tgID through lookup, failing when no lookup is wired.
func CurrentUser[T any](ctx context.Context, lookup TelegramLookup[T], tgID int64) (T, error) {
	var zero T
	if lookup == nil {
		return zero, errNoLookup
	}
	return lookup.ByTelegramID(ctx, tgID)
}
