package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds ("callback", "message") that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// UpdateKind names the kind of update carried by c.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// RateLimit drops updates arriving from the same user faster than opts.Interval.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	allow := func(userID int64) bool {
		t := now()
		mu.Lock()
		defer mu.Unlock()
		if last, ok := lastSeen[userID]; ok && t.Sub(last) < opts.Interval {
			return false
		}
		lastSeen[userID] = t
		return true
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			u := c.Sender()
			if u == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c)]; skip {
				return next(c)
			}
			if allow(u.ID) {
				return next(c)
			}
			logger.TG.LogAttrs(tghelpers.BuildContext(c), slog.LevelWarn, "rate_limit",
				slog.String("event", "tg.rate_limit"),
				slog.String("outcome", "rejected"),
				slog.String("kind", UpdateKind(c)),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
