package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const dedupWindow = 10 * time.Second

// seenUpdates remembers update ids already logged so nested chains log receipt once.
type seenUpdates struct {
	mu   sync.Mutex
	seen map[int]time.Time
}

func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[int]time.Time)
	}
	for k, ts := range s.seen {
		if now.Sub(ts) > dedupWindow {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}

var received seenUpdates

// Logger assigns the update rid, caches the logging context and logs receipt at debug level.
func Logger(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		userID, chatID := tghelpers.Identity(c)
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set(tghelpers.RIDKey, rid)

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.TG)
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if u := c.Sender(); u != nil && u.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
			}
			if ch := c.Chat(); ch != nil {
				attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
			}
			switch {
			case upd.Callback != nil:
				key, payload := callbacks.Split(upd.Callback)
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
				if payload != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
				}
			case upd.Message != nil:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
