// Package postgres implements the game stores on PostgreSQL through sqlx.
//
// Every mutation is a single statement or runs inside database.WithTx, so no
// read-then-write sequence is exposed to concurrent updates under READ COMMITTED.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/storage"
)

const defaultQueryTimeout = 5 * time.Second

// pq error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	checkViolation      = "23514"
)

// Store serves both player and game queries from one connection pool.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ storage.Store = (*Store)(nil)

// New wraps db. A non-positive timeout selects the default per-query timeout.
func New(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// observe logs the outcome of one store operation; absence is not a failure.
func observe(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	status := "ok"
	switch {
	case err == nil:
	case model.IsNotFound(err), errors.Is(err, model.ErrInsufficientFunds), errors.Is(err, model.ErrPlayerExists):
		status = "skip"
	default:
		level = slog.LevelError
		status = "fail"
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	attrs = append([]slog.Attr{
		slog.String("event", op),
		slog.String("status", status),
		slog.Duration("duration", logger.Took(start)),
	}, attrs...)
	logger.Store.LogAttrs(ctx, level, op, attrs...)
}

func isCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

// playerRow adapts the nullable text[] column to model.Player.
type playerRow struct {
	model.Player
	Photos pq.StringArray `db:"photo_state"`
}

func (r playerRow) toModel() *model.Player {
	p := r.Player
	p.PhotoState = []string(r.Photos)
	return &p
}

const playerColumns = `id_tg, username, player_name, number_group, photo_state, created_at`

// byName resolves a nickname to one player, the lowest id_tg winning on duplicates.
const byName = `(SELECT id_tg FROM players WHERE player_name = $1 ORDER BY id_tg LIMIT 1)`

type presence struct {
	Player    bool `db:"player"`
	Inventory bool `db:"inventory"`
}

// missing explains why a by-name statement touched no rows. It returns nil when
// both the player and the inventory exist.
func missing(ctx context.Context, q sqlx.QueryerContext, name string) error {
	var p presence
	err := sqlx.GetContext(ctx, q, &p, `SELECT
		EXISTS (SELECT 1 FROM players WHERE player_name = $1) AS player,
		EXISTS (SELECT 1 FROM inventories WHERE player_id = `+byName+`) AS inventory`, name)
	if err != nil {
		return fmt.Errorf("resolve player %q: %w", name, err)
	}
	switch {
	case !p.Player:
		return fmt.Errorf("player %q: %w", name, model.ErrPlayerNotFound)
	case !p.Inventory:
		return fmt.Errorf("player %q: %w", name, model.ErrInventoryNotFound)
	}
	return nil
}
