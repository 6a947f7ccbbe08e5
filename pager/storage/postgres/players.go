package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	coredatabase "github.com/m3rciful/pager/core/database"
	"github.com/m3rciful/pager/pager/model"
)

// PlayerByID returns the player registered under tgID.
func (s *Store) PlayerByID(ctx context.Context, tgID int64) (p *model.Player, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.player.by_id", start, err, slog.Int64("tg_id", tgID)) }(time.Now())

	var row playerRow
	err = s.db.GetContext(ctx, &row, `SELECT `+playerColumns+` FROM players WHERE id_tg = $1`, tgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", tgID, model.ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select player %d: %w", tgID, err)
	}
	return row.toModel(), nil
}

// PlayerByName returns the player with the given nickname.
func (s *Store) PlayerByName(ctx context.Context, name string) (p *model.Player, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.player.by_name", start, err, slog.String("player", name)) }(time.Now())

	var row playerRow
	err = s.db.GetContext(ctx, &row,
		`SELECT `+playerColumns+` FROM players WHERE player_name = $1 ORDER BY id_tg LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %q: %w", name, model.ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select player %q: %w", name, err)
	}
	return row.toModel(), nil
}

// GamesForPlayer lists games joined to the player, oldest first.
func (s *Store) GamesForPlayer(ctx context.Context, tgID int64) (games []model.Game, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.player.games", start, err, slog.Int64("tg_id", tgID)) }(time.Now())

	var exists bool
	if err = s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM players WHERE id_tg = $1)`, tgID); err != nil {
		return nil, fmt.Errorf("check player %d: %w", tgID, err)
	}
	if !exists {
		return nil, fmt.Errorf("player %d: %w", tgID, model.ErrPlayerNotFound)
	}

	games = []model.Game{}
	err = s.db.SelectContext(ctx, &games, `
		SELECT g.id, g.number_group, g.date, g.player_id
		FROM games g
		JOIN players p ON g.player_id = p.id_tg
		WHERE p.id_tg = $1
		ORDER BY g.id`, tgID)
	if err != nil {
		return nil, fmt.Errorf("select games for %d: %w", tgID, err)
	}
	return games, nil
}

// CreatePlayer inserts p together with its empty inventory.
func (s *Store) CreatePlayer(ctx context.Context, p *model.Player) (err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) {
		observe(ctx, "store.player.create", start, err, slog.Int64("tg_id", p.TelegramID), slog.String("player", p.Name))
	}(time.Now())

	return coredatabase.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &p.CreatedAt, `
			INSERT INTO players (id_tg, username, player_name, number_group, photo_state)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			p.TelegramID, p.Username, p.Name, p.GroupNumber, nullableArray(p.PhotoState))
		if isCode(err, uniqueViolation) {
			return fmt.Errorf("player %d: %w", p.TelegramID, model.ErrPlayerExists)
		}
		if err != nil {
			return fmt.Errorf("insert player %d: %w", p.TelegramID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO inventories (player_id, money) VALUES ($1, 0)`, p.TelegramID); err != nil {
			return fmt.Errorf("insert inventory for %d: %w", p.TelegramID, err)
		}
		return nil
	})
}

func nullableArray(v []string) any {
	if v == nil {
		return nil
	}
	return pq.StringArray(v)
}

// AppendPhoto appends url to the player's photo state and returns the whole list.
func (s *Store) AppendPhoto(ctx context.Context, name, url string) (photos []string, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.photo.append", start, err, slog.String("player", name)) }(time.Now())

	var out pq.StringArray
	err = s.db.GetContext(ctx, &out, `
		UPDATE players
		SET photo_state = array_append(COALESCE(photo_state, '{}'::text[]), $2)
		WHERE id_tg = `+byName+`
		RETURNING photo_state`, name, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %q: %w", name, model.ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("append photo for %q: %w", name, err)
	}
	return []string(out), nil
}

// PhotoState returns the player's photo list, empty when never set or cleared.
func (s *Store) PhotoState(ctx context.Context, name string) (photos []string, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.photo.list", start, err, slog.String("player", name)) }(time.Now())

	var out pq.StringArray
	err = s.db.GetContext(ctx, &out, `SELECT photo_state FROM players WHERE id_tg = `+byName, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %q: %w", name, model.ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select photo state for %q: %w", name, err)
	}
	if out == nil {
		return []string{}, nil
	}
	return []string(out), nil
}

// ClearPhotos resets the player's photo state to NULL.
func (s *Store) ClearPhotos(ctx context.Context, name string) (err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.photo.clear", start, err, slog.String("player", name)) }(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE players SET photo_state = NULL WHERE id_tg = `+byName, name)
	if err != nil {
		return fmt.Errorf("clear photos for %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear photos for %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("player %q: %w", name, model.ErrPlayerNotFound)
	}
	return nil
}

// AdjustMoney applies delta in one conditional UPDATE; a balance may never drop below zero.
func (s *Store) AdjustMoney(ctx context.Context, name string, delta int64) (balance int64, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) {
		observe(ctx, "store.money.adjust", start, err, slog.String("player", name), slog.Int64("delta", delta))
	}(time.Now())

	err = s.db.GetContext(ctx, &balance, `
		UPDATE inventories
		SET money = money + $2
		WHERE player_id = `+byName+` AND money + $2 >= 0
		RETURNING money`, name, delta)
	switch {
	case err == nil:
		return balance, nil
	case isCode(err, checkViolation):
		return 0, fmt.Errorf("player %q: %w", name, model.ErrInsufficientFunds)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("adjust money for %q: %w", name, err)
	}
	if err := missing(ctx, s.db, name); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("player %q: %w", name, model.ErrInsufficientFunds)
}

// Money returns the player's balance.
func (s *Store) Money(ctx context.Context, name string) (balance int64, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.money.get", start, err, slog.String("player", name)) }(time.Now())

	err = s.db.GetContext(ctx, &balance, `SELECT money FROM inventories WHERE player_id = `+byName, name)
	if errors.Is(err, sql.ErrNoRows) {
		if err := missing(ctx, s.db, name); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("player %q: %w", name, model.ErrInventoryNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("select money for %q: %w", name, err)
	}
	return balance, nil
}

const itemColumns = `id, inventory_id, title, price, description`

// AddItem stores item in the player's inventory, resolving the inventory in the same statement.
func (s *Store) AddItem(ctx context.Context, name string, item model.Item) (out *model.Item, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) {
		observe(ctx, "store.item.add", start, err, slog.String("player", name), slog.String("item", item.Title))
	}(time.Now())

	var created model.Item
	err = s.db.GetContext(ctx, &created, `
		INSERT INTO stuff (inventory_id, title, price, description)
		SELECT i.id, $2, $3, $4 FROM inventories i WHERE i.player_id = `+byName+`
		RETURNING `+itemColumns, name, item.Title, item.Price, item.Description)
	if errors.Is(err, sql.ErrNoRows) {
		if err := missing(ctx, s.db, name); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("player %q: %w", name, model.ErrInventoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("insert item for %q: %w", name, err)
	}
	return &created, nil
}

// Items lists the player's items in insertion order.
func (s *Store) Items(ctx context.Context, name string) (items []model.Item, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) { observe(ctx, "store.item.list", start, err, slog.String("player", name)) }(time.Now())

	if err = missing(ctx, s.db, name); err != nil {
		return nil, err
	}
	items = []model.Item{}
	err = s.db.SelectContext(ctx, &items, `
		SELECT s.id, s.inventory_id, s.title, s.price, s.description
		FROM stuff s
		JOIN inventories i ON s.inventory_id = i.id
		WHERE i.player_id = `+byName+`
		ORDER BY s.id`, name)
	if err != nil {
		return nil, fmt.Errorf("select items for %q: %w", name, err)
	}
	return items, nil
}
