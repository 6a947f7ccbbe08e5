package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/pager/pager/model"
)

const gameColumns = `id, number_group, date, player_id`

// GameByGroup returns the first game created for the group.
func (s *Store) GameByGroup(ctx context.Context, groupNumber int64) (g *model.Game, err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) {
		observe(ctx, "store.game.by_group", start, err, slog.Int64("number_group", groupNumber))
	}(time.Now())

	var game model.Game
	err = s.db.GetContext(ctx, &game,
		`SELECT `+gameColumns+` FROM games WHERE number_group = $1 ORDER BY id LIMIT 1`, groupNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %d: %w", groupNumber, model.ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select game for group %d: %w", groupNumber, err)
	}
	return &game, nil
}

// SetGameDate sets the date of the group's first game.
func (s *Store) SetGameDate(ctx context.Context, groupNumber int64, date time.Time) (err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) {
		observe(ctx, "store.game.set_date", start, err,
			slog.Int64("number_group", groupNumber),
			slog.String("date", date.Format(model.GameDateLayout)),
		)
	}(time.Now())

	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET date = $2
		WHERE id = (SELECT id FROM games WHERE number_group = $1 ORDER BY id LIMIT 1)`,
		groupNumber, date.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("update game date for group %d: %w", groupNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game date for group %d: %w", groupNumber, err)
	}
	if n == 0 {
		return fmt.Errorf("group %d: %w", groupNumber, model.ErrGameNotFound)
	}
	return nil
}

// CreateGame inserts g and fills its ID.
func (s *Store) CreateGame(ctx context.Context, g *model.Game) (err error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	defer func(start time.Time) {
		observe(ctx, "store.game.create", start, err, slog.Int64("number_group", g.GroupNumber))
	}(time.Now())

	var date any
	if g.Date != nil {
		date = g.Date.Format("2006-01-02")
	}
	err = s.db.GetContext(ctx, &g.ID,
		`INSERT INTO games (number_group, date, player_id) VALUES ($1, $2, $3) RETURNING id`,
		g.GroupNumber, date, g.PlayerID)
	if isCode(err, foreignKeyViolation) {
		return fmt.Errorf("game player %d: %w", *g.PlayerID, model.ErrPlayerNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert game for group %d: %w", g.GroupNumber, err)
	}
	return nil
}
