package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/storage"
)

// Games schedules games per group.
type Games struct {
	store storage.GameStore
}

// NewGames wraps store.
func NewGames(store storage.GameStore) *Games {
	return &Games{store: store}
}

// ByGroup returns the first game of the group.
func (s *Games) ByGroup(ctx context.Context, groupNumber int64) (*model.Game, error) {
	return s.store.GameByGroup(ctx, groupNumber)
}

// Create schedules a game. An empty dateStr leaves the date unset; playerID 0 leaves it unowned.
func (s *Games) Create(ctx context.Context, groupNumber int64, dateStr string, playerID int64) (*model.Game, error) {
	start := time.Now()
	attrs := []slog.Attr{slog.Int64("number_group", groupNumber)}
	g := &model.Game{GroupNumber: groupNumber}
	var err error
	if groupNumber <= 0 {
		err = fmt.Errorf("group number must be positive: %w", model.ErrInvalidInput)
	}
	if err == nil && strings.TrimSpace(dateStr) != "" {
		var d time.Time
		if d, err = model.ParseGameDate(dateStr); err == nil {
			g.Date = &d
			attrs = append(attrs, slog.String("date", d.Format(model.GameDateLayout)))
		}
	}
	if playerID != 0 {
		g.PlayerID = &playerID
		attrs = append(attrs, slog.Int64("tg_id", playerID))
	}
	if err == nil {
		err = s.store.CreateGame(ctx, g)
	}
	if err == nil {
		attrs = append(attrs, slog.Int64("game_id", g.ID))
	}
	logOutcome(ctx, logger.SVCGames, "game.create", start, err, attrs...)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// SetDate moves the group's game to a DD.MM.YYYY date.
func (s *Games) SetDate(ctx context.Context, groupNumber int64, dateStr string) (time.Time, error) {
	start := time.Now()
	attrs := []slog.Attr{slog.Int64("number_group", groupNumber)}
	d, err := model.ParseGameDate(dateStr)
	if err == nil {
		attrs = append(attrs, slog.String("date", d.Format(model.GameDateLayout)))
		err = s.store.SetGameDate(ctx, groupNumber, d)
	}
	logOutcome(ctx, logger.SVCGames, "game.date", start, err, attrs...)
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}
