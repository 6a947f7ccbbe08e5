// Package storage declares the persistence contracts of the game bot.
//
// Absence is always reported through the model not-found sentinels, wrapped with context;
// list methods return an empty slice when the owner exists but has nothing to list.
package storage

import (
	"context"
	"time"

	"github.com/m3rciful/pager/pager/model"
)

// PlayerStore persists players, their inventories and photo state.
type PlayerStore interface {
	PlayerByID(ctx context.Context, tgID int64) (*model.Player, error)
	// PlayerByName returns the match with the lowest Telegram id.
	PlayerByName(ctx context.Context, name string) (*model.Player, error)
	GamesForPlayer(ctx context.Context, tgID int64) ([]model.Game, error)
	// CreatePlayer inserts the player and an empty inventory atomically.
	CreatePlayer(ctx context.Context, p *model.Player) error

	AppendPhoto(ctx context.Context, name, url string) ([]string, error)
	PhotoState(ctx context.Context, name string) ([]string, error)
	ClearPhotos(ctx context.Context, name string) error

	// AdjustMoney adds delta to the balance in one step and returns the new balance.
	AdjustMoney(ctx context.Context, name string, delta int64) (int64, error)
	Money(ctx context.Context, name string) (int64, error)
	AddItem(ctx context.Context, name string, item model.Item) (*model.Item, error)
	Items(ctx context.Context, name string) ([]model.Item, error)
}

// GameStore persists games.
type GameStore interface {
	GameByGroup(ctx context.Context, groupNumber int64) (*model.Game, error)
	SetGameDate(ctx context.Context, groupNumber int64, date time.Time) error
	CreateGame(ctx context.Context, g *model.Game) error
}

// Store bundles both stores behind one handle.
type Store interface {
	PlayerStore
	GameStore
}
