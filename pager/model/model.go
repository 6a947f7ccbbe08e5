// Package model defines the game entities shared by storage, services and handlers.
package model

import (
	"strings"
	"time"
)

// Player is a registered Telegram user.
type Player struct {
	TelegramID  int64     `db:"id_tg"`
	Username    string    `db:"username"`
	Name        string    `db:"player_name"`
	GroupNumber int64     `db:"number_group"`
	PhotoState  []string  `db:"-"`
	CreatedAt   time.Time `db:"created_at"`
}

// Inventory holds a player's money. Every player owns exactly one.
type Inventory struct {
	ID       int64 `db:"id"`
	PlayerID int64 `db:"player_id"`
	Money    int64 `db:"money"`
}

// Item is a piece of stuff stored in an inventory.
type Item struct {
	ID          int64  `db:"id"`
	InventoryID int64  `db:"inventory_id"`
	Title       string `db:"title"`
	Price       int64  `db:"price"`
	Description string `db:"description"`
}

// Game is a scheduled session for a group.
type Game struct {
	ID          int64      `db:"id"`
	GroupNumber int64      `db:"number_group"`
	Date        *time.Time `db:"date"`
	PlayerID    *int64     `db:"player_id"`
}

// Profile aggregates what a player sees about themselves.
type Profile struct {
	Player Player
	Money  int64
	Items  []Item
	Games  []Game
}

// GameDateLayout is the DD.MM.YYYY format used for game dates in chat.
const GameDateLayout = "02.01.2006"

// ParseGameDate parses a DD.MM.YYYY date into UTC midnight.
func ParseGameDate(s string) (time.Time, error) {
	t, err := time.Parse(GameDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// MaxNameLength bounds player nicknames in runes.
const MaxNameLength = 64
