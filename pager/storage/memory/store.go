// Package memory is an in-process implementation of the game stores with the same
// semantics as the PostgreSQL one. It backs tests and the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/storage"
)

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	players     map[int64]*model.Player
	inventories map[int64]*model.Inventory // by player id
	items       []model.Item
	games       []model.Game

	nextInventoryID int64
	nextItemID      int64
	nextGameID      int64

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		players:     make(map[int64]*model.Player),
		inventories: make(map[int64]*model.Inventory),
		now:         time.Now,
	}
}

// Player operations

// playerByName returns the player with the lowest id among those named name. Callers hold mu.
func (s *Store) playerByName(name string) (*model.Player, error) {
	var found *model.Player
	for _, p := range s.players {
		if p.Name == name && (found == nil || p.TelegramID < found.TelegramID) {
			found = p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("player %q: %w", name, model.ErrPlayerNotFound)
	}
	return found, nil
}

func (s *Store) inventoryByName(name string) (*model.Inventory, error) {
	p, err := s.playerByName(name)
	if err != nil {
		return nil, err
	}
	inv, ok := s.inventories[p.TelegramID]
	if !ok {
		return nil, fmt.Errorf("player %q: %w", name, model.ErrInventoryNotFound)
	}
	return inv, nil
}

func clonePlayer(p *model.Player) *model.Player {
	out := *p
	if p.PhotoState != nil {
		out.PhotoState = append([]string(nil), p.PhotoState...)
	}
	return &out
}

// PlayerByID returns a copy of the player with the given Telegram id.
func (s *Store) PlayerByID(_ context.Context, tgID int64) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[tgID]
	if !ok {
		return nil, fmt.Errorf("player %d: %w", tgID, model.ErrPlayerNotFound)
	}
	return clonePlayer(p), nil
}

// PlayerByName returns a copy of the lowest-id player with the given name.
func (s *Store) PlayerByName(_ context.Context, name string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.playerByName(name)
	if err != nil {
		return nil, err
	}
	return clonePlayer(p), nil
}

// GamesForPlayer lists games owned by the player, oldest first.
func (s *Store) GamesForPlayer(_ context.Context, tgID int64) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.players[tgID]; !ok {
		return nil, fmt.Errorf("player %d: %w", tgID, model.ErrPlayerNotFound)
	}
	games := []model.Game{}
	for _, g := range s.games {
		if g.PlayerID != nil && *g.PlayerID == tgID {
			games = append(games, cloneGame(g))
		}
	}
	return games, nil
}

// CreatePlayer stores p together with an empty inventory.
func (s *Store) CreatePlayer(_ context.Context, p *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.players[p.TelegramID]; exists {
		return fmt.Errorf("player %d: %w", p.TelegramID, model.ErrPlayerExists)
	}
	p.CreatedAt = s.now().UTC()
	s.players[p.TelegramID] = clonePlayer(p)
	s.nextInventoryID++
	s.inventories[p.TelegramID] = &model.Inventory{ID: s.nextInventoryID, PlayerID: p.TelegramID}
	return nil
}

// Photo state

// AppendPhoto adds url to the player's photo list and returns the new list.
func (s *Store) AppendPhoto(_ context.Context, name, url string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.playerByName(name)
	if err != nil {
		return nil, err
	}
	p.PhotoState = append(p.PhotoState, url)
	return append([]string(nil), p.PhotoState...), nil
}

// PhotoState returns the player's photo list, never nil.
func (s *Store) PhotoState(_ context.Context, name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.playerByName(name)
	if err != nil {
		return nil, err
	}
	return append([]string{}, p.PhotoState...), nil
}

// ClearPhotos empties the player's photo list.
func (s *Store) ClearPhotos(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.playerByName(name)
	if err != nil {
		return err
	}
	p.PhotoState = nil
	return nil
}

// Money and items

// AdjustMoney adds delta to the balance unless the result would be negative.
func (s *Store) AdjustMoney(_ context.Context, name string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.inventoryByName(name)
	if err != nil {
		return 0, err
	}
	if inv.Money+delta < 0 {
		return 0, fmt.Errorf("player %q: %w", name, model.ErrInsufficientFunds)
	}
	inv.Money += delta
	return inv.Money, nil
}

// Money returns the player's balance.
func (s *Store) Money(_ context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, err := s.inventoryByName(name)
	if err != nil {
		return 0, err
	}
	return inv.Money, nil
}

// AddItem stores item in the player's inventory and returns it with ids set.
func (s *Store) AddItem(_ context.Context, name string, item model.Item) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, err := s.inventoryByName(name)
	if err != nil {
		return nil, err
	}
	s.nextItemID++
	item.ID = s.nextItemID
	item.InventoryID = inv.ID
	s.items = append(s.items, item)
	return &item, nil
}

// Items lists the player's items by id.
func (s *Store) Items(_ context.Context, name string) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, err := s.inventoryByName(name)
	if err != nil {
		return nil, err
	}
	items := []model.Item{}
	for _, it := range s.items {
		if it.InventoryID == inv.ID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Game operations

// GameByGroup returns the first game created for the group.
func (s *Store) GameByGroup(_ context.Context, groupNumber int64) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.games {
		if g.GroupNumber == groupNumber {
			out := cloneGame(g)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("group %d: %w", groupNumber, model.ErrGameNotFound)
}

// SetGameDate sets the date of the group's first game.
func (s *Store) SetGameDate(_ context.Context, groupNumber int64, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.games {
		if s.games[i].GroupNumber == groupNumber {
			d := dateOnly(date)
			s.games[i].Date = &d
			return nil
		}
	}
	return fmt.Errorf("group %d: %w", groupNumber, model.ErrGameNotFound)
}

// CreateGame stores g and assigns its id.
func (s *Store) CreateGame(_ context.Context, g *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.PlayerID != nil {
		if _, ok := s.players[*g.PlayerID]; !ok {
			return fmt.Errorf("game player %d: %w", *g.PlayerID, model.ErrPlayerNotFound)
		}
	}
	s.nextGameID++
	g.ID = s.nextGameID
	stored := cloneGame(*g)
	if stored.Date != nil {
		*stored.Date = dateOnly(*stored.Date)
	}
	s.games = append(s.games, stored)
	return nil
}

// cloneGame detaches the optional fields from g's pointers.
func cloneGame(g model.Game) model.Game {
	if g.Date != nil {
		d := *g.Date
		g.Date = &d
	}
	if g.PlayerID != nil {
		id := *g.PlayerID
		g.PlayerID = &id
	}
	return g
}

// dateOnly mirrors a DATE column: the calendar day at UTC midnight.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
