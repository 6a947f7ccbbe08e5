// Package service validates chat input before it reaches storage and logs every outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/storage"
)

// Players exposes registration, money, items and photo state.
type Players struct {
	store storage.PlayerStore
}

// NewPlayers wraps store.
func NewPlayers(store storage.PlayerStore) *Players {
	return &Players{store: store}
}

// Register persists a new player with an empty inventory.
func (s *Players) Register(ctx context.Context, tgID int64, username, name string, groupNumber int64) (*model.Player, error) {
	start := time.Now()
	name = strings.TrimSpace(name)
	attrs := []slog.Attr{
		slog.Int64("tg_id", tgID),
		slog.String("player", logger.SanitizeLimit(name, 64)),
		slog.Int64("number_group", groupNumber),
	}
	if err := ValidateName(name); err != nil {
		s.log(ctx, "player.register", start, err, attrs...)
		return nil, err
	}
	if groupNumber <= 0 {
		err := fmt.Errorf("group number must be positive: %w", model.ErrInvalidInput)
		s.log(ctx, "player.register", start, err, attrs...)
		return nil, err
	}
	p := &model.Player{
		TelegramID:  tgID,
		Username:    strings.TrimPrefix(strings.TrimSpace(username), "@"),
		Name:        name,
		GroupNumber: groupNumber,
	}
	err := s.store.CreatePlayer(ctx, p)
	s.log(ctx, "player.registered", start, err, attrs...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ByTelegramID satisfies helpers.TelegramLookup.
func (s *Players) ByTelegramID(ctx context.Context, tgID int64) (*model.Player, error) {
	return s.store.PlayerByID(ctx, tgID)
}

// ByName returns the player known under name.
func (s *Players) ByName(ctx context.Context, name string) (*model.Player, error) {
	return s.store.PlayerByName(ctx, strings.TrimSpace(name))
}

// Profile collects the player, balance, items and games of a Telegram user.
func (s *Players) Profile(ctx context.Context, tgID int64) (*model.Profile, error) {
	p, err := s.store.PlayerByID(ctx, tgID)
	if err != nil {
		return nil, err
	}
	money, err := s.store.Money(ctx, p.Name)
	if err != nil && !errors.Is(err, model.ErrInventoryNotFound) {
		return nil, err
	}
	items, err := s.store.Items(ctx, p.Name)
	if err != nil && !errors.Is(err, model.ErrInventoryNotFound) {
		return nil, err
	}
	games, err := s.store.GamesForPlayer(ctx, tgID)
	if err != nil {
		return nil, err
	}
	return &model.Profile{Player: *p, Money: money, Items: items, Games: games}, nil
}

// Credit adds a positive amount and returns the new balance.
func (s *Players) Credit(ctx context.Context, name string, amount int64) (int64, error) {
	return s.adjust(ctx, "money.credit", name, amount, 1)
}

// Debit subtracts a positive amount and returns the new balance.
func (s *Players) Debit(ctx context.Context, name string, amount int64) (int64, error) {
	return s.adjust(ctx, "money.debit", name, amount, -1)
}

func (s *Players) adjust(ctx context.Context, event, name string, amount, sign int64) (int64, error) {
	start := time.Now()
	name = strings.TrimSpace(name)
	delta := sign * amount
	attrs := []slog.Attr{slog.String("player", logger.SanitizeLimit(name, 64)), slog.Int64("delta", delta)}
	if amount <= 0 {
		s.log(ctx, event, start, model.ErrInvalidAmount, attrs...)
		return 0, model.ErrInvalidAmount
	}
	money, err := s.store.AdjustMoney(ctx, name, delta)
	if err == nil {
		attrs = append(attrs, slog.Int64("money", money))
	}
	s.log(ctx, event, start, err, attrs...)
	return money, err
}

// Balance returns the player's money.
func (s *Players) Balance(ctx context.Context, name string) (int64, error) {
	return s.store.Money(ctx, strings.TrimSpace(name))
}

// AddItem stores an item in the player's inventory.
func (s *Players) AddItem(ctx context.Context, name string, item model.Item) (*model.Item, error) {
	start := time.Now()
	name = strings.TrimSpace(name)
	item.Title = strings.TrimSpace(item.Title)
	item.Description = strings.TrimSpace(item.Description)
	attrs := []slog.Attr{slog.String("player", logger.SanitizeLimit(name, 64)), slog.String("item", logger.SanitizeLimit(item.Title, 64))}
	var err error
	switch {
	case item.Title == "":
		err = fmt.Errorf("item title is required: %w", model.ErrInvalidInput)
	case item.Price < 0:
		err = fmt.Errorf("item price must be >= 0: %w", model.ErrInvalidInput)
	}
	if err != nil {
		s.log(ctx, "item.add", start, err, attrs...)
		return nil, err
	}
	stored, err := s.store.AddItem(ctx, name, item)
	s.log(ctx, "item.add", start, err, attrs...)
	return stored, err
}

// Items lists the player's inventory.
func (s *Players) Items(ctx context.Context, name string) ([]model.Item, error) {
	return s.store.Items(ctx, strings.TrimSpace(name))
}

// AppendPhoto records an absolute http(s) photo URL and returns the full photo state.
func (s *Players) AppendPhoto(ctx context.Context, name, rawURL string) ([]string, error) {
	start := time.Now()
	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)
	attrs := []slog.Attr{slog.String("player", logger.SanitizeLimit(name, 64))}
	if err := validatePhotoURL(rawURL); err != nil {
		s.log(ctx, "photo.append", start, err, attrs...)
		return nil, err
	}
	photos, err := s.store.AppendPhoto(ctx, name, rawURL)
	if err == nil {
		attrs = append(attrs, slog.Int("photos", len(photos)))
	}
	s.log(ctx, "photo.append", start, err, attrs...)
	return photos, err
}

// Photos returns the recorded photo URLs in insertion order.
func (s *Players) Photos(ctx context.Context, name string) ([]string, error) {
	return s.store.PhotoState(ctx, strings.TrimSpace(name))
}

// ClearPhotos forgets every recorded photo.
func (s *Players) ClearPhotos(ctx context.Context, name string) error {
	start := time.Now()
	name = strings.TrimSpace(name)
	err := s.store.ClearPhotos(ctx, name)
	s.log(ctx, "photo.clear", start, err, slog.String("player", logger.SanitizeLimit(name, 64)))
	return err
}

func (s *Players) log(ctx context.Context, event string, start time.Time, err error, attrs ...slog.Attr) {
	logOutcome(ctx, logger.SVCPlayers, event, start, err, attrs...)
}

// ValidateName checks a nickname is present and fits model.MaxNameLength.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required: %w", model.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > model.MaxNameLength {
		return fmt.Errorf("name longer than %d characters: %w", model.MaxNameLength, model.ErrInvalidInput)
	}
	return nil
}

func validatePhotoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("photo must be an http(s) URL: %w", model.ErrInvalidInput)
	}
	return nil
}

// logOutcome writes one event line; caller mistakes and absences are logged as warnings.
func logOutcome(ctx context.Context, logg *slog.Logger, event string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	attrs = append(attrs, slog.String("status", logger.Status(err)), slog.Duration("duration", logger.Took(start)))
	switch {
	case err == nil:
	case isExpected(err):
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("outcome", outcomeOf(err)), slog.String("err", err.Error()))
	default:
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logg, level, event, attrs...)
}

func isExpected(err error) bool {
	return model.IsNotFound(err) ||
		errors.Is(err, model.ErrInvalidInput) ||
		errors.Is(err, model.ErrInvalidAmount) ||
		errors.Is(err, model.ErrInvalidDate) ||
		errors.Is(err, model.ErrInsufficientFunds) ||
		errors.Is(err, model.ErrPlayerExists)
}

func outcomeOf(err error) string {
	if model.IsNotFound(err) {
		return "not_found"
	}
	return "rejected"
}
