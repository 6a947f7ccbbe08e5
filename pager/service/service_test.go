package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/storage/memory"
)

func newServices(t *testing.T) (*Players, *Games) {
	t.Helper()
	store := memory.New()
	return NewPlayers(store), NewGames(store)
}

func TestRegisterValidatesInput(t *testing.T) {
	players, _ := newServices(t)
	ctx := context.Background()

	_, err := players.Register(ctx, 1, "neo", "   ", 3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = players.Register(ctx, 1, "neo", strings.Repeat("я", model.MaxNameLength+1), 3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = players.Register(ctx, 1, "neo", "Neo", 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = players.ByTelegramID(ctx, 1)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestRegisterCreatesPlayerWithZeroBalance(t *testing.T) {
	players, _ := newServices(t)
	ctx := context.Background()

	p, err := players.Register(ctx, 42, "@neo", "  Neo ", 7)
	require.NoError(t, err)
	assert.Equal(t, "Neo", p.Name)
	assert.Equal(t, "neo", p.Username)

	money, err := players.Balance(ctx, "Neo")
	require.NoError(t, err)
	assert.Zero(t, money)

	_, err = players.Register(ctx, 42, "neo", "Neo", 7)
	assert.ErrorIs(t, err, model.ErrPlayerExists)
}

func TestCreditDebit(t *testing.T) {
	players, _ := newServices(t)
	ctx := context.Background()
	_, err := players.Register(ctx, 42, "neo", "Neo", 7)
	require.NoError(t, err)

	money, err := players.Credit(ctx, "Neo", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), money)

	money, err = players.Debit(ctx, "Neo", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(30), money)

	_, err = players.Debit(ctx, "Neo", 31)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	for _, amount := range []int64{0, -5} {
		_, err = players.Credit(ctx, "Neo", amount)
		assert.ErrorIs(t, err, model.ErrInvalidAmount)
		_, err = players.Debit(ctx, "Neo", amount)
		assert.ErrorIs(t, err, model.ErrInvalidAmount)
	}

	money, err = players.Balance(ctx, "Neo")
	require.NoError(t, err)
	assert.Equal(t, int64(30), money)

	_, err = players.Credit(ctx, "Trinity", 5)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestAddItemValidates(t *testing.T) {
	players, _ := newServices(t)
	ctx := context.Background()
	_, err := players.Register(ctx, 42, "neo", "Neo", 7)
	require.NoError(t, err)

	_, err = players.AddItem(ctx, "Neo", model.Item{Title: " ", Price: 1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = players.AddItem(ctx, "Neo", model.Item{Title: "Spoon", Price: -1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	item, err := players.AddItem(ctx, "Neo", model.Item{Title: " Spoon ", Price: 0, Description: " bent "})
	require.NoError(t, err)
	assert.Equal(t, "Spoon", item.Title)
	assert.Equal(t, "bent", item.Description)

	items, err := players.Items(ctx, "Neo")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPhotos(t *testing.T) {
	players, _ := newServices(t)
	ctx := context.Background()
	_, err := players.Register(ctx, 42, "neo", "Neo", 7)
	require.NoError(t, err)

	for _, bad := range []string{"", "photo.jpg", "ftp://host/a.jpg", "https://"} {
		_, err = players.AppendPhoto(ctx, "Neo", bad)
		assert.ErrorIs(t, err, model.ErrInvalidInput, bad)
	}

	_, err = players.AppendPhoto(ctx, "Neo", "https://img.example/1.jpg")
	require.NoError(t, err)
	photos, err := players.AppendPhoto(ctx, "Neo", "http://img.example/2.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example/1.jpg", "http://img.example/2.jpg"}, photos)

	require.NoError(t, players.ClearPhotos(ctx, "Neo"))
	photos, err = players.Photos(ctx, "Neo")
	require.NoError(t, err)
	assert.Empty(t, photos)

	assert.ErrorIs(t, players.ClearPhotos(ctx, "Trinity"), model.ErrPlayerNotFound)
}

func TestProfile(t *testing.T) {
	players, games := newServices(t)
	ctx := context.Background()
	_, err := players.Register(ctx, 42, "neo", "Neo", 7)
	require.NoError(t, err)
	_, err = players.Credit(ctx, "Neo", 15)
	require.NoError(t, err)
	_, err = players.AddItem(ctx, "Neo", model.Item{Title: "Spoon"})
	require.NoError(t, err)
	_, err = games.Create(ctx, 7, "01.04.2025", 42)
	require.NoError(t, err)

	profile, err := players.Profile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Neo", profile.Player.Name)
	assert.Equal(t, int64(15), profile.Money)
	assert.Len(t, profile.Items, 1)
	require.Len(t, profile.Games, 1)
	assert.Equal(t, int64(7), profile.Games[0].GroupNumber)

	_, err = players.Profile(ctx, 99)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestGames(t *testing.T) {
	players, games := newServices(t)
	ctx := context.Background()

	_, err := games.Create(ctx, 0, "", 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = games.Create(ctx, 3, "2025-04-01", 0)
	assert.ErrorIs(t, err, model.ErrInvalidDate)
	_, err = games.Create(ctx, 3, "", 77)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)

	g, err := games.Create(ctx, 3, "", 0)
	require.NoError(t, err)
	assert.NotZero(t, g.ID)
	assert.Nil(t, g.Date)
	assert.Nil(t, g.PlayerID)

	_, err = games.SetDate(ctx, 3, "32.01.2025")
	assert.ErrorIs(t, err, model.ErrInvalidDate)
	_, err = games.SetDate(ctx, 4, "01.02.2025")
	assert.ErrorIs(t, err, model.ErrGameNotFound)

	d, err := games.SetDate(ctx, 3, "01.02.2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), d)

	stored, err := games.ByGroup(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, stored.Date)
	assert.True(t, stored.Date.Equal(d))

	_, err = players.Register(ctx, 5, "", "Morpheus", 3)
	require.NoError(t, err)
	owned, err := games.Create(ctx, 3, "02.02.2025", 5)
	require.NoError(t, err)
	require.NotNil(t, owned.PlayerID)
	assert.Equal(t, int64(5), *owned.PlayerID)
}
