// Package storagetest holds the behaviour every storage.Store implementation must show.
package storagetest

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/m3rciful/pager/pager/model"
	"github.com/m3rciful/pager/pager/storage"
)

// StoreSuite runs the shared contract against a fresh store per test.
type StoreSuite struct {
	suite.Suite

	// NewStore returns an empty store; it is called before every test.
	NewStore func() storage.Store

	store storage.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
}

func (s *StoreSuite) register(tgID int64, name string, group int64) *model.Player {
	p := &model.Player{TelegramID: tgID, Username: "u" + name, Name: name, GroupNumber: group}
	s.Require().NoError(s.store.CreatePlayer(s.ctx, p))
	return p
}

// Players

func (s *StoreSuite) TestCreatePlayerWithEmptyInventory() {
	s.register(100, "neo", 7)

	p, err := s.store.PlayerByID(s.ctx, 100)
	s.Require().NoError(err)
	s.Equal("neo", p.Name)
	s.Equal("uneo", p.Username)
	s.Equal(int64(7), p.GroupNumber)
	s.Empty(p.PhotoState)
	s.False(p.CreatedAt.IsZero())

	money, err := s.store.Money(s.ctx, "neo")
	s.Require().NoError(err)
	s.Zero(money)

	items, err := s.store.Items(s.ctx, "neo")
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *StoreSuite) TestCreatePlayerTwice() {
	s.register(100, "neo", 7)
	err := s.store.CreatePlayer(s.ctx, &model.Player{TelegramID: 100, Name: "other", GroupNumber: 1})
	s.ErrorIs(err, model.ErrPlayerExists)

	p, err := s.store.PlayerByID(s.ctx, 100)
	s.Require().NoError(err)
	s.Equal("neo", p.Name)
}

func (s *StoreSuite) TestPlayerByNamePrefersLowestID() {
	s.register(300, "twin", 1)
	s.register(200, "twin", 2)

	p, err := s.store.PlayerByName(s.ctx, "twin")
	s.Require().NoError(err)
	s.Equal(int64(200), p.TelegramID)
}

func (s *StoreSuite) TestNotFound() {
	_, err := s.store.PlayerByID(s.ctx, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.PlayerByName(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.GamesForPlayer(s.ctx, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.AppendPhoto(s.ctx, "ghost", "https://x/1.jpg")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.PhotoState(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.ErrorIs(s.store.ClearPhotos(s.ctx, "ghost"), model.ErrPlayerNotFound)
	_, err = s.store.AdjustMoney(s.ctx, "ghost", 10)
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.Money(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.AddItem(s.ctx, "ghost", model.Item{Title: "knife"})
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.Items(s.ctx, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	_, err = s.store.GameByGroup(s.ctx, 99)
	s.ErrorIs(err, model.ErrGameNotFound)
	s.ErrorIs(s.store.SetGameDate(s.ctx, 99, time.Now()), model.ErrGameNotFound)
}

// Photo state

func (s *StoreSuite) TestPhotoStateLifecycle() {
	s.register(100, "neo", 7)

	photos, err := s.store.AppendPhoto(s.ctx, "neo", "https://img/1.jpg")
	s.Require().NoError(err)
	s.Equal([]string{"https://img/1.jpg"}, photos)

	photos, err = s.store.AppendPhoto(s.ctx, "neo", "https://img/2.jpg")
	s.Require().NoError(err)
	s.Equal([]string{"https://img/1.jpg", "https://img/2.jpg"}, photos)

	stored, err := s.store.PhotoState(s.ctx, "neo")
	s.Require().NoError(err)
	s.Equal(photos, stored)

	s.Require().NoError(s.store.ClearPhotos(s.ctx, "neo"))
	stored, err = s.store.PhotoState(s.ctx, "neo")
	s.Require().NoError(err)
	s.Empty(stored)

	p, err := s.store.PlayerByID(s.ctx, 100)
	s.Require().NoError(err)
	s.Nil(p.PhotoState)
}

// Money

func (s *StoreSuite) TestCreditThenDebit() {
	s.register(100, "neo", 7)

	balance, err := s.store.AdjustMoney(s.ctx, "neo", 50)
	s.Require().NoError(err)
	s.Equal(int64(50), balance)

	balance, err = s.store.AdjustMoney(s.ctx, "neo", -20)
	s.Require().NoError(err)
	s.Equal(int64(30), balance)

	money, err := s.store.Money(s.ctx, "neo")
	s.Require().NoError(err)
	s.Equal(int64(30), money)
}

func (s *StoreSuite) TestOverdrawRejected() {
	s.register(100, "neo", 7)
	_, err := s.store.AdjustMoney(s.ctx, "neo", 5)
	s.Require().NoError(err)

	_, err = s.store.AdjustMoney(s.ctx, "neo", -6)
	s.ErrorIs(err, model.ErrInsufficientFunds)

	money, err := s.store.Money(s.ctx, "neo")
	s.Require().NoError(err)
	s.Equal(int64(5), money)
}

func (s *StoreSuite) TestConcurrentDebits() {
	s.register(100, "neo", 7)
	_, err := s.store.AdjustMoney(s.ctx, "neo", 10)
	s.Require().NoError(err)

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = s.store.AdjustMoney(s.ctx, "neo", -10)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case model.IsNotFound(err):
			s.Failf("unexpected not found", "%v", err)
		default:
			s.ErrorIs(err, model.ErrInsufficientFunds)
			insufficient++
		}
	}
	s.Equal(1, ok)
	s.Equal(1, insufficient)

	money, err := s.store.Money(s.ctx, "neo")
	s.Require().NoError(err)
	s.Zero(money)
}

// Items

func (s *StoreSuite) TestAddItems() {
	s.register(100, "neo", 7)

	first, err := s.store.AddItem(s.ctx, "neo", model.Item{Title: "knife", Price: 15, Description: "sharp"})
	s.Require().NoError(err)
	s.NotZero(first.ID)
	s.NotZero(first.InventoryID)

	_, err = s.store.AddItem(s.ctx, "neo", model.Item{Title: "rope", Price: 3})
	s.Require().NoError(err)

	items, err := s.store.Items(s.ctx, "neo")
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal("knife", items[0].Title)
	s.Equal("sharp", items[0].Description)
	s.Equal(int64(15), items[0].Price)
	s.Equal("rope", items[1].Title)
}

// Games

func (s *StoreSuite) TestGames() {
	p := s.register(100, "neo", 7)

	_, err := s.store.GamesForPlayer(s.ctx, p.TelegramID)
	s.Require().NoError(err)

	first := &model.Game{GroupNumber: 7, PlayerID: &p.TelegramID}
	s.Require().NoError(s.store.CreateGame(s.ctx, first))
	s.NotZero(first.ID)
	second := &model.Game{GroupNumber: 7}
	s.Require().NoError(s.store.CreateGame(s.ctx, second))

	g, err := s.store.GameByGroup(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(first.ID, g.ID)
	s.Nil(g.Date)

	date := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.SetGameDate(s.ctx, 7, date))
	g, err = s.store.GameByGroup(s.ctx, 7)
	s.Require().NoError(err)
	s.Require().NotNil(g.Date)
	s.Equal(date.Format(model.GameDateLayout), g.Date.Format(model.GameDateLayout))

	games, err := s.store.GamesForPlayer(s.ctx, p.TelegramID)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	s.Equal(first.ID, games[0].ID)
}

func (s *StoreSuite) TestReturnedGamesAreDetached() {
	p := s.register(100, "neo", 7)
	date := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	owner := p.TelegramID
	s.Require().NoError(s.store.CreateGame(s.ctx, &model.Game{GroupNumber: 7, Date: &date, PlayerID: &owner}))

	g, err := s.store.GameByGroup(s.ctx, 7)
	s.Require().NoError(err)
	s.Require().NotNil(g.Date)
	*g.Date = g.Date.AddDate(1, 0, 0)
	*g.PlayerID = 999

	games, err := s.store.GamesForPlayer(s.ctx, p.TelegramID)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	*games[0].Date = games[0].Date.AddDate(0, 1, 0)

	g, err = s.store.GameByGroup(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal("09.03.2025", g.Date.Format(model.GameDateLayout))
	s.Require().NotNil(g.PlayerID)
	s.Equal(p.TelegramID, *g.PlayerID)
}

func (s *StoreSuite) TestGameForUnknownPlayer() {
	ghost := int64(404)
	err := s.store.CreateGame(s.ctx, &model.Game{GroupNumber: 1, PlayerID: &ghost})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
