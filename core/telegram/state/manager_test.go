package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type ManagerSuite struct {
	suite.Suite
	newManager func() Manager
	mgr        Manager
	ctx        context.Context
}

func (s *ManagerSuite) SetupTest() {
	s.mgr = s.newManager()
	s.ctx = context.Background()
}

func TestMemoryManagerSuite(t *testing.T) {
	suite.Run(t, &ManagerSuite{newManager: NewMemoryManager})
}

func TestRedisManagerSuite(t *testing.T) {
	ms := &ManagerSuite{}
	ms.newManager = func() Manager {
		mini := miniredis.RunT(ms.T())
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		ms.T().Cleanup(func() { _ = client.Close() })
		return NewRedisManager(client, RedisOptions{KeyPrefix: "test:fsm", TTL: time.Hour})
	}
	suite.Run(t, ms)
}

func (s *ManagerSuite) TestGetUnknownUserIsIdle() {
	session, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(StateIdle, session.State)
	s.False(session.Active())
	s.Empty(session.Data)
}

func (s *ManagerSuite) TestUpdateMergesFields() {
	s.Require().NoError(s.mgr.Update(s.ctx, 1, "step.one", map[string]string{"a": "1"}))
	s.Require().NoError(s.mgr.Update(s.ctx, 1, "step.two", map[string]string{"b": "two"}))

	session, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(State("step.two"), session.State)
	s.True(session.Active())
	s.Equal(map[string]string{"a": "1", "b": "two"}, session.Data)

	n, ok := session.Int64("a")
	s.True(ok)
	s.Equal(int64(1), n)
	_, ok = session.Int64("b")
	s.False(ok)
}

func (s *ManagerSuite) TestSessionsAreIsolatedPerUser() {
	s.Require().NoError(s.mgr.Update(s.ctx, 1, "step.one", map[string]string{"nickname": "alice"}))
	s.Require().NoError(s.mgr.Update(s.ctx, 2, "step.two", map[string]string{"nickname": "bob"}))

	first, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	second, err := s.mgr.Get(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal("alice", first.Data["nickname"])
	s.Equal("bob", second.Data["nickname"])
	s.NotEqual(first.State, second.State)
}

func (s *ManagerSuite) TestSetStateKeepsFields() {
	s.Require().NoError(s.mgr.Update(s.ctx, 1, "step.one", map[string]string{"a": "1"}))
	s.Require().NoError(s.mgr.SetState(s.ctx, 1, "step.three"))

	session, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(State("step.three"), session.State)
	s.Equal("1", session.Data["a"])
}

func (s *ManagerSuite) TestClear() {
	s.Require().NoError(s.mgr.Update(s.ctx, 1, "step.one", map[string]string{"a": "1"}))
	s.Require().NoError(s.mgr.Clear(s.ctx, 1))
	s.Require().NoError(s.mgr.Clear(s.ctx, 42))

	session, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(StateIdle, session.State)
	s.Empty(session.Data)
}

func (s *ManagerSuite) TestGetReturnsCopy() {
	s.Require().NoError(s.mgr.Update(s.ctx, 1, "step.one", map[string]string{"a": "1"}))
	session, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	session.Data["a"] = "mutated"

	again, err := s.mgr.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("1", again.Data["a"])
}

func TestRedisManagerAppliesTTL(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	mgr := NewRedisManager(client, RedisOptions{KeyPrefix: "ttl", TTL: time.Minute})
	ctx := context.Background()
	if err := mgr.Update(ctx, 5, "step", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if ttl := mini.TTL("ttl:5"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	mini.FastForward(2 * time.Minute)
	session, err := mgr.Get(ctx, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if session.Active() {
		t.Fatalf("expected expired session to be idle, got %q", session.State)
	}
}
