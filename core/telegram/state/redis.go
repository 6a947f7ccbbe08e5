package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateField  = "state"
	fieldPrefix = "f:"
)

// RedisOptions configures the Redis-backed manager.
type RedisOptions struct {
	// KeyPrefix namespaces session hashes, e.g. "pager:fsm" -> "pager:fsm:<user id>".
	KeyPrefix string
	// TTL expires abandoned conversations; refreshed on every write. Zero keeps sessions forever.
	TTL time.Duration
}

type redisManager struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisManager stores each session as a Redis hash so several bot replicas share conversations.
func NewRedisManager(client *redis.Client, opts RedisOptions) Manager {
	if strings.TrimSpace(opts.KeyPrefix) == "" {
		opts.KeyPrefix = "fsm"
	}
	return &redisManager{client: client, opts: opts}
}

// DialRedis parses url, connects and verifies the server answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session redis ping: %w", err)
	}
	return client, nil
}

func (m *redisManager) key(userID int64) string {
	return fmt.Sprintf("%s:%d", m.opts.KeyPrefix, userID)
}

// Get loads the session hash; a missing key yields an idle session.
func (m *redisManager) Get(ctx context.Context, userID int64) (Session, error) {
	raw, err := m.client.HGetAll(ctx, m.key(userID)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session get: %w", err)
	}
	session := newSession()
	for k, v := range raw {
		if k == stateField {
			session.State = State(v)
			continue
		}
		if name, ok := strings.CutPrefix(k, fieldPrefix); ok {
			session.Data[name] = v
		}
	}
	return session, nil
}

// Update writes state and fields in a MULTI block together with the TTL refresh.
func (m *redisManager) Update(ctx context.Context, userID int64, st State, fields map[string]string) error {
	values := make(map[string]any, len(fields)+1)
	values[stateField] = string(st)
	for k, v := range fields {
		values[fieldPrefix+k] = v
	}
	return m.write(ctx, userID, values)
}

// SetState changes only the state field.
func (m *redisManager) SetState(ctx context.Context, userID int64, st State) error {
	return m.write(ctx, userID, map[string]any{stateField: string(st)})
}

// Clear deletes the session hash.
func (m *redisManager) Clear(ctx context.Context, userID int64) error {
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (m *redisManager) write(ctx context.Context, userID int64, values map[string]any) error {
	key := m.key(userID)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		if m.opts.TTL > 0 {
			pipe.Expire(ctx, key, m.opts.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session write: %w", err)
	}
	return nil
}
