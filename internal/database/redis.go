package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hither-backend/internal/models"
)

// RedisDB holds the ephemeral state that never belongs in Postgres:
// find sessions (short-lived, TTL-bounded) and nothing else.
type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(addr, password string, db int) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// findSessionTTL is an absolute backstop so abandoned sessions do not pile
// up; the engine's 120s liveness timeout ends sessions much earlier in
// practice.
const findSessionTTL = time.Hour

func findSessionKey(id string) string {
	return "find:session:" + id
}

func (r *RedisDB) SaveSession(ctx context.Context, s models.FindSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, findSessionKey(s.ID), data, findSessionTTL).Err()
}

func (r *RedisDB) GetSession(ctx context.Context, id string) (models.FindSession, error) {
	data, err := r.Client.Get(ctx, findSessionKey(id)).Bytes()
	if err == redis.Nil {
		return models.FindSession{}, ErrSessionNotFound
	}
	if err != nil {
		return models.FindSession{}, err
	}
	var s models.FindSession
	if err := json.Unmarshal(data, &s); err != nil {
		return models.FindSession{}, err
	}
	return s, nil
}

func (r *RedisDB) DeleteSession(ctx context.Context, id string) error {
	return r.Client.Del(ctx, findSessionKey(id)).Err()
}
