package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const challengePrefix = "myshop:otp:"

// RedisChallengeStore lets several API replicas share pending logins. Keys
// expire with the challenge.
type RedisChallengeStore struct {
	client *redis.Client
}

func NewRedisChallengeStore(addr string, password string, db int) *RedisChallengeStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisChallengeStore{client: client}
}

func (c *RedisChallengeStore) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisChallengeStore) Close() error {
	return c.client.Close()
}

func (c *RedisChallengeStore) Put(ctx context.Context, key string, challenge Challenge) error {
	ttl := time.Until(challenge.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, challengePrefix+key, payload, ttl).Err()
}

func (c *RedisChallengeStore) Get(ctx context.Context, key string) (Challenge, error) {
	val, err := c.client.Get(ctx, challengePrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return Challenge{}, ErrChallengeNotFound
	}
	if err != nil {
		return Challenge{}, err
	}

	var challenge Challenge
	if err := json.Unmarshal([]byte(val), &challenge); err != nil {
		return Challenge{}, fmt.Errorf("decode challenge %s: %w", key, err)
	}
	if challenge.Expired(time.Now()) {
		return Challenge{}, ErrChallengeNotFound
	}
	return challenge, nil
}

func (c *RedisChallengeStore) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, challengePrefix+key).Err()
}
