package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-auth-service/internal/model"
)

const (
	refreshKeyPrefix   = "refresh:"
	userTokensPrefix   = "user_tokens:"
	userTokensSlackTTL = time.Hour
)

// RedisTokenStore tracks outstanding refresh tokens in redis. Every token
// key carries the token's own TTL, so expiry needs no sweeper. A per-user
// set indexes tokens for revoke-all.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Store(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("store refresh token: already expired")
	}

	userKey := userTokensPrefix + userID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, refreshKeyPrefix+token, userID, ttl)
		pipe.SAdd(ctx, userKey, token)
		// The index only has to outlive the longest-lived member.
		pipe.Expire(ctx, userKey, ttl+userTokensSlackTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Validate(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("validate refresh token: %w", err)
	}
	return userID, nil
}

// Claim atomically invalidates the token and returns its owner. GETDEL
// guarantees exactly one concurrent caller sees the value.
func (s *RedisTokenStore) Claim(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("claim refresh token: %w", err)
	}

	if err := s.client.SRem(ctx, userTokensPrefix+userID, token).Err(); err != nil {
		return "", fmt.Errorf("claim refresh token: %w", err)
	}
	return userID, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	userID, err := s.client.GetDel(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if err := s.client.SRem(ctx, userTokensPrefix+userID, token).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	userKey := userTokensPrefix + userID

	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, refreshKeyPrefix+token)
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

// CleanExpired is a no-op: redis expires token keys on its own.
func (s *RedisTokenStore) CleanExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
