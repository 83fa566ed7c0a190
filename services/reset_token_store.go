package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

const (
	resetTokenPrefix = "pwreset:token:"
	resetUserPrefix  = "pwreset:user:"
	resetTokenBytes  = 32
)

// ResetTokenStore keeps password reset tokens in Redis with a TTL. A user has at most one
// live token; issuing a new one revokes the previous.
type ResetTokenStore struct {
	Client redis.Cmdable
	TTL    time.Duration
}

func NewResetTokenStore(client redis.Cmdable, ttl time.Duration) *ResetTokenStore {
	return &ResetTokenStore{Client: client, TTL: ttl}
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// Issue creates a token for userID.
func (s *ResetTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	prev, err := s.Client.Get(ctx, resetUserPrefix+userID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read reset token: %w", err)
	}

	_, err = s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if prev != "" {
			p.Del(ctx, resetTokenPrefix+prev)
		}
		p.Set(ctx, resetTokenPrefix+token, userID, s.TTL)
		p.Set(ctx, resetUserPrefix+userID, token, s.TTL)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// Consume returns the token's user and deletes the token. Unknown or expired tokens
// are ErrResetTokenInvalid.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrResetTokenInvalid
	}
	userID, err := s.Client.GetDel(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrResetTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("failed to read reset token: %w", err)
	}
	s.Client.Del(ctx, resetUserPrefix+userID)
	return userID, nil
}
