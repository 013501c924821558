package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionCache holds the short-lived markers: which OTP ticket is the live
// one for an email, and the deadline of a running attempt. Everything in it
// expires on its own; Postgres stays the source of truth.
type SessionCache interface {
	SetTicket(ctx context.Context, email, ticketID string, ttl time.Duration) error
	GetTicket(ctx context.Context, email string) (string, error)
	DeleteTicket(ctx context.Context, email string) error

	SetAttemptDeadline(ctx context.Context, attemptID string, deadline time.Time) error
	GetAttemptDeadline(ctx context.Context, attemptID string) (time.Time, error)
	DeleteAttempt(ctx context.Context, attemptID string) error

	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheMiss = errors.New("cache miss")

type redisSessionCache struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

func NewRedisSessionCache(addr, password string, db int, logger zerolog.Logger) SessionCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &redisSessionCache{
		rdb:    rdb,
		logger: logger,
	}
}

func ticketKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

func attemptKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:deadline", attemptID)
}

// SetTicket overwrites any previous marker, which is what makes the newest
// ticket the only live one per email.
func (c *redisSessionCache) SetTicket(ctx context.Context, email, ticketID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, ticketKey(email), ticketID, ttl).Err()
}

func (c *redisSessionCache) GetTicket(ctx context.Context, email string) (string, error) {
	val, err := c.rdb.Get(ctx, ticketKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *redisSessionCache) DeleteTicket(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, ticketKey(email)).Err()
}

func (c *redisSessionCache) SetAttemptDeadline(ctx context.Context, attemptID string, deadline time.Time) error {
	ttl := time.Until(deadline) + time.Minute
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, attemptKey(attemptID), deadline.UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (c *redisSessionCache) GetAttemptDeadline(ctx context.Context, attemptID string) (time.Time, error) {
	val, err := c.rdb.Get(ctx, attemptKey(attemptID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrCacheMiss
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, val)
}

func (c *redisSessionCache) DeleteAttempt(ctx context.Context, attemptID string) error {
	return c.rdb.Del(ctx, attemptKey(attemptID)).Err()
}

func (c *redisSessionCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *redisSessionCache) Close() error {
	return c.rdb.Close()
}
