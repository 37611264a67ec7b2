// Package redis backs the state slot with a Redis string key.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mistakeknot/liveboard/internal/storage"
)

type Slot struct {
	client *goredis.Client
	key    string
}

// New connects to the Redis instance at url (redis:// form) and verifies the
// connection. The design has no degraded mode without the backing store, so
// an unreachable server fails construction.
func New(ctx context.Context, url string) (*Slot, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Slot{client: client, key: storage.StateKey}, nil
}

// NewWithClient wraps an existing client, for tests.
func NewWithClient(client *goredis.Client) *Slot {
	return &Slot{client: client, key: storage.StateKey}
}

func (s *Slot) Load(ctx context.Context) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return val, true, nil
}

func (s *Slot) Store(ctx context.Context, value []byte) error {
	if err := s.client.Set(ctx, s.key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Close() error {
	return s.client.Close()
}
