package redis

import (
	"context"
	"sort"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "console:state:"

// Store keeps each scope in one redis hash so a scope can be dropped with a
// single DEL.
type Store struct {
	client goredis.UniversalClient
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// New connects to redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func hashKey(scope string) string {
	return keyPrefix + scope
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, scope, key string) (string, error) {
	v, err := s.client.HGet(ctx, hashKey(scope), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", key)
	}
	return v, nil
}

func (s *Store) Put(ctx context.Context, scope, key, value string) error {
	if err := s.client.HSet(ctx, hashKey(scope), key, value).Err(); err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, scope, key string) error {
	if err := s.client.HDel(ctx, hashKey(scope), key).Err(); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, scope string) ([]string, error) {
	keys, err := s.client.HKeys(ctx, hashKey(scope)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing keys")
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) ClearScope(ctx context.Context, scope string) error {
	if err := s.client.Del(ctx, hashKey(scope)).Err(); err != nil {
		return errors.Wrap(err, "clearing scope")
	}
	return nil
}
