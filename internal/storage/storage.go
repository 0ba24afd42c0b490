package storage

import (
	"context"
	"encoding/json"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
)

// Storage is the durable per-user client state: search conditions, cached
// result sets, column layouts and login results. Keys are grouped by scope
// (the user id) so logout can drop a user's state in one call. Writes are
// last-writer-wins.
type Storage interface {
	// Get returns domain.ErrNotFound when the key is absent.
	Get(ctx context.Context, scope, key string) (string, error)
	Put(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope, key string) error
	Keys(ctx context.Context, scope string) ([]string, error)
	ClearScope(ctx context.Context, scope string) error
	Close() error
}

// Key suffixes of per-entity client state.
const (
	SuffixConditions = "Conditions"
	SuffixResults    = "Results"
	SuffixColumns    = "Columns"

	// LoginResultsKey holds the serialized login result of the scope's user.
	LoginResultsKey = "LoginResults"
)

// EntityKey builds the per-entity key, e.g. w_hc01110Results.
func EntityKey(moduleKey, suffix string) string {
	return moduleKey + suffix
}

// GetJSON decodes the value stored under key into v. It reports false when
// the key is absent.
func GetJSON(ctx context.Context, s Storage, scope, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, scope, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, errors.Wrapf(err, "decoding %s", key)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Storage, scope, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	return s.Put(ctx, scope, key, string(raw))
}
