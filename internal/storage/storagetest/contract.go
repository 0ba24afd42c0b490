// Package storagetest holds the behavior every storage.Storage must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store against the storage contract. Scopes are prefixed
// with the test name so a shared backend stays isolated.
func Run(t *testing.T, store storage.Storage) {
	t.Helper()
	ctx := context.Background()
	alice := t.Name() + "/alice"
	bob := t.Name() + "/bob"

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, alice, "nope")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("put get overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, alice, "w_hc01110Conditions", `{"dealName":"a"}`))
		require.NoError(t, store.Put(ctx, alice, "w_hc01110Conditions", `{"dealName":"b"}`))
		v, err := store.Get(ctx, alice, "w_hc01110Conditions")
		require.NoError(t, err)
		assert.Equal(t, `{"dealName":"b"}`, v)
	})

	t.Run("scopes are isolated", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, bob, "w_hc01110Conditions", `{}`))
		v, err := store.Get(ctx, alice, "w_hc01110Conditions")
		require.NoError(t, err)
		assert.Equal(t, `{"dealName":"b"}`, v)
	})

	t.Run("keys and delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, alice, "w_hc01110Results", `[]`))
		keys, err := store.Keys(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, []string{"w_hc01110Conditions", "w_hc01110Results"}, keys)

		require.NoError(t, store.Delete(ctx, alice, "w_hc01110Results"))
		require.NoError(t, store.Delete(ctx, alice, "w_hc01110Results"))
		keys, err = store.Keys(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, []string{"w_hc01110Conditions"}, keys)
	})

	t.Run("json helpers", func(t *testing.T) {
		in := map[string]string{"HC11010": "001"}
		require.NoError(t, storage.PutJSON(ctx, store, alice, "rec", in))
		var out map[string]string
		ok, err := storage.GetJSON(ctx, store, alice, "rec", &out)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, in, out)

		ok, err = storage.GetJSON(ctx, store, alice, "absent", &out)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("clear scope", func(t *testing.T) {
		require.NoError(t, store.ClearScope(ctx, alice))
		keys, err := store.Keys(ctx, alice)
		require.NoError(t, err)
		assert.Empty(t, keys)

		_, err = store.Get(ctx, bob, "w_hc01110Conditions")
		assert.NoError(t, err)
	})
}
