package redis

import (
	"context"
	"os"
	"testing"

	"github.com/bcnelson/erp-console/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
)

func TestHashKey(t *testing.T) {
	assert.Equal(t, "console:state:user-1", hashKey("user-1"))
}

// Runs only when REDIS_TEST_ADDR points at a disposable redis instance.
func TestStoreContract(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	store, err := New(ctx, addr, "", 15)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer store.Close()

	storagetest.Run(t, store)
}
