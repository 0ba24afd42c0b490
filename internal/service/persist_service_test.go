package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/storage/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestScheduleCoalescesWrites(t *testing.T) {
	store := memory.New()
	svc := NewPersistService(store, time.Hour, quietLogger())
	ctx := context.Background()

	svc.Schedule("u1", "k", "first")
	svc.Schedule("u1", "k", "second")
	svc.Schedule("u1", "other", "x")
	assert.Equal(t, 2, svc.Pending())

	_, err := store.Get(ctx, "u1", "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Flush(ctx))
	v, err := store.Get(ctx, "u1", "k")
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	assert.Equal(t, 0, svc.Pending())
}

func TestScheduleFlushesAfterDebounce(t *testing.T) {
	store := memory.New()
	svc := NewPersistService(store, 10*time.Millisecond, quietLogger())
	defer svc.Stop(context.Background())

	require.NoError(t, svc.ScheduleJSON("u1", "k", map[string]string{"a": "1"}))

	require.Eventually(t, func() bool {
		v, err := store.Get(context.Background(), "u1", "k")
		return err == nil && v == `{"a":"1"}`
	}, time.Second, 5*time.Millisecond)
}

func TestDeleteDropsPendingWrite(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "u1", "k", "old"))

	svc := NewPersistService(store, time.Hour, quietLogger())
	svc.Schedule("u1", "k", "new")
	require.NoError(t, svc.Delete(ctx, "u1", "k"))
	require.NoError(t, svc.Flush(ctx))

	_, err := store.Get(ctx, "u1", "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDropScope(t *testing.T) {
	store := memory.New()
	svc := NewPersistService(store, time.Hour, quietLogger())
	svc.Schedule("u1", "k", "v")
	svc.Schedule("u2", "k", "v")
	svc.DropScope("u1")
	assert.Equal(t, 1, svc.Pending())
	require.NoError(t, svc.Stop(context.Background()))
}

func TestStopRefusesNewWrites(t *testing.T) {
	store := memory.New()
	svc := NewPersistService(store, time.Hour, quietLogger())
	require.NoError(t, svc.Stop(context.Background()))

	svc.Schedule("u1", "k", "v")
	assert.Equal(t, 0, svc.Pending())
}
