package permission

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStaticResolverReturnsSchemaDefaults(t *testing.T) {
	r := NewStaticResolver(entity.Default(), 0)

	got, err := r.Resolve(context.Background(), Subject{UserID: "u"}, "w_hc01010")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{View: true, Add: true, Update: true}, got)

	got, err = r.Resolve(context.Background(), Subject{UserID: "u"}, "w_hc01110")
	require.NoError(t, err)
	assert.Equal(t, domain.AllPermissions(), got)
}

func TestStaticResolverUnknownModuleIsClosed(t *testing.T) {
	r := NewStaticResolver(entity.Default(), 0)
	got, err := r.Resolve(context.Background(), Subject{}, "w_unknown")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{}, got)
}

func TestStaticResolverHonorsCancellation(t *testing.T) {
	r := NewStaticResolver(entity.Default(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := r.Resolve(ctx, Subject{}, "w_hc01110")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.Permissions{}, got)
}

func TestStaticResolverWaitsDelay(t *testing.T) {
	r := NewStaticResolver(entity.Default(), 20*time.Millisecond)
	start := time.Now()
	_, err := r.Resolve(context.Background(), Subject{}, "w_hc01110")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestCasbinResolverDefaultPolicy(t *testing.T) {
	r, err := NewCasbinResolver("")
	require.NoError(t, err)
	ctx := context.Background()

	got, err := r.Resolve(ctx, Subject{UserID: "demo"}, "w_ac01040")
	require.NoError(t, err)
	assert.Equal(t, domain.AllPermissions(), got)

	// Tenant role applies when the user has no grant of their own.
	got, err = r.Resolve(ctx, Subject{UserID: "someone", TenantSchema: "ssc_00_demo.dbo"}, "w_hc01010")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{View: true, Add: true, Print: true}, got)

	got, err = r.Resolve(ctx, Subject{UserID: "someone", TenantSchema: "ssc_00_demo.dbo"}, "w_hc01110")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{View: true, Print: true}, got)

	got, err = r.Resolve(ctx, Subject{UserID: "stranger"}, "w_hc01110")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{}, got)
}

func TestCasbinResolverPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(path, []byte("p, auditor, w_hc*, view\ng, kim, auditor\n"), 0o600))

	r, err := NewCasbinResolver(path)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), Subject{UserID: "kim"}, "w_hc01020")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{View: true}, got)

	got, err = r.Resolve(context.Background(), Subject{UserID: "kim"}, "w_ac01040")
	require.NoError(t, err)
	assert.Equal(t, domain.Permissions{}, got)
}

func TestCasbinResolverMissingPolicyFile(t *testing.T) {
	_, err := NewCasbinResolver(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
