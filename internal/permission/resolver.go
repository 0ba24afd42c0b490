// Package permission resolves the capability set a user holds on an entity.
package permission

import (
	"context"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
)

// Subject identifies who is asking.
type Subject struct {
	UserID       string
	TenantSchema string
}

// Resolver resolves permissions. Implementations always return a complete
// Permissions value; on error the caller keeps its all-false default.
type Resolver interface {
	Resolve(ctx context.Context, subject Subject, moduleKey string) (domain.Permissions, error)
}

// StaticResolver answers with each schema's declared default set after a
// fixed delay.
type StaticResolver struct {
	registry *entity.Registry
	delay    time.Duration
}

var _ Resolver = (*StaticResolver)(nil)

// NewStaticResolver creates a StaticResolver.
func NewStaticResolver(registry *entity.Registry, delay time.Duration) *StaticResolver {
	return &StaticResolver{registry: registry, delay: delay}
}

// Resolve waits the configured delay, then returns the schema defaults.
// Unknown entities resolve to no permissions.
func (r *StaticResolver) Resolve(ctx context.Context, _ Subject, moduleKey string) (domain.Permissions, error) {
	if r.delay > 0 {
		t := time.NewTimer(r.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.Permissions{}, ctx.Err()
		case <-t.C:
		}
	}

	s, err := r.registry.Get(moduleKey)
	if err != nil {
		return domain.Permissions{}, nil
	}
	return s.DefaultPermissions, nil
}
