package permission

import (
	"context"
	_ "embed"
	"os"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/go-faster/errors"
)

//go:embed model.conf
var defaultModel string

//go:embed policy.csv
var defaultPolicy string

// CasbinResolver evaluates an RBAC policy. Subjects are user ids; roles may
// be granted per user or per tenant schema.
type CasbinResolver struct {
	enforcer *casbin.Enforcer
}

var _ Resolver = (*CasbinResolver)(nil)

// NewCasbinResolver loads the policy at policyPath, or the embedded default
// policy when policyPath is empty.
func NewCasbinResolver(policyPath string) (*CasbinResolver, error) {
	policy := defaultPolicy
	if policyPath != "" {
		b, err := os.ReadFile(policyPath)
		if err != nil {
			return nil, errors.Wrap(err, "reading policy")
		}
		policy = string(b)
	}
	return NewCasbinResolverFromString(policy)
}

// NewCasbinResolverFromString builds a resolver from policy text in casbin
// CSV form.
func NewCasbinResolverFromString(policy string) (*CasbinResolver, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, errors.Wrap(err, "parsing model")
	}
	e, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policy))
	if err != nil {
		return nil, errors.Wrap(err, "creating enforcer")
	}
	return &CasbinResolver{enforcer: e}, nil
}

// Resolve enforces every capability. The user is checked first, then the
// tenant schema, so a role can be granted to a whole tenant.
func (r *CasbinResolver) Resolve(ctx context.Context, subject Subject, moduleKey string) (domain.Permissions, error) {
	var perms domain.Permissions
	for _, c := range domain.Capabilities() {
		if err := ctx.Err(); err != nil {
			return domain.Permissions{}, err
		}
		ok, err := r.enforce(subject, moduleKey, c)
		if err != nil {
			return domain.Permissions{}, errors.Wrapf(err, "enforcing %s on %s", c, moduleKey)
		}
		perms = perms.With(c, ok)
	}
	return perms, nil
}

func (r *CasbinResolver) enforce(subject Subject, moduleKey string, c domain.Capability) (bool, error) {
	for _, sub := range []string{subject.UserID, subject.TenantSchema} {
		if sub == "" {
			continue
		}
		ok, err := r.enforcer.Enforce(sub, moduleKey, c.String())
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
