package entity

import (
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
)

// Registry indexes schemas by moduleKey.
type Registry struct {
	schemas map[string]*Schema
	order   []string
}

// NewRegistry indexes schemas, rejecting duplicate keys.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if s.Key == "" || s.PrimaryKey == "" {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "schema %q needs a key and a primary key", s.Key)
		}
		if _, dup := r.schemas[s.Key]; dup {
			return nil, errors.Wrapf(domain.ErrAlreadyExists, "schema %s", s.Key)
		}
		r.schemas[s.Key] = s
		r.order = append(r.order, s.Key)
	}
	return r, nil
}

// Get returns the schema of moduleKey.
func (r *Registry) Get(moduleKey string) (*Schema, error) {
	s, ok := r.schemas[moduleKey]
	if !ok {
		return nil, errors.Wrapf(domain.ErrUnknownModule, "%s", moduleKey)
	}
	return s, nil
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Default returns the registry of the shipped entities.
func Default() *Registry {
	r, err := NewRegistry(BusinessPlace(), TradingPartner(), BankAccount(), StorageYard())
	if err != nil {
		panic(err)
	}
	return r
}
