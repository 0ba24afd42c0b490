// Package entity declares the business entities the console can open. Each
// entity is data: columns, form fields, search conditions and gateway
// statements. The card engine is generic over these schemas.
package entity

import (
	"strings"

	"github.com/bcnelson/erp-console/internal/domain"
)

// Column describes one grid column. The same metadata drives exports.
type Column struct {
	Field  string `json:"field" validate:"required"`
	Header string `json:"header" validate:"required"`
	Width  int    `json:"width" validate:"gte=20,lte=2000"`
}

// FieldKind selects the form input and its validation.
type FieldKind int

const (
	KindText FieldKind = iota
	KindBizNumber
	KindPhone
	KindDate
	KindSelect
)

// Field is one input of the create/edit form.
type Field struct {
	Name      string
	Label     string
	Kind      FieldKind
	Required  bool
	MaxLen    int
	CodeGroup string // common-code group feeding a KindSelect
}

// ConditionKind selects the search input.
type ConditionKind int

const (
	CondText ConditionKind = iota
	CondSelect
	CondCheckbox
)

// Condition is one search input and how it maps onto a gateway parameter.
type Condition struct {
	Name      string
	Label     string
	Param     string
	Kind      ConditionKind
	Default   string
	Optional  bool   // omit the parameter when the trimmed value is empty
	Unchecked string // checkbox only: value sent when unchecked; nothing is sent when checked
	CodeGroup string
}

// Maps names the gateway statements of an entity. Detail is optional.
type Maps struct {
	Select string
	Detail string
	Insert string
	Update string
	Delete string
}

// SearchPolicy decides how a search result combines with the cache.
type SearchPolicy int

const (
	// SearchMerge overwrites rows sharing a primary key and keeps the rest.
	SearchMerge SearchPolicy = iota
	// SearchReplace discards the previous result set.
	SearchReplace
)

func (p SearchPolicy) String() string {
	if p == SearchReplace {
		return "replace"
	}
	return "merge"
}

// Schema is the complete declaration of one entity.
type Schema struct {
	Key                string
	Title              string
	PrimaryKey         string
	Columns            []Column
	Fields             []Field
	Conditions         []Condition
	Maps               Maps
	SearchPolicy       SearchPolicy
	ExportCapability   domain.Capability
	DefaultPermissions domain.Permissions
}

// Requirement returns the capability an action needs on this entity.
func (s *Schema) Requirement(a domain.Action) domain.Capability {
	switch a {
	case domain.ActionSearch:
		return domain.CapView
	case domain.ActionCreate:
		return domain.CapAdd
	case domain.ActionEdit:
		return domain.CapUpdate
	case domain.ActionDelete:
		return domain.CapDelete
	case domain.ActionExportCSV, domain.ActionExportXLSX, domain.ActionExportPDF:
		return s.ExportCapability
	case domain.ActionPrint, domain.ActionReset:
		return domain.CapPrint
	}
	panic("entity: unhandled action " + a.String())
}

// DefaultConditions returns the initial search inputs.
func (s *Schema) DefaultConditions() map[string]string {
	out := make(map[string]string, len(s.Conditions))
	for _, c := range s.Conditions {
		out[c.Name] = c.Default
	}
	return out
}

// SearchParams folds the user's search inputs into gateway parameters.
func (s *Schema) SearchParams(conds map[string]string) map[string]string {
	params := make(map[string]string, len(s.Conditions))
	for _, c := range s.Conditions {
		v, ok := conds[c.Name]
		if !ok {
			v = c.Default
		}
		switch c.Kind {
		case CondCheckbox:
			if !IsChecked(v) {
				params[c.Param] = c.Unchecked
			}
		default:
			trimmed := strings.TrimSpace(v)
			if c.Optional && trimmed == "" {
				continue
			}
			params[c.Param] = trimmed
		}
	}
	return params
}

// IsChecked reports whether a checkbox value reads as checked.
func IsChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}

// Field returns the form field called name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// EmptyRecord returns a record with every form field present and blank.
func (s *Schema) EmptyRecord() domain.Record {
	rec := make(domain.Record, len(s.Fields))
	for _, f := range s.Fields {
		rec[f.Name] = ""
	}
	return rec
}

// Headers returns the column headers in display order.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}
