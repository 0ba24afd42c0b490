package entity

import (
	"testing"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"w_hc01010", "w_hc01110", "w_ac01040", "w_hc01020"}, r.Keys())

	_, err := r.Get("w_nope")
	assert.True(t, errors.Is(err, domain.ErrUnknownModule))

	_, err = NewRegistry(BankAccount(), BankAccount())
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
}

func TestEveryColumnAndKeyIsAFormField(t *testing.T) {
	for _, key := range Default().Keys() {
		s, err := Default().Get(key)
		require.NoError(t, err)
		_, ok := s.Field(s.PrimaryKey)
		assert.True(t, ok, "%s: primary key must be a form field", key)
		for _, c := range s.Columns {
			_, ok := s.Field(c.Field)
			assert.True(t, ok, "%s: column %s must be a form field", key, c.Field)
		}
	}
}

func TestRequirementsCoverEveryAction(t *testing.T) {
	s := TradingPartner()
	for _, a := range domain.Actions() {
		assert.NotPanics(t, func() { s.Requirement(a) }, a.String())
	}
	assert.Equal(t, domain.CapView, s.Requirement(domain.ActionSearch))
	assert.Equal(t, domain.CapAdd, s.Requirement(domain.ActionCreate))
	assert.Equal(t, domain.CapUpdate, s.Requirement(domain.ActionEdit))
	assert.Equal(t, domain.CapDelete, s.Requirement(domain.ActionDelete))
	assert.Equal(t, domain.CapPrint, s.Requirement(domain.ActionPrint))
	assert.Equal(t, domain.CapPrint, s.Requirement(domain.ActionReset))
}

func TestExportPoliciesAreDistinguishable(t *testing.T) {
	view := BusinessPlace()
	printGated := TradingPartner()
	for _, a := range []domain.Action{domain.ActionExportCSV, domain.ActionExportXLSX, domain.ActionExportPDF} {
		assert.Equal(t, domain.CapView, view.Requirement(a))
		assert.Equal(t, domain.CapPrint, printGated.Requirement(a))
	}
}

func TestSearchParams(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		conds  map[string]string
		want   map[string]string
	}{
		{
			name:   "trading partner defaults",
			schema: TradingPartner(),
			conds:  map[string]string{},
			want:   map[string]string{"HC11011": "1"},
		},
		{
			name:   "trading partner trims optional filters",
			schema: TradingPartner(),
			conds:  map[string]string{"customerType": "2", "dealName": "  에이스 ", "representative": "   "},
			want:   map[string]string{"HC11011": "2", "HC11020": "에이스"},
		},
		{
			name:   "bank account hides discarded",
			schema: BankAccount(),
			conds:  map[string]string{"includeDiscarded": ""},
			want:   map[string]string{"F04120": " "},
		},
		{
			name:   "bank account includes discarded",
			schema: BankAccount(),
			conds:  map[string]string{"includeDiscarded": "on"},
			want:   map[string]string{},
		},
		{
			name:   "business place always sends filter",
			schema: BusinessPlace(),
			conds:  nil,
			want:   map[string]string{"sale11020_hc01010": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schema.SearchParams(tt.conds))
		})
	}
}

func TestEmptyRecordHasEveryField(t *testing.T) {
	s := StorageYard()
	rec := s.EmptyRecord()
	assert.Len(t, rec, len(s.Fields))
	assert.Equal(t, "", rec["HC02010"])
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, []string{"코드", "관리명칭", "번호", "개설일자", "만기일자", "폐기일자"}, Headers(BankAccount().Columns))
}
