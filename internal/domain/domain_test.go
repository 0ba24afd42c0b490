package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"search", ActionSearch},
		{"Create", ActionCreate},
		{" edit ", ActionEdit},
		{"delete", ActionDelete},
		{"csv", ActionExportCSV},
		{"xlsx", ActionExportXLSX},
		{"excel", ActionExportXLSX},
		{"pdf", ActionExportPDF},
		{"print", ActionPrint},
		{"reset", ActionReset},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAction("handleDelete")
	assert.True(t, errors.Is(err, ErrUnknownAction))
}

func TestActionNamesRoundTrip(t *testing.T) {
	for _, a := range Actions() {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}

func TestPermissionsZeroValueDeniesEverything(t *testing.T) {
	var p Permissions
	for _, c := range Capabilities() {
		assert.False(t, p.Allows(c), c.String())
	}
	all := AllPermissions()
	for _, c := range Capabilities() {
		assert.True(t, all.Allows(c), c.String())
	}
	assert.True(t, p.With(CapDelete, true).Allows(CapDelete))
	assert.False(t, all.With(CapPrint, false).Allows(CapPrint))
}

func TestNormalizeRecord(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"A":"x","B":12,"C":null,"D":1.5,"E":true}`))
	dec.UseNumber()
	var raw map[string]any
	require.NoError(t, dec.Decode(&raw))

	rec := NormalizeRecord(raw)
	assert.Equal(t, Record{"A": "x", "B": "12", "C": "", "D": "1.5", "E": "true"}, rec)
}

func TestGatewayErrorUnwrapsToApplication(t *testing.T) {
	err := errors.Wrap(&GatewayError{Map: "cd01.cd01110_d", Message: "in use"}, "delete")
	assert.True(t, errors.Is(err, ErrApplication))
	assert.False(t, errors.Is(err, ErrTransport))

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "in use", gwErr.Message)
}
