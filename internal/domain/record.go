package domain

import (
	"encoding/json"
	"strconv"
)

// Record is one row exchanged with the gateway. Every value is kept as the
// string the gateway sent so that diffs and exports see exactly what the
// grid shows.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value of field, or "" when absent.
func (r Record) Get(field string) string {
	return r[field]
}

// Merge overwrites fields of r with the non-absent fields of other.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

// NormalizeRecord converts a decoded JSON object into a Record.
func NormalizeRecord(raw map[string]any) Record {
	rec := make(Record, len(raw))
	for k, v := range raw {
		rec[k] = stringify(v)
	}
	return rec
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// LoginResult is what the gateway returns for a successful login.
type LoginResult struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	TenantSchema string `json:"dboTable"`
	Raw          Record `json:"-"`
}
