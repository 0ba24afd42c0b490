// Package validation checks entity records and form input before anything
// is sent to the gateway.
package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
)

// isNum returns true if the byte is an ASCII digit.
func isNum(b byte) bool {
	return b >= '0' && b <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isNum(s[i]) {
			return false
		}
	}
	return true
}

// NormalizeBizNumber strips the dashes of a business registration number.
func NormalizeBizNumber(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), "-", "")
}

// ValidateBizNumber accepts 000-00-00000 or ten digits.
func ValidateBizNumber(v string) error {
	if len(v) == 12 && v[3] == '-' && v[6] == '-' {
		v = v[:3] + v[4:6] + v[7:]
	}
	if len(v) != 10 || !allDigits(v) {
		return NewValidationError("", v, "must be 000-00-00000 or 10 digits")
	}
	return nil
}

// ValidatePhone accepts digits separated by dashes, spaces or parentheses.
func ValidatePhone(v string) error {
	digits := 0
	for i := 0; i < len(v); i++ {
		switch {
		case isNum(v[i]):
			digits++
		case v[i] == '-' || v[i] == ' ' || v[i] == '(' || v[i] == ')':
		default:
			return NewValidationError("", v, "must contain only digits and separators")
		}
	}
	if digits < 7 || digits > 15 {
		return NewValidationError("", v, "must have 7 to 15 digits")
	}
	return nil
}

// ValidateDate accepts YYYYMMDD or YYYY-MM-DD.
func ValidateDate(v string) error {
	layout := "20060102"
	if strings.Contains(v, "-") {
		layout = "2006-01-02"
	}
	if _, err := time.Parse(layout, v); err != nil {
		return NewValidationError("", v, "must be a date (YYYYMMDD)")
	}
	return nil
}

// NormalizeRecord trims every schema field and strips business-number
// dashes. Fields not declared by the schema are dropped.
func NormalizeRecord(s *entity.Schema, rec domain.Record) domain.Record {
	out := make(domain.Record, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if f.Kind == entity.KindBizNumber {
			v = NormalizeBizNumber(v)
		}
		out[f.Name] = v
	}
	return out
}

// ValidateRecord checks rec against the schema's field declarations.
func ValidateRecord(s *entity.Schema, rec domain.Record) ValidationErrors {
	var errs ValidationErrors
	for _, f := range s.Fields {
		v := strings.TrimSpace(rec[f.Name])
		if v == "" {
			if f.Required {
				errs.Add(f.Name, v, f.Label+" is required")
			}
			continue
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(v) > f.MaxLen {
			errs.Add(f.Name, v, f.Label+" is too long")
			continue
		}

		var err error
		switch f.Kind {
		case entity.KindBizNumber:
			err = ValidateBizNumber(v)
		case entity.KindPhone:
			err = ValidatePhone(v)
		case entity.KindDate:
			err = ValidateDate(v)
		}
		if ve, ok := err.(*ValidationError); ok {
			errs.Add(f.Name, v, f.Label+" "+ve.Message)
		}
	}
	return errs
}
