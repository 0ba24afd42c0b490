package validation

import (
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginForm is the login page input.
type LoginForm struct {
	UserID   string `validate:"required,max=50"`
	Password string `validate:"required,max=100"`
}

// ColumnLayout is a user-edited grid layout.
type ColumnLayout struct {
	Columns []entity.Column `validate:"required,min=1,dive"`
}

// Struct validates v by its validate tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), toString(fe.Value()), "failed "+fe.Tag())
	}
	return errs
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// ValidateLayout checks a user-supplied column layout against the schema:
// every column must be declared by the schema and appear once.
func ValidateLayout(s *entity.Schema, cols []entity.Column) error {
	if err := Struct(ColumnLayout{Columns: cols}); err != nil {
		return err
	}
	declared := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		declared[c.Field] = true
	}
	var errs ValidationErrors
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if !declared[c.Field] {
			errs.Add(c.Field, c.Header, "not a column of "+s.Key)
			continue
		}
		if seen[c.Field] {
			errs.Add(c.Field, c.Header, "duplicate column")
		}
		seen[c.Field] = true
	}
	return errs.OrNil()
}
