package validation

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	cardNumberRegex = regexp.MustCompile(`^[0-9]{13,19}$`)
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator collects field level failures so the boundary can report them all
// at once as a field name to message mapping.
type Validator struct {
	Errors []ValidationError
}

func New() *Validator {
	return &Validator{
		Errors: make([]ValidationError, 0),
	}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// FieldMessages joins failures per field, later messages appended.
func (v *Validator) FieldMessages() map[string]string {
	out := make(map[string]string, len(v.Errors))
	for _, e := range v.Errors {
		if existing, ok := out[e.Field]; ok {
			out[e.Field] = existing + " " + e.Message
		} else {
			out[e.Field] = e.Message
		}
	}
	return out
}

func (v *Validator) Required(field, value string) {
	if value == "" {
		v.AddError(field, "must not be empty.")
	}
}

func (v *Validator) Email(field, value string) {
	if !emailRegex.MatchString(value) {
		v.AddError(field, "must be a valid email address.")
	}
}

func (v *Validator) MinLength(field, value string, min int) {
	if len(value) < min {
		v.AddError(field, fmt.Sprintf("must be at least %d characters long.", min))
	}
}

func (v *Validator) CardNumber(field, value string) {
	if !cardNumberRegex.MatchString(value) {
		v.AddError(field, "must be 13 to 19 digits.")
	}
}

func (v *Validator) Positive(field string, value decimal.Decimal) {
	if !value.IsPositive() {
		v.AddError(field, "must be greater than zero.")
	}
}

func (v *Validator) NonNegative(field string, value decimal.Decimal) {
	if value.IsNegative() {
		v.AddError(field, "must not be negative.")
	}
}
