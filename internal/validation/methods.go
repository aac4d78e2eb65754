package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "hydrofund/internal/errors"

	"github.com/shopspring/decimal"
)

// Kenyan mobile-money numbers: 07xx/01xx, optionally in +254 form.
var phoneRegex = regexp.MustCompile(`^(?:\+?254|0)[17]\d{8}$`)

// Validator defines validation methods
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records the first message for a field.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns nil when valid, otherwise base carrying the field messages.
func (v *Validator) Err(base *apperrors.DomainError) error {
	if v.Valid() {
		return nil
	}
	return base.WithDetails(v.Errors)
}

// Phone validates phone number format
func (v *Validator) Phone(field, phone string) {
	v.Check(IsPhone(phone), field, "must be a valid mobile number")
}

func IsPhone(phone string) bool {
	return phoneRegex.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// Required checks if a value is not empty
func (v *Validator) Required(field string, value interface{}) {
	if value == nil {
		v.AddError(field, "must not be nil")
		return
	}

	switch val := value.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		v.Check(trimmed != "", field, "must not be empty")
	case int:
		v.Check(val != 0, field, "must not be zero")
	case uint:
		v.Check(val != 0, field, "must not be zero")
	case decimal.Decimal:
		v.Check(!val.IsZero(), field, "must not be zero")
	}
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Positive checks value > 0.
func (v *Validator) Positive(field string, value decimal.Decimal) {
	v.Check(value.IsPositive(), field, "must be greater than zero")
}

// Cents checks that value has no more than two decimal places.
func (v *Validator) Cents(field string, value decimal.Decimal) {
	v.Check(value.Equal(value.Round(2)), field, "must have at most two decimal places")
}

// Range checks if an amount is between min and max inclusive
func (v *Validator) Range(field string, value, min, max decimal.Decimal) {
	v.Check(value.GreaterThanOrEqual(min) && value.LessThanOrEqual(max), field,
		fmt.Sprintf("must be between %s and %s", min.StringFixed(2), max.StringFixed(2)))
}
