package validator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NonNegative validates value >= 0.
func NonNegative(field string, value decimal.Decimal) Rule {
	return Rule{
		Check: func() bool {
			return !value.IsNegative()
		},
		Error: ValidationError{Field: field, Message: "must not be negative"},
	}
}

// DecimalRange validates min <= value <= max.
func DecimalRange(field string, value, min, max decimal.Decimal) Rule {
	return Rule{
		Check: func() bool {
			return value.GreaterThanOrEqual(min) && value.LessThanOrEqual(max)
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be between %s and %s", min, max)},
	}
}
