package validator

import "github.com/google/uuid"

// RequiredUUID validates that value is not uuid.Nil.
func RequiredUUID(field string, value uuid.UUID) Rule {
	return Rule{
		Check: func() bool {
			return value != uuid.Nil
		},
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}
