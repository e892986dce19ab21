// Package validator provides composable validation rules.
//
// Each rule pairs a check with the error reported when the check fails.
// Apply evaluates rules in order and collects every failure:
//
//	err := validator.Apply(
//		validator.Required("client_name", in.ClientName),
//		validator.OptionalEmail("client_email", in.ClientEmail),
//		validator.DecimalRange("vat_rate", in.VATRate, decimal.Zero, decimal.NewFromInt(1)),
//	)
//
// Use ExtractValidationErrors to turn the result into a field → message map.
package validator
