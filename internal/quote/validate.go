package quote

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/quotekit/pkg/validator"
)

const (
	maxTextLen        = 200
	maxNotesLen       = 5000
	maxItems          = 200
	maxDescriptionLen = 500
)

var one = decimal.NewFromInt(1)

func validateCreate(in CreateInput) error {
	return validator.Merge(
		validator.Apply(
			validator.Required("client_name", in.ClientName),
			validator.MaxLen("client_name", in.ClientName, maxTextLen),
			validator.MaxLen("title", in.Title, maxTextLen),
			validator.OptionalEmail("client_email", in.ClientEmail),
			validator.MaxLen("client_phone", in.ClientPhone, maxTextLen),
			validator.MaxLen("client_address", in.ClientAddress, maxNotesLen),
			validator.MaxLen("notes", in.Notes, maxNotesLen),
		),
		validateMoney(in.Items, in.VATRate, in.Discount),
	)
}

func validateItems(in UpdateItemsInput) error {
	return validateMoney(in.Items, in.VATRate, in.Discount)
}

func validateMoney(items []ItemInput, vatRate, discount *decimal.Decimal) error {
	var rules []validator.Rule
	if vatRate != nil {
		rules = append(rules, validator.DecimalRange("vat_rate", *vatRate, decimal.Zero, one))
	}
	if discount != nil {
		rules = append(rules, validator.NonNegative("discount", *discount))
	}
	if len(items) > maxItems {
		rules = append(rules, validator.Rule{
			Check: func() bool { return false },
			Error: validator.ValidationError{Field: "items", Message: fmt.Sprintf("must contain at most %d items", maxItems)},
		})
	}

	errs := []error{validator.Apply(rules...)}
	for i, item := range items {
		errs = append(errs, validator.Prefixed(fmt.Sprintf("items[%d]", i), validator.Apply(
			validator.Required("description", item.Description),
			validator.MaxLen("description", item.Description, maxDescriptionLen),
			validator.NonNegative("quantity", item.Quantity),
			validator.NonNegative("unit_price", item.UnitPrice),
		)))
	}
	return validator.Merge(errs...)
}
