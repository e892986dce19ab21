package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var gbPrinter = message.NewPrinter(language.BritishEnglish)

// FormatGBP renders an amount the way it appears on a quote, e.g. "£1,234.50".
func FormatGBP(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	symbol := gbPrinter.Sprint(currency.Symbol(currency.GBP))
	amount := gbPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
	return fmt.Sprintf("%s%s%s", sign, symbol, amount)
}

// FormatPercent renders a rate such as 0.2 as "20%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
}
