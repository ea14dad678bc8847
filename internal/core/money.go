// Package core provides money formatting utilities.
//
// Amounts arrive from the remote API as JSON numbers (or numeric strings) and
// are held as decimals. Display follows the en-US grouping the dashboard has
// always used: thousands separators and at most three fraction digits.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d with thousands separators and up to three
// fraction digits, trimming trailing zeros.
//
// Examples:
//
//	FormatAmount(1200)     -> "1,200"
//	FormatAmount(1234.5)   -> "1,234.5"
//	FormatAmount(-0.12345) -> "-0.123"
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().Round(3).String()

	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if frac != "" {
		out += "." + frac
	}
	if neg && out != "0" {
		return "-" + out
	}
	return out
}

// FormatCurrency renders d as a dollar amount, e.g. "$1,200" or "-$60".
func FormatCurrency(d decimal.Decimal) string {
	s := FormatAmount(d)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatPlainCurrency renders d as a dollar amount without grouping, as list
// rows show it: "$1200", "$12.5", "-$60".
func FormatPlainCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().String()
	}
	return "$" + d.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
