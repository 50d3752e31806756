package fixtures

import "github.com/shopspring/decimal"

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// AmountPtr parses a decimal literal and returns a pointer to it. It panics on
// malformed input, which only happens in test code.
func AmountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
