package domain

import (
	"strings"

	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
)

// CardInfo holds raw card data entered by the user. It is never persisted.
type CardInfo struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CSC         string `json:"csc"`
	Owner       string `json:"owner"`
}

// Validate checks the card data is complete enough to send to a gateway
func (c *CardInfo) Validate() error {
	number := c.CleanNumber()
	if number == "" {
		return pkgerrors.NewValidationError("number", "card number is required")
	}
	if len(number) < 12 || len(number) > 19 || !isDigits(number) {
		return pkgerrors.NewValidationError("number", "card number must be 12 to 19 digits")
	}
	if len(c.ExpiryMonth) == 0 || len(c.ExpiryMonth) > 2 || !isDigits(c.ExpiryMonth) {
		return pkgerrors.NewValidationError("expiry_month", "expiry month is required")
	}
	if len(c.ExpiryYear) != 4 || !isDigits(c.ExpiryYear) {
		return pkgerrors.NewValidationError("expiry_year", "expiry year must have four digits")
	}
	if c.CSC != "" && (len(c.CSC) < 3 || len(c.CSC) > 4 || !isDigits(c.CSC)) {
		return pkgerrors.NewValidationError("csc", "security code must be 3 or 4 digits")
	}
	return nil
}

// CleanNumber strips spaces and dashes from the card number
func (c *CardInfo) CleanNumber() string {
	return strings.NewReplacer(" ", "", "-", "").Replace(c.Number)
}

// LastFour returns the last four digits of the card number
func (c *CardInfo) LastFour() string {
	number := c.CleanNumber()
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}

// ExpirationDate formats the expiry as YYYY-MM
func (c *CardInfo) ExpirationDate() string {
	month := c.ExpiryMonth
	if len(month) == 1 {
		month = "0" + month
	}
	return c.ExpiryYear + "-" + month
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
