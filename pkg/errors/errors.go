package errors

import (
	"fmt"
)

// ErrorCategory groups Authorize.net transaction response codes
type ErrorCategory string

const (
	CategoryApproved      ErrorCategory = "approved"
	CategoryDeclined      ErrorCategory = "declined"
	CategoryHeldForReview ErrorCategory = "held_for_review"
	CategoryGatewayError  ErrorCategory = "gateway_error"
)

// PaymentError classifies a non-approved transaction response.
// Code is the transaction response code ("2", "3", ...); ReasonCode and
// ReasonText come from transactionResponse.errors[0].
type PaymentError struct {
	Code       string
	Message    string
	ReasonCode string
	ReasonText string
	Category   ErrorCategory
}

func (e *PaymentError) Error() string {
	if e.ReasonText != "" {
		return fmt.Sprintf("%s: %s (reason %s: %s)", e.Code, e.Message, e.ReasonCode, e.ReasonText)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, category ErrorCategory) *PaymentError {
	return &PaymentError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// ValidationError reports bad input on one field. It is raised before any
// remote call and never produces a transaction log.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
