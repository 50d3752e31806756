package domain

import (
	"errors"
	"fmt"

	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Transaction Errors (TXN_*)
	ErrorCodeTxnNotFound          ErrorCode = "TXN_NOT_FOUND"
	ErrorCodeTxnInvalidState      ErrorCode = "TXN_INVALID_STATE"
	ErrorCodeNoCardOrProfile      ErrorCode = "NO_CARD_OR_PROFILE"
	ErrorCodeCancelOnlyAuthorized ErrorCode = "CANCEL_ONLY_AUTHORIZED"
	ErrorCodeSettleOnlyAuthorized ErrorCode = "SETTLE_ONLY_AUTHORIZED"
	ErrorCodeNoProviderReference  ErrorCode = "NO_PROVIDER_REFERENCE"
	ErrorCodeTxnBusy              ErrorCode = "TXN_BUSY"
	ErrorCodeTxnStale             ErrorCode = "TXN_STALE"

	// Resource Errors
	ErrorCodeGatewayNotFound        ErrorCode = "GATEWAY_NOT_FOUND"
	ErrorCodePartyNotFound          ErrorCode = "PARTY_NOT_FOUND"
	ErrorCodeAddressNotFound        ErrorCode = "ADDRESS_NOT_FOUND"
	ErrorCodePaymentProfileNotFound ErrorCode = "PM_NOT_FOUND"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Payment Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayError         ErrorCode = "GATEWAY_ERROR"
	ErrorCodeGatewayUserError     ErrorCode = "GATEWAY_USER_ERROR"
	ErrorCodeProviderNotSupported ErrorCode = "PROVIDER_NOT_SUPPORTED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code so sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	switch GetErrorCode(err) {
	case ErrorCodeTxnNotFound, ErrorCodeGatewayNotFound, ErrorCodePartyNotFound,
		ErrorCodeAddressNotFound, ErrorCodePaymentProfileNotFound:
		return true
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var fieldErr *pkgerrors.ValidationError
	if errors.As(err, &fieldErr) {
		return true
	}
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField
}

// IsPreconditionError checks if an error is a local precondition failure raised before any remote call
func IsPreconditionError(err error) bool {
	switch GetErrorCode(err) {
	case ErrorCodeTxnInvalidState, ErrorCodeNoCardOrProfile, ErrorCodeCancelOnlyAuthorized,
		ErrorCodeSettleOnlyAuthorized, ErrorCodeNoProviderReference, ErrorCodeProviderNotSupported,
		ErrorCodeTxnBusy, ErrorCodeTxnStale:
		return true
	}
	return false
}

// IsUserError checks if an error should be shown to the user as-is
func IsUserError(err error) bool {
	return IsPreconditionError(err) || IsDomainError(err, ErrorCodeGatewayUserError)
}

var (
	ErrTxnNotFound            = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrNoCardOrProfile        = NewDomainError(ErrorCodeNoCardOrProfile, "no card or payment profile available")
	ErrCancelOnlyAuthorized   = NewDomainError(ErrorCodeCancelOnlyAuthorized, "only authorized transactions can be cancelled")
	ErrSettleOnlyAuthorized   = NewDomainError(ErrorCodeSettleOnlyAuthorized, "only authorized transactions can be settled")
	ErrNoProviderReference    = NewDomainError(ErrorCodeNoProviderReference, "transaction has no provider reference")
	ErrGatewayNotFound        = NewDomainError(ErrorCodeGatewayNotFound, "gateway not found")
	ErrPartyNotFound          = NewDomainError(ErrorCodePartyNotFound, "party not found")
	ErrAddressNotFound        = NewDomainError(ErrorCodeAddressNotFound, "address not found")
	ErrPaymentProfileNotFound = NewDomainError(ErrorCodePaymentProfileNotFound, "payment profile not found")
	ErrProviderNotSupported   = NewDomainError(ErrorCodeProviderNotSupported, "operation not supported by provider")
	ErrTxnBusy                = NewDomainError(ErrorCodeTxnBusy, "transaction is being processed by another request")
	ErrTxnStale               = NewDomainError(ErrorCodeTxnStale, "transaction changed since it was loaded")
)
