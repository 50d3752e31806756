package domain

import (
	"errors"
	"fmt"
)

// DuplicateRecordCode is the Authorize.net message code for a resource that already exists
const DuplicateRecordCode = "E00039"

// RecordNotFoundCode is the Authorize.net message code for an unknown record
const RecordNotFoundCode = "E00040"

// GatewayError is a failure reported by the remote gateway
type GatewayError struct {
	Code         string // First message code, e.g. E00027
	Text         string
	ResponseCode string // Transaction response code, empty for profile calls
	FullResponse []byte // Raw payload, logged as-is
	ExistingID   string // Id of the existing record, when a duplicate response names it
	Err          error  // Optional classification, e.g. a *errors.PaymentError
}

func (e *GatewayError) Error() string {
	if e.Code == "" {
		return e.Text
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Text)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsDuplicate reports whether the gateway rejected a create call because the record exists
func (e *GatewayError) IsDuplicate() bool {
	return e.Code == DuplicateRecordCode
}

// IsNotFound reports whether the gateway does not know the referenced record
func (e *GatewayError) IsNotFound() bool {
	return e.Code == RecordNotFoundCode
}

// AsGatewayError unwraps err into a GatewayError
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsDuplicateError reports whether err is a duplicate-record gateway error
func IsDuplicateError(err error) bool {
	gwErr, ok := AsGatewayError(err)
	return ok && gwErr.IsDuplicate()
}

// NewGatewayUserError turns a gateway failure into an error shown to the user
func NewGatewayUserError(err error) *DomainError {
	msg := err.Error()
	if gwErr, ok := AsGatewayError(err); ok && gwErr.Text != "" {
		msg = gwErr.Text
	}
	return WrapError(ErrorCodeGatewayUserError, msg, err)
}
