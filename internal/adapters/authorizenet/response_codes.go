package authorizenet

import (
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
)

// ResponseCodeInfo describes a transaction response code
type ResponseCodeInfo struct {
	Code        string
	Display     string
	Category    pkgerrors.ErrorCategory
	UserMessage string
	IsApproved  bool
	IsHeld      bool
}

var transactionResponseCodes = map[string]ResponseCodeInfo{
	"1": {
		Code:        "1",
		Display:     "APPROVED",
		IsApproved:  true,
		Category:    pkgerrors.CategoryApproved,
		UserMessage: "Payment successful",
	},
	"2": {
		Code:        "2",
		Display:     "DECLINED",
		Category:    pkgerrors.CategoryDeclined,
		UserMessage: "Transaction declined. Please use a different payment method.",
	},
	"3": {
		Code:        "3",
		Display:     "ERROR",
		Category:    pkgerrors.CategoryGatewayError,
		UserMessage: "The payment gateway could not process this transaction.",
	},
	"4": {
		Code:        "4",
		Display:     "HELD FOR REVIEW",
		IsHeld:      true,
		Category:    pkgerrors.CategoryHeldForReview,
		UserMessage: "Transaction is held for review by the merchant.",
	},
}

// GetResponseCodeInfo returns the description of a transaction response code.
// Unknown codes are treated as gateway errors.
func GetResponseCodeInfo(code string) ResponseCodeInfo {
	if info, ok := transactionResponseCodes[code]; ok {
		return info
	}
	return ResponseCodeInfo{
		Code:        code,
		Display:     "UNKNOWN",
		Category:    pkgerrors.CategoryGatewayError,
		UserMessage: "The payment gateway returned an unexpected response.",
	}
}

// ToPaymentError converts a non-approved response code into a PaymentError
func (r ResponseCodeInfo) ToPaymentError(reasonCode, reasonText string) *pkgerrors.PaymentError {
	err := pkgerrors.NewPaymentError(r.Code, r.UserMessage, r.Category)
	err.ReasonCode = reasonCode
	err.ReasonText = reasonText
	return err
}

// Message codes returned in messages.message[].code that callers act on
const (
	MessageCodeSuccess             = "I00001"
	MessageCodeAuthenticationError = "E00007"
	MessageCodeTransactionFailed   = "E00027"
	MessageCodeDuplicateRecord     = domain.DuplicateRecordCode
	MessageCodeRecordNotFound      = domain.RecordNotFoundCode
)

// resultLabel maps a message code to the metrics result label
func resultLabel(code string) string {
	switch code {
	case "", MessageCodeSuccess:
		return "ok"
	case MessageCodeDuplicateRecord:
		return "duplicate"
	case MessageCodeAuthenticationError:
		return "auth_error"
	default:
		return "error"
	}
}
