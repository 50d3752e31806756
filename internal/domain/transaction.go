package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionState represents where a transaction is in its lifecycle
type TransactionState string

const (
	StateDraft      TransactionState = "draft"
	StateInProgress TransactionState = "in-progress" // Held for review by the gateway
	StateAuthorized TransactionState = "authorized"
	StateCompleted  TransactionState = "completed"
	StatePosted     TransactionState = "posted" // Completed and handed to accounting
	StateFailed     TransactionState = "failed"
	StateCancel     TransactionState = "cancel"
)

// TransactionType distinguishes charges from refunds
type TransactionType string

const (
	TransactionTypeCharge TransactionType = "charge"
	TransactionTypeRefund TransactionType = "refund"
)

// Transaction represents a payment gateway transaction
type Transaction struct {
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	ShippingAddressID *string          `json:"shipping_address_id,omitempty"`
	PaymentProfileID  *string          `json:"payment_profile_id,omitempty"`
	OriginID          *string          `json:"origin_id,omitempty"`
	SaleReference     *string          `json:"sale_reference,omitempty"`
	Amount            decimal.Decimal  `json:"amount"`
	ID                string           `json:"id"`
	Type              TransactionType  `json:"type"`
	State             TransactionState `json:"state"`
	Currency          string           `json:"currency"`
	PartyID           string           `json:"party_id"`
	AddressID         string           `json:"address_id"`
	GatewayID         string           `json:"gateway_id"`
	ProviderReference string           `json:"provider_reference,omitempty"`
	LastFourDigits    string           `json:"last_four_digits,omitempty"`
	Description       string           `json:"description,omitempty"`
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
//
// Valid transitions are:
//   - draft → authorized, in-progress, completed, failed
//   - authorized → completed, in-progress, failed, cancel
//   - in-progress → authorized, completed, failed
//   - completed → posted
//
// posted, cancel and failed are terminal.
func (t *Transaction) CanTransitionTo(target TransactionState) error {
	switch t.State {
	case StateDraft:
		switch target {
		case StateAuthorized, StateInProgress, StateCompleted, StateFailed:
			return nil
		}
	case StateAuthorized:
		switch target {
		case StateCompleted, StateInProgress, StateFailed, StateCancel:
			return nil
		}
	case StateInProgress:
		switch target {
		case StateAuthorized, StateCompleted, StateFailed:
			return nil
		}
	case StateCompleted:
		if target == StatePosted {
			return nil
		}
	}
	return NewDomainError(ErrorCodeTxnInvalidState,
		fmt.Sprintf("cannot move transaction from %s to %s", t.State, target))
}

// IsTerminal returns true if no further transition is possible
func (t *Transaction) IsTerminal() bool {
	switch t.State {
	case StatePosted, StateCancel, StateFailed:
		return true
	default:
		return false
	}
}

// IsRefund returns true for refund transactions
func (t *Transaction) IsRefund() bool {
	return t.Type == TransactionTypeRefund
}

// ShippingOrBillingAddressID returns the shipping address when set, else the billing address
func (t *Transaction) ShippingOrBillingAddressID() string {
	if t.ShippingAddressID != nil && *t.ShippingAddressID != "" {
		return *t.ShippingAddressID
	}
	return t.AddressID
}

// TransactionLog is an append-only record of one raw gateway response
type TransactionLog struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Log           string    `json:"log"`
}
