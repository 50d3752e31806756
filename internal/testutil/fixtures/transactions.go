package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionBuilder provides fluent API for building test transactions.
type TransactionBuilder struct {
	transaction *domain.Transaction
}

// NewTransaction creates a draft USD charge builder for the given party, address and gateway.
func NewTransaction(partyID, addressID, gatewayID string) *TransactionBuilder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &TransactionBuilder{
		transaction: &domain.Transaction{
			ID:        uuid.NewString(),
			Type:      domain.TransactionTypeCharge,
			State:     domain.StateDraft,
			Amount:    decimal.RequireFromString("100.00"),
			Currency:  "USD",
			PartyID:   partyID,
			AddressID: addressID,
			GatewayID: gatewayID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.transaction.ID = id
	return b
}

func (b *TransactionBuilder) WithAmount(amount string) *TransactionBuilder {
	b.transaction.Amount = decimal.RequireFromString(amount)
	return b
}

func (b *TransactionBuilder) WithState(state domain.TransactionState) *TransactionBuilder {
	b.transaction.State = state
	return b
}

func (b *TransactionBuilder) WithProviderReference(ref string) *TransactionBuilder {
	b.transaction.ProviderReference = ref
	return b
}

func (b *TransactionBuilder) WithPaymentProfile(id string) *TransactionBuilder {
	b.transaction.PaymentProfileID = &id
	return b
}

func (b *TransactionBuilder) WithShippingAddress(id string) *TransactionBuilder {
	b.transaction.ShippingAddressID = &id
	return b
}

func (b *TransactionBuilder) WithLastFour(digits string) *TransactionBuilder {
	b.transaction.LastFourDigits = digits
	return b
}

// AsRefundOf makes the transaction a refund of origin.
func (b *TransactionBuilder) AsRefundOf(origin *domain.Transaction) *TransactionBuilder {
	b.transaction.Type = domain.TransactionTypeRefund
	b.transaction.OriginID = &origin.ID
	b.transaction.PaymentProfileID = origin.PaymentProfileID
	return b
}

// Build returns the constructed transaction.
func (b *TransactionBuilder) Build() *domain.Transaction {
	return b.transaction
}
