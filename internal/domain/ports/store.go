package ports

import (
	"context"
	"time"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// GatewayRepository persists gateway configuration
type GatewayRepository interface {
	CreateGateway(ctx context.Context, gateway *domain.Gateway) error
	GetGateway(ctx context.Context, id string) (*domain.Gateway, error)
}

// PartyRepository persists parties
type PartyRepository interface {
	CreateParty(ctx context.Context, party *domain.Party) error
	GetParty(ctx context.Context, id string) (*domain.Party, error)
}

// AddressRepository persists party addresses
type AddressRepository interface {
	CreateAddress(ctx context.Context, address *domain.Address) error
	GetAddress(ctx context.Context, id string) (*domain.Address, error)
	ListAddressesByParty(ctx context.Context, partyID string) ([]*domain.Address, error)

	// SetAddressAuthorizeID caches the remote address id on the address
	SetAddressAuthorizeID(ctx context.Context, id, authorizeID string) error
}

// PaymentProfileFilter narrows a payment profile listing. Empty fields are ignored.
type PaymentProfileFilter struct {
	PartyID            string
	GatewayID          string
	AuthorizeProfileID string
	ActiveOnly         bool
}

// PaymentProfileRepository persists tokenized card references
type PaymentProfileRepository interface {
	CreatePaymentProfile(ctx context.Context, profile *domain.PaymentProfile) error
	GetPaymentProfile(ctx context.Context, id string) (*domain.PaymentProfile, error)
	UpdatePaymentProfile(ctx context.Context, profile *domain.PaymentProfile) error

	// ListPaymentProfiles returns matching profiles ordered by creation time
	ListPaymentProfiles(ctx context.Context, filter PaymentProfileFilter) ([]*domain.PaymentProfile, error)
}

// TransactionClaim marks a transaction as held by one request while it talks to the gateway
type TransactionClaim struct {
	TransactionID string
	State         domain.TransactionState
	Token         string
	ClaimedAt     time.Time

	// A claim taken before StaleBefore was abandoned and can be taken over
	StaleBefore time.Time
}

// TransactionRepository persists transactions
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn *domain.Transaction) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)

	// UpdateTransaction writes the mutable fields: state, provider reference,
	// last four digits, amount, payment profile and updated_at. The row must
	// still be in state from, otherwise ErrTxnStale is returned. Any claim is released.
	UpdateTransaction(ctx context.Context, txn *domain.Transaction, from domain.TransactionState) error

	// ClaimTransaction takes the claim when the row is in claim.State and
	// unclaimed, otherwise ErrTxnBusy is returned
	ClaimTransaction(ctx context.Context, claim *TransactionClaim) error

	// ReleaseTransaction drops the claim if token still holds it
	ReleaseTransaction(ctx context.Context, id, token string) error
}

// TransactionLogRepository is append-only. There is deliberately no update or delete.
type TransactionLogRepository interface {
	AppendLog(ctx context.Context, log *domain.TransactionLog) error
	ListLogs(ctx context.Context, transactionID string) ([]*domain.TransactionLog, error)
}

// Store groups the repositories behind one storage backend
type Store interface {
	GatewayRepository
	PartyRepository
	AddressRepository
	PaymentProfileRepository
	TransactionRepository
	TransactionLogRepository

	// WithTx runs fn against a store bound to a single database transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close()
}
