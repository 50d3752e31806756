package ports

import (
	"context"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// ProviderOperations is the lifecycle capability set one provider supplies
type ProviderOperations interface {
	Authorize(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error
	Capture(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error
	Settle(ctx context.Context, txn *domain.Transaction, amount *decimal.Decimal) error
	Cancel(ctx context.Context, txn *domain.Transaction) error
	Refund(ctx context.Context, txn *domain.Transaction) error
	Update(ctx context.Context, txn *domain.Transaction) error
	Retry(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error
}

// Poster hands a completed transaction to accounting
type Poster interface {
	Post(ctx context.Context, txn *domain.Transaction) error
}

// CredentialResolver turns a gateway's stored configuration into usable credentials
type CredentialResolver interface {
	Resolve(ctx context.Context, gateway *domain.Gateway) (domain.Credentials, error)
}
