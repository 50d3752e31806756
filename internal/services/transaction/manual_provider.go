package transaction

import (
	"context"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// ManualProvider records offline payments (cash, cheque). Nothing is sent
// anywhere, so no transaction logs are written.
type ManualProvider struct {
	store  ports.Store
	poster ports.Poster
	logger ports.Logger
	now    timeutil.Clock
}

var _ ports.ProviderOperations = (*ManualProvider)(nil)

// NewManualProvider creates the manual provider
func NewManualProvider(store ports.Store, poster ports.Poster, logger ports.Logger) *ManualProvider {
	return &ManualProvider{
		store:  store,
		poster: poster,
		logger: logger,
		now:    timeutil.Now,
	}
}

// WithClock replaces the provider's clock
func (m *ManualProvider) WithClock(clock timeutil.Clock) *ManualProvider {
	m.now = clock
	return m
}

func (m *ManualProvider) Authorize(ctx context.Context, txn *domain.Transaction, _ *domain.CardInfo) error {
	if txn.State != domain.StateDraft {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "only draft transactions can be authorized")
	}
	return m.move(ctx, "authorize", txn, domain.StateAuthorized)
}

func (m *ManualProvider) Capture(ctx context.Context, txn *domain.Transaction, _ *domain.CardInfo) error {
	if txn.State != domain.StateDraft {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "only draft transactions can be captured")
	}
	return m.move(ctx, "capture", txn, domain.StateCompleted)
}

func (m *ManualProvider) Settle(ctx context.Context, txn *domain.Transaction, amount *decimal.Decimal) error {
	if txn.State != domain.StateAuthorized {
		return domain.ErrSettleOnlyAuthorized
	}
	authorized := txn.Amount
	if amount != nil {
		txn.Amount = *amount
	}
	if err := m.move(ctx, "settle", txn, domain.StateCompleted); err != nil {
		txn.Amount = authorized
		return err
	}
	return nil
}

func (m *ManualProvider) Cancel(ctx context.Context, txn *domain.Transaction) error {
	if txn.State != domain.StateAuthorized {
		return domain.ErrCancelOnlyAuthorized
	}
	return m.move(ctx, "cancel", txn, domain.StateCancel)
}

func (m *ManualProvider) Refund(ctx context.Context, txn *domain.Transaction) error {
	if !txn.IsRefund() || txn.State != domain.StateDraft {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "only draft refunds can be processed")
	}
	return m.move(ctx, "refund", txn, domain.StateCompleted)
}

// Update has nothing to reconcile against
func (m *ManualProvider) Update(ctx context.Context, txn *domain.Transaction) error {
	return nil
}

func (m *ManualProvider) Retry(ctx context.Context, txn *domain.Transaction, _ *domain.CardInfo) error {
	return domain.ErrProviderNotSupported
}

func (m *ManualProvider) move(ctx context.Context, op string, txn *domain.Transaction, target domain.TransactionState) error {
	if err := txn.CanTransitionTo(target); err != nil {
		return err
	}
	from, previous := txn.State, txn.UpdatedAt
	txn.State = target
	txn.UpdatedAt = m.now()

	if err := m.store.UpdateTransaction(ctx, txn, from); err != nil {
		txn.State, txn.UpdatedAt = from, previous
		return err
	}

	observability.RecordTransactionOperation(string(domain.ProviderManual), op, string(txn.State))
	m.logger.Info("Manual "+op+" recorded",
		ports.String("transaction_id", txn.ID),
		ports.String("state", string(txn.State)),
	)

	if txn.State == domain.StateCompleted {
		observability.RecordCompletedAmount(string(domain.ProviderManual), txn.Currency, txn.Amount)
		safePost(ctx, m.poster, m.logger, txn)
	}
	return nil
}
