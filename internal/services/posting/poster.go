package posting

import (
	"context"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
)

// Poster marks completed transactions as handed over to accounting.
// Journal entries belong to the host system; this only records the hand-off.
type Poster struct {
	transactions ports.TransactionRepository
	logger       ports.Logger
	now          timeutil.Clock
}

var _ ports.Poster = (*Poster)(nil)

// NewPoster creates a poster writing through transactions
func NewPoster(transactions ports.TransactionRepository, logger ports.Logger) *Poster {
	return &Poster{
		transactions: transactions,
		logger:       logger,
		now:          timeutil.Now,
	}
}

// WithClock replaces the poster's clock
func (p *Poster) WithClock(clock timeutil.Clock) *Poster {
	p.now = clock
	return p
}

// Post moves a completed transaction to posted
func (p *Poster) Post(ctx context.Context, txn *domain.Transaction) error {
	if err := txn.CanTransitionTo(domain.StatePosted); err != nil {
		return err
	}

	previous := txn.UpdatedAt
	txn.State = domain.StatePosted
	txn.UpdatedAt = p.now()

	if err := p.transactions.UpdateTransaction(ctx, txn, domain.StateCompleted); err != nil {
		txn.State = domain.StateCompleted
		txn.UpdatedAt = previous
		return err
	}

	p.logger.Info("Transaction posted",
		ports.String("transaction_id", txn.ID),
		ports.Amount("amount", txn.Amount),
		ports.String("currency", txn.Currency),
	)
	return nil
}
