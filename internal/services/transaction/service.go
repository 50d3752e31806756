package transaction

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
)

const defaultCurrency = "USD"

// CreateTransactionRequest describes a new draft charge
type CreateTransactionRequest struct {
	Amount            decimal.Decimal
	ShippingAddressID *string
	PaymentProfileID  *string
	SaleReference     *string
	PartyID           string
	AddressID         string
	GatewayID         string
	Currency          string
	Description       string
}

// BatchResult is the outcome of one transaction in a batch
type BatchResult struct {
	Transaction   *domain.Transaction
	Err           error
	TransactionID string
}

// Service owns transaction creation and dispatches lifecycle operations to
// the provider registered for the transaction's gateway
type Service struct {
	store     ports.Store
	providers map[domain.Provider]ports.ProviderOperations
	logger    ports.Logger
	now       timeutil.Clock
}

// NewService creates a transaction service with no providers registered
func NewService(store ports.Store, logger ports.Logger) *Service {
	return &Service{
		store:     store,
		providers: make(map[domain.Provider]ports.ProviderOperations),
		logger:    logger,
		now:       timeutil.Now,
	}
}

// WithClock replaces the service's clock
func (s *Service) WithClock(clock timeutil.Clock) *Service {
	s.now = clock
	return s
}

// Register installs the operations for provider, replacing any previous set
func (s *Service) Register(provider domain.Provider, ops ports.ProviderOperations) {
	s.providers[provider] = ops
}

// Create validates the references and stores a draft charge
func (s *Service) Create(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error) {
	if req.Amount.IsNegative() {
		return nil, pkgerrors.NewValidationError("amount", "amount must not be negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return nil, pkgerrors.NewValidationError("currency", "currency must be a three letter code")
	}

	party, err := s.store.GetParty(ctx, req.PartyID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAddress(ctx, req.AddressID, party.ID); err != nil {
		return nil, err
	}
	if req.ShippingAddressID != nil && *req.ShippingAddressID != "" {
		if err := s.checkAddress(ctx, *req.ShippingAddressID, party.ID); err != nil {
			return nil, err
		}
	}
	gateway, err := s.store.GetGateway(ctx, req.GatewayID)
	if err != nil {
		return nil, err
	}
	if req.PaymentProfileID != nil && *req.PaymentProfileID != "" {
		profile, err := s.store.GetPaymentProfile(ctx, *req.PaymentProfileID)
		if err != nil {
			return nil, err
		}
		if profile.PartyID != party.ID || profile.GatewayID != gateway.ID {
			return nil, pkgerrors.NewValidationError("payment_profile_id", "payment profile belongs to another party or gateway")
		}
		if !profile.Active {
			return nil, pkgerrors.NewValidationError("payment_profile_id", "payment profile is inactive")
		}
	}

	now := s.now()
	txn := &domain.Transaction{
		ID:                uuid.NewString(),
		Type:              domain.TransactionTypeCharge,
		State:             domain.StateDraft,
		Amount:            req.Amount,
		Currency:          currency,
		PartyID:           party.ID,
		AddressID:         req.AddressID,
		GatewayID:         gateway.ID,
		ShippingAddressID: req.ShippingAddressID,
		PaymentProfileID:  req.PaymentProfileID,
		SaleReference:     req.SaleReference,
		Description:       req.Description,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		s.logger.Error("Failed to create transaction",
			ports.String("party_id", party.ID),
			ports.String("gateway_id", gateway.ID),
			ports.Err(err),
		)
		return nil, err
	}

	s.logger.Info("Transaction created",
		ports.String("transaction_id", txn.ID),
		ports.Amount("amount", txn.Amount),
		ports.String("currency", txn.Currency),
	)
	return txn, nil
}

func (s *Service) checkAddress(ctx context.Context, addressID, partyID string) error {
	addr, err := s.store.GetAddress(ctx, addressID)
	if err != nil {
		return err
	}
	if addr.PartyID != partyID {
		return pkgerrors.NewValidationError("address_id", "address does not belong to party")
	}
	return nil
}

// Get returns a transaction by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Logs returns the raw gateway responses recorded for a transaction, oldest first
func (s *Service) Logs(ctx context.Context, id string) ([]*domain.TransactionLog, error) {
	if _, err := s.store.GetTransaction(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListLogs(ctx, id)
}

// Authorize places a hold using card, or the linked payment profile when card is nil
func (s *Service) Authorize(ctx context.Context, id string, card *domain.CardInfo) (*domain.Transaction, error) {
	return s.dispatch(ctx, "authorize", id, func(ops ports.ProviderOperations, txn *domain.Transaction) error {
		return ops.Authorize(ctx, txn, card)
	})
}

// Capture charges immediately using card, or the linked payment profile when card is nil
func (s *Service) Capture(ctx context.Context, id string, card *domain.CardInfo) (*domain.Transaction, error) {
	return s.dispatch(ctx, "capture", id, func(ops ports.ProviderOperations, txn *domain.Transaction) error {
		return ops.Capture(ctx, txn, card)
	})
}

// Settle captures an authorization. A nil amount settles the full transaction amount.
func (s *Service) Settle(ctx context.Context, id string, amount *decimal.Decimal) (*domain.Transaction, error) {
	if amount != nil && !amount.IsPositive() {
		return nil, pkgerrors.NewValidationError("amount", "settle amount must be positive")
	}
	return s.dispatch(ctx, "settle", id, func(ops ports.ProviderOperations, txn *domain.Transaction) error {
		return ops.Settle(ctx, txn, amount)
	})
}

// Cancel voids an authorization
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.dispatch(ctx, "cancel", id, func(ops ports.ProviderOperations, txn *domain.Transaction) error {
		return ops.Cancel(ctx, txn)
	})
}

// Update reconciles the transaction with the gateway
func (s *Service) Update(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.dispatch(ctx, "update", id, func(ops ports.ProviderOperations, txn *domain.Transaction) error {
		return ops.Update(ctx, txn)
	})
}

// Retry re-runs a failed transaction where the provider supports it
func (s *Service) Retry(ctx context.Context, id string, card *domain.CardInfo) (*domain.Transaction, error) {
	return s.dispatch(ctx, "retry", id, func(ops ports.ProviderOperations, txn *domain.Transaction) error {
		return ops.Retry(ctx, txn, card)
	})
}

// Refund creates a refund linked to originID and processes it. A nil amount
// refunds the full origin amount.
func (s *Service) Refund(ctx context.Context, originID string, amount *decimal.Decimal) (*domain.Transaction, error) {
	origin, err := s.store.GetTransaction(ctx, originID)
	if err != nil {
		return nil, err
	}
	if origin.IsRefund() {
		return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "refunds cannot be refunded")
	}
	if origin.State != domain.StateCompleted && origin.State != domain.StatePosted {
		return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "only completed transactions can be refunded")
	}

	refundAmount := origin.Amount
	if amount != nil {
		if !amount.IsPositive() {
			return nil, pkgerrors.NewValidationError("amount", "refund amount must be positive")
		}
		refundAmount = *amount
	}

	gateway, ops, err := s.providerFor(ctx, origin.GatewayID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	refund := &domain.Transaction{
		ID:               uuid.NewString(),
		Type:             domain.TransactionTypeRefund,
		State:            domain.StateDraft,
		Amount:           refundAmount,
		Currency:         origin.Currency,
		PartyID:          origin.PartyID,
		AddressID:        origin.AddressID,
		GatewayID:        gateway.ID,
		PaymentProfileID: origin.PaymentProfileID,
		OriginID:         &origin.ID,
		SaleReference:    origin.SaleReference,
		LastFourDigits:   origin.LastFourDigits,
		Description:      "Refund of " + origin.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateTransaction(ctx, refund); err != nil {
		return nil, err
	}

	if err := ops.Refund(ctx, refund); err != nil {
		s.logOperationError("refund", refund.ID, err)
		return refund, err
	}
	return refund, nil
}

// AuthorizeBatch authorizes each transaction against its payment profile
func (s *Service) AuthorizeBatch(ctx context.Context, ids []string) []BatchResult {
	return s.batch(ctx, ids, func(id string) (*domain.Transaction, error) {
		return s.Authorize(ctx, id, nil)
	})
}

// CaptureBatch captures each transaction against its payment profile
func (s *Service) CaptureBatch(ctx context.Context, ids []string) []BatchResult {
	return s.batch(ctx, ids, func(id string) (*domain.Transaction, error) {
		return s.Capture(ctx, id, nil)
	})
}

func (s *Service) batch(ctx context.Context, ids []string, run func(id string) (*domain.Transaction, error)) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, BatchResult{TransactionID: id, Err: err})
			continue
		}
		txn, err := run(id)
		results = append(results, BatchResult{TransactionID: id, Transaction: txn, Err: err})
	}
	return results
}

func (s *Service) dispatch(ctx context.Context, name, id string, op func(ports.ProviderOperations, *domain.Transaction) error) (*domain.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	_, ops, err := s.providerFor(ctx, txn.GatewayID)
	if err != nil {
		return nil, err
	}
	if err := op(ops, txn); err != nil {
		s.logOperationError(name, txn.ID, err)
		return txn, err
	}
	return txn, nil
}

func (s *Service) providerFor(ctx context.Context, gatewayID string) (*domain.Gateway, ports.ProviderOperations, error) {
	gateway, err := s.store.GetGateway(ctx, gatewayID)
	if err != nil {
		return nil, nil, err
	}
	ops, ok := s.providers[gateway.Provider]
	if !ok {
		return nil, nil, domain.ErrProviderNotSupported
	}
	return gateway, ops, nil
}

// logOperationError skips validation and precondition failures; those are the caller's to report
func (s *Service) logOperationError(op, id string, err error) {
	if domain.IsValidationError(err) || domain.IsUserError(err) {
		return
	}
	s.logger.Error("Transaction operation failed",
		ports.String("operation", op),
		ports.String("transaction_id", id),
		ports.Err(err),
	)
}

// safePost posts txn, logging instead of failing: the payment itself already succeeded
func safePost(ctx context.Context, poster ports.Poster, logger ports.Logger, txn *domain.Transaction) {
	if poster == nil {
		return
	}
	if err := poster.Post(ctx, txn); err != nil {
		logger.Error("Failed to post transaction",
			ports.String("transaction_id", txn.ID),
			ports.Err(err),
		)
	}
}
