package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/services/address"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
)

const (
	maxInvoiceNumber    = 20
	maxOrderDescription = 255

	// refundExpiration masks the expiry on refunds by last four digits
	refundExpiration = "XXXX"

	// claimTTL is how long a claim survives a request that died mid-call
	claimTTL = 10 * time.Minute
)

// AddressSynchronizer resolves a local address to its remote id under a customer profile
type AddressSynchronizer interface {
	Sync(ctx context.Context, client adapterports.AuthorizeNetClient, address *domain.Address, party *domain.Party, customerID string) (string, error)
}

// AuthorizeNetProvider drives transactions through Authorize.net
type AuthorizeNetProvider struct {
	store       ports.Store
	clients     adapterports.ClientFactory
	credentials ports.CredentialResolver
	addresses   AddressSynchronizer
	poster      ports.Poster
	logger      ports.Logger
	now         timeutil.Clock
}

var _ ports.ProviderOperations = (*AuthorizeNetProvider)(nil)

// NewAuthorizeNetProvider creates the Authorize.net provider
func NewAuthorizeNetProvider(
	store ports.Store,
	clients adapterports.ClientFactory,
	credentials ports.CredentialResolver,
	addresses AddressSynchronizer,
	poster ports.Poster,
	logger ports.Logger,
) *AuthorizeNetProvider {
	return &AuthorizeNetProvider{
		store:       store,
		clients:     clients,
		credentials: credentials,
		addresses:   addresses,
		poster:      poster,
		logger:      logger,
		now:         timeutil.Now,
	}
}

// WithClock replaces the provider's clock
func (p *AuthorizeNetProvider) WithClock(clock timeutil.Clock) *AuthorizeNetProvider {
	p.now = clock
	return p
}

// outcome is what one remote call did to a transaction
type outcome struct {
	state       domain.TransactionState
	providerRef string
	log         []byte
}

// Authorize implements ports.ProviderOperations
func (p *AuthorizeNetProvider) Authorize(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error {
	return p.AuthorizeAuthorizeNet(ctx, txn, card)
}

// Capture implements ports.ProviderOperations
func (p *AuthorizeNetProvider) Capture(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error {
	return p.CaptureAuthorizeNet(ctx, txn, card)
}

// Settle implements ports.ProviderOperations
func (p *AuthorizeNetProvider) Settle(ctx context.Context, txn *domain.Transaction, amount *decimal.Decimal) error {
	return p.SettleAuthorizeNet(ctx, txn, amount)
}

// Cancel implements ports.ProviderOperations
func (p *AuthorizeNetProvider) Cancel(ctx context.Context, txn *domain.Transaction) error {
	return p.CancelAuthorizeNet(ctx, txn)
}

// Refund implements ports.ProviderOperations
func (p *AuthorizeNetProvider) Refund(ctx context.Context, txn *domain.Transaction) error {
	return p.RefundAuthorizeNet(ctx, txn)
}

// Update implements ports.ProviderOperations
func (p *AuthorizeNetProvider) Update(ctx context.Context, txn *domain.Transaction) error {
	return p.UpdateAuthorizeNet(ctx, txn)
}

// Retry is not offered by Authorize.net
func (p *AuthorizeNetProvider) Retry(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error {
	return domain.ErrProviderNotSupported
}

// AuthorizeAuthorizeNet places an auth-only hold. 1 → authorized, 4 → in-progress, else failed.
func (p *AuthorizeNetProvider) AuthorizeAuthorizeNet(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error {
	return p.charge(ctx, "authorize", txn, card, domain.StateAuthorized)
}

// CaptureAuthorizeNet runs an auth+capture sale. 1 → completed and posted, 4 → in-progress, else failed.
func (p *AuthorizeNetProvider) CaptureAuthorizeNet(ctx context.Context, txn *domain.Transaction, card *domain.CardInfo) error {
	return p.charge(ctx, "capture", txn, card, domain.StateCompleted)
}

func (p *AuthorizeNetProvider) charge(ctx context.Context, op string, txn *domain.Transaction, card *domain.CardInfo, approved domain.TransactionState) error {
	if txn.State != domain.StateDraft {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "only draft transactions can be "+op+"d")
	}
	if card != nil {
		if err := card.Validate(); err != nil {
			return err
		}
	} else if txn.PaymentProfileID == nil || *txn.PaymentProfileID == "" {
		return domain.ErrNoCardOrProfile
	}

	return p.held(ctx, op, txn, func() error {
		gateway, client, err := p.clientFor(ctx, txn.GatewayID)
		if err != nil {
			return err
		}

		req, lastFour, err := p.chargeRequest(ctx, client, txn, card)
		if err != nil {
			return err
		}

		var resp *adapterports.TransactionResponse
		if approved == domain.StateAuthorized {
			resp, err = client.AuthOnly(ctx, req)
		} else {
			resp, err = client.AuthCapture(ctx, req)
		}

		out := fromResponse(resp, err, map[string]domain.TransactionState{
			adapterports.ResponseCodeApproved: approved,
			adapterports.ResponseCodeHeld:     domain.StateInProgress,
		}, domain.StateFailed)
		txn.LastFourDigits = lastFour

		return p.apply(ctx, gateway, op, txn, out)
	})
}

// chargeRequest builds the auth or sale payload from raw card data or the linked payment profile
func (p *AuthorizeNetProvider) chargeRequest(ctx context.Context, client adapterports.AuthorizeNetClient, txn *domain.Transaction, card *domain.CardInfo) (*adapterports.TransactionRequest, string, error) {
	party, err := p.store.GetParty(ctx, txn.PartyID)
	if err != nil {
		return nil, "", err
	}

	req := &adapterports.TransactionRequest{
		Amount:       txn.Amount,
		CurrencyCode: txn.Currency,
		Order:        order(txn),
	}

	if card != nil {
		billing, err := p.store.GetAddress(ctx, txn.AddressID)
		if err != nil {
			return nil, "", err
		}
		billTo := address.ToRemote(billing, party, card.Owner)
		req.BillTo = &billTo
		req.Card = &adapterports.CardData{
			CardNumber:     card.CleanNumber(),
			ExpirationDate: card.ExpirationDate(),
			CardCode:       card.CSC,
		}
		if txn.ShippingAddressID != nil && *txn.ShippingAddressID != "" {
			shipping, err := p.store.GetAddress(ctx, *txn.ShippingAddressID)
			if err != nil {
				return nil, "", err
			}
			shipTo := address.ToRemote(shipping, party, "")
			req.ShipTo = &shipTo
		}
		return req, card.LastFour(), nil
	}

	profile, err := p.store.GetPaymentProfile(ctx, *txn.PaymentProfileID)
	if err != nil {
		return nil, "", err
	}
	if profile.AuthorizeProfileID == "" || profile.ProviderReference == "" {
		return nil, "", domain.ErrNoCardOrProfile
	}

	shipping, err := p.store.GetAddress(ctx, txn.ShippingOrBillingAddressID())
	if err != nil {
		return nil, "", err
	}
	shippingID, err := p.addresses.Sync(ctx, client, shipping, party, profile.AuthorizeProfileID)
	if err != nil {
		return nil, "", err
	}

	req.Profile = &adapterports.ProfileReference{
		CustomerProfileID: profile.AuthorizeProfileID,
		PaymentProfileID:  profile.ProviderReference,
		ShippingProfileID: shippingID,
	}
	return req, profile.LastFourDigits, nil
}

// SettleAuthorizeNet captures a prior authorization. A non-nil amount replaces
// the transaction amount; the gateway decides whether it fits the authorization.
func (p *AuthorizeNetProvider) SettleAuthorizeNet(ctx context.Context, txn *domain.Transaction, amount *decimal.Decimal) error {
	if txn.State != domain.StateAuthorized {
		return domain.ErrSettleOnlyAuthorized
	}
	if txn.ProviderReference == "" {
		return domain.ErrNoProviderReference
	}

	return p.held(ctx, "settle", txn, func() error {
		gateway, client, err := p.clientFor(ctx, txn.GatewayID)
		if err != nil {
			return err
		}
		if amount != nil {
			txn.Amount = *amount
		}

		resp, err := client.PriorAuthCapture(ctx, &adapterports.TransactionRequest{
			Amount:       txn.Amount,
			CurrencyCode: txn.Currency,
			RefTransID:   txn.ProviderReference,
		})
		out := fromResponse(resp, err, map[string]domain.TransactionState{
			adapterports.ResponseCodeApproved: domain.StateCompleted,
			adapterports.ResponseCodeHeld:     domain.StateInProgress,
		}, domain.StateFailed)

		return p.apply(ctx, gateway, "settle", txn, out)
	})
}

// CancelAuthorizeNet voids an authorization. A rejected void leaves the state unchanged.
func (p *AuthorizeNetProvider) CancelAuthorizeNet(ctx context.Context, txn *domain.Transaction) error {
	if txn.State != domain.StateAuthorized {
		return domain.ErrCancelOnlyAuthorized
	}
	if txn.ProviderReference == "" {
		return domain.ErrNoProviderReference
	}

	return p.held(ctx, "cancel", txn, func() error {
		gateway, client, err := p.clientFor(ctx, txn.GatewayID)
		if err != nil {
			return err
		}

		resp, err := client.Void(ctx, &adapterports.TransactionRequest{
			CurrencyCode: txn.Currency,
			RefTransID:   txn.ProviderReference,
		})
		out := fromResponse(resp, err, map[string]domain.TransactionState{
			adapterports.ResponseCodeApproved: domain.StateCancel,
		}, txn.State)
		// A void returns its own trans id; the authorization stays the reference
		out.providerRef = ""

		return p.apply(ctx, gateway, "cancel", txn, out)
	})
}

// RefundAuthorizeNet refunds the origin transaction of a refund transaction
func (p *AuthorizeNetProvider) RefundAuthorizeNet(ctx context.Context, txn *domain.Transaction) error {
	if !txn.IsRefund() || txn.OriginID == nil {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "transaction is not a refund")
	}
	if txn.State != domain.StateDraft {
		return domain.NewDomainError(domain.ErrorCodeTxnInvalidState, "only draft refunds can be processed")
	}

	origin, err := p.store.GetTransaction(ctx, *txn.OriginID)
	if err != nil {
		return err
	}
	if origin.ProviderReference == "" {
		return domain.ErrNoProviderReference
	}

	req := &adapterports.TransactionRequest{
		Amount:       txn.Amount,
		CurrencyCode: txn.Currency,
		RefTransID:   origin.ProviderReference,
	}
	switch {
	case origin.LastFourDigits != "":
		req.Card = &adapterports.CardData{CardNumber: origin.LastFourDigits, ExpirationDate: refundExpiration}
	case origin.PaymentProfileID != nil:
		profile, err := p.store.GetPaymentProfile(ctx, *origin.PaymentProfileID)
		if err != nil {
			return err
		}
		req.Profile = &adapterports.ProfileReference{
			CustomerProfileID: profile.AuthorizeProfileID,
			PaymentProfileID:  profile.ProviderReference,
		}
	default:
		return domain.ErrNoCardOrProfile
	}

	return p.held(ctx, "refund", txn, func() error {
		gateway, client, err := p.clientFor(ctx, txn.GatewayID)
		if err != nil {
			return err
		}

		resp, err := client.Refund(ctx, req)
		out := fromResponse(resp, err, map[string]domain.TransactionState{
			adapterports.ResponseCodeApproved: domain.StateCompleted,
		}, domain.StateFailed)
		txn.LastFourDigits = origin.LastFourDigits

		return p.apply(ctx, gateway, "refund", txn, out)
	})
}

// UpdateAuthorizeNet reconciles local state with the gateway's transaction details
func (p *AuthorizeNetProvider) UpdateAuthorizeNet(ctx context.Context, txn *domain.Transaction) error {
	if txn.ProviderReference == "" {
		return domain.ErrNoProviderReference
	}

	return p.held(ctx, "update", txn, func() error {
		gateway, client, err := p.clientFor(ctx, txn.GatewayID)
		if err != nil {
			return err
		}

		details, err := client.GetTransactionDetails(ctx, txn.ProviderReference)
		if details == nil {
			// Nothing learned; keep the state and record the attempt
			out := outcome{state: txn.State, log: errorLog(err)}
			if applyErr := p.apply(ctx, gateway, "update", txn, out); applyErr != nil {
				return applyErr
			}
			return domain.WrapError(domain.ErrorCodeGatewayError, "transaction details unavailable", err)
		}

		out := outcome{state: detailsState(txn.State, details), log: details.FullResponse}
		return p.apply(ctx, gateway, "update", txn, out)
	})
}

// detailsState maps a details response onto a local state
func detailsState(current domain.TransactionState, d *adapterports.TransactionDetails) domain.TransactionState {
	switch d.ResponseCode {
	case adapterports.ResponseCodeApproved:
		switch d.TransactionType {
		case adapterports.TransactionTypePriorAuthCapture, adapterports.TransactionTypeAuthCapture:
			return domain.StateCompleted
		case adapterports.TransactionTypeAuthOnly:
			return domain.StateAuthorized
		}
		return current
	case adapterports.ResponseCodeHeld:
		return current
	default:
		return domain.StateFailed
	}
}

// apply persists the outcome and its log entry atomically, then posts completed transactions
func (p *AuthorizeNetProvider) apply(ctx context.Context, gateway *domain.Gateway, op string, txn *domain.Transaction, out outcome) error {
	previous := txn.State
	if out.state != txn.State {
		if err := txn.CanTransitionTo(out.state); err != nil {
			p.logger.Warn("Ignoring gateway state outside the lifecycle",
				ports.String("transaction_id", txn.ID),
				ports.String("operation", op),
				ports.String("from", string(txn.State)),
				ports.String("to", string(out.state)),
			)
		} else {
			txn.State = out.state
		}
	}
	if out.providerRef != "" {
		txn.ProviderReference = out.providerRef
	}
	txn.UpdatedAt = p.now()

	err := p.store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := tx.UpdateTransaction(ctx, txn, previous); err != nil {
			return err
		}
		return tx.AppendLog(ctx, &domain.TransactionLog{
			ID:            uuid.NewString(),
			TransactionID: txn.ID,
			Log:           string(out.log),
			CreatedAt:     txn.UpdatedAt,
		})
	})
	if err != nil {
		p.logger.Error("Failed to persist transaction outcome",
			ports.String("transaction_id", txn.ID),
			ports.String("operation", op),
			ports.Err(err),
		)
		return err
	}

	observability.RecordTransactionOperation(string(gateway.Provider), op, string(txn.State))
	p.logger.Info("Authorize.net "+op+" processed",
		ports.String("transaction_id", txn.ID),
		ports.String("from", string(previous)),
		ports.String("state", string(txn.State)),
		ports.String("provider_reference", txn.ProviderReference),
	)

	if txn.State == domain.StateCompleted && previous != domain.StateCompleted {
		observability.RecordCompletedAmount(string(gateway.Provider), txn.Currency, txn.Amount)
		safePost(ctx, p.poster, p.logger, txn)
	}
	return nil
}

// held runs fn while txn is claimed, so concurrent requests for the same
// transaction get ErrTxnBusy instead of a second remote call. A successful
// apply releases the claim; any error releases it here.
func (p *AuthorizeNetProvider) held(ctx context.Context, op string, txn *domain.Transaction, fn func() error) error {
	now := p.now()
	token := uuid.NewString()
	if err := p.store.ClaimTransaction(ctx, &ports.TransactionClaim{
		TransactionID: txn.ID,
		State:         txn.State,
		Token:         token,
		ClaimedAt:     now,
		StaleBefore:   now.Add(-claimTTL),
	}); err != nil {
		return err
	}

	err := fn()
	if err != nil {
		if relErr := p.store.ReleaseTransaction(context.WithoutCancel(ctx), txn.ID, token); relErr != nil {
			p.logger.Warn("Failed to release transaction claim",
				ports.String("transaction_id", txn.ID),
				ports.String("operation", op),
				ports.Err(relErr),
			)
		}
	}
	return err
}

func (p *AuthorizeNetProvider) clientFor(ctx context.Context, gatewayID string) (*domain.Gateway, adapterports.AuthorizeNetClient, error) {
	gateway, err := p.store.GetGateway(ctx, gatewayID)
	if err != nil {
		return nil, nil, err
	}
	creds, err := p.credentials.Resolve(ctx, gateway)
	if err != nil {
		return nil, nil, err
	}
	return gateway, p.clients.ClientFor(creds), nil
}

// fromResponse interprets a transaction response. A nil response means the
// request never got an answer; the transaction falls back to otherwise and
// the error itself is logged.
func fromResponse(resp *adapterports.TransactionResponse, err error, states map[string]domain.TransactionState, otherwise domain.TransactionState) outcome {
	if resp == nil {
		return outcome{state: otherwise, log: errorLog(err)}
	}

	out := outcome{state: otherwise, log: resp.FullResponse}
	if state, ok := states[resp.ResponseCode]; ok {
		out.state = state
	}
	// Declined and errored requests report transId "0"
	if resp.TransID != "" && resp.TransID != "0" {
		out.providerRef = resp.TransID
	}
	return out
}

// errorLog returns the gateway's raw payload when there is one, else the
// failure rendered as a JSON object
func errorLog(err error) []byte {
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) && len(gwErr.FullResponse) > 0 {
		return gwErr.FullResponse
	}
	msg := "no response from gateway"
	if err != nil {
		msg = err.Error()
	}
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

func order(txn *domain.Transaction) *adapterports.Order {
	if txn.SaleReference == nil || *txn.SaleReference == "" {
		return nil
	}
	description := txn.Description
	if description == "" {
		description = "Sale " + *txn.SaleReference
	}
	return &adapterports.Order{
		InvoiceNumber: truncate(*txn.SaleReference, maxInvoiceNumber),
		Description:   truncate(strings.TrimSpace(description), maxOrderDescription),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
