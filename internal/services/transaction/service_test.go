package transaction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/sqlite"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/services/address"
	"github.com/kevin07696/authorizenet-gateway/internal/services/posting"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/fixtures"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/mocks"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/teststore"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

type harness struct {
	store    *sqlite.Store
	seed     *fixtures.Seeded
	client   *mocks.MockAuthorizeNetClient
	logger   *mocks.MockLogger
	provider *AuthorizeNetProvider
	service  *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	factory := mocks.NewMockClientFactory()
	logger := mocks.NewMockLogger()
	clock := timeutil.Fixed(testNow)

	poster := posting.NewPoster(store, logger).WithClock(clock)
	provider := NewAuthorizeNetProvider(store, factory, &mocks.MockCredentialResolver{},
		address.NewSynchronizer(store, logger), poster, logger).WithClock(clock)

	service := NewService(store, logger).WithClock(clock)
	service.Register(domain.ProviderAuthorizeNet, provider)
	service.Register(domain.ProviderManual, NewManualProvider(store, poster, logger).WithClock(clock))

	return &harness{store: store, seed: seed, client: factory.Client, logger: logger, provider: provider, service: service}
}

// draft stores a draft charge for the seeded party
func (h *harness) draft(t *testing.T, build func(b *fixtures.TransactionBuilder)) *domain.Transaction {
	t.Helper()
	b := fixtures.NewTransaction(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID)
	if build != nil {
		build(b)
	}
	txn := b.Build()
	require.NoError(t, h.store.CreateTransaction(context.Background(), txn))
	return txn
}

func (h *harness) logs(t *testing.T, id string) []*domain.TransactionLog {
	t.Helper()
	logs, err := h.store.ListLogs(context.Background(), id)
	require.NoError(t, err)
	return logs
}

func card() *domain.CardInfo {
	return &domain.CardInfo{Number: "4111111111111111", ExpiryMonth: "12", ExpiryYear: "2030", CSC: "123", Owner: "Ada Lovelace"}
}

func anyRequest() interface{} {
	return mock.AnythingOfType("*ports.TransactionRequest")
}

func TestCapture_ApprovedIsPosted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithAmount("7") })

	h.client.On("AuthCapture", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.Amount.Equal(decimal.NewFromInt(7)) &&
			req.CurrencyCode == "USD" &&
			req.Card != nil && req.Card.CardNumber == "4111111111111111" && req.Card.ExpirationDate == "2030-12" &&
			req.BillTo != nil && req.BillTo.LastName == "Lovelace" &&
			req.Profile == nil
	})).Return(mocks.Approved("60001"), nil).Once()

	got, err := h.service.Capture(ctx, txn.ID, card())
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, got.State)

	stored, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, stored.State)
	assert.Equal(t, "60001", stored.ProviderReference)
	assert.Equal(t, "1111", stored.LastFourDigits)
	assert.True(t, stored.UpdatedAt.Equal(testNow))

	logs := h.logs(t, txn.ID)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Log, `"transId":"60001"`)
	h.client.AssertExpectations(t)
}

func TestCapture_DeclinedFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithAmount("0") })

	resp, gwErr := mocks.Declined("5", "A valid amount is required.")
	h.client.On("AuthCapture", mock.Anything, anyRequest()).Return(resp, gwErr).Once()

	got, err := h.service.Capture(ctx, txn.ID, card())

	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	assert.Empty(t, got.ProviderReference)
	require.Len(t, h.logs(t, txn.ID), 1)
}

func TestCapture_TransportErrorFailsWithLog(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, nil)

	h.client.On("AuthCapture", mock.Anything, anyRequest()).Return(nil, errors.New("connection reset")).Once()

	got, err := h.service.Capture(ctx, txn.ID, card())

	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	logs := h.logs(t, txn.ID)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"error":"connection reset"}`, logs[0].Log)
}

func TestCapture_HeldIsInProgress(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, nil)

	h.client.On("AuthCapture", mock.Anything, anyRequest()).Return(&adapterports.TransactionResponse{
		TransID:      "60002",
		ResponseCode: adapterports.ResponseCodeHeld,
		FullResponse: []byte(`{"transactionResponse":{"responseCode":"4"}}`),
	}, nil).Once()

	got, err := h.service.Capture(context.Background(), txn.ID, card())

	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, got.State)
	assert.Equal(t, "60002", got.ProviderReference)
}

func TestCapture_NoCardOrProfile(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, nil)

	_, err := h.service.Capture(context.Background(), txn.ID, nil)

	assert.ErrorIs(t, err, domain.ErrNoCardOrProfile)
	assert.Empty(t, h.client.Calls)
	assert.Empty(t, h.logs(t, txn.ID))
	assert.Empty(t, h.logger.ErrorCalls)
}

func TestCapture_InvalidCardMakesNoCall(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, nil)
	bad := card()
	bad.ExpiryYear = "30"

	_, err := h.service.Capture(context.Background(), txn.ID, bad)

	var vErr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "expiry_year", vErr.Field)
	assert.Empty(t, h.client.Calls)
	assert.Empty(t, h.logs(t, txn.ID))
	assert.Empty(t, h.logger.ErrorCalls)
}

func TestCapture_OnlyFromDraft(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithState(domain.StateCompleted) })

	_, err := h.service.Capture(context.Background(), txn.ID, card())

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState))
	assert.Empty(t, h.client.Calls)
}

func TestCapture_WithPaymentProfileSyncsShippingAddress(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).
		WithRemoteIDs("cust-1", "pp-1").Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, profile))
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithPaymentProfile(profile.ID) })

	h.client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("addr-1", nil).Once()
	h.client.On("AuthCapture", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.Card == nil && req.Profile != nil &&
			*req.Profile == adapterports.ProfileReference{CustomerProfileID: "cust-1", PaymentProfileID: "pp-1", ShippingProfileID: "addr-1"}
	})).Return(mocks.Approved("60003"), nil).Twice()

	got, err := h.service.Capture(ctx, txn.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, got.State)
	assert.Equal(t, "1111", got.LastFourDigits)

	stored, err := h.store.GetAddress(ctx, h.seed.Address.ID)
	require.NoError(t, err)
	require.True(t, stored.HasAuthorizeID())
	assert.Equal(t, "addr-1", *stored.AuthorizeID)

	// A second charge reuses the cached shipping address
	second := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithPaymentProfile(profile.ID) })
	_, err = h.service.Capture(ctx, second.ID, nil)
	require.NoError(t, err)
	h.client.AssertNumberOfCalls(t, "CreateShippingAddress", 1)
}

func TestCapture_DuplicateShippingAddressRecovers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, profile))
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithPaymentProfile(profile.ID) })

	dup := &domain.GatewayError{Code: domain.DuplicateRecordCode, Text: "A duplicate record already exists."}
	h.client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("", dup).Once()
	h.client.On("GetCustomerProfile", mock.Anything, "cust-1").
		Return(&adapterports.CustomerProfile{CustomerProfileID: "cust-1", ShippingAddressIDs: []string{"stale"}}, nil).Once()
	h.client.On("DeleteShippingAddress", mock.Anything, "cust-1", "stale").Return(nil).Once()
	h.client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("addr-2", nil).Once()
	h.client.On("AuthCapture", mock.Anything, anyRequest()).Return(mocks.Approved("60004"), nil).Once()

	got, err := h.service.Capture(ctx, txn.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, got.State)
	h.client.AssertExpectations(t)
}

func TestCapture_OrderIsTruncated(t *testing.T) {
	h := newHarness(t)
	ref := strings.Repeat("S", 30)

	created, err := h.service.Create(context.Background(), CreateTransactionRequest{
		Amount:        decimal.NewFromInt(5),
		PartyID:       h.seed.Party.ID,
		AddressID:     h.seed.Address.ID,
		GatewayID:     h.seed.Gateway.ID,
		SaleReference: &ref,
		Description:   strings.Repeat("d", 300),
	})
	require.NoError(t, err)

	h.client.On("AuthOnly", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.Order != nil && len(req.Order.InvoiceNumber) == 20 && len(req.Order.Description) == 255
	})).Return(mocks.Approved("60005"), nil).Once()

	_, err = h.service.Authorize(context.Background(), created.ID, card())
	require.NoError(t, err)
	h.client.AssertExpectations(t)
}

func TestAuthorizeThenSettleReducedAmount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, nil)

	h.client.On("AuthOnly", mock.Anything, anyRequest()).Return(mocks.Approved("70001"), nil).Once()
	got, err := h.service.Authorize(ctx, txn.ID, card())
	require.NoError(t, err)
	assert.Equal(t, domain.StateAuthorized, got.State)

	h.client.On("PriorAuthCapture", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.RefTransID == "70001" && req.Amount.Equal(decimal.RequireFromString("80"))
	})).Return(mocks.Approved("70001"), nil).Once()

	got, err = h.service.Settle(ctx, txn.ID, fixtures.AmountPtr("80"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, got.State)

	stored, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("80")))
	assert.Len(t, h.logs(t, txn.ID), 2)
}

func TestSettle_RequiresAuthorized(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, nil)

	_, err := h.service.Settle(context.Background(), txn.ID, nil)

	assert.ErrorIs(t, err, domain.ErrSettleOnlyAuthorized)
	assert.Empty(t, h.client.Calls)
	assert.Empty(t, h.logs(t, txn.ID))
}

func TestSettle_RejectedAmountKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, nil)

	got, err := h.service.Settle(ctx, txn.ID, fixtures.AmountPtr("80"))

	assert.ErrorIs(t, err, domain.ErrSettleOnlyAuthorized)
	require.NotNil(t, got)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("100")))

	err = h.provider.SettleAuthorizeNet(ctx, txn, fixtures.AmountPtr("80"))
	assert.ErrorIs(t, err, domain.ErrSettleOnlyAuthorized)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("100")))
	assert.Empty(t, h.client.Calls)
}

func TestSettle_AboveAuthorizedAmountFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, nil)

	h.client.On("AuthOnly", mock.Anything, anyRequest()).Return(mocks.Approved("70002"), nil).Once()
	_, err := h.service.Authorize(ctx, txn.ID, card())
	require.NoError(t, err)
	require.Len(t, h.logs(t, txn.ID), 1)

	// The gateway, not a local check, rejects the larger amount
	resp, gwErr := mocks.Declined("47", "The amount requested for settlement cannot be greater than the original amount authorized.")
	h.client.On("PriorAuthCapture", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.RefTransID == "70002" && req.Amount.Equal(decimal.RequireFromString("150"))
	})).Return(resp, gwErr).Once()

	got, err := h.service.Settle(ctx, txn.ID, fixtures.AmountPtr("150"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)

	stored, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, stored.State)
	assert.Equal(t, "70002", stored.ProviderReference)

	logs := h.logs(t, txn.ID)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[1].Log, `"errorCode":"47"`)
	h.client.AssertExpectations(t)
}

func TestCapture_ConcurrentRequestIsRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, nil)

	first, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	second, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)

	var errSecond error
	h.client.On("AuthCapture", mock.Anything, anyRequest()).
		Run(func(mock.Arguments) {
			// first still waits on the gateway here
			errSecond = h.provider.Capture(ctx, second, card())
		}).
		Return(mocks.Approved("60010"), nil).Once()

	require.NoError(t, h.provider.Capture(ctx, first, card()))

	assert.ErrorIs(t, errSecond, domain.ErrTxnBusy)
	assert.True(t, domain.IsPreconditionError(errSecond))
	h.client.AssertNumberOfCalls(t, "AuthCapture", 1)

	stored, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, stored.State)
	assert.Equal(t, "60010", stored.ProviderReference)
	assert.Len(t, h.logs(t, txn.ID), 1)
}

func TestCapture_StaleCopyIsRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	txn := h.draft(t, nil)

	first, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	second, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)

	h.client.On("AuthCapture", mock.Anything, anyRequest()).Return(mocks.Approved("60011"), nil).Once()
	require.NoError(t, h.provider.Capture(ctx, first, card()))

	err = h.provider.Capture(ctx, second, card())
	assert.ErrorIs(t, err, domain.ErrTxnStale)
	h.client.AssertNumberOfCalls(t, "AuthCapture", 1)

	stored, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "60011", stored.ProviderReference)
	assert.Len(t, h.logs(t, txn.ID), 1)
}

func TestCapture_ClaimReleasedWhenRequestCannotBeBuilt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).
		WithRemoteIDs("", "").Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, profile))
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithPaymentProfile(profile.ID) })

	err := h.provider.Capture(ctx, txn, nil)
	assert.ErrorIs(t, err, domain.ErrNoCardOrProfile)

	// A later attempt is not blocked by the first one's claim
	err = h.provider.Capture(ctx, txn, nil)
	assert.ErrorIs(t, err, domain.ErrNoCardOrProfile)
	assert.Empty(t, h.client.Calls)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("not authorized", func(t *testing.T) {
		h := newHarness(t)
		txn := h.draft(t, func(b *fixtures.TransactionBuilder) {
			b.WithState(domain.StateCompleted).WithProviderReference("1")
		})

		_, err := h.service.Cancel(ctx, txn.ID)

		assert.ErrorIs(t, err, domain.ErrCancelOnlyAuthorized)
		assert.Empty(t, h.client.Calls)
		assert.Empty(t, h.logs(t, txn.ID))
	})

	t.Run("voided", func(t *testing.T) {
		h := newHarness(t)
		txn := h.draft(t, func(b *fixtures.TransactionBuilder) {
			b.WithState(domain.StateAuthorized).WithProviderReference("80001")
		})
		h.client.On("Void", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
			return req.RefTransID == "80001"
		})).Return(mocks.Approved("80002"), nil).Once()

		got, err := h.service.Cancel(ctx, txn.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.StateCancel, got.State)
		assert.Equal(t, "80001", got.ProviderReference)
		assert.Len(t, h.logs(t, txn.ID), 1)
	})

	t.Run("rejected void keeps state", func(t *testing.T) {
		h := newHarness(t)
		txn := h.draft(t, func(b *fixtures.TransactionBuilder) {
			b.WithState(domain.StateAuthorized).WithProviderReference("80003")
		})
		resp, gwErr := mocks.Declined("16", "The transaction cannot be found.")
		h.client.On("Void", mock.Anything, anyRequest()).Return(resp, gwErr).Once()

		got, err := h.service.Cancel(ctx, txn.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.StateAuthorized, got.State)
		assert.Len(t, h.logs(t, txn.ID), 1)
	})
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	origin := h.draft(t, func(b *fixtures.TransactionBuilder) {
		b.WithState(domain.StatePosted).WithProviderReference("90001").WithLastFour("1111").WithAmount("50")
	})

	h.client.On("Refund", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.RefTransID == "90001" &&
			req.Amount.Equal(decimal.NewFromInt(20)) &&
			req.Card != nil && req.Card.CardNumber == "1111" && req.Card.ExpirationDate == "XXXX"
	})).Return(mocks.Approved("90002"), nil).Once()

	refund, err := h.service.Refund(ctx, origin.ID, fixtures.AmountPtr("20"))

	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeRefund, refund.Type)
	require.NotNil(t, refund.OriginID)
	assert.Equal(t, origin.ID, *refund.OriginID)
	assert.Equal(t, domain.StatePosted, refund.State)
	assert.Equal(t, "90002", refund.ProviderReference)
	assert.Len(t, h.logs(t, refund.ID), 1)
	assert.Empty(t, h.logs(t, origin.ID))

	stored, err := h.store.GetTransaction(ctx, origin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, stored.State)
}

func TestRefund_RequiresCompletedOrigin(t *testing.T) {
	h := newHarness(t)
	origin := h.draft(t, func(b *fixtures.TransactionBuilder) {
		b.WithState(domain.StateAuthorized).WithProviderReference("1")
	})

	_, err := h.service.Refund(context.Background(), origin.ID, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState))
	assert.Empty(t, h.client.Calls)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		from    domain.TransactionState
		details *adapterports.TransactionDetails
		want    domain.TransactionState
	}{
		{
			name:    "captured elsewhere",
			from:    domain.StateInProgress,
			details: &adapterports.TransactionDetails{ResponseCode: "1", TransactionType: adapterports.TransactionTypeAuthCapture},
			want:    domain.StatePosted,
		},
		{
			name:    "settled prior auth",
			from:    domain.StateAuthorized,
			details: &adapterports.TransactionDetails{ResponseCode: "1", TransactionType: adapterports.TransactionTypePriorAuthCapture},
			want:    domain.StatePosted,
		},
		{
			name:    "held review approved as auth",
			from:    domain.StateInProgress,
			details: &adapterports.TransactionDetails{ResponseCode: "1", TransactionType: adapterports.TransactionTypeAuthOnly},
			want:    domain.StateAuthorized,
		},
		{
			name:    "still held",
			from:    domain.StateInProgress,
			details: &adapterports.TransactionDetails{ResponseCode: "4", TransactionType: adapterports.TransactionTypeAuthCapture},
			want:    domain.StateInProgress,
		},
		{
			name:    "declined after review",
			from:    domain.StateInProgress,
			details: &adapterports.TransactionDetails{ResponseCode: "2", TransactionType: adapterports.TransactionTypeAuthCapture},
			want:    domain.StateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			txn := h.draft(t, func(b *fixtures.TransactionBuilder) {
				b.WithState(tt.from).WithProviderReference("95001")
			})
			tt.details.TransID = "95001"
			tt.details.FullResponse = []byte(`{"transaction":{"transId":"95001"}}`)
			h.client.On("GetTransactionDetails", mock.Anything, "95001").Return(tt.details, nil).Once()

			got, err := h.service.Update(ctx, txn.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.State)
			assert.Len(t, h.logs(t, txn.ID), 1)
		})
	}
}

func TestUpdate_RequiresProviderReference(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, nil)

	_, err := h.service.Update(context.Background(), txn.ID)

	assert.ErrorIs(t, err, domain.ErrNoProviderReference)
	assert.Empty(t, h.client.Calls)
}

func TestUpdate_UnreachableGatewayKeepsState(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) {
		b.WithState(domain.StateInProgress).WithProviderReference("95002")
	})
	h.client.On("GetTransactionDetails", mock.Anything, "95002").Return(nil, errors.New("timeout")).Once()

	got, err := h.service.Update(context.Background(), txn.ID)

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayError))
	assert.Equal(t, domain.StateInProgress, got.State)
	assert.Len(t, h.logs(t, txn.ID), 1)
}

func TestRetry_NotSupported(t *testing.T) {
	h := newHarness(t)
	txn := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithState(domain.StateFailed) })

	_, err := h.service.Retry(context.Background(), txn.ID, card())

	assert.ErrorIs(t, err, domain.ErrProviderNotSupported)
}

func TestManualProvider(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	manual := fixtures.NewGateway().WithProvider(domain.ProviderManual).Build()
	require.NoError(t, h.store.CreateGateway(ctx, manual))
	txn := fixtures.NewTransaction(h.seed.Party.ID, h.seed.Address.ID, manual.ID).Build()
	require.NoError(t, h.store.CreateTransaction(ctx, txn))

	got, err := h.service.Authorize(ctx, txn.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAuthorized, got.State)

	got, err = h.service.Settle(ctx, txn.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePosted, got.State)

	assert.Empty(t, h.client.Calls)
	assert.Empty(t, h.logs(t, txn.ID))
}

func TestUnregisteredProvider(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	txn := fixtures.NewTransaction(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).Build()
	require.NoError(t, store.CreateTransaction(ctx, txn))

	_, err := NewService(store, mocks.NewMockLogger()).Capture(ctx, txn.ID, card())

	assert.ErrorIs(t, err, domain.ErrProviderNotSupported)
}

func TestCaptureBatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, profile))
	require.NoError(t, h.store.SetAddressAuthorizeID(ctx, h.seed.Address.ID, "addr-1"))

	good := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithPaymentProfile(profile.ID) })
	noProfile := h.draft(t, nil)
	declined := h.draft(t, func(b *fixtures.TransactionBuilder) { b.WithPaymentProfile(profile.ID).WithAmount("0") })

	resp, gwErr := mocks.Declined("5", "A valid amount is required.")
	h.client.On("AuthCapture", mock.Anything, mock.MatchedBy(func(req *adapterports.TransactionRequest) bool {
		return req.Amount.IsZero()
	})).Return(resp, gwErr).Once()
	h.client.On("AuthCapture", mock.Anything, anyRequest()).Return(mocks.Approved("99001"), nil).Once()

	results := h.service.CaptureBatch(ctx, []string{good.ID, noProfile.ID, "missing", declined.ID})

	require.Len(t, results, 4)
	require.NoError(t, results[0].Err)
	assert.Equal(t, domain.StatePosted, results[0].Transaction.State)
	assert.ErrorIs(t, results[1].Err, domain.ErrNoCardOrProfile)
	assert.True(t, domain.IsNotFoundError(results[2].Err))
	require.NoError(t, results[3].Err)
	assert.Equal(t, domain.StateFailed, results[3].Transaction.State)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	txn, err := h.service.Create(ctx, CreateTransactionRequest{
		Amount:    decimal.RequireFromString("12.50"),
		PartyID:   h.seed.Party.ID,
		AddressID: h.seed.Address.ID,
		GatewayID: h.seed.Gateway.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateDraft, txn.State)
	assert.Equal(t, domain.TransactionTypeCharge, txn.Type)
	assert.Equal(t, "USD", txn.Currency)
	assert.True(t, txn.CreatedAt.Equal(testNow))

	stored, err := h.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(txn.Amount))
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	stranger := fixtures.NewParty().Build()
	require.NoError(t, h.store.CreateParty(ctx, stranger))
	foreign := fixtures.NewAddress(stranger.ID).Build()
	require.NoError(t, h.store.CreateAddress(ctx, foreign))
	strangerProfile := fixtures.NewPaymentProfile(stranger.ID, foreign.ID, h.seed.Gateway.ID).Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, strangerProfile))

	base := func() CreateTransactionRequest {
		return CreateTransactionRequest{
			Amount:    decimal.NewFromInt(1),
			PartyID:   h.seed.Party.ID,
			AddressID: h.seed.Address.ID,
			GatewayID: h.seed.Gateway.ID,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateTransactionRequest)
		check  func(t *testing.T, err error)
	}{
		{"negative amount", func(r *CreateTransactionRequest) { r.Amount = decimal.NewFromInt(-1) }, func(t *testing.T, err error) {
			assert.True(t, domain.IsValidationError(err))
		}},
		{"bad currency", func(r *CreateTransactionRequest) { r.Currency = "DOLLARS" }, func(t *testing.T, err error) {
			assert.True(t, domain.IsValidationError(err))
		}},
		{"address of another party", func(r *CreateTransactionRequest) { r.AddressID = foreign.ID }, func(t *testing.T, err error) {
			assert.True(t, domain.IsValidationError(err))
		}},
		{"profile of another party", func(r *CreateTransactionRequest) { r.PaymentProfileID = &strangerProfile.ID }, func(t *testing.T, err error) {
			assert.True(t, domain.IsValidationError(err))
		}},
		{"unknown gateway", func(r *CreateTransactionRequest) { r.GatewayID = "nope" }, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, domain.ErrGatewayNotFound)
		}},
		{"unknown party", func(r *CreateTransactionRequest) { r.PartyID = "nope" }, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, domain.ErrPartyNotFound)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			_, err := h.service.Create(ctx, req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLogs_UnknownTransaction(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Logs(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrTxnNotFound)
}
