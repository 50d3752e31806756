package paymentprofile

import (
	"context"
	"testing"

	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/sqlite"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/services/customer"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/fixtures"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/mocks"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/teststore"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store   *sqlite.Store
	seed    *fixtures.Seeded
	client  *mocks.MockAuthorizeNetClient
	manager *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	factory := mocks.NewMockClientFactory()
	logger := mocks.NewMockLogger()

	return &harness{
		store:   store,
		seed:    seed,
		client:  factory.Client,
		manager: NewManager(store, factory, &mocks.MockCredentialResolver{}, customer.NewResolver(store, logger), logger),
	}
}

func validCard() domain.CardInfo {
	return domain.CardInfo{Number: "4111 1111 1111 1111", ExpiryMonth: "7", ExpiryYear: "2031", CSC: "123", Owner: "Ada Lovelace"}
}

func (h *harness) request() AddProfileRequest {
	return AddProfileRequest{
		PartyID:   h.seed.Party.ID,
		AddressID: h.seed.Address.ID,
		GatewayID: h.seed.Gateway.ID,
		Card:      validCard(),
	}
}

func TestAddProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.client.On("CreateCustomerProfile", mock.Anything, mock.Anything).Return("cust-1", nil).Once()
	h.client.On("CreatePaymentProfile", mock.Anything, mock.MatchedBy(func(req adapterports.PaymentProfileRequest) bool {
		return req.CustomerProfileID == "cust-1" &&
			req.Card.CardNumber == "4111111111111111" &&
			req.Card.ExpirationDate == "2031-07" &&
			req.ValidationMode == adapterports.ValidationModeTest &&
			req.BillTo != nil && req.BillTo.FirstName == "Ada" && req.BillTo.LastName == "Lovelace"
	})).Return("pp-1", nil).Once()

	profile, err := h.manager.AddProfile(ctx, h.request())

	require.NoError(t, err)
	assert.Equal(t, "pp-1", profile.ProviderReference)
	assert.Equal(t, "cust-1", profile.AuthorizeProfileID)
	assert.Equal(t, "1111", profile.LastFourDigits)
	assert.True(t, profile.Active)

	stored, err := h.store.GetPaymentProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ProviderReference, stored.ProviderReference)
	h.client.AssertExpectations(t)
}

func TestAddProfile_ReusesCustomerProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	existing := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).
		WithRemoteIDs("cust-7", "pp-7").Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, existing))

	h.client.On("CreatePaymentProfile", mock.Anything, mock.MatchedBy(func(req adapterports.PaymentProfileRequest) bool {
		return req.CustomerProfileID == "cust-7"
	})).Return("pp-8", nil).Once()

	profile, err := h.manager.AddProfile(ctx, h.request())

	require.NoError(t, err)
	assert.Equal(t, "cust-7", profile.AuthorizeProfileID)
	h.client.AssertNotCalled(t, "CreateCustomerProfile", mock.Anything, mock.Anything)
}

func TestAddProfile_InvalidCardMakesNoCall(t *testing.T) {
	h := newHarness(t)
	req := h.request()
	req.Card.Number = "4111"

	_, err := h.manager.AddProfile(context.Background(), req)

	var vErr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "number", vErr.Field)
	assert.Empty(t, h.client.Calls)
}

func TestAddProfile_AddressOfAnotherParty(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	stranger := fixtures.NewParty().Build()
	require.NoError(t, h.store.CreateParty(ctx, stranger))
	addr := fixtures.NewAddress(stranger.ID).Build()
	require.NoError(t, h.store.CreateAddress(ctx, addr))

	req := h.request()
	req.AddressID = addr.ID
	_, err := h.manager.AddProfile(ctx, req)

	assert.True(t, domain.IsValidationError(err))
	assert.Empty(t, h.client.Calls)
}

func TestAddProfile_DuplicateOfKnownCardReusesIt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	existing := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).
		WithRemoteIDs("cust-1", "pp-1").Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, existing))

	h.client.On("CreatePaymentProfile", mock.Anything, mock.Anything).Return("", &domain.GatewayError{
		Code:       domain.DuplicateRecordCode,
		Text:       "A duplicate customer payment profile already exists.",
		ExistingID: "pp-1",
	}).Once()

	profile, err := h.manager.AddProfile(ctx, h.request())

	require.NoError(t, err)
	assert.Equal(t, "pp-1", profile.ProviderReference)
	assert.NotEqual(t, existing.ID, profile.ID)
	h.client.AssertNotCalled(t, "GetCustomerProfile", mock.Anything, mock.Anything)
	h.client.AssertNotCalled(t, "DeletePaymentProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddProfile_DuplicateOrphanIsRemovedThenRetried(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	existing := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).
		WithRemoteIDs("cust-1", "pp-known").Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, existing))

	dup := &domain.GatewayError{Code: domain.DuplicateRecordCode, Text: "duplicate", ExistingID: "pp-orphan"}
	h.client.On("CreatePaymentProfile", mock.Anything, mock.Anything).Return("", dup).Once()
	h.client.On("GetCustomerProfile", mock.Anything, "cust-1").Return(&adapterports.CustomerProfile{
		CustomerProfileID: "cust-1",
		PaymentProfileIDs: []string{"pp-known", "pp-orphan"},
	}, nil).Once()
	h.client.On("DeletePaymentProfile", mock.Anything, "cust-1", "pp-orphan").Return(nil).Once()
	h.client.On("CreatePaymentProfile", mock.Anything, mock.Anything).Return("pp-new", nil).Once()

	profile, err := h.manager.AddProfile(ctx, h.request())

	require.NoError(t, err)
	assert.Equal(t, "pp-new", profile.ProviderReference)
	h.client.AssertExpectations(t)
	h.client.AssertNumberOfCalls(t, "DeletePaymentProfile", 1)
}

func TestAddProfile_SecondFailureIsUserError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.client.On("CreateCustomerProfile", mock.Anything, mock.Anything).Return("cust-1", nil)
	dup := &domain.GatewayError{Code: domain.DuplicateRecordCode, Text: "duplicate"}
	h.client.On("CreatePaymentProfile", mock.Anything, mock.Anything).Return("", dup).Twice()
	h.client.On("GetCustomerProfile", mock.Anything, "cust-1").Return(&adapterports.CustomerProfile{CustomerProfileID: "cust-1"}, nil).Once()

	_, err := h.manager.AddProfile(ctx, h.request())

	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUserError))
	h.client.AssertNumberOfCalls(t, "CreatePaymentProfile", 2)
}

func TestAddProfile_ManualGatewayUnsupported(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	manual := fixtures.NewGateway().WithProvider(domain.ProviderManual).Build()
	require.NoError(t, h.store.CreateGateway(ctx, manual))

	req := h.request()
	req.GatewayID = manual.ID
	_, err := h.manager.AddProfile(ctx, req)

	assert.ErrorIs(t, err, domain.ErrProviderNotSupported)
}

func TestRevalidate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, profile))

	h.client.On("ValidatePaymentProfile", mock.Anything, adapterports.ValidatePaymentProfileRequest{
		CustomerProfileID: "cust-1",
		PaymentProfileID:  "pp-1",
		CardCode:          "123",
		ValidationMode:    adapterports.ValidationModeTest,
	}).Return(nil).Once()

	_, err := h.manager.Revalidate(ctx, profile.ID, "123")
	require.NoError(t, err)

	h.client.On("ValidatePaymentProfile", mock.Anything, mock.Anything).
		Return(&domain.GatewayError{Code: "E00027", Text: "The credit card has expired."}).Once()
	_, err = h.manager.Revalidate(ctx, profile.ID, "999")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUserError))
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile := fixtures.NewPaymentProfile(h.seed.Party.ID, h.seed.Address.ID, h.seed.Gateway.ID).Build()
	require.NoError(t, h.store.CreatePaymentProfile(ctx, profile))

	// Already gone remotely
	h.client.On("DeletePaymentProfile", mock.Anything, "cust-1", "pp-1").
		Return(&domain.GatewayError{Code: domain.RecordNotFoundCode, Text: "The record cannot be found."}).Once()

	_, err := h.manager.Deactivate(ctx, profile.ID)
	require.NoError(t, err)

	stored, err := h.store.GetPaymentProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	// Second call is a no-op
	_, err = h.manager.Deactivate(ctx, profile.ID)
	require.NoError(t, err)
	h.client.AssertNumberOfCalls(t, "DeletePaymentProfile", 1)
}
