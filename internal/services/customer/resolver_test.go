package customer

import (
	"context"
	"testing"

	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/fixtures"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/mocks"
	"github.com/kevin07696/authorizenet-gateway/internal/testutil/teststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolve_ReusesExistingProfile(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	profile := fixtures.NewPaymentProfile(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).
		WithRemoteIDs("cust-42", "pp-42").Build()
	require.NoError(t, store.CreatePaymentProfile(ctx, profile))

	client := &mocks.MockAuthorizeNetClient{}
	r := NewResolver(store, mocks.NewMockLogger())

	id, err := r.Resolve(ctx, client, seed.Party, seed.Gateway)

	require.NoError(t, err)
	assert.Equal(t, "cust-42", id)
	client.AssertNotCalled(t, "CreateCustomerProfile", mock.Anything, mock.Anything)
}

func TestResolve_IgnoresOtherGateways(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	other := fixtures.NewGateway().Build()
	require.NoError(t, store.CreateGateway(ctx, other))

	require.NoError(t, store.CreatePaymentProfile(ctx, fixtures.NewPaymentProfile(seed.Party.ID, seed.Address.ID, other.ID).
		WithRemoteIDs("cust-other", "pp-1").Build()))

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateCustomerProfile", mock.Anything, mock.Anything).Return("cust-new", nil)

	id, err := NewResolver(store, mocks.NewMockLogger()).Resolve(ctx, client, seed.Party, seed.Gateway)

	require.NoError(t, err)
	assert.Equal(t, "cust-new", id)
}

func TestResolve_ReusesCustomerOfDeactivatedProfile(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	require.NoError(t, store.CreatePaymentProfile(ctx, fixtures.NewPaymentProfile(seed.Party.ID, seed.Address.ID, seed.Gateway.ID).
		WithRemoteIDs("cust-1", "pp-1").Inactive().Build()))

	client := &mocks.MockAuthorizeNetClient{}

	id, err := NewResolver(store, mocks.NewMockLogger()).Resolve(ctx, client, seed.Party, seed.Gateway)

	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)
	client.AssertNotCalled(t, "CreateCustomerProfile", mock.Anything, mock.Anything)
}

func TestResolve_DuplicateCustomerIsReused(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateCustomerProfile", mock.Anything, mock.Anything).Return("", &domain.GatewayError{
		Code:       domain.DuplicateRecordCode,
		Text:       "A duplicate record with ID 9001 already exists.",
		ExistingID: "9001",
	}).Once()

	id, err := NewResolver(store, mocks.NewMockLogger()).Resolve(ctx, client, seed.Party, seed.Gateway)

	require.NoError(t, err)
	assert.Equal(t, "9001", id)
	client.AssertExpectations(t)
}

func TestResolve_CreatesProfile(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	party := fixtures.NewParty().WithID("party-0123456789abcdefghij").WithEmail("ada@example.com").Build()
	gw := fixtures.NewGateway().Build()

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateCustomerProfile", mock.Anything, adapterports.CustomerProfileRequest{
		MerchantCustomerID: "party-0123456789abcd",
		Description:        "Ada Lovelace",
		Email:              "ada@example.com",
	}).Return("cust-1", nil).Once()

	id, err := NewResolver(store, mocks.NewMockLogger()).Resolve(ctx, client, party, gw)

	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)
	client.AssertExpectations(t)
}

func TestResolve_GatewayFailureIsUserError(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	party := fixtures.NewParty().Build()

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateCustomerProfile", mock.Anything, mock.Anything).
		Return("", &domain.GatewayError{Code: "E00041", Text: "One or more fields must contain a value."})

	_, err := NewResolver(store, mocks.NewMockLogger()).Resolve(ctx, client, party, fixtures.NewGateway().Build())

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUserError))
	assert.Contains(t, err.Error(), "One or more fields must contain a value.")
}
