package address

import (
	"context"
	"strings"
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

var duplicate = &domain.GatewayError{Code: domain.DuplicateRecordCode, Text: "A duplicate record already exists."}

func TestToRemote(t *testing.T) {
	party := &domain.Party{Name: "Acme Corp", Phone: "555-0100", Fax: "555-0101"}

	tests := []struct {
		name     string
		address  *domain.Address
		override string
		want     adapterports.RemoteAddress
	}{
		{
			name:    "address name split at first space",
			address: &domain.Address{Name: "Ada King Lovelace", Street: "1 Main", StreetBis: "Apt 2", City: "Springfield", Zip: "62701", SubdivisionCode: "US-IL", CountryCode: "US"},
			want: adapterports.RemoteAddress{
				FirstName: "Ada", LastName: "King Lovelace", Company: "Acme Corp",
				Address: "1 Main\nApt 2", City: "Springfield", State: "US-IL", Zip: "62701", Country: "US",
				PhoneNumber: "555-0100", FaxNumber: "555-0101",
			},
		},
		{
			name:     "override wins and single word has no last name",
			address:  &domain.Address{Name: "Ada Lovelace", StreetBis: "PO Box 9"},
			override: "Cardholder",
			want: adapterports.RemoteAddress{
				FirstName: "Cardholder", Company: "Acme Corp", Address: "PO Box 9",
				PhoneNumber: "555-0100", FaxNumber: "555-0101",
			},
		},
		{
			name:    "falls back to party name",
			address: &domain.Address{},
			want: adapterports.RemoteAddress{
				FirstName: "Acme", LastName: "Corp", Company: "Acme Corp",
				PhoneNumber: "555-0100", FaxNumber: "555-0101",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToRemote(tt.address, party, tt.override))
		})
	}
}

func TestToRemote_TruncatesNames(t *testing.T) {
	long := strings.Repeat("é", 60)
	got := ToRemote(&domain.Address{Name: long + " " + long}, &domain.Party{Name: long}, "")

	assert.Equal(t, 50, len([]rune(got.FirstName)))
	assert.Equal(t, 50, len([]rune(got.LastName)))
	assert.Equal(t, 50, len([]rune(got.Company)))
}

func TestSync_UsesCachedID(t *testing.T) {
	client := &mocks.MockAuthorizeNetClient{}
	s := NewSynchronizer(teststore.New(t), mocks.NewMockLogger())
	addr := fixtures.NewAddress("p").WithAuthorizeID("addr-9").Build()

	id, err := s.Sync(context.Background(), client, addr, fixtures.NewParty().Build(), "cust-1")

	require.NoError(t, err)
	assert.Equal(t, "addr-9", id)
	client.AssertNotCalled(t, "CreateShippingAddress", mock.Anything, mock.Anything, mock.Anything)
}

func TestSync_CreatesAndCaches(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("addr-1", nil).Once()
	s := NewSynchronizer(store, mocks.NewMockLogger())

	id, err := s.Sync(ctx, client, seed.Address, seed.Party, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "addr-1", id)

	stored, err := store.GetAddress(ctx, seed.Address.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AuthorizeID)
	assert.Equal(t, "addr-1", *stored.AuthorizeID)

	// Second sync reads the cache
	id, err = s.Sync(ctx, client, stored, seed.Party, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "addr-1", id)
	client.AssertExpectations(t)
}

func TestSync_DuplicateDeletesOnlyOrphansThenRetries(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)
	known := fixtures.NewAddress(seed.Party.ID).WithAuthorizeID("addr-known").Build()
	require.NoError(t, store.CreateAddress(ctx, known))

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("", duplicate).Once()
	client.On("GetCustomerProfile", mock.Anything, "cust-1").Return(&adapterports.CustomerProfile{
		CustomerProfileID:  "cust-1",
		ShippingAddressIDs: []string{"addr-known", "addr-orphan"},
	}, nil)
	client.On("DeleteShippingAddress", mock.Anything, "cust-1", "addr-orphan").Return(nil).Once()
	client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("addr-new", nil).Once()

	id, err := NewSynchronizer(store, mocks.NewMockLogger()).Sync(ctx, client, seed.Address, seed.Party, "cust-1")

	require.NoError(t, err)
	assert.Equal(t, "addr-new", id)
	client.AssertExpectations(t)
	client.AssertNotCalled(t, "DeleteShippingAddress", mock.Anything, "cust-1", "addr-known")
}

func TestSync_SecondDuplicateIsUserError(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	seed := fixtures.Seed(t, ctx, store)

	client := &mocks.MockAuthorizeNetClient{}
	client.On("CreateShippingAddress", mock.Anything, "cust-1", mock.Anything).Return("", duplicate).Twice()
	client.On("GetCustomerProfile", mock.Anything, "cust-1").Return(&adapterports.CustomerProfile{CustomerProfileID: "cust-1"}, nil).Once()

	_, err := NewSynchronizer(store, mocks.NewMockLogger()).Sync(ctx, client, seed.Address, seed.Party, "cust-1")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayUserError))
	client.AssertNumberOfCalls(t, "CreateShippingAddress", 2)

	stored, err := store.GetAddress(ctx, seed.Address.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasAuthorizeID())
}
