package mocks

import (
	"context"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockAuthorizeNetClient is a testify mock of ports.AuthorizeNetClient
type MockAuthorizeNetClient struct {
	mock.Mock
}

var _ ports.AuthorizeNetClient = (*MockAuthorizeNetClient)(nil)

func (m *MockAuthorizeNetClient) CreateCustomerProfile(ctx context.Context, req ports.CustomerProfileRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAuthorizeNetClient) GetCustomerProfile(ctx context.Context, customerProfileID string) (*ports.CustomerProfile, error) {
	args := m.Called(ctx, customerProfileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CustomerProfile), args.Error(1)
}

func (m *MockAuthorizeNetClient) CreateShippingAddress(ctx context.Context, customerProfileID string, address ports.RemoteAddress) (string, error) {
	args := m.Called(ctx, customerProfileID, address)
	return args.String(0), args.Error(1)
}

func (m *MockAuthorizeNetClient) DeleteShippingAddress(ctx context.Context, customerProfileID, addressID string) error {
	args := m.Called(ctx, customerProfileID, addressID)
	return args.Error(0)
}

func (m *MockAuthorizeNetClient) CreatePaymentProfile(ctx context.Context, req ports.PaymentProfileRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAuthorizeNetClient) DeletePaymentProfile(ctx context.Context, customerProfileID, paymentProfileID string) error {
	args := m.Called(ctx, customerProfileID, paymentProfileID)
	return args.Error(0)
}

func (m *MockAuthorizeNetClient) ValidatePaymentProfile(ctx context.Context, req ports.ValidatePaymentProfileRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthorizeNetClient) AuthOnly(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return m.transaction(m.Called(ctx, req))
}

func (m *MockAuthorizeNetClient) AuthCapture(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return m.transaction(m.Called(ctx, req))
}

func (m *MockAuthorizeNetClient) PriorAuthCapture(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return m.transaction(m.Called(ctx, req))
}

func (m *MockAuthorizeNetClient) Void(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return m.transaction(m.Called(ctx, req))
}

func (m *MockAuthorizeNetClient) Refund(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return m.transaction(m.Called(ctx, req))
}

func (m *MockAuthorizeNetClient) GetTransactionDetails(ctx context.Context, transID string) (*ports.TransactionDetails, error) {
	args := m.Called(ctx, transID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.TransactionDetails), args.Error(1)
}

func (m *MockAuthorizeNetClient) transaction(args mock.Arguments) (*ports.TransactionResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.TransactionResponse), args.Error(1)
}

// MockClientFactory hands out one client regardless of credentials and
// records the credentials it was asked for
type MockClientFactory struct {
	Client *MockAuthorizeNetClient
	Seen   []domain.Credentials
}

// NewMockClientFactory creates a factory around a fresh mock client
func NewMockClientFactory() *MockClientFactory {
	return &MockClientFactory{Client: &MockAuthorizeNetClient{}}
}

func (f *MockClientFactory) ClientFor(creds domain.Credentials) ports.AuthorizeNetClient {
	f.Seen = append(f.Seen, creds)
	return f.Client
}

// MockCredentialResolver returns the gateway's inline credentials
type MockCredentialResolver struct {
	Err error
}

func (r *MockCredentialResolver) Resolve(_ context.Context, gw *domain.Gateway) (domain.Credentials, error) {
	if r.Err != nil {
		return domain.Credentials{}, r.Err
	}
	return domain.Credentials{
		APILogin:       gw.APILogin,
		TransactionKey: gw.TransactionKey,
		ClientKey:      gw.ClientKey,
		Test:           gw.Test,
	}, nil
}

// Approved builds a response with code 1
func Approved(transID string) *ports.TransactionResponse {
	return &ports.TransactionResponse{
		TransID:      transID,
		ResponseCode: ports.ResponseCodeApproved,
		FullResponse: []byte(`{"transactionResponse":{"responseCode":"1","transId":"` + transID + `"}}`),
	}
}

// Declined builds a declined response and the gateway error the client pairs with it
func Declined(code, text string) (*ports.TransactionResponse, error) {
	raw := []byte(`{"transactionResponse":{"responseCode":"2","transId":"0","errors":[{"errorCode":"` + code + `"}]}}`)
	return &ports.TransactionResponse{
			TransID:      "0",
			ResponseCode: ports.ResponseCodeDeclined,
			FullResponse: raw,
		}, &domain.GatewayError{
			Code:         code,
			Text:         text,
			ResponseCode: ports.ResponseCodeDeclined,
			FullResponse: raw,
		}
}
