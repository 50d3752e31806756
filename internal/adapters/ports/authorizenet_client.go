package ports

import (
	"context"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// Authorize.net transaction response codes
const (
	ResponseCodeApproved = "1"
	ResponseCodeDeclined = "2"
	ResponseCodeError    = "3"
	ResponseCodeHeld     = "4"
)

// Authorize.net transaction types as reported by getTransactionDetails
const (
	TransactionTypeAuthOnly         = "authOnlyTransaction"
	TransactionTypeAuthCapture      = "authCaptureTransaction"
	TransactionTypePriorAuthCapture = "priorAuthCaptureTransaction"
	TransactionTypeVoid             = "voidTransaction"
	TransactionTypeRefund           = "refundTransaction"
)

// Payment profile validation modes
const (
	ValidationModeTest = "testMode"
	ValidationModeLive = "liveMode"
)

// RemoteAddress is the Authorize.net customer address representation
type RemoteAddress struct {
	FirstName   string
	LastName    string
	Company     string
	Address     string
	City        string
	State       string
	Zip         string
	Country     string
	PhoneNumber string
	FaxNumber   string
}

// CardData is raw card data as sent to the gateway
type CardData struct {
	CardNumber     string
	ExpirationDate string // YYYY-MM, or XXXX for refunds
	CardCode       string
}

// CustomerProfileRequest creates a remote customer profile
type CustomerProfileRequest struct {
	MerchantCustomerID string
	Description        string
	Email              string
}

// CustomerProfile is the remote customer with the ids of everything stored under it
type CustomerProfile struct {
	CustomerProfileID  string
	PaymentProfileIDs  []string
	ShippingAddressIDs []string
}

// PaymentProfileRequest tokenizes a card under a customer profile
type PaymentProfileRequest struct {
	CustomerProfileID string
	Card              CardData
	BillTo            *RemoteAddress
	ValidationMode    string
}

// ValidatePaymentProfileRequest re-validates a stored card
type ValidatePaymentProfileRequest struct {
	CustomerProfileID string
	PaymentProfileID  string
	CardCode          string
	ValidationMode    string
}

// ProfileReference charges a stored payment profile
type ProfileReference struct {
	CustomerProfileID string
	PaymentProfileID  string
	ShippingProfileID string
}

// Order carries invoice metadata
type Order struct {
	InvoiceNumber string
	Description   string
}

// TransactionRequest is the payload of a createTransactionRequest call.
// Card and Profile are mutually exclusive.
type TransactionRequest struct {
	Amount       decimal.Decimal
	CurrencyCode string
	Card         *CardData
	BillTo       *RemoteAddress
	ShipTo       *RemoteAddress
	Profile      *ProfileReference
	Order        *Order
	RefTransID   string
}

// TransactionResponse is the decoded transactionResponse block
type TransactionResponse struct {
	TransID       string
	ResponseCode  string
	AuthCode      string
	AccountNumber string
	FullResponse  []byte
}

// TransactionDetails is the result of getTransactionDetails
type TransactionDetails struct {
	TransID           string
	TransactionType   string
	TransactionStatus string
	ResponseCode      string
	SettleAmount      decimal.Decimal
	FullResponse      []byte
}

// AuthorizeNetClient is an authenticated client bound to one credentials tuple.
// Failures reported by the gateway are returned as *domain.GatewayError.
type AuthorizeNetClient interface {
	CreateCustomerProfile(ctx context.Context, req CustomerProfileRequest) (string, error)
	GetCustomerProfile(ctx context.Context, customerProfileID string) (*CustomerProfile, error)

	CreateShippingAddress(ctx context.Context, customerProfileID string, address RemoteAddress) (string, error)
	DeleteShippingAddress(ctx context.Context, customerProfileID, addressID string) error

	CreatePaymentProfile(ctx context.Context, req PaymentProfileRequest) (string, error)
	DeletePaymentProfile(ctx context.Context, customerProfileID, paymentProfileID string) error
	ValidatePaymentProfile(ctx context.Context, req ValidatePaymentProfileRequest) error

	AuthOnly(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error)
	AuthCapture(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error)
	PriorAuthCapture(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error)
	Void(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error)
	Refund(ctx context.Context, req *TransactionRequest) (*TransactionResponse, error)
	GetTransactionDetails(ctx context.Context, transID string) (*TransactionDetails, error)
}

// ClientFactory builds a client per credentials tuple
type ClientFactory interface {
	ClientFor(creds domain.Credentials) AuthorizeNetClient
}
