package authorizenet

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Field order in every request struct follows the Authorize.net XML schema.
// The JSON endpoint rejects elements that appear out of schema order.

const (
	resultCodeOk    = "Ok"
	resultCodeError = "Error"
)

type merchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type message struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type messages struct {
	ResultCode string    `json:"resultCode"`
	Message    []message `json:"message"`
}

// apiResponse is implemented by every response envelope
type apiResponse interface {
	result() messages
}

type baseResponse struct {
	RefID    string   `json:"refId,omitempty"`
	Messages messages `json:"messages"`
}

func (r *baseResponse) result() messages { return r.Messages }

type creditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode,omitempty"`
}

type payment struct {
	CreditCard *creditCard `json:"creditCard,omitempty"`
}

type customerAddress struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Company     string `json:"company,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	FaxNumber   string `json:"faxNumber,omitempty"`
}

type nameAndAddress struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
}

// Customer profiles

type customerProfile struct {
	MerchantCustomerID string `json:"merchantCustomerId,omitempty"`
	Description        string `json:"description,omitempty"`
	Email              string `json:"email,omitempty"`
}

type createCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	Profile                customerProfile        `json:"profile"`
}

type createCustomerProfileResponse struct {
	baseResponse
	CustomerProfileID string `json:"customerProfileId"`
}

type getCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
}

type remotePaymentProfile struct {
	CustomerPaymentProfileID string `json:"customerPaymentProfileId"`
}

type remoteShippingAddress struct {
	CustomerAddressID string `json:"customerAddressId"`
}

type getCustomerProfileResponse struct {
	baseResponse
	Profile struct {
		CustomerProfileID string                  `json:"customerProfileId"`
		PaymentProfiles   []remotePaymentProfile  `json:"paymentProfiles"`
		ShipToList        []remoteShippingAddress `json:"shipToList"`
	} `json:"profile"`
}

// Shipping addresses

type createCustomerShippingAddressRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	Address                customerAddress        `json:"address"`
}

type createCustomerShippingAddressResponse struct {
	baseResponse
	CustomerAddressID string `json:"customerAddressId"`
}

type deleteCustomerShippingAddressRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	CustomerAddressID      string                 `json:"customerAddressId"`
}

// Payment profiles

type paymentProfile struct {
	BillTo  *customerAddress `json:"billTo,omitempty"`
	Payment payment          `json:"payment"`
}

type createCustomerPaymentProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	PaymentProfile         paymentProfile         `json:"paymentProfile"`
	ValidationMode         string                 `json:"validationMode,omitempty"`
}

type createCustomerPaymentProfileResponse struct {
	baseResponse
	CustomerProfileID        string `json:"customerProfileId"`
	CustomerPaymentProfileID string `json:"customerPaymentProfileId"`
}

type deleteCustomerPaymentProfileRequest struct {
	MerchantAuthentication   merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID        string                 `json:"customerProfileId"`
	CustomerPaymentProfileID string                 `json:"customerPaymentProfileId"`
}

type validateCustomerPaymentProfileRequest struct {
	MerchantAuthentication   merchantAuthentication `json:"merchantAuthentication"`
	CustomerProfileID        string                 `json:"customerProfileId"`
	CustomerPaymentProfileID string                 `json:"customerPaymentProfileId"`
	CardCode                 string                 `json:"cardCode,omitempty"`
	ValidationMode           string                 `json:"validationMode"`
}

// Transactions

type profilePayment struct {
	PaymentProfileID string `json:"paymentProfileId"`
}

type transactionProfile struct {
	CustomerProfileID string          `json:"customerProfileId"`
	PaymentProfile    *profilePayment `json:"paymentProfile,omitempty"`
	ShippingProfileID string          `json:"shippingProfileId,omitempty"`
}

type order struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Description   string `json:"description,omitempty"`
}

type transactionRequest struct {
	TransactionType string              `json:"transactionType"`
	Amount          string              `json:"amount,omitempty"`
	CurrencyCode    string              `json:"currencyCode,omitempty"`
	Payment         *payment            `json:"payment,omitempty"`
	Profile         *transactionProfile `json:"profile,omitempty"`
	RefTransID      string              `json:"refTransId,omitempty"`
	Order           *order              `json:"order,omitempty"`
	BillTo          *customerAddress    `json:"billTo,omitempty"`
	ShipTo          *nameAndAddress     `json:"shipTo,omitempty"`
}

type createTransactionRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	TransactionRequest     transactionRequest     `json:"transactionRequest"`
}

type transactionError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

type transactionResponse struct {
	ResponseCode  string             `json:"responseCode"`
	AuthCode      string             `json:"authCode"`
	TransID       string             `json:"transId"`
	RefTransID    string             `json:"refTransID"`
	AccountNumber string             `json:"accountNumber"`
	Errors        []transactionError `json:"errors"`
}

type createTransactionResponse struct {
	baseResponse
	TransactionResponse *transactionResponse `json:"transactionResponse"`
}

type getTransactionDetailsRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	TransID                string                 `json:"transId"`
}

type getTransactionDetailsResponse struct {
	baseResponse
	Transaction struct {
		TransID           string          `json:"transId"`
		TransactionType   string          `json:"transactionType"`
		TransactionStatus string          `json:"transactionStatus"`
		ResponseCode      flexString      `json:"responseCode"`
		SettleAmount      decimal.Decimal `json:"settleAmount"`
	} `json:"transaction"`
}

// flexString decodes a JSON string or number. getTransactionDetails reports
// responseCode as a number while createTransaction reports it as a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}
