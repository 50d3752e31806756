package authorizenet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/resilience"
	"go.uber.org/zap"
)

// API endpoints
const (
	SandboxURL    = "https://apitest.authorize.net/xml/v1/request.api"
	ProductionURL = "https://api.authorize.net/xml/v1/request.api"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 1 << 20

// duplicateIDPattern pulls the existing id out of "A duplicate record with ID 123 already exists."
var duplicateIDPattern = regexp.MustCompile(`ID (\d+)`)

// Client is an Authorize.net API client bound to one set of credentials
type Client struct {
	httpClient ports.HTTPClient
	breaker    *CircuitBreaker
	logger     *zap.Logger
	timeouts   *resilience.TimeoutConfig
	auth       merchantAuthentication
	endpoint   string
}

var _ ports.AuthorizeNetClient = (*Client)(nil)

// NewClient creates a client. Callers normally go through Factory.ClientFor.
func NewClient(creds domain.Credentials, endpoint string, httpClient ports.HTTPClient, breaker *CircuitBreaker, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		breaker:    breaker,
		logger:     logger,
		endpoint:   endpoint,
		auth: merchantAuthentication{
			Name:           creds.APILogin,
			TransactionKey: creds.TransactionKey,
		},
	}
}

// WithTimeouts bounds every API call by timeouts.ExternalAPI
func (c *Client) WithTimeouts(timeouts *resilience.TimeoutConfig) *Client {
	c.timeouts = timeouts
	return c
}

// CreateCustomerProfile creates a remote customer and returns its id
func (c *Client) CreateCustomerProfile(ctx context.Context, req ports.CustomerProfileRequest) (string, error) {
	var resp createCustomerProfileResponse
	_, err := c.call(ctx, "createCustomerProfileRequest", createCustomerProfileRequest{
		MerchantAuthentication: c.auth,
		Profile: customerProfile{
			MerchantCustomerID: req.MerchantCustomerID,
			Description:        req.Description,
			Email:              req.Email,
		},
	}, &resp)
	if err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && gwErr.IsDuplicate() {
			gwErr.ExistingID = resp.CustomerProfileID
			if m := duplicateIDPattern.FindStringSubmatch(gwErr.Text); gwErr.ExistingID == "" && m != nil {
				gwErr.ExistingID = m[1]
			}
		}
		return "", err
	}
	return resp.CustomerProfileID, nil
}

// GetCustomerProfile returns the remote customer with the ids stored under it
func (c *Client) GetCustomerProfile(ctx context.Context, customerProfileID string) (*ports.CustomerProfile, error) {
	var resp getCustomerProfileResponse
	_, err := c.call(ctx, "getCustomerProfileRequest", getCustomerProfileRequest{
		MerchantAuthentication: c.auth,
		CustomerProfileID:      customerProfileID,
	}, &resp)
	if err != nil {
		return nil, err
	}

	profile := &ports.CustomerProfile{CustomerProfileID: resp.Profile.CustomerProfileID}
	if profile.CustomerProfileID == "" {
		profile.CustomerProfileID = customerProfileID
	}
	for _, pp := range resp.Profile.PaymentProfiles {
		profile.PaymentProfileIDs = append(profile.PaymentProfileIDs, pp.CustomerPaymentProfileID)
	}
	for _, addr := range resp.Profile.ShipToList {
		profile.ShippingAddressIDs = append(profile.ShippingAddressIDs, addr.CustomerAddressID)
	}
	return profile, nil
}

// CreateShippingAddress stores an address under a customer and returns its id
func (c *Client) CreateShippingAddress(ctx context.Context, customerProfileID string, address ports.RemoteAddress) (string, error) {
	var resp createCustomerShippingAddressResponse
	_, err := c.call(ctx, "createCustomerShippingAddressRequest", createCustomerShippingAddressRequest{
		MerchantAuthentication: c.auth,
		CustomerProfileID:      customerProfileID,
		Address:                toCustomerAddress(address),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.CustomerAddressID, nil
}

// DeleteShippingAddress removes an address from a customer
func (c *Client) DeleteShippingAddress(ctx context.Context, customerProfileID, addressID string) error {
	var resp baseResponse
	_, err := c.call(ctx, "deleteCustomerShippingAddressRequest", deleteCustomerShippingAddressRequest{
		MerchantAuthentication: c.auth,
		CustomerProfileID:      customerProfileID,
		CustomerAddressID:      addressID,
	}, &resp)
	return err
}

// CreatePaymentProfile tokenizes a card under a customer and returns the payment profile id
func (c *Client) CreatePaymentProfile(ctx context.Context, req ports.PaymentProfileRequest) (string, error) {
	pp := paymentProfile{
		Payment: payment{CreditCard: toCreditCard(req.Card)},
	}
	if req.BillTo != nil {
		billTo := toCustomerAddress(*req.BillTo)
		pp.BillTo = &billTo
	}

	var resp createCustomerPaymentProfileResponse
	_, err := c.call(ctx, "createCustomerPaymentProfileRequest", createCustomerPaymentProfileRequest{
		MerchantAuthentication: c.auth,
		CustomerProfileID:      req.CustomerProfileID,
		PaymentProfile:         pp,
		ValidationMode:         req.ValidationMode,
	}, &resp)
	if err != nil {
		var gwErr *domain.GatewayError
		if errors.As(err, &gwErr) && gwErr.IsDuplicate() {
			gwErr.ExistingID = resp.CustomerPaymentProfileID
		}
		return "", err
	}
	return resp.CustomerPaymentProfileID, nil
}

// DeletePaymentProfile removes a stored card
func (c *Client) DeletePaymentProfile(ctx context.Context, customerProfileID, paymentProfileID string) error {
	var resp baseResponse
	_, err := c.call(ctx, "deleteCustomerPaymentProfileRequest", deleteCustomerPaymentProfileRequest{
		MerchantAuthentication:   c.auth,
		CustomerProfileID:        customerProfileID,
		CustomerPaymentProfileID: paymentProfileID,
	}, &resp)
	return err
}

// ValidatePaymentProfile runs a zero-dollar validation against a stored card
func (c *Client) ValidatePaymentProfile(ctx context.Context, req ports.ValidatePaymentProfileRequest) error {
	var resp baseResponse
	_, err := c.call(ctx, "validateCustomerPaymentProfileRequest", validateCustomerPaymentProfileRequest{
		MerchantAuthentication:   c.auth,
		CustomerProfileID:        req.CustomerProfileID,
		CustomerPaymentProfileID: req.PaymentProfileID,
		CardCode:                 req.CardCode,
		ValidationMode:           req.ValidationMode,
	}, &resp)
	return err
}

// AuthOnly authorizes without capturing
func (c *Client) AuthOnly(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return c.createTransaction(ctx, ports.TransactionTypeAuthOnly, req)
}

// AuthCapture authorizes and captures in one step
func (c *Client) AuthCapture(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return c.createTransaction(ctx, ports.TransactionTypeAuthCapture, req)
}

// PriorAuthCapture captures a previous authorization identified by req.RefTransID
func (c *Client) PriorAuthCapture(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return c.createTransaction(ctx, ports.TransactionTypePriorAuthCapture, req)
}

// Void cancels an unsettled transaction identified by req.RefTransID
func (c *Client) Void(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return c.createTransaction(ctx, ports.TransactionTypeVoid, req)
}

// Refund credits a settled transaction identified by req.RefTransID
func (c *Client) Refund(ctx context.Context, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	return c.createTransaction(ctx, ports.TransactionTypeRefund, req)
}

// GetTransactionDetails fetches the current remote view of a transaction
func (c *Client) GetTransactionDetails(ctx context.Context, transID string) (*ports.TransactionDetails, error) {
	var resp getTransactionDetailsResponse
	raw, err := c.call(ctx, "getTransactionDetailsRequest", getTransactionDetailsRequest{
		MerchantAuthentication: c.auth,
		TransID:                transID,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &ports.TransactionDetails{
		TransID:           resp.Transaction.TransID,
		TransactionType:   resp.Transaction.TransactionType,
		TransactionStatus: resp.Transaction.TransactionStatus,
		ResponseCode:      string(resp.Transaction.ResponseCode),
		SettleAmount:      resp.Transaction.SettleAmount,
		FullResponse:      raw,
	}, nil
}

// createTransaction returns the decoded transaction response together with any
// gateway error, so a declined transaction still reports its trans id and code.
func (c *Client) createTransaction(ctx context.Context, transactionType string, req *ports.TransactionRequest) (*ports.TransactionResponse, error) {
	txReq := transactionRequest{
		TransactionType: transactionType,
		CurrencyCode:    req.CurrencyCode,
		RefTransID:      req.RefTransID,
	}
	if transactionType != ports.TransactionTypeVoid {
		txReq.Amount = req.Amount.StringFixed(2)
	}
	if req.Card != nil {
		txReq.Payment = &payment{CreditCard: toCreditCard(*req.Card)}
	}
	if req.Profile != nil {
		txReq.Profile = &transactionProfile{
			CustomerProfileID: req.Profile.CustomerProfileID,
			ShippingProfileID: req.Profile.ShippingProfileID,
		}
		if req.Profile.PaymentProfileID != "" {
			txReq.Profile.PaymentProfile = &profilePayment{PaymentProfileID: req.Profile.PaymentProfileID}
		}
	}
	if req.Order != nil {
		txReq.Order = &order{
			InvoiceNumber: req.Order.InvoiceNumber,
			Description:   req.Order.Description,
		}
	}
	if req.BillTo != nil {
		billTo := toCustomerAddress(*req.BillTo)
		txReq.BillTo = &billTo
	}
	if req.ShipTo != nil {
		txReq.ShipTo = toNameAndAddress(*req.ShipTo)
	}

	var resp createTransactionResponse
	raw, err := c.call(ctx, "createTransactionRequest", createTransactionRequest{
		MerchantAuthentication: c.auth,
		TransactionRequest:     txReq,
	}, &resp)
	if raw == nil {
		return nil, err
	}

	result := &ports.TransactionResponse{FullResponse: raw}
	if tr := resp.TransactionResponse; tr != nil {
		result.TransID = tr.TransID
		result.ResponseCode = tr.ResponseCode
		result.AuthCode = tr.AuthCode
		result.AccountNumber = tr.AccountNumber
	}

	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		gwErr.ResponseCode = result.ResponseCode
		if tr := resp.TransactionResponse; tr != nil && len(tr.Errors) > 0 {
			gwErr.Code = tr.Errors[0].ErrorCode
			gwErr.Text = tr.Errors[0].ErrorText
		}
		if result.ResponseCode != "" {
			gwErr.Err = GetResponseCodeInfo(result.ResponseCode).ToPaymentError(gwErr.Code, gwErr.Text)
		}
	}
	return result, err
}

// call posts one request and decodes the response into out.
// The returned raw body is nil only when no response was received.
func (c *Client) call(ctx context.Context, requestType string, payload interface{}, out apiResponse) ([]byte, error) {
	start := time.Now()
	var raw []byte

	err := c.breaker.Call(func() error {
		var err error
		raw, err = c.post(ctx, requestType, payload)
		return err
	})

	if err != nil {
		observability.RecordAuthorizeNetCall(requestType, "transport_error", time.Since(start).Seconds())
		c.logger.Warn("Authorize.net request failed",
			zap.String("request_type", requestType),
			zap.Error(err),
		)
		return nil, err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		observability.RecordAuthorizeNetCall(requestType, "transport_error", time.Since(start).Seconds())
		return raw, fmt.Errorf("failed to decode %s response: %w", requestType, err)
	}

	result := out.result()
	var first message
	if len(result.Message) > 0 {
		first = result.Message[0]
	}
	observability.RecordAuthorizeNetCall(requestType, resultLabel(first.Code), time.Since(start).Seconds())

	if result.ResultCode != resultCodeOk {
		c.logger.Info("Authorize.net returned an error",
			zap.String("request_type", requestType),
			zap.String("code", first.Code),
			zap.String("text", first.Text),
		)
		return raw, &domain.GatewayError{
			Code:         first.Code,
			Text:         first.Text,
			FullResponse: raw,
		}
	}

	return raw, nil
}

func (c *Client) post(ctx context.Context, requestType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(map[string]interface{}{requestType: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", requestType, err)
	}

	if c.timeouts != nil {
		var cancel context.CancelFunc
		ctx, cancel = c.timeouts.ExternalAPIContext(ctx)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", requestType, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", requestType, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authorize.net returned HTTP %d for %s", resp.StatusCode, requestType)
	}

	return bytes.TrimPrefix(raw, utf8BOM), nil
}

func toCreditCard(card ports.CardData) *creditCard {
	return &creditCard{
		CardNumber:     card.CardNumber,
		ExpirationDate: card.ExpirationDate,
		CardCode:       card.CardCode,
	}
}

func toCustomerAddress(a ports.RemoteAddress) customerAddress {
	return customerAddress{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Company:     a.Company,
		Address:     a.Address,
		City:        a.City,
		State:       a.State,
		Zip:         a.Zip,
		Country:     a.Country,
		PhoneNumber: a.PhoneNumber,
		FaxNumber:   a.FaxNumber,
	}
}

func toNameAndAddress(a ports.RemoteAddress) *nameAndAddress {
	return &nameAndAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
	}
}
