package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/services/paymentprofile"
	"github.com/kevin07696/authorizenet-gateway/internal/services/registry"
	"github.com/kevin07696/authorizenet-gateway/internal/services/transaction"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxBodySize caps request bodies; the largest is a batch of ids
const maxBodySize = 1 << 20

// Registry manages gateways, parties and addresses
type Registry interface {
	CreateGateway(ctx context.Context, req registry.CreateGatewayRequest) (*domain.Gateway, error)
	GetGateway(ctx context.Context, id string) (*domain.Gateway, error)
	CreateParty(ctx context.Context, req registry.CreatePartyRequest) (*domain.Party, error)
	CreateAddress(ctx context.Context, partyID string, req registry.CreateAddressRequest) (*domain.Address, error)
}

// PaymentProfiles manages tokenized cards
type PaymentProfiles interface {
	AddProfile(ctx context.Context, req paymentprofile.AddProfileRequest) (*domain.PaymentProfile, error)
	Revalidate(ctx context.Context, profileID, csc string) (*domain.PaymentProfile, error)
	Deactivate(ctx context.Context, profileID string) (*domain.PaymentProfile, error)
}

// Transactions runs the transaction lifecycle
type Transactions interface {
	Create(ctx context.Context, req transaction.CreateTransactionRequest) (*domain.Transaction, error)
	Get(ctx context.Context, id string) (*domain.Transaction, error)
	Logs(ctx context.Context, id string) ([]*domain.TransactionLog, error)
	Authorize(ctx context.Context, id string, card *domain.CardInfo) (*domain.Transaction, error)
	Capture(ctx context.Context, id string, card *domain.CardInfo) (*domain.Transaction, error)
	Settle(ctx context.Context, id string, amount *decimal.Decimal) (*domain.Transaction, error)
	Cancel(ctx context.Context, id string) (*domain.Transaction, error)
	Refund(ctx context.Context, originID string, amount *decimal.Decimal) (*domain.Transaction, error)
	Update(ctx context.Context, id string) (*domain.Transaction, error)
	Retry(ctx context.Context, id string, card *domain.CardInfo) (*domain.Transaction, error)
	AuthorizeBatch(ctx context.Context, ids []string) []transaction.BatchResult
	CaptureBatch(ctx context.Context, ids []string) []transaction.BatchResult
}

// Handler serves the JSON API
type Handler struct {
	registry     Registry
	profiles     PaymentProfiles
	transactions Transactions
	logger       *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(registry Registry, profiles PaymentProfiles, transactions Transactions, logger *zap.Logger) *Handler {
	return &Handler{
		registry:     registry,
		profiles:     profiles,
		transactions: transactions,
		logger:       logger,
	}
}

// errorResponse is the body of every non-2xx response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	h.respondJSON(w, status, body)
}

// errorBody maps the error taxonomy onto HTTP statuses
func errorBody(err error) (int, errorResponse) {
	var fieldErr *pkgerrors.ValidationError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, errorResponse{Error: fieldErr.Message, Code: string(domain.ErrorCodeValidationFailed), Field: fieldErr.Field}
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: string(domain.ErrorCodeInternalError)}
	}

	body := errorResponse{Error: domainErr.Message, Code: string(domainErr.Code)}
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest, body
	case domain.IsNotFoundError(err):
		return http.StatusNotFound, body
	case domain.IsPreconditionError(err):
		return http.StatusConflict, body
	case domainErr.Code == domain.ErrorCodeGatewayUserError:
		return http.StatusUnprocessableEntity, body
	case domainErr.Code == domain.ErrorCodeGatewayError:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: string(domainErr.Code)}
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return pkgerrors.NewValidationError("body", "invalid JSON body: "+err.Error())
	}
	return nil
}
