package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/services/transaction"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
	"github.com/shopspring/decimal"
)

// maxBatchSize bounds one batch request
const maxBatchSize = 500

type createTransactionRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	ShippingAddressID *string         `json:"shipping_address_id"`
	PaymentProfileID  *string         `json:"payment_profile_id"`
	SaleReference     *string         `json:"sale_reference"`
	PartyID           string          `json:"party_id"`
	AddressID         string          `json:"address_id"`
	GatewayID         string          `json:"gateway_id"`
	Currency          string          `json:"currency"`
	Description       string          `json:"description"`
}

// operationRequest is the optional body of a lifecycle call
type operationRequest struct {
	Card   *domain.CardInfo `json:"card"`
	Amount *decimal.Decimal `json:"amount"`
}

type batchRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

type batchItem struct {
	TransactionID string              `json:"transaction_id"`
	Transaction   *domain.Transaction `json:"transaction,omitempty"`
	Error         *errorResponse      `json:"error,omitempty"`
}

type batchResponse struct {
	Results      []batchItem `json:"results"`
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	txn, err := h.transactions.Create(r.Context(), transaction.CreateTransactionRequest(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, txn)
}

// GetTransaction handles GET /api/v1/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transactions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, txn)
}

// GetTransactionLogs handles GET /api/v1/transactions/{id}/logs
func (h *Handler) GetTransactionLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.transactions.Logs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*domain.TransactionLog{}
	}
	h.respondJSON(w, http.StatusOK, logs)
}

// RunOperation handles POST /api/v1/transactions/{id}/{op}
func (h *Handler) RunOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	status := http.StatusOK

	var (
		txn *domain.Transaction
		err error
	)
	switch chi.URLParam(r, "op") {
	case "authorize":
		txn, err = h.transactions.Authorize(ctx, id, req.Card)
	case "capture":
		txn, err = h.transactions.Capture(ctx, id, req.Card)
	case "settle":
		txn, err = h.transactions.Settle(ctx, id, req.Amount)
	case "cancel":
		txn, err = h.transactions.Cancel(ctx, id)
	case "refund":
		txn, err = h.transactions.Refund(ctx, id, req.Amount)
		status = http.StatusCreated
	case "update":
		txn, err = h.transactions.Update(ctx, id)
	case "retry":
		txn, err = h.transactions.Retry(ctx, id, req.Card)
	default:
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "unknown operation"})
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, status, txn)
}

// RunBatch handles POST /api/v1/transactions/batch/{op}
func (h *Handler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(req.TransactionIDs) == 0 || len(req.TransactionIDs) > maxBatchSize {
		h.respondError(w, r, pkgerrors.NewValidationError("transaction_ids", "between 1 and 500 transaction ids are required"))
		return
	}

	var results []transaction.BatchResult
	switch chi.URLParam(r, "op") {
	case "authorize":
		results = h.transactions.AuthorizeBatch(r.Context(), req.TransactionIDs)
	case "capture":
		results = h.transactions.CaptureBatch(r.Context(), req.TransactionIDs)
	default:
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "unknown batch operation"})
		return
	}

	resp := batchResponse{Results: make([]batchItem, 0, len(results))}
	for _, res := range results {
		item := batchItem{TransactionID: res.TransactionID, Transaction: res.Transaction}
		if res.Err != nil {
			_, body := errorBody(res.Err)
			item.Error = &body
			resp.FailureCount++
		} else {
			resp.SuccessCount++
		}
		resp.Results = append(resp.Results, item)
	}

	h.respondJSON(w, http.StatusOK, resp)
}
