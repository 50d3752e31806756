package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/services/registry"
)

type createGatewayRequest struct {
	Name           string          `json:"name"`
	Provider       domain.Provider `json:"provider"`
	APILogin       string          `json:"api_login"`
	TransactionKey string          `json:"transaction_key"`
	ClientKey      string          `json:"client_key"`
	Test           bool            `json:"test"`
}

type gatewayResponse struct {
	*domain.Gateway
	ProviderLabel string   `json:"provider_label"`
	Methods       []string `json:"methods"`
}

func newGatewayResponse(gw *domain.Gateway) gatewayResponse {
	return gatewayResponse{Gateway: gw, ProviderLabel: gw.Provider.ProviderLabel(), Methods: gw.Methods()}
}

// CreateGateway handles POST /api/v1/gateways
func (h *Handler) CreateGateway(w http.ResponseWriter, r *http.Request) {
	var req createGatewayRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	gw, err := h.registry.CreateGateway(r.Context(), registry.CreateGatewayRequest{
		Name:           req.Name,
		Provider:       req.Provider,
		APILogin:       req.APILogin,
		TransactionKey: req.TransactionKey,
		ClientKey:      req.ClientKey,
		Test:           req.Test,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, newGatewayResponse(gw))
}

// GetGateway handles GET /api/v1/gateways/{id}
func (h *Handler) GetGateway(w http.ResponseWriter, r *http.Request) {
	gw, err := h.registry.GetGateway(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newGatewayResponse(gw))
}
