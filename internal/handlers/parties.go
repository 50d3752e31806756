package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/services/paymentprofile"
	"github.com/kevin07696/authorizenet-gateway/internal/services/registry"
)

type createPartyRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Fax   string `json:"fax"`
}

type createAddressRequest struct {
	Name            string `json:"name"`
	Street          string `json:"street"`
	StreetBis       string `json:"streetbis"`
	City            string `json:"city"`
	Zip             string `json:"zip"`
	SubdivisionCode string `json:"subdivision_code"`
	CountryCode     string `json:"country_code"`
}

type addPaymentProfileRequest struct {
	AddressID string          `json:"address_id"`
	GatewayID string          `json:"gateway_id"`
	Card      domain.CardInfo `json:"card"`
}

type validateProfileRequest struct {
	CSC string `json:"csc"`
}

// CreateParty handles POST /api/v1/parties
func (h *Handler) CreateParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	party, err := h.registry.CreateParty(r.Context(), registry.CreatePartyRequest(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, party)
}

// CreateAddress handles POST /api/v1/parties/{id}/addresses
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var req createAddressRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	addr, err := h.registry.CreateAddress(r.Context(), chi.URLParam(r, "id"), registry.CreateAddressRequest(req))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, addr)
}

// AddPaymentProfile handles POST /api/v1/parties/{id}/payment-profiles
func (h *Handler) AddPaymentProfile(w http.ResponseWriter, r *http.Request) {
	var req addPaymentProfileRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	profile, err := h.profiles.AddProfile(r.Context(), paymentprofile.AddProfileRequest{
		PartyID:   chi.URLParam(r, "id"),
		AddressID: req.AddressID,
		GatewayID: req.GatewayID,
		Card:      req.Card,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, profile)
}

// ValidatePaymentProfile handles POST /api/v1/payment-profiles/{id}/validate
func (h *Handler) ValidatePaymentProfile(w http.ResponseWriter, r *http.Request) {
	var req validateProfileRequest
	if err := decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	profile, err := h.profiles.Revalidate(r.Context(), chi.URLParam(r, "id"), req.CSC)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, profile)
}

// DeactivatePaymentProfile handles DELETE /api/v1/payment-profiles/{id}
func (h *Handler) DeactivatePaymentProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, profile)
}
