package handler

import (
	"context"
	"net/http"

	"skinsignal-api/internal/service"
	"skinsignal-api/pkg/response"
)

// PhoneVerifier runs the SMS one-time-code flow.
type PhoneVerifier interface {
	Start(ctx context.Context, in service.StartPhoneInput) (*service.StartPhoneResult, error)
	Verify(ctx context.Context, in service.VerifyPhoneInput) error
}

// PhoneHandler handles phone verification requests.
type PhoneHandler struct {
	phone PhoneVerifier
}

// NewPhoneHandler creates a new phone handler.
func NewPhoneHandler(phone PhoneVerifier) *PhoneHandler {
	return &PhoneHandler{phone: phone}
}

// Start handles POST /api/v1/user/phone/start
func (h *PhoneHandler) Start(w http.ResponseWriter, r *http.Request) {
	var in service.StartPhoneInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.Error(w, err)
		return
	}

	res, err := h.phone.Start(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, res)
}

// Verify handles POST /api/v1/user/phone/verify
func (h *PhoneHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var in service.VerifyPhoneInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.Error(w, err)
		return
	}

	if err := h.phone.Verify(r.Context(), in); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]bool{"verified": true})
}
