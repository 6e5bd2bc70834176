package handler

import (
	"context"
	"net/http"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
	"skinsignal-api/internal/service"
	"skinsignal-api/pkg/response"
)

// AlertManager manages alert rules.
type AlertManager interface {
	Create(ctx context.Context, in service.CreateAlertInput) (*model.Alert, error)
	List(ctx context.Context, steamID string) (*service.AlertList, error)
	SetActive(ctx context.Context, steamID string, alertID int64, active bool) error
	Events(ctx context.Context, steamID string, alertID int64) ([]model.AlertEvent, error)
}

// AlertHandler handles alert-related HTTP requests.
type AlertHandler struct {
	alerts AlertManager
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(alerts AlertManager) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List handles GET /api/v1/alerts?steam_id=
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.alerts.List(r.Context(), r.URL.Query().Get("steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, list)
}

// Create handles POST /api/v1/alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAlertInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.Error(w, err)
		return
	}

	alert, err := h.alerts.Create(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, alert)
}

// ToggleRequest switches an alert on or off.
type ToggleRequest struct {
	SteamID string `json:"steam_id"`
	Active  *bool  `json:"active"`
}

// Toggle handles PATCH /api/v1/alerts/{id}
func (h *AlertHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var req ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if req.Active == nil {
		response.Error(w, apperror.Validation("active", "active is required"))
		return
	}

	if err := h.alerts.SetActive(r.Context(), req.SteamID, id, *req.Active); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"id": id, "active": *req.Active})
}

// Events handles GET /api/v1/alerts/{id}/events?steam_id=
func (h *AlertHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	events, err := h.alerts.Events(r.Context(), r.URL.Query().Get("steam_id"), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"events": events})
}
