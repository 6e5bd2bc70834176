package handler

import (
	"context"
	"net/http"

	"skinsignal-api/internal/model"
	"skinsignal-api/internal/service"
	"skinsignal-api/pkg/response"
)

// Snapshotter takes and previews inventory snapshots.
type Snapshotter interface {
	TakeSnapshot(ctx context.Context, steamID string) (*model.SnapshotResult, error)
	PreviewInventory(ctx context.Context, steamID string) ([]model.InventoryItem, error)
}

// PortfolioReader answers read-only portfolio queries.
type PortfolioReader interface {
	History(ctx context.Context, steamID string) (*service.HistoryView, error)
	Movers(ctx context.Context, steamID string) (*model.Movers, error)
	Allocation(ctx context.Context, steamID string) ([]model.AllocationSlice, error)
	ItemScore(ctx context.Context, steamID, itemName string) (*model.SalePick, error)
	SmartSale(ctx context.Context, steamID string) ([]model.SalePick, error)
}

// OverrideManager manages per-item value overrides.
type OverrideManager interface {
	Set(ctx context.Context, steamID string, in service.SetOverrideInput) (*model.ItemOverride, error)
	Clear(ctx context.Context, steamID, itemName string) error
	List(ctx context.Context, steamID string) ([]model.ItemOverride, error)
}

// PortfolioHandler handles portfolio-related HTTP requests.
type PortfolioHandler struct {
	snapshots Snapshotter
	portfolio PortfolioReader
	overrides OverrideManager
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(snapshots Snapshotter, portfolio PortfolioReader, overrides OverrideManager) *PortfolioHandler {
	return &PortfolioHandler{
		snapshots: snapshots,
		portfolio: portfolio,
		overrides: overrides,
	}
}

// TakeSnapshot handles POST /api/v1/portfolio/{steam_id}/snapshot
func (h *PortfolioHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	res, err := h.snapshots.TakeSnapshot(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, res)
}

// Inventory handles GET /api/v1/portfolio/{steam_id}/inventory
func (h *PortfolioHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.snapshots.PreviewInventory(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// History handles GET /api/v1/portfolio/{steam_id}/history
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	view, err := h.portfolio.History(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, view)
}

// Movers handles GET /api/v1/portfolio/{steam_id}/movers
func (h *PortfolioHandler) Movers(w http.ResponseWriter, r *http.Request) {
	movers, err := h.portfolio.Movers(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, movers)
}

// Allocation handles GET /api/v1/portfolio/{steam_id}/allocation
func (h *PortfolioHandler) Allocation(w http.ResponseWriter, r *http.Request) {
	slices, err := h.portfolio.Allocation(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"slices": slices})
}

// SmartSale handles GET /api/v1/portfolio/{steam_id}/smart-sale
func (h *PortfolioHandler) SmartSale(w http.ResponseWriter, r *http.Request) {
	picks, err := h.portfolio.SmartSale(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"picks": picks})
}

// ItemScore handles GET /api/v1/portfolio/{steam_id}/items/{name}/score
func (h *PortfolioHandler) ItemScore(w http.ResponseWriter, r *http.Request) {
	pick, err := h.portfolio.ItemScore(r.Context(), pathParam(r, "steam_id"), pathParam(r, "name"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, pick)
}

// ListOverrides handles GET /api/v1/portfolio/{steam_id}/overrides
func (h *PortfolioHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	list, err := h.overrides.List(r.Context(), pathParam(r, "steam_id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"overrides": list})
}

// SetOverride handles PUT /api/v1/portfolio/{steam_id}/overrides
func (h *PortfolioHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var in service.SetOverrideInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.Error(w, err)
		return
	}

	o, err := h.overrides.Set(r.Context(), pathParam(r, "steam_id"), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, o)
}

// ClearOverride handles DELETE /api/v1/portfolio/{steam_id}/overrides?item_name=
func (h *PortfolioHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.overrides.Clear(r.Context(), pathParam(r, "steam_id"), r.URL.Query().Get("item_name")); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
