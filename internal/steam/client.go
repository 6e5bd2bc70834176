// Package steam fetches CS2 inventories from the Steam community endpoints
// and collapses them into item counts.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/config"
	"skinsignal-api/internal/model"

	"go.uber.org/zap"
)

const (
	appID        = 730
	contextID    = 2
	maxBodyBytes = 32 << 20
	maxAttempts  = 2
	bodyPreview  = 500
)

// Client reads inventories from the primary endpoint, falling back to the legacy JSON endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	backoff time.Duration
	log     *zap.Logger
}

// NewClient creates a Steam inventory client.
func NewClient(cfg config.SteamConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		backoff: cfg.RetryBackoff,
		log:     log.Named("steam"),
	}
}

// statusError is a non-2xx upstream response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("steam_fetch_failed: %d", e.status)
	}
	return fmt.Sprintf("steam_fetch_failed: %d body=%q", e.status, e.body)
}

// clientError reports whether retrying the same request is pointless.
func (e *statusError) clientError() bool {
	switch e.status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// FetchInventory returns the normalized inventory for steamID.
// Every failure is reported as an inventory-unavailable error.
func (c *Client) FetchInventory(ctx context.Context, steamID string) (*model.InventoryPayload, error) {
	id, err := model.NormalizeSteamID(steamID)
	if err != nil {
		return nil, err
	}

	payload, primaryErr := c.fetchPrimary(ctx, id)
	if primaryErr == nil {
		return payload, nil
	}
	if errors.Is(primaryErr, apperror.ErrInventoryUnavailable) || ctx.Err() != nil {
		return nil, inventoryError(primaryErr)
	}

	c.log.Warn("primary inventory endpoint failed, trying legacy",
		zap.String("steam_id", id), zap.Error(primaryErr))

	payload, err = c.fetchLegacy(ctx, id)
	if err != nil {
		return nil, inventoryError(err)
	}
	return payload, nil
}

func inventoryError(err error) error {
	if errors.Is(err, apperror.ErrInventoryUnavailable) {
		return err
	}
	return apperror.InventoryUnavailable("steam inventory is private or unreachable", err)
}

// fetchPrimary tries the modern endpoint up to maxAttempts times. Client-class
// statuses stop the loop at once. A 2xx with a malformed body is terminal.
func (c *Client) fetchPrimary(ctx context.Context, steamID string) (*model.InventoryPayload, error) {
	url := fmt.Sprintf("%s/inventory/%s/%d/%d?l=en&count=5000", c.baseURL, steamID, appID, contextID)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff); err != nil {
				return nil, err
			}
		}

		body, err := c.get(ctx, url)
		if err == nil {
			var payload model.InventoryPayload
			if jerr := json.Unmarshal(body, &payload); jerr != nil {
				return nil, apperror.InventoryUnavailable("steam_invalid_payload: missing assets/descriptions", jerr)
			}
			if verr := model.Validate(payload); verr != nil {
				return nil, apperror.InventoryUnavailable("steam_invalid_payload: missing assets/descriptions", verr)
			}
			return &payload, nil
		}

		lastErr = err
		var se *statusError
		if errors.As(err, &se) && se.clientError() {
			break
		}
		c.log.Debug("primary inventory attempt failed",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}

type legacyResponse struct {
	Success        bool                         `json:"success"`
	RgInventory    map[string]legacyAsset       `json:"rgInventory"`
	RgDescriptions map[string]legacyDescription `json:"rgDescriptions"`
}

type legacyAsset struct {
	ClassID    model.FlexString `json:"classid"`
	InstanceID model.FlexString `json:"instanceid"`
	Amount     model.FlexString `json:"amount"`
}

type legacyDescription struct {
	ClassID        model.FlexString `json:"classid"`
	InstanceID     model.FlexString `json:"instanceid"`
	MarketHashName string           `json:"market_hash_name"`
	Name           string           `json:"name"`
}

func (c *Client) fetchLegacy(ctx context.Context, steamID string) (*model.InventoryPayload, error) {
	url := fmt.Sprintf("%s/profiles/%s/inventory/json/%d/%d", c.baseURL, steamID, appID, contextID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp legacyResponse
	if err := json.Unmarshal(body, &resp); err != nil || !resp.Success {
		return nil, apperror.InventoryUnavailable("steam_legacy_failed: unexpected payload", err)
	}
	return normalizeLegacy(resp), nil
}

// normalizeLegacy flattens the keyed legacy maps into the primary endpoint's shape.
func normalizeLegacy(resp legacyResponse) *model.InventoryPayload {
	payload := &model.InventoryPayload{
		Assets:       make([]model.Asset, 0, len(resp.RgInventory)),
		Descriptions: make([]model.Description, 0, len(resp.RgDescriptions)),
	}

	for _, a := range resp.RgInventory {
		payload.Assets = append(payload.Assets, model.Asset{
			ClassID:    a.ClassID,
			InstanceID: orDefault(a.InstanceID, "0"),
			Amount:     orDefault(a.Amount, "1"),
		})
	}
	for _, d := range resp.RgDescriptions {
		name := d.MarketHashName
		if name == "" {
			name = d.Name
		}
		payload.Descriptions = append(payload.Descriptions, model.Description{
			ClassID:        d.ClassID,
			InstanceID:     orDefault(d.InstanceID, "0"),
			MarketHashName: name,
			Name:           d.Name,
		})
	}
	return payload
}

func orDefault(v model.FlexString, def string) model.FlexString {
	if v == "" {
		return model.FlexString(def)
	}
	return v
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := string(body)
		if len(preview) > bodyPreview {
			preview = preview[:bodyPreview]
		}
		return nil, &statusError{status: resp.StatusCode, body: preview}
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
