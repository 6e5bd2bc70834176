// Package market reads live CSFloat listings and derives price-ladder figures from them.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/config"
	"skinsignal-api/internal/model"

	"go.uber.org/zap"
)

const (
	maxAttempts  = 2
	maxBodyBytes = 8 << 20
)

// ListingSource fetches the current listings for one market hash name.
type ListingSource interface {
	FetchListings(ctx context.Context, name string) ([]model.Listing, error)
}

// CSFloatClient queries the CSFloat listings API.
type CSFloatClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	backoff time.Duration
	log     *zap.Logger
}

// NewCSFloatClient creates a CSFloat listings client.
func NewCSFloatClient(cfg config.MarketConfig, log *zap.Logger) *CSFloatClient {
	return &CSFloatClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		backoff: cfg.RetryBackoff,
		log:     log.Named("csfloat"),
	}
}

// FetchListings returns the listings for name. An empty result is not an error.
// 5xx and transport failures are retried once; 4xx fails immediately.
func (c *CSFloatClient) FetchListings(ctx context.Context, name string) ([]model.Listing, error) {
	if c.apiKey == "" {
		return nil, apperror.MarketFetch("CSFloat listings failed (missing api key)", nil)
	}

	endpoint := c.baseURL + "/api/v1/listings?market_hash_name=" + url.QueryEscape(name)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, apperror.MarketFetch("CSFloat listings cancelled", ctx.Err())
			case <-timer.C:
			}
		}

		listings, retry, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return listings, nil
		}
		lastErr = err
		if !retry {
			break
		}
		c.log.Debug("listings attempt failed", zap.String("item", name), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, lastErr
}

func (c *CSFloatClient) fetchOnce(ctx context.Context, endpoint string) ([]model.Listing, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, apperror.MarketFetch("CSFloat listings request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		retry := !errors.Is(err, context.Canceled) && ctx.Err() == nil
		return nil, retry, apperror.MarketFetch("CSFloat listings failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode >= 500, apperror.MarketFetch(fmt.Sprintf("CSFloat listings failed (%d)", resp.StatusCode), nil)
	}

	var page model.ListingPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&page); err != nil {
		return nil, false, apperror.MarketFetch("CSFloat listings: malformed body", err)
	}
	return []model.Listing(page), false, nil
}

var _ ListingSource = (*CSFloatClient)(nil)
