package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSteamID = "76561198000000001"

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(config.SteamConfig{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		RetryBackoff: time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestFetchInventory_Primary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory/"+testSteamID+"/730/2", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("l"))
		assert.Equal(t, "5000", r.URL.Query().Get("count"))
		w.Write([]byte(`{"assets":[{"classid":"1","instanceid":"0"}],"descriptions":[{"classid":"1","instanceid":"0","market_hash_name":"AWP | Asiimov (Field-Tested)"}]}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(t, srv).FetchInventory(context.Background(), testSteamID)
	require.NoError(t, err)
	assert.Len(t, payload.Assets, 1)
	assert.Equal(t, "AWP | Asiimov (Field-Tested)", payload.Descriptions[0].DisplayName())
}

func TestFetchInventory_RetriesTransientThenFallsBack(t *testing.T) {
	var primaryHits, legacyHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/inventory/") {
			atomic.AddInt32(&primaryHits, 1)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		atomic.AddInt32(&legacyHits, 1)
		assert.Equal(t, "/profiles/"+testSteamID+"/inventory/json/730/2", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"rgInventory": {"9001": {"id":"9001","classid":"55","instanceid":"0","amount":"1"}},
			"rgDescriptions": {"55_0": {"classid":"55","instanceid":"0","name":"Chroma 2 Case"}}
		}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(t, srv).FetchInventory(context.Background(), testSteamID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&primaryHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&legacyHits))

	items := Aggregate(payload)
	require.Len(t, items, 1)
	assert.Equal(t, "Chroma 2 Case", items[0].Name)
	assert.Equal(t, 1, items[0].Qty)
}

func TestFetchInventory_ClientErrorSkipsRetry(t *testing.T) {
	var primaryHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/inventory/") {
			atomic.AddInt32(&primaryHits, 1)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchInventory(context.Background(), testSteamID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInventoryUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&primaryHits))
}

func TestFetchInventory_MalformedPrimaryPayload(t *testing.T) {
	var legacyHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/profiles/") {
			atomic.AddInt32(&legacyHits, 1)
		}
		w.Write([]byte(`{"total_inventory_count":0}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchInventory(context.Background(), testSteamID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInventoryUnavailable))
	assert.Contains(t, err.Error(), "steam_invalid_payload")
	assert.Equal(t, int32(0), atomic.LoadInt32(&legacyHits))
}

func TestFetchInventory_LegacyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("down"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchInventory(context.Background(), testSteamID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInventoryUnavailable))
	assert.Contains(t, err.Error(), "500")
}

func TestFetchInventory_InvalidSteamID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchInventory(context.Background(), "abc")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}
