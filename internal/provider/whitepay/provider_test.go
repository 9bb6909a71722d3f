package whitepay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/provider"

	"github.com/stretchr/testify/require"
)

func testOrder(t *testing.T) *order.Order {
	t.Helper()
	ord, err := order.New("42", "7", 1000, order.USD)
	require.NoError(t, err)
	return ord
}

func newTestProvider(baseURL string) *Provider {
	return New(Config{
		BaseURL:       baseURL,
		APIKey:        "api-key",
		WebhookSecret: "hook-secret",
		Slug:          "my-shop",
		Timeout:       2 * time.Second,
	})
}

func TestCreateOrderAccepted(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{
				"status":        "INIT",
				"acquiring_url": "https://pay.example/abc",
			},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	res, err := p.CreateOrder(context.Background(), testOrder(t))
	require.NoError(t, err)
	require.Equal(t, "https://pay.example/abc", res.AcquiringURL)
	require.True(t, res.Accepted())

	require.Equal(t, "/private-api/crypto-orders/my-shop", gotPath)
	require.Equal(t, "Bearer api-key", gotAuth)
	require.Equal(t, map[string]string{
		"amount":            "10.00",
		"currency":          "USD",
		"external_order_id": "42",
	}, gotBody)
}

func TestCreateOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"status": "DECLINED"},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.CreateOrder(context.Background(), testOrder(t))

	var gerr *provider.GatewayError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, provider.ErrRejected, gerr.Kind)
	require.Equal(t, "DECLINED", gerr.Status)
}

func TestCreateOrderMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"empty body":     "",
		"not json":       "<html>oops</html>",
		"missing status": `{"order":{}}`,
		"init without acquiring url": `{"order":{"status":"INIT"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			p := newTestProvider(srv.URL)
			_, err := p.CreateOrder(context.Background(), testOrder(t))

			var gerr *provider.GatewayError
			require.True(t, errors.As(err, &gerr))
			require.Equal(t, provider.ErrMalformedResponse, gerr.Kind)
		})
	}
}

func TestCreateOrderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p := newTestProvider(srv.URL)
	_, err := p.CreateOrder(context.Background(), testOrder(t))

	var gerr *provider.GatewayError
	require.True(t, errors.As(err, &gerr))
	require.Equal(t, provider.ErrUnavailable, gerr.Kind)
}

func TestGetOrderAllowsSettledStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/private-api/crypto-orders/my-shop/42", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"status": "COMPLETE"},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	res, err := p.GetOrder(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "COMPLETE", res.Status)
	require.False(t, res.Accepted())
}

func TestParseNotification(t *testing.T) {
	p := newTestProvider("http://unused")

	t.Run("string id", func(t *testing.T) {
		n, err := p.ParseNotification([]byte(`{"order":{"external_order_id":"42","status":"COMPLETE"}}`))
		require.NoError(t, err)
		require.Equal(t, "42", n.ExternalOrderID)
		require.Equal(t, "COMPLETE", n.Status)
	})

	t.Run("numeric id", func(t *testing.T) {
		n, err := p.ParseNotification([]byte(`{"order":{"external_order_id":42,"status":"DECLINED"}}`))
		require.NoError(t, err)
		require.Equal(t, "42", n.ExternalOrderID)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := p.ParseNotification([]byte(`{"order":{"status":"COMPLETE"}}`))
		require.Error(t, err)
	})

	t.Run("missing status", func(t *testing.T) {
		_, err := p.ParseNotification([]byte(`{"order":{"external_order_id":"42"}}`))
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := p.ParseNotification([]byte(`not json`))
		require.Error(t, err)
	})
}
