package whitepay

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/domain/order"
	"paybridge/internal/provider"
	"paybridge/internal/provider/base"
)

// Provider talks to the Whitepay crypto-orders API and authenticates its
// callbacks. It implements provider.Gateway.
type Provider struct {
	http          *base.HTTPClient
	apiKey        string
	webhookSecret string
	slug          string // merchant-specific crypto-orders endpoint segment
}

// Config carries the processor credentials and endpoint settings.
type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	Slug          string
	Timeout       time.Duration
}

// New creates a Whitepay provider.
func New(cfg Config) *Provider {
	client := base.NewHTTPClient("whitepay", cfg.Timeout)
	client.SetBaseURL(cfg.BaseURL)
	return &Provider{
		http:          client,
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		slug:          cfg.Slug,
	}
}

type orderEnvelope struct {
	Order struct {
		Status       string `json:"status"`
		AcquiringURL string `json:"acquiring_url"`
	} `json:"order"`
}

// CreateOrder opens a crypto payment for the store order. Expected failures
// come back as *provider.GatewayError; the order is never mutated here.
func (p *Provider) CreateOrder(ctx context.Context, ord *order.Order) (provider.OrderResult, error) {
	payload := map[string]string{
		"amount":            ord.Amount.Decimal(),
		"currency":          string(ord.Currency),
		"external_order_id": ord.ID,
	}
	resp, err := p.http.PostJSON(ctx, "/private-api/crypto-orders/"+p.slug, payload, p.authHeaders())
	if err != nil {
		return provider.OrderResult{}, provider.Unavailable(err)
	}
	return p.parseOrder(resp, true)
}

// GetOrder fetches the processor's current view of an order. Used by the
// expiry sweep to double-check before giving up on a pending payment.
func (p *Provider) GetOrder(ctx context.Context, externalOrderID string) (provider.OrderResult, error) {
	resp, err := p.http.Get(ctx, "/private-api/crypto-orders/"+p.slug+"/"+externalOrderID, p.authHeaders())
	if err != nil {
		return provider.OrderResult{}, provider.Unavailable(err)
	}
	return p.parseOrder(resp, false)
}

// parseOrder decodes the shared order envelope. When creating is true, any
// parsed status other than INIT is a rejection.
func (p *Provider) parseOrder(resp *base.HTTPResponse, creating bool) (provider.OrderResult, error) {
	if len(resp.Body) == 0 {
		return provider.OrderResult{}, provider.MalformedResponse(errors.New("empty response body"))
	}
	var env orderEnvelope
	if err := resp.UnmarshalJSON(&env); err != nil {
		return provider.OrderResult{}, provider.MalformedResponse(err)
	}
	if env.Order.Status == "" {
		return provider.OrderResult{}, provider.MalformedResponse(errors.New("response missing order status"))
	}
	res := provider.OrderResult{Status: env.Order.Status, AcquiringURL: env.Order.AcquiringURL}
	if creating && !res.Accepted() {
		if res.Status == provider.StatusInit {
			return res, provider.MalformedResponse(errors.New("accepted order missing acquiring_url"))
		}
		return res, provider.Rejected(res.Status)
	}
	return res, nil
}

func (p *Provider) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}
