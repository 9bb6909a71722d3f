package whitepay

import (
	"encoding/json"
	"fmt"
	"strings"

	"paybridge/internal/provider"
)

// VerifySignature checks a callback signature against the configured secret.
func (p *Provider) VerifySignature(rawBody []byte, claimed string) bool {
	return VerifySignature(rawBody, p.webhookSecret, claimed)
}

// flexID tolerates external_order_id arriving as a JSON string or number;
// the processor serializes it both ways depending on how the order was
// created.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// ParseNotification decodes a callback body into a provider.Notification.
// Call only after the signature verified; the payload is untrusted before
// that.
func (p *Provider) ParseNotification(body []byte) (provider.Notification, error) {
	var payload struct {
		Order struct {
			ExternalOrderID flexID `json:"external_order_id"`
			Status          string `json:"status"`
		} `json:"order"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return provider.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	id := strings.TrimSpace(string(payload.Order.ExternalOrderID))
	if id == "" {
		return provider.Notification{}, fmt.Errorf("notification missing external_order_id")
	}
	if strings.TrimSpace(payload.Order.Status) == "" {
		return provider.Notification{}, fmt.Errorf("notification missing status")
	}
	return provider.Notification{
		ExternalOrderID: id,
		Status:          payload.Order.Status,
	}, nil
}
