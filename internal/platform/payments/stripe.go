// Package payments is the client boundary to the external payment provider.
// Settlement truth is pulled on demand (verify-session) instead of delivered
// by webhook, so the product works without an externally reachable callback
// endpoint.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMisconfigured means the provider secret key or price id is absent.
// Surfaced as a server-side 500; never interpreted as an entitlement answer.
var ErrMisconfigured = errors.New("payment provider is not configured")

// Session is a provider checkout session. Status fields are returned raw for
// observability; Paid is the only interpretation this codebase makes.
type Session struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// Paid reports whether the provider considers the session settled.
func (s *Session) Paid() bool {
	return s.PaymentStatus == "paid" || s.Status == "complete"
}

// CheckoutParams configures a hosted checkout session.
type CheckoutParams struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Provider creates and retrieves checkout sessions.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error)
}

const defaultStripeBaseURL = "https://api.stripe.com"

// StripeClient talks to the Stripe checkout-session API with the account's
// secret key. BaseURL is overridable for tests.
type StripeClient struct {
	SecretKey string
	PriceID   string
	BaseURL   string
	client    *http.Client
}

func NewStripeClient(secretKey, priceID string) *StripeClient {
	return &StripeClient{
		SecretKey: secretKey,
		PriceID:   priceID,
		BaseURL:   defaultStripeBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// stripeError is the provider's error envelope.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error) {
	if c.SecretKey == "" || c.PriceID == "" {
		return nil, ErrMisconfigured
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", c.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("customer_email", p.CustomerEmail)
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("allow_promotion_codes", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error) {
	if c.SecretKey == "" {
		return nil, ErrMisconfigured
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	return c.do(req)
}

func (c *StripeClient) do(req *http.Request) (*Session, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr stripeError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("payment provider returned status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decoding payment provider response: %w", err)
	}
	return &session, nil
}
