package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/clinnote/clinnote/internal/domain/account"
	"github.com/clinnote/clinnote/internal/platform/payments"
)

// entitlementWindow is how long one confirmed payment entitles an account.
const entitlementWindow = 30 * 24 * time.Hour

// ReconcileResult reports one reconciliation against the payment provider.
// Status and PaymentStatus are the provider's raw fields, kept for
// observability.
type ReconcileResult struct {
	OK            bool   `json:"ok"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type Service struct {
	provider payments.Provider
	accounts account.Repository
	siteURL  string
	now      func() time.Time
}

func NewService(provider payments.Provider, accounts account.Repository, siteURL string) *Service {
	return &Service{
		provider: provider,
		accounts: accounts,
		siteURL:  siteURL,
		now:      time.Now,
	}
}

// CreateCheckout opens a hosted checkout session for the given account and
// returns the redirect URL. Redirect targets default to the configured
// frontend; the success URL carries the session id placeholder the provider
// substitutes, which the client then feeds back into VerifySession.
func (s *Service) CreateCheckout(ctx context.Context, email, successURL, cancelURL string) (string, error) {
	if successURL == "" {
		successURL = s.siteURL + "/?session_id={CHECKOUT_SESSION_ID}"
	}
	if cancelURL == "" {
		cancelURL = s.siteURL + "/?canceled=1"
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		CustomerEmail: email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// VerifySession reconciles the account's entitlement against the provider's
// settlement state for one checkout session.
//
// The provider is queried without holding any account lock. A paid session
// activates the account for now+30d; one session grants one window, so a
// retried confirmation reports ok without extending again. The repository
// applies grant and per-session guard in one atomic write, so concurrent
// retries of the same session cannot double-grant. An unpaid session and
// any provider failure leave the account untouched.
func (s *Service) VerifySession(ctx context.Context, email, sessionID string) (*ReconcileResult, error) {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		Status:        session.Status,
		PaymentStatus: session.PaymentStatus,
	}

	if !session.Paid() {
		return result, nil
	}
	result.OK = true

	if _, err := s.accounts.Activate(ctx, email, sessionID, s.now().Add(entitlementWindow)); err != nil {
		return nil, fmt.Errorf("activating account %s: %w", email, err)
	}
	return result, nil
}
