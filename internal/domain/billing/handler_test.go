package billing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinnote/clinnote/internal/domain/account"
	"github.com/clinnote/clinnote/internal/platform/payments"
)

var errProviderDown = errors.New("provider down")

func doBilling(t *testing.T, h echo.HandlerFunc, path, body string, acct *account.Account) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if acct != nil {
		c.Set(account.ContextKey, acct)
	}

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestCreateCheckoutSessionHandler(t *testing.T) {
	acct := &account.Account{Email: "doc@clinic.org"}

	t.Run("returns the checkout url", func(t *testing.T) {
		provider := &mockProvider{session: &payments.Session{URL: "https://pay.example/cs_1"}}
		h := NewHandler(newTestService(provider, newMockAccountRepo()))

		rec := doBilling(t, h.CreateCheckoutSession, "/billing/create-checkout-session", `{}`, acct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		if !strings.Contains(rec.Body.String(), "https://pay.example/cs_1") {
			t.Errorf("body = %s, want checkout url", rec.Body)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		provider := &mockProvider{}
		h := NewHandler(newTestService(provider, newMockAccountRepo()))

		rec := doBilling(t, h.CreateCheckoutSession, "/billing/create-checkout-session", `{}`, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("misconfigured provider is a 500", func(t *testing.T) {
		provider := &mockProvider{err: payments.ErrMisconfigured}
		h := NewHandler(newTestService(provider, newMockAccountRepo()))

		rec := doBilling(t, h.CreateCheckoutSession, "/billing/create-checkout-session", `{}`, acct)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestVerifySessionHandler(t *testing.T) {
	acct := &account.Account{Email: "doc@clinic.org"}

	t.Run("session_id is required", func(t *testing.T) {
		h := NewHandler(newTestService(&mockProvider{}, newMockAccountRepo()))

		rec := doBilling(t, h.VerifySession, "/billing/verify-session", `{}`, acct)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("paid session reports ok", func(t *testing.T) {
		repo := newMockAccountRepo()
		repo.accounts["doc@clinic.org"] = &account.Account{Email: "doc@clinic.org"}
		provider := &mockProvider{session: &payments.Session{ID: "cs_1", Status: "complete", PaymentStatus: "paid"}}
		h := NewHandler(newTestService(provider, repo))

		rec := doBilling(t, h.VerifySession, "/billing/verify-session", `{"session_id":"cs_1"}`, acct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		if !strings.Contains(rec.Body.String(), `"ok":true`) {
			t.Errorf("body = %s, want ok:true", rec.Body)
		}
	})

	t.Run("provider failure is a 502", func(t *testing.T) {
		provider := &mockProvider{err: errProviderDown}
		h := NewHandler(newTestService(provider, newMockAccountRepo()))

		rec := doBilling(t, h.VerifySession, "/billing/verify-session", `{"session_id":"cs_1"}`, acct)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}
