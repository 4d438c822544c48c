package billing

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinnote/clinnote/internal/platform/auth"
	"github.com/clinnote/clinnote/internal/platform/payments"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the billing endpoints. They require a valid
// identity but not an active entitlement: an expired account must be able to
// pay again.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/billing/create-checkout-session", h.CreateCheckoutSession)
	g.POST("/billing/verify-session", h.VerifySession)
}

type checkoutRequest struct {
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func (h *Handler) CreateCheckoutSession(c echo.Context) error {
	acct := auth.AccountFromContext(c)
	if acct == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	url, err := h.svc.CreateCheckout(c.Request().Context(), acct.Email, req.SuccessURL, req.CancelURL)
	if err != nil {
		return providerHTTPError(err)
	}
	return c.JSON(http.StatusOK, checkoutResponse{URL: url})
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) VerifySession(c echo.Context) error {
	acct := auth.AccountFromContext(c)
	if acct == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	result, err := h.svc.VerifySession(c.Request().Context(), acct.Email, req.SessionID)
	if err != nil {
		return providerHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// providerHTTPError maps reconciliation failures. Misconfiguration is our
// fault (500); a failing provider query is upstream (502). Neither is ever
// translated into an entitlement answer.
func providerHTTPError(err error) error {
	if errors.Is(err, payments.ErrMisconfigured) {
		return echo.NewHTTPError(http.StatusInternalServerError, "payment provider is not configured")
	}
	return echo.NewHTTPError(http.StatusBadGateway, err.Error())
}
