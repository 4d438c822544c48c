package account

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes registers the identity-only status endpoint. The group must
// carry the authentication middleware, which resolves (and lazily creates)
// the caller's account.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/me/status", h.Status)
}

// StatusResponse reports the caller's current subscription standing.
// PlanExpiresAt is RFC3339 or null when no expiry was ever set.
type StatusResponse struct {
	Email         string     `json:"email"`
	Active        bool       `json:"active"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`
}

func (h *Handler) Status(c echo.Context) error {
	acct, ok := c.Get(ContextKey).(*Account)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	return c.JSON(http.StatusOK, StatusResponse{
		Email:         acct.Email,
		Active:        acct.ActiveAt(time.Now()),
		PlanExpiresAt: acct.PlanExpiresAt,
	})
}
