package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinnote/clinnote/internal/domain/account"
)

// AccountResolver resolves a verified email to its (lazily created) account.
type AccountResolver interface {
	GetOrCreate(ctx context.Context, email string) (*account.Account, error)
}

// Authenticate verifies the bearer token, applies the allow policy and
// resolves the caller's account. On success the verified identity and the
// account are stored on the echo context. No entitlement decision is made
// here; endpoints that need one stack RequireEntitlement on top.
//
// Error mapping: verification failures are 401, policy denial is 403. They
// stay distinct so a client can tell "log in again" from "this account may
// not use the product".
func Authenticate(verifier Verifier, policy *AllowPolicy, accounts AccountResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization: Bearer <token> required")
			}

			ident, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, ErrWrongAudience):
					return echo.NewHTTPError(http.StatusUnauthorized, "token was not issued for this deployment")
				case errors.Is(err, ErrEmailMissing):
					return echo.NewHTTPError(http.StatusUnauthorized, "token carries no email")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
			}

			email := account.NormalizeEmail(ident.Email)
			if !policy.Allow(email) {
				return echo.NewHTTPError(http.StatusForbidden, "email not authorized for this service")
			}

			acct, err := accounts.GetOrCreate(c.Request().Context(), email)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "resolving account")
			}

			c.Set(IdentityContextKey, ident)
			c.Set(account.ContextKey, acct)
			return next(c)
		}
	}
}

// RequireEntitlement admits only callers whose account is currently ACTIVE:
// entitled and, if an expiry is set, not yet past it. Denial is 402 so a
// client renders "please subscribe" rather than "please log in".
func RequireEntitlement() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acct, ok := c.Get(account.ContextKey).(*account.Account)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !acct.ActiveAt(time.Now()) {
				return echo.NewHTTPError(http.StatusPaymentRequired, "subscription inactive or expired")
			}
			return next(c)
		}
	}
}

// IdentityFromContext returns the verified identity set by Authenticate.
func IdentityFromContext(c echo.Context) *VerifiedIdentity {
	ident, _ := c.Get(IdentityContextKey).(*VerifiedIdentity)
	return ident
}

// AccountFromContext returns the account set by Authenticate.
func AccountFromContext(c echo.Context) *account.Account {
	acct, _ := c.Get(account.ContextKey).(*account.Account)
	return acct
}
