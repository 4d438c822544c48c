package account

import (
	"strings"
	"time"
)

// EntitlementStatus is the derived subscription state of an account.
type EntitlementStatus string

const (
	StatusInactive EntitlementStatus = "inactive"
	StatusActive   EntitlementStatus = "active"
	StatusExpired  EntitlementStatus = "expired"
)

// ContextKey is the echo context key under which the authenticated request's
// account is stored.
const ContextKey = "account"

// Account is one practitioner account, keyed by normalized email. It is
// created lazily on first verified sign-in and mutated only by entitlement
// activation.
type Account struct {
	Email         string     `db:"email" json:"email"`
	Entitled      bool       `db:"entitled" json:"entitled"`
	PlanExpiresAt *time.Time `db:"plan_expires_at" json:"plan_expires_at,omitempty"`
	LastSessionID *string    `db:"last_session_id" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Status derives the entitlement state at the given instant. An entitled
// account whose expiry has passed is EXPIRED, not INACTIVE: the distinction
// matters for re-activation (both transition back to ACTIVE the same way,
// but reporting differs).
func (a *Account) Status(now time.Time) EntitlementStatus {
	if !a.Entitled {
		return StatusInactive
	}
	if a.PlanExpiresAt != nil && !a.PlanExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusActive
}

// ActiveAt reports whether the account is admitted at the given instant.
// The boundary instant now == expiry is not admitted.
func (a *Account) ActiveAt(now time.Time) bool {
	return a.Status(now) == StatusActive
}

// NormalizeEmail lower-cases and trims an email address so it can serve as a
// stable identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
