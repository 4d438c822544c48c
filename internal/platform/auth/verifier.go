package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. Handlers map all of these to 401; they stay
// distinct so logs and tests can tell why a token was refused.
var (
	ErrMissingCredential = errors.New("missing bearer credential")
	ErrInvalidToken      = errors.New("invalid token")
	ErrEmailMissing      = errors.New("token carries no email claim")
	ErrWrongAudience     = errors.New("token was not issued for this project")
)

// VerifiedIdentity is the per-request result of token verification. It is
// never persisted.
type VerifiedIdentity struct {
	SubjectID         string
	Email             string
	Issuer            string
	Audience          string
	RevocationChecked bool
}

// IdentityContextKey is the echo context key for the verified identity.
const IdentityContextKey = "identity"

// Verifier validates an identity token and extracts the verified identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*VerifiedIdentity, error)
}

// idTokenClaims is the claim set of a provider-issued ID token.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// VerifierConfig configures the token verifier.
type VerifierConfig struct {
	// ProjectID is the trusted identity project. When set, tokens whose
	// audience and issuer both fail to match it are rejected. When empty the
	// verifier runs in open mode and accepts any audience.
	ProjectID string

	// JWKSURL is the provider's published key set. Required unless
	// SigningKey is set.
	JWKSURL string

	// SigningKey enables HMAC verification for development and tests only.
	SigningKey []byte

	// Revocations actively checks tokens against the provider. Nil disables
	// the check; VerifiedIdentity.RevocationChecked reports which happened.
	Revocations RevocationChecker
}

type tokenVerifier struct {
	cfg     VerifierConfig
	keyFunc jwt.Keyfunc
}

// NewVerifier builds a Verifier from the given configuration.
func NewVerifier(cfg VerifierConfig) Verifier {
	v := &tokenVerifier{cfg: cfg}
	if len(cfg.SigningKey) > 0 {
		v.keyFunc = func(t *jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	} else {
		v.keyFunc = jwksKeyFunc(cfg.JWKSURL)
	}
	return v
}

func (v *tokenVerifier) Verify(ctx context.Context, rawToken string) (*VerifiedIdentity, error) {
	if rawToken == "" {
		return nil, ErrMissingCredential
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, v.keyFunc,
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	audience := ""
	if len(claims.Audience) > 0 {
		audience = claims.Audience[0]
	}

	if v.cfg.ProjectID != "" && !matchesProject(claims, v.cfg.ProjectID) {
		return nil, ErrWrongAudience
	}

	if claims.Email == "" {
		return nil, ErrEmailMissing
	}

	ident := &VerifiedIdentity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Issuer:    claims.Issuer,
		Audience:  audience,
	}

	if v.cfg.Revocations != nil {
		issuedAt := time.Time{}
		if claims.IssuedAt != nil {
			issuedAt = claims.IssuedAt.Time
		}
		revoked, err := v.cfg.Revocations.CheckRevoked(ctx, claims.Subject, issuedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: revocation check: %v", ErrInvalidToken, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrInvalidToken)
		}
		ident.RevocationChecked = true
	}

	return ident, nil
}

// matchesProject accepts a token when either its audience or its issuer
// identifies the trusted project. Providers put the project id in the aud
// claim and close the issuer URL with it.
func matchesProject(claims *idTokenClaims, projectID string) bool {
	for _, aud := range claims.Audience {
		if aud == projectID {
			return true
		}
	}
	if claims.Issuer == projectID || strings.HasSuffix(claims.Issuer, "/"+projectID) {
		return true
	}
	return false
}

// BearerToken extracts the credential from an Authorization header value.
// Absent header or a non-bearer scheme is ErrMissingCredential.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredential
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingCredential
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
