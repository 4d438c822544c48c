package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-123",
		"email": "doc@clinic.org",
		"aud":   "clinnote-prod",
		"iss":   "https://securetoken.example.com/clinnote-prod",
		"iat":   time.Now().Add(-time.Minute).Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})

	ident, err := v.Verify(context.Background(), signToken(t, validClaims()))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ident.SubjectID != "user-123" {
		t.Errorf("SubjectID = %q, want user-123", ident.SubjectID)
	}
	if ident.Email != "doc@clinic.org" {
		t.Errorf("Email = %q, want doc@clinic.org", ident.Email)
	}
	if ident.RevocationChecked {
		t.Error("RevocationChecked should be false without a checker")
	}
}

func TestVerifyMissingToken(t *testing.T) {
	v := NewVerifier(VerifierConfig{SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Verify(\"\") error = %v, want ErrMissingCredential", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), signToken(t, claims)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenWithoutExpiry(t *testing.T) {
	claims := validClaims()
	delete(claims, "exp")

	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), signToken(t, claims)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token without exp error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyBadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	signed, err := token.SignedString([]byte("some-other-key"))
	if err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("bad signature error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyNoEmail(t *testing.T) {
	claims := validClaims()
	delete(claims, "email")

	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), signToken(t, claims)); !errors.Is(err, ErrEmailMissing) {
		t.Errorf("token without email error = %v, want ErrEmailMissing", err)
	}
}

func TestVerifyAudience(t *testing.T) {
	claims := validClaims()
	claims["aud"] = "some-other-project"
	claims["iss"] = "https://securetoken.example.com/some-other-project"

	// With a trusted project configured, foreign tokens are refused.
	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), signToken(t, claims)); !errors.Is(err, ErrWrongAudience) {
		t.Errorf("foreign audience error = %v, want ErrWrongAudience", err)
	}

	// Open mode accepts any audience.
	open := NewVerifier(VerifierConfig{SigningKey: testSigningKey})
	if _, err := open.Verify(context.Background(), signToken(t, claims)); err != nil {
		t.Errorf("open-mode Verify() error = %v", err)
	}
}

func TestVerifyIssuerSuffixMatch(t *testing.T) {
	// Tokens from the provider carry the project id at the end of the issuer
	// URL; that alone is enough to match.
	claims := validClaims()
	claims["aud"] = "something-else"

	v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey})
	if _, err := v.Verify(context.Background(), signToken(t, claims)); err != nil {
		t.Errorf("issuer-suffix match error = %v", err)
	}
}

type stubRevocations struct {
	revoked bool
	err     error
	calls   int
}

func (s *stubRevocations) CheckRevoked(ctx context.Context, subjectID string, issuedAt time.Time) (bool, error) {
	s.calls++
	return s.revoked, s.err
}

func TestVerifyRevocation(t *testing.T) {
	t.Run("clean token is flagged as checked", func(t *testing.T) {
		rev := &stubRevocations{}
		v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey, Revocations: rev})

		ident, err := v.Verify(context.Background(), signToken(t, validClaims()))
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if !ident.RevocationChecked {
			t.Error("RevocationChecked should be true")
		}
		if rev.calls != 1 {
			t.Errorf("checker called %d times, want 1", rev.calls)
		}
	})

	t.Run("revoked token is refused", func(t *testing.T) {
		rev := &stubRevocations{revoked: true}
		v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey, Revocations: rev})

		if _, err := v.Verify(context.Background(), signToken(t, validClaims())); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("revoked token error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("checker failure refuses the token", func(t *testing.T) {
		rev := &stubRevocations{err: errors.New("provider down")}
		v := NewVerifier(VerifierConfig{ProjectID: "clinnote-prod", SigningKey: testSigningKey, Revocations: rev})

		if _, err := v.Verify(context.Background(), signToken(t, validClaims())); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("checker failure error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"empty header", "", "", true},
		{"wrong scheme", "Basic dXNlcg==", "", true},
		{"scheme only", "Bearer", "", true},
		{"blank token", "Bearer   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingCredential) {
					t.Errorf("BearerToken(%q) error = %v, want ErrMissingCredential", tt.header, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BearerToken(%q) error = %v", tt.header, err)
			}
			if got != tt.want {
				t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
