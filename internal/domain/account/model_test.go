package account

import (
	"testing"
	"time"
)

func TestStatus(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		acct Account
		want EntitlementStatus
	}{
		{"fresh account", Account{Entitled: false}, StatusInactive},
		{"not entitled with future expiry", Account{Entitled: false, PlanExpiresAt: &future}, StatusInactive},
		{"entitled no expiry", Account{Entitled: true}, StatusActive},
		{"entitled future expiry", Account{Entitled: true, PlanExpiresAt: &future}, StatusActive},
		{"entitled past expiry", Account{Entitled: true, PlanExpiresAt: &past}, StatusExpired},
		{"expiry exactly now", Account{Entitled: true, PlanExpiresAt: &now}, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acct.Status(now); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActiveAt(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	expiry := now.Add(time.Second)
	acct := Account{Entitled: true, PlanExpiresAt: &expiry}
	if !acct.ActiveAt(now) {
		t.Error("account with expiry one second ahead should be active")
	}
	if acct.ActiveAt(expiry) {
		t.Error("account at its exact expiry instant should not be active")
	}
	if acct.ActiveAt(expiry.Add(time.Second)) {
		t.Error("account past its expiry should not be active")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Doctor@Example.COM", "doctor@example.com"},
		{"  doc@clinic.org  ", "doc@clinic.org"},
		{"already@lower.com", "already@lower.com"},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
