package db

import (
	"context"
	"strings"
	"testing"
)

func TestNewPoolRejectsMinAboveMax(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://localhost:5432/clinnote", 2, 8)
	if err == nil {
		t.Fatal("expected an error for min conns above max conns")
	}
	if !strings.Contains(err.Error(), "min conns 8 exceeds max conns 2") {
		t.Errorf("error = %v, want the sizing mistake spelled out", err)
	}
}

func TestNewPoolRejectsUnparseableURL(t *testing.T) {
	if _, err := NewPool(context.Background(), "://not-a-database-url", 0, 0); err == nil {
		t.Fatal("expected an error for an unparseable database url")
	}
}
