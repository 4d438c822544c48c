package account

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no account exists for the given email.
var ErrNotFound = errors.New("account not found")

type Repository interface {
	// GetOrCreate returns the account for the normalized email, creating a
	// fresh unentitled record if none exists. Creation is atomic: concurrent
	// first calls for the same email yield exactly one record.
	GetOrCreate(ctx context.Context, email string) (*Account, error)

	// Get returns the account or ErrNotFound.
	Get(ctx context.Context, email string) (*Account, error)

	// Activate marks the account entitled until expiresAt and records the
	// payment session that granted it. Applied as a single atomic write;
	// concurrent activations serialize with the later write winning. One
	// session grants one window: activating with the session already on
	// record writes nothing and returns the account unchanged, atomically
	// with the write path. Returns ErrNotFound if the account does not
	// exist.
	Activate(ctx context.Context, email, sessionID string, expiresAt time.Time) (*Account, error)
}
