package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const accountCols = `email, entitled, plan_expires_at, last_session_id, created_at, updated_at`

func (r *repoPG) GetOrCreate(ctx context.Context, email string) (*Account, error) {
	email = NormalizeEmail(email)

	// Insert-if-absent at the storage layer closes the race between
	// concurrent first sign-ins; a read-then-write check would not.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account (email) VALUES ($1)
		ON CONFLICT (email) DO NOTHING`, email)
	if err != nil {
		return nil, fmt.Errorf("account get or create: %w", err)
	}

	return r.Get(ctx, email)
}

func (r *repoPG) Get(ctx context.Context, email string) (*Account, error) {
	email = NormalizeEmail(email)

	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM account WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account get: %w", err)
	}
	return a, nil
}

func (r *repoPG) Activate(ctx context.Context, email, sessionID string, expiresAt time.Time) (*Account, error) {
	email = NormalizeEmail(email)

	// Single UPDATE so concurrent activations serialize on the row; the
	// later write's expiry wins. The IS DISTINCT FROM guard enforces
	// one-window-per-session inside the same statement: re-applying the
	// session already on the row matches nothing and writes nothing.
	a, err := scanAccount(r.pool.QueryRow(ctx, `
		UPDATE account
		SET entitled = TRUE, plan_expires_at = $2, last_session_id = $3, updated_at = NOW()
		WHERE email = $1 AND last_session_id IS DISTINCT FROM $3
		RETURNING `+accountCols, email, expiresAt, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		// No row updated: the account is missing, or this session was
		// already applied. Get distinguishes the two.
		existing, getErr := r.Get(ctx, email)
		if getErr != nil {
			return nil, getErr
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account activate: %w", err)
	}
	return a, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.Email, &a.Entitled, &a.PlanExpiresAt, &a.LastSessionID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
