package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/clinnote/clinnote/internal/domain/account"
)

func TestAccountGetOrCreateConcurrent(t *testing.T) {
	tdb := requireDB(t)
	truncateAccounts(t, tdb)
	repo := account.NewRepo(tdb.Pool)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			acct, err := repo.GetOrCreate(ctx, "Race@Clinic.Example")
			if err != nil {
				errs <- err
				return
			}
			if acct.Entitled {
				errs <- fmt.Errorf("fresh account came back entitled: %+v", acct)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	var count int
	if err := tdb.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM account WHERE email = $1`, "race@clinic.example").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("account rows = %d, want exactly 1", count)
	}
}

func TestAccountActivateConcurrent(t *testing.T) {
	tdb := requireDB(t)
	truncateAccounts(t, tdb)
	repo := account.NewRepo(tdb.Pool)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, "doc@clinic.example"); err != nil {
		t.Fatal(err)
	}

	// Each activation carries its own session and expiry. Writes must
	// serialize on the row: whichever lands last leaves its session and its
	// expiry together, never a mix of two activations.
	const n = 8
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	expiryBySession := make(map[string]time.Time, n)
	for i := 0; i < n; i++ {
		expiryBySession[fmt.Sprintf("cs_%02d", i)] = base.Add(time.Duration(i) * time.Hour)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for sid, expiry := range expiryBySession {
		wg.Add(1)
		go func(sid string, expiry time.Time) {
			defer wg.Done()
			if _, err := repo.Activate(ctx, "doc@clinic.example", sid, expiry); err != nil {
				errs <- fmt.Errorf("activate %s: %w", sid, err)
			}
		}(sid, expiry)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	acct, err := repo.Get(ctx, "doc@clinic.example")
	if err != nil {
		t.Fatal(err)
	}
	if !acct.Entitled {
		t.Error("account not entitled after activations")
	}
	if acct.LastSessionID == nil || acct.PlanExpiresAt == nil {
		t.Fatalf("activation fields not set: %+v", acct)
	}
	wantExpiry, ok := expiryBySession[*acct.LastSessionID]
	if !ok {
		t.Fatalf("LastSessionID = %q, not one of the submitted sessions", *acct.LastSessionID)
	}
	if !acct.PlanExpiresAt.Equal(wantExpiry) {
		t.Errorf("PlanExpiresAt = %v, want %v to match session %s",
			acct.PlanExpiresAt, wantExpiry, *acct.LastSessionID)
	}
}

func TestAccountActivateSameSessionWritesOnce(t *testing.T) {
	tdb := requireDB(t)
	truncateAccounts(t, tdb)
	repo := account.NewRepo(tdb.Pool)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, "doc@clinic.example"); err != nil {
		t.Fatal(err)
	}

	first, err := repo.Activate(ctx, "doc@clinic.example", "cs_once",
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	// Concurrent retries of the recorded session, each pushing a later
	// expiry. The guard lives in the UPDATE itself, so none may apply.
	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		expiry := first.PlanExpiresAt.Add(time.Duration(i+1) * time.Hour)
		go func(expiry time.Time) {
			defer wg.Done()
			acct, err := repo.Activate(ctx, "doc@clinic.example", "cs_once", expiry)
			if err != nil {
				errs <- err
				return
			}
			if !acct.PlanExpiresAt.Equal(*first.PlanExpiresAt) {
				errs <- fmt.Errorf("retry moved expiry to %v", acct.PlanExpiresAt)
			}
		}(expiry)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	acct, err := repo.Get(ctx, "doc@clinic.example")
	if err != nil {
		t.Fatal(err)
	}
	if !acct.PlanExpiresAt.Equal(*first.PlanExpiresAt) {
		t.Errorf("expiry moved from %v to %v on retried session", first.PlanExpiresAt, acct.PlanExpiresAt)
	}

	// A different session extends as usual.
	later := first.PlanExpiresAt.Add(30 * 24 * time.Hour)
	if _, err := repo.Activate(ctx, "doc@clinic.example", "cs_next", later); err != nil {
		t.Fatal(err)
	}
	acct, err = repo.Get(ctx, "doc@clinic.example")
	if err != nil {
		t.Fatal(err)
	}
	if !acct.PlanExpiresAt.Equal(later) {
		t.Errorf("new session expiry = %v, want %v", acct.PlanExpiresAt, later)
	}
}

func TestAccountActivateUnknownAccount(t *testing.T) {
	tdb := requireDB(t)
	truncateAccounts(t, tdb)
	repo := account.NewRepo(tdb.Pool)

	_, err := repo.Activate(context.Background(), "ghost@clinic.example", "cs_1",
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, account.ErrNotFound) {
		t.Errorf("error = %v, want account.ErrNotFound", err)
	}
}
