package patient

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no patient exists for the given identifier.
var ErrNotFound = errors.New("patient not found")

type Repository interface {
	// Upsert creates the patient or, if the identifier is already known,
	// updates the stored name.
	Upsert(ctx context.Context, p *Patient) error

	// Get returns the patient or ErrNotFound.
	Get(ctx context.Context, identifier string) (*Patient, error)

	// AddVisit appends a visit for an existing patient.
	AddVisit(ctx context.Context, v *Visit) error

	// ListVisits returns the patient's visits, newest first.
	ListVisits(ctx context.Context, identifier string) ([]*Visit, error)
}
