package patient

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) UpsertPatient(ctx context.Context, p *Patient) error {
	if p.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.repo.Upsert(ctx, p)
}

// GetRecord returns the patient with their visit history, newest first.
func (s *Service) GetRecord(ctx context.Context, identifier string) (*Record, error) {
	p, err := s.repo.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}
	visits, err := s.repo.ListVisits(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if visits == nil {
		visits = []*Visit{}
	}
	return &Record{Identifier: p.Identifier, Name: p.Name, Visits: visits}, nil
}

// AddVisit appends a visit note. The patient must already exist.
func (s *Service) AddVisit(ctx context.Context, v *Visit) error {
	if _, err := s.repo.Get(ctx, v.PatientIdentifier); err != nil {
		return err
	}
	return s.repo.AddVisit(ctx, v)
}
