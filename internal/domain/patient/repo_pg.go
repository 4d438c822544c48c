package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Upsert(ctx context.Context, p *Patient) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient (identifier, name) VALUES ($1, $2)
		ON CONFLICT (identifier) DO UPDATE SET name = EXCLUDED.name
		RETURNING created_at`, p.Identifier, p.Name).Scan(&p.CreatedAt)
}

func (r *repoPG) Get(ctx context.Context, identifier string) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx,
		`SELECT identifier, name, created_at FROM patient WHERE identifier = $1`,
		identifier).Scan(&p.Identifier, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patient get: %w", err)
	}
	return &p, nil
}

const visitCols = `id, patient_identifier, recorded_at, history, background, allergies,
	medications, physical_exam, vitals, plan, prescriptions`

func (r *repoPG) AddVisit(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now().UTC()
	}

	vitals, err := json.Marshal(v.Vitals)
	if err != nil {
		return fmt.Errorf("visit add: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO visit (`+visitCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.PatientIdentifier, v.RecordedAt, v.History, v.Background, v.Allergies,
		v.Medications, v.PhysicalExam, vitals, v.Plan, v.Prescriptions,
	)
	return err
}

func (r *repoPG) ListVisits(ctx context.Context, identifier string) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+` FROM visit
		WHERE patient_identifier = $1
		ORDER BY recorded_at DESC`, identifier)
	if err != nil {
		return nil, fmt.Errorf("visit list: %w", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		var v Visit
		var vitals []byte
		err := rows.Scan(&v.ID, &v.PatientIdentifier, &v.RecordedAt, &v.History, &v.Background,
			&v.Allergies, &v.Medications, &v.PhysicalExam, &vitals, &v.Plan, &v.Prescriptions)
		if err != nil {
			return nil, err
		}
		if len(vitals) > 0 {
			if err := json.Unmarshal(vitals, &v.Vitals); err != nil {
				return nil, fmt.Errorf("visit vitals decode: %w", err)
			}
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}
