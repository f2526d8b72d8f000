package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianclinic/meridian/modules/clinic/domain/ports"
	"github.com/meridianclinic/meridian/modules/clinic/domain/types"
	"github.com/meridianclinic/meridian/modules/iam/services"
	"github.com/meridianclinic/meridian/pkg/httperr"
	"github.com/meridianclinic/meridian/pkg/uuidv7"
)

type dbQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PatientPGStore struct {
	db    dbQuerier
	guard services.IsolationGuard
}

func NewPatientPGStore(pool *pgxpool.Pool, guard services.IsolationGuard) ports.PatientStore {
	return &PatientPGStore{db: pool, guard: guard}
}

func (s *PatientPGStore) List(ctx context.Context) ([]types.Patient, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	rows, err := s.db.Query(ctx, `
SELECT patient_uuid::text, tenant_id::text, first_name, last_name, birth_date::text, email, phone
FROM clinic.patients
WHERE tenant_id = $1::uuid
ORDER BY last_name, first_name
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Patient
	for rows.Next() {
		var p types.Patient
		if err := rows.Scan(&p.PatientUUID, &p.TenantID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Email, &p.Phone); err != nil {
			return nil, err
		}
		s.guard.Verify(ctx, "clinic.patients", p.TenantID)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PatientPGStore) GetByID(ctx context.Context, patientUUID string) (types.Patient, bool, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	var p types.Patient
	err := s.db.QueryRow(ctx, `
SELECT patient_uuid::text, tenant_id::text, first_name, last_name, birth_date::text, email, phone
FROM clinic.patients
WHERE tenant_id = $1::uuid
  AND patient_uuid = $2::uuid
`, tenantID, patientUUID).Scan(&p.PatientUUID, &p.TenantID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Email, &p.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Patient{}, false, nil
		}
		return types.Patient{}, false, err
	}
	s.guard.Verify(ctx, "clinic.patients", p.TenantID)
	return p, true, nil
}

func (s *PatientPGStore) Create(ctx context.Context, p types.Patient) (types.Patient, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	if p.FirstName == "" || p.LastName == "" {
		return types.Patient{}, httperr.NewBadRequest("first_name and last_name are required")
	}
	id, err := uuidv7.NewString()
	if err != nil {
		return types.Patient{}, err
	}
	p.PatientUUID = id
	p.TenantID = tenantID
	_, err = s.db.Exec(ctx, `
INSERT INTO clinic.patients (patient_uuid, tenant_id, first_name, last_name, birth_date, email, phone)
VALUES ($1::uuid, $2::uuid, $3, $4, NULLIF($5, '')::date, $6, $7)
`, p.PatientUUID, p.TenantID, p.FirstName, p.LastName, p.BirthDate, p.Email, p.Phone)
	if err != nil {
		return types.Patient{}, err
	}
	s.guard.Verify(ctx, "clinic.patients", p.TenantID)
	return p, nil
}
