package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianclinic/meridian/modules/clinic/domain/ports"
	"github.com/meridianclinic/meridian/modules/clinic/domain/types"
	"github.com/meridianclinic/meridian/modules/iam/services"
	"github.com/meridianclinic/meridian/pkg/httperr"
	"github.com/meridianclinic/meridian/pkg/uuidv7"
)

type StaffPGStore struct {
	db    dbQuerier
	guard services.IsolationGuard
}

func NewStaffPGStore(pool *pgxpool.Pool, guard services.IsolationGuard) ports.StaffStore {
	return &StaffPGStore{db: pool, guard: guard}
}

func (s *StaffPGStore) List(ctx context.Context) ([]types.StaffMember, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	rows, err := s.db.Query(ctx, `
SELECT staff_uuid::text, tenant_id::text, full_name, email, role, COALESCE(specialty_uuid::text, '')
FROM clinic.staff
WHERE tenant_id = $1::uuid
ORDER BY full_name
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.StaffMember
	for rows.Next() {
		var m types.StaffMember
		if err := rows.Scan(&m.StaffUUID, &m.TenantID, &m.FullName, &m.Email, &m.Role, &m.SpecialtyUUID); err != nil {
			return nil, err
		}
		s.guard.Verify(ctx, "clinic.staff", m.TenantID)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *StaffPGStore) Create(ctx context.Context, m types.StaffMember) (types.StaffMember, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	if m.FullName == "" || m.Role == "" {
		return types.StaffMember{}, httperr.NewBadRequest("full_name and role are required")
	}
	id, err := uuidv7.NewString()
	if err != nil {
		return types.StaffMember{}, err
	}
	m.StaffUUID = id
	m.TenantID = tenantID
	_, err = s.db.Exec(ctx, `
INSERT INTO clinic.staff (staff_uuid, tenant_id, full_name, email, role, specialty_uuid)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, NULLIF($6, '')::uuid)
`, m.StaffUUID, m.TenantID, m.FullName, m.Email, m.Role, m.SpecialtyUUID)
	if err != nil {
		return types.StaffMember{}, err
	}
	s.guard.Verify(ctx, "clinic.staff", m.TenantID)
	return m, nil
}

type SpecialtyPGStore struct {
	db    dbQuerier
	guard services.IsolationGuard
}

func NewSpecialtyPGStore(pool *pgxpool.Pool, guard services.IsolationGuard) ports.SpecialtyStore {
	return &SpecialtyPGStore{db: pool, guard: guard}
}

func (s *SpecialtyPGStore) List(ctx context.Context) ([]types.Specialty, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	rows, err := s.db.Query(ctx, `
SELECT specialty_uuid::text, tenant_id::text, name, COALESCE(description, '')
FROM clinic.specialties
WHERE tenant_id = $1::uuid
ORDER BY name
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Specialty
	for rows.Next() {
		var sp types.Specialty
		if err := rows.Scan(&sp.SpecialtyUUID, &sp.TenantID, &sp.Name, &sp.Description); err != nil {
			return nil, err
		}
		s.guard.Verify(ctx, "clinic.specialties", sp.TenantID)
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *SpecialtyPGStore) Create(ctx context.Context, sp types.Specialty) (types.Specialty, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	sp.Name = strings.TrimSpace(sp.Name)
	if sp.Name == "" {
		return types.Specialty{}, httperr.NewBadRequest("name is required")
	}
	id, err := uuidv7.NewString()
	if err != nil {
		return types.Specialty{}, err
	}
	sp.SpecialtyUUID = id
	sp.TenantID = tenantID
	_, err = s.db.Exec(ctx, `
INSERT INTO clinic.specialties (specialty_uuid, tenant_id, name, description)
VALUES ($1::uuid, $2::uuid, $3, NULLIF($4, ''))
`, sp.SpecialtyUUID, sp.TenantID, sp.Name, sp.Description)
	if err != nil {
		return types.Specialty{}, err
	}
	s.guard.Verify(ctx, "clinic.specialties", sp.TenantID)
	return sp, nil
}

type InvoicePGStore struct {
	db    dbQuerier
	guard services.IsolationGuard
}

func NewInvoicePGStore(pool *pgxpool.Pool, guard services.IsolationGuard) ports.InvoiceStore {
	return &InvoicePGStore{db: pool, guard: guard}
}

func (s *InvoicePGStore) List(ctx context.Context) ([]types.Invoice, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	rows, err := s.db.Query(ctx, `
SELECT invoice_uuid::text, tenant_id::text, patient_uuid::text, amount_cents, currency, status, issued_at::text
FROM clinic.invoices
WHERE tenant_id = $1::uuid
ORDER BY issued_at DESC
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Invoice
	for rows.Next() {
		var inv types.Invoice
		if err := rows.Scan(&inv.InvoiceUUID, &inv.TenantID, &inv.PatientUUID, &inv.AmountCents, &inv.Currency, &inv.Status, &inv.IssuedAt); err != nil {
			return nil, err
		}
		s.guard.Verify(ctx, "clinic.invoices", inv.TenantID)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *InvoicePGStore) Create(ctx context.Context, inv types.Invoice) (types.Invoice, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	if inv.PatientUUID == "" || inv.AmountCents <= 0 {
		return types.Invoice{}, httperr.NewBadRequest("patient_uuid and a positive amount are required")
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
	if inv.Status == "" {
		inv.Status = types.InvoiceStatusDraft
	}
	if inv.IssuedAt == "" {
		inv.IssuedAt = time.Now().UTC().Format(time.RFC3339)
	}
	id, err := uuidv7.NewString()
	if err != nil {
		return types.Invoice{}, err
	}
	inv.InvoiceUUID = id
	inv.TenantID = tenantID
	_, err = s.db.Exec(ctx, `
INSERT INTO clinic.invoices (invoice_uuid, tenant_id, patient_uuid, amount_cents, currency, status, issued_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7::timestamptz)
`, inv.InvoiceUUID, inv.TenantID, inv.PatientUUID, inv.AmountCents, inv.Currency, inv.Status, inv.IssuedAt)
	if err != nil {
		return types.Invoice{}, err
	}
	s.guard.Verify(ctx, "clinic.invoices", inv.TenantID)
	return inv, nil
}
