package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/meridianclinic/meridian/modules/clinic/domain/ports"
	"github.com/meridianclinic/meridian/modules/clinic/domain/types"
	"github.com/meridianclinic/meridian/modules/iam/services"
	"github.com/meridianclinic/meridian/pkg/httperr"
	"github.com/meridianclinic/meridian/pkg/uuidv7"
)

// Memory stores mirror the pg stores' guard behavior so handler tests
// exercise the same isolation checks.

type MemoryPatientStore struct {
	mu    sync.Mutex
	rows  map[string]types.Patient
	guard services.IsolationGuard
}

func NewMemoryPatientStore(guard services.IsolationGuard) *MemoryPatientStore {
	return &MemoryPatientStore{rows: map[string]types.Patient{}, guard: guard}
}

var _ ports.PatientStore = (*MemoryPatientStore)(nil)

// Seed inserts a row as-is, bypassing the guard. Tests use it to plant
// records belonging to a different tenant.
func (s *MemoryPatientStore) Seed(p types.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.PatientUUID] = p
}

func (s *MemoryPatientStore) List(ctx context.Context) ([]types.Patient, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Patient
	for _, p := range s.rows {
		if p.TenantID != tenantID {
			continue
		}
		s.guard.Verify(ctx, "clinic.patients", p.TenantID)
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryPatientStore) GetByID(ctx context.Context, patientUUID string) (types.Patient, bool, error) {
	s.guard.RequireTenantID(ctx)
	s.mu.Lock()
	p, ok := s.rows[patientUUID]
	s.mu.Unlock()
	if !ok {
		return types.Patient{}, false, nil
	}
	// The post-load consistency check: a row fetched by primary key alone
	// must still belong to the active tenant.
	s.guard.Verify(ctx, "clinic.patients", p.TenantID)
	return p, true, nil
}

func (s *MemoryPatientStore) Create(ctx context.Context, p types.Patient) (types.Patient, error) {
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
	s.mu.Lock()
	s.rows[p.PatientUUID] = p
	s.mu.Unlock()
	return p, nil
}

type MemoryStaffStore struct {
	mu    sync.Mutex
	rows  map[string]types.StaffMember
	guard services.IsolationGuard
}

func NewMemoryStaffStore(guard services.IsolationGuard) *MemoryStaffStore {
	return &MemoryStaffStore{rows: map[string]types.StaffMember{}, guard: guard}
}

var _ ports.StaffStore = (*MemoryStaffStore)(nil)

func (s *MemoryStaffStore) List(ctx context.Context) ([]types.StaffMember, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.StaffMember
	for _, m := range s.rows {
		if m.TenantID != tenantID {
			continue
		}
		s.guard.Verify(ctx, "clinic.staff", m.TenantID)
		out = append(out, m)
	}
	return out, nil
}

func (s *MemoryStaffStore) Create(ctx context.Context, m types.StaffMember) (types.StaffMember, error) {
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
	s.mu.Lock()
	s.rows[m.StaffUUID] = m
	s.mu.Unlock()
	return m, nil
}

type MemorySpecialtyStore struct {
	mu    sync.Mutex
	rows  map[string]types.Specialty
	guard services.IsolationGuard
}

func NewMemorySpecialtyStore(guard services.IsolationGuard) *MemorySpecialtyStore {
	return &MemorySpecialtyStore{rows: map[string]types.Specialty{}, guard: guard}
}

var _ ports.SpecialtyStore = (*MemorySpecialtyStore)(nil)

func (s *MemorySpecialtyStore) List(ctx context.Context) ([]types.Specialty, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Specialty
	for _, sp := range s.rows {
		if sp.TenantID != tenantID {
			continue
		}
		s.guard.Verify(ctx, "clinic.specialties", sp.TenantID)
		out = append(out, sp)
	}
	return out, nil
}

func (s *MemorySpecialtyStore) Create(ctx context.Context, sp types.Specialty) (types.Specialty, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	if sp.Name == "" {
		return types.Specialty{}, httperr.NewBadRequest("name is required")
	}
	id, err := uuidv7.NewString()
	if err != nil {
		return types.Specialty{}, err
	}
	sp.SpecialtyUUID = id
	sp.TenantID = tenantID
	s.mu.Lock()
	s.rows[sp.SpecialtyUUID] = sp
	s.mu.Unlock()
	return sp, nil
}

type MemoryInvoiceStore struct {
	mu    sync.Mutex
	rows  map[string]types.Invoice
	guard services.IsolationGuard
}

func NewMemoryInvoiceStore(guard services.IsolationGuard) *MemoryInvoiceStore {
	return &MemoryInvoiceStore{rows: map[string]types.Invoice{}, guard: guard}
}

var _ ports.InvoiceStore = (*MemoryInvoiceStore)(nil)

func (s *MemoryInvoiceStore) List(ctx context.Context) ([]types.Invoice, error) {
	tenantID := s.guard.RequireTenantID(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Invoice
	for _, inv := range s.rows {
		if inv.TenantID != tenantID {
			continue
		}
		s.guard.Verify(ctx, "clinic.invoices", inv.TenantID)
		out = append(out, inv)
	}
	return out, nil
}

func (s *MemoryInvoiceStore) Create(ctx context.Context, inv types.Invoice) (types.Invoice, error) {
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
	s.mu.Lock()
	s.rows[inv.InvoiceUUID] = inv
	s.mu.Unlock()
	return inv, nil
}
