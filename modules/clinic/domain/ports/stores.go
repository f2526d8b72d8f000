package ports

import (
	"context"

	"github.com/meridianclinic/meridian/modules/clinic/domain/types"
)

// All stores are tenant-scoped through the isolation guard: the active tenant
// comes from the request context, never from a caller-supplied argument, and
// every loaded row is re-verified against that context.

type PatientStore interface {
	List(ctx context.Context) ([]types.Patient, error)
	GetByID(ctx context.Context, patientUUID string) (types.Patient, bool, error)
	Create(ctx context.Context, p types.Patient) (types.Patient, error)
}

type StaffStore interface {
	List(ctx context.Context) ([]types.StaffMember, error)
	Create(ctx context.Context, m types.StaffMember) (types.StaffMember, error)
}

type SpecialtyStore interface {
	List(ctx context.Context) ([]types.Specialty, error)
	Create(ctx context.Context, s types.Specialty) (types.Specialty, error)
}

type InvoiceStore interface {
	List(ctx context.Context) ([]types.Invoice, error)
	Create(ctx context.Context, inv types.Invoice) (types.Invoice, error)
}
