package ports

import (
	"context"
	"time"
)

// AuditRecord describes one denied (or otherwise notable) authorization
// decision.
type AuditRecord struct {
	At          time.Time
	PrincipalID string
	TenantID    string
	Resource    string
	Action      string
	Decision    string
	Reason      string
}

// AuditSink receives authorization audit records. Emission is best-effort:
// a sink failure is surfaced to operational logging but never turns into a
// denial.
type AuditSink interface {
	Emit(ctx context.Context, rec AuditRecord) error
}
