package services

import (
	"context"
	"testing"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

func tenantCtx(id string) context.Context {
	return WithTenant(context.Background(), types.Tenant{ID: id, IsActive: true})
}

func mustCatchFault(t *testing.T, fn func()) *types.TenantMismatchFault {
	t.Helper()
	var fault *types.TenantMismatchFault
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic")
			}
			f, ok := r.(*types.TenantMismatchFault)
			if !ok {
				t.Fatalf("panic value %T, want *types.TenantMismatchFault", r)
			}
			fault = f
		}()
		fn()
	}()
	return fault
}

func TestVerify_MatchPasses(t *testing.T) {
	t.Parallel()

	g := NewIsolationGuard()
	g.Verify(tenantCtx("t1"), "clinic.patients", "t1")
	g.Verify(tenantCtx("t1"), "clinic.patients", "  T1  ")
}

func TestVerify_MismatchPanics(t *testing.T) {
	t.Parallel()

	g := NewIsolationGuard()
	fault := mustCatchFault(t, func() {
		g.Verify(tenantCtx("t1"), "clinic.patients", "t2")
	})
	if fault.Resource != "clinic.patients" || fault.WantTenantID != "t1" || fault.GotTenantID != "t2" {
		t.Fatalf("fault=%+v", fault)
	}
}

func TestVerify_NoTenantContextPanics(t *testing.T) {
	t.Parallel()

	g := NewIsolationGuard()
	mustCatchFault(t, func() {
		g.Verify(context.Background(), "clinic.patients", "t1")
	})
}

func TestRequireTenantID(t *testing.T) {
	t.Parallel()

	g := NewIsolationGuard()
	if id := g.RequireTenantID(tenantCtx("t1")); id != "t1" {
		t.Fatalf("id=%q", id)
	}
	mustCatchFault(t, func() {
		g.RequireTenantID(context.Background())
	})
}

func TestTenantID_EmptyWithoutContext(t *testing.T) {
	t.Parallel()

	g := NewIsolationGuard()
	if id := g.TenantID(context.Background()); id != "" {
		t.Fatalf("id=%q", id)
	}
}
