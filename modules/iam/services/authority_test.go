package services

import (
	"reflect"
	"testing"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

func TestDerive_TenantScoping(t *testing.T) {
	t.Parallel()

	d := NewAuthorityDeriver("", nil)
	claims := types.Claims{
		Subject:    "u1",
		RealmRoles: []string{"ADMIN", "global:super_admin"},
		TenantRoles: types.DecodeTenantRoleClaim(map[string]any{
			"t1": []any{"doctor"},
			"t2": []any{"billing"},
		}),
	}

	caps := d.Derive(claims, "t2")
	if caps.TenantID != "t2" {
		t.Fatalf("tenant=%q", caps.TenantID)
	}
	if !reflect.DeepEqual(caps.Roles, []string{"billing"}) {
		t.Fatalf("roles=%v", caps.Roles)
	}
	// Realm-wide ADMIN is not tenant-scoped and must not survive; the
	// explicitly marked global capability does.
	if !reflect.DeepEqual(caps.Global, []string{"super_admin"}) {
		t.Fatalf("global=%v", caps.Global)
	}
	if caps.HasRole("doctor") {
		t.Fatal("t1 role leaked into t2 capability set")
	}
}

func TestDerive_CrossTenantDiscard(t *testing.T) {
	t.Parallel()

	d := NewAuthorityDeriver("", nil)
	claims := types.Claims{
		Subject:    "u1",
		RealmRoles: []string{"ADMIN"},
		TenantRoles: types.DecodeTenantRoleClaim(map[string]any{
			"t1": []any{"doctor"},
		}),
	}

	caps := d.Derive(claims, "t2")
	if !caps.IsEmpty() {
		t.Fatalf("expected empty capabilities, got %+v", caps)
	}
}

func TestDerive_MalformedClaimNoRoles(t *testing.T) {
	t.Parallel()

	d := NewAuthorityDeriver("", nil)
	claims := types.Claims{
		Subject:     "u1",
		TenantRoles: types.DecodeTenantRoleClaim(`{"t1": [`),
	}

	caps := d.Derive(claims, "t1")
	if len(caps.Roles) != 0 {
		t.Fatalf("malformed claim derived roles: %v", caps.Roles)
	}
}

func TestDerive_CustomGlobalPrefix(t *testing.T) {
	t.Parallel()

	d := NewAuthorityDeriver("platform/", nil)
	claims := types.Claims{
		Subject:    "u1",
		RealmRoles: []string{"platform/auditor", "global:super_admin"},
	}

	caps := d.Derive(claims, "t1")
	if !reflect.DeepEqual(caps.Global, []string{"auditor"}) {
		t.Fatalf("global=%v", caps.Global)
	}
}
