package types

import (
	"reflect"
	"testing"
)

func TestDecodeTenantRoleClaim_Absent(t *testing.T) {
	t.Parallel()

	got := DecodeTenantRoleClaim(nil)
	if got.Malformed || got.Roles != nil {
		t.Fatalf("got=%+v", got)
	}
}

func TestDecodeTenantRoleClaim_NativeObject(t *testing.T) {
	t.Parallel()

	got := DecodeTenantRoleClaim(map[string]any{
		"T1": []any{"doctor", " billing "},
		"t2": []any{"receptionist"},
	})
	if got.Malformed {
		t.Fatal("unexpected malformed")
	}
	if !reflect.DeepEqual(got.RolesFor("t1"), []string{"doctor", "billing"}) {
		t.Fatalf("t1 roles=%v", got.RolesFor("t1"))
	}
	if !reflect.DeepEqual(got.RolesFor("T2"), []string{"receptionist"}) {
		t.Fatalf("t2 roles=%v", got.RolesFor("T2"))
	}
	if got.RolesFor("t3") != nil {
		t.Fatalf("t3 roles=%v", got.RolesFor("t3"))
	}
}

func TestDecodeTenantRoleClaim_LegacyString(t *testing.T) {
	t.Parallel()

	got := DecodeTenantRoleClaim(`{"t1":["doctor"],"t2":["billing","receptionist"]}`)
	if got.Malformed {
		t.Fatal("unexpected malformed")
	}
	if !reflect.DeepEqual(got.RolesFor("t2"), []string{"billing", "receptionist"}) {
		t.Fatalf("t2 roles=%v", got.RolesFor("t2"))
	}
}

func TestDecodeTenantRoleClaim_EmptyString(t *testing.T) {
	t.Parallel()

	got := DecodeTenantRoleClaim("  ")
	if got.Malformed || got.Roles != nil {
		t.Fatalf("got=%+v", got)
	}
}

func TestDecodeTenantRoleClaim_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  any
	}{
		{"bad json string", `{"t1": [`},
		{"non-object string", `"doctor"`},
		{"number", 42.0},
		{"array", []any{"doctor"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DecodeTenantRoleClaim(tc.raw)
			if !got.Malformed {
				t.Fatalf("expected malformed for %v", tc.raw)
			}
			if got.RolesFor("t1") != nil {
				t.Fatalf("malformed claim yielded roles: %v", got.RolesFor("t1"))
			}
		})
	}
}

func TestDecodeTenantRoleClaim_MixedEntries(t *testing.T) {
	t.Parallel()

	// One bad entry poisons only itself; the good entry still decodes but
	// the claim is flagged.
	got := DecodeTenantRoleClaim(map[string]any{
		"t1": []any{"doctor"},
		"t2": "not-a-list",
	})
	if !got.Malformed {
		t.Fatal("expected malformed flag")
	}
	if !reflect.DeepEqual(got.RolesFor("t1"), []string{"doctor"}) {
		t.Fatalf("t1 roles=%v", got.RolesFor("t1"))
	}
	if got.RolesFor("t2") != nil {
		t.Fatalf("t2 roles=%v", got.RolesFor("t2"))
	}
}
