package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
	"github.com/meridianclinic/meridian/modules/iam/infrastructure/cache"
	"github.com/meridianclinic/meridian/modules/iam/infrastructure/persistence"
)

type failingGrantStore struct {
	err error
}

func (s failingGrantStore) GetActive(context.Context, string, string) (types.AccessGrant, bool, error) {
	return types.AccessGrant{}, false, s.err
}
func (s failingGrantStore) Create(context.Context, types.AccessGrant) error { return s.err }
func (s failingGrantStore) Deactivate(context.Context, string, string) error {
	return s.err
}

func grantFixture(store *persistence.MemoryGrantStore, t *testing.T) {
	t.Helper()
	if err := store.Create(context.Background(), types.AccessGrant{
		PrincipalID: "u1",
		TenantID:    "t1",
		Roles:       []string{"doctor"},
		IsActive:    true,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestHasAccess_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	grants := persistence.NewMemoryGrantStore()
	grantFixture(grants, t)
	v := NewAccessValidator(grants, cache.NewMemoryDecisionCache(nil), time.Minute, nil)

	ok, err := v.HasAccess(context.Background(), "u1", "t1")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if grants.Queries != 1 {
		t.Fatalf("queries=%d", grants.Queries)
	}

	ok, err = v.HasAccess(context.Background(), "u1", "t1")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if grants.Queries != 1 {
		t.Fatalf("cache hit still queried the store: queries=%d", grants.Queries)
	}
}

func TestHasAccess_NegativeNotCached(t *testing.T) {
	t.Parallel()

	grants := persistence.NewMemoryGrantStore()
	c := cache.NewMemoryDecisionCache(nil)
	v := NewAccessValidator(grants, c, time.Minute, nil)

	ok, err := v.HasAccess(context.Background(), "u1", "t1")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if c.Len() != 0 {
		t.Fatal("negative decision was cached")
	}

	// The grant appears; the very next check must see it.
	grantFixture(grants, t)
	ok, err = v.HasAccess(context.Background(), "u1", "t1")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestHasAccess_TTLExpiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	grants := persistence.NewMemoryGrantStore()
	grantFixture(grants, t)
	v := NewAccessValidator(grants, cache.NewMemoryDecisionCache(clock), time.Minute, nil)

	if ok, _ := v.HasAccess(context.Background(), "u1", "t1"); !ok {
		t.Fatal("expected access")
	}
	clock.Advance(time.Minute)

	if ok, _ := v.HasAccess(context.Background(), "u1", "t1"); !ok {
		t.Fatal("expected access after expiry")
	}
	if grants.Queries != 2 {
		t.Fatalf("expired entry should force a store read: queries=%d", grants.Queries)
	}
}

func TestHasAccess_FailClosed(t *testing.T) {
	t.Parallel()

	v := NewAccessValidator(failingGrantStore{err: errors.New("connect refused")}, cache.NewMemoryDecisionCache(nil), time.Minute, nil)

	ok, err := v.HasAccess(context.Background(), "u1", "t1")
	if ok {
		t.Fatal("store failure must deny")
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestHasAccess_InactiveGrantDenied(t *testing.T) {
	t.Parallel()

	grants := persistence.NewMemoryGrantStore()
	if err := grants.Create(context.Background(), types.AccessGrant{
		PrincipalID: "u1", TenantID: "t1", IsActive: false,
	}); err != nil {
		t.Fatal(err)
	}
	v := NewAccessValidator(grants, cache.NewMemoryDecisionCache(nil), time.Minute, nil)

	if ok, err := v.HasAccess(context.Background(), "u1", "t1"); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestEvict_RevocationVisibleImmediately(t *testing.T) {
	t.Parallel()

	grants := persistence.NewMemoryGrantStore()
	grantFixture(grants, t)
	v := NewAccessValidator(grants, cache.NewMemoryDecisionCache(nil), time.Hour, nil)

	if ok, _ := v.HasAccess(context.Background(), "u1", "t1"); !ok {
		t.Fatal("expected access")
	}

	if err := grants.Deactivate(context.Background(), "u1", "t1"); err != nil {
		t.Fatal(err)
	}
	v.Evict(context.Background(), "u1", "t1")

	if ok, _ := v.HasAccess(context.Background(), "u1", "t1"); ok {
		t.Fatal("revoked access still allowed after eviction")
	}
}

func TestValidateRole(t *testing.T) {
	t.Parallel()

	grants := persistence.NewMemoryGrantStore()
	grantFixture(grants, t)
	v := NewAccessValidator(grants, cache.NewMemoryDecisionCache(nil), time.Minute, nil)

	ok, err := v.ValidateRole(context.Background(), "u1", "t1", "doctor")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	ok, err = v.ValidateRole(context.Background(), "u1", "t1", "billing")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	ok, err = v.ValidateRole(context.Background(), "u2", "t1", "doctor")
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestHasAccess_EmptyInputs(t *testing.T) {
	t.Parallel()

	grants := persistence.NewMemoryGrantStore()
	v := NewAccessValidator(grants, cache.NewMemoryDecisionCache(nil), time.Minute, nil)

	if ok, err := v.HasAccess(context.Background(), "", "t1"); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if ok, err := v.HasAccess(context.Background(), "u1", " "); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if grants.Queries != 0 {
		t.Fatalf("queries=%d", grants.Queries)
	}
}
