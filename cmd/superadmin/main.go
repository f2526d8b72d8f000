package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
	iamcache "github.com/meridianclinic/meridian/modules/iam/infrastructure/cache"
	iampersistence "github.com/meridianclinic/meridian/modules/iam/infrastructure/persistence"
	"github.com/meridianclinic/meridian/modules/iam/services"
)

// superadmin is the out-of-band provisioning CLI: tenants and access grants
// are created and revoked here, against the same stores the server reads.
func main() {
	if len(os.Args) < 2 {
		fatalf("usage: superadmin <tenant-create|tenant-list|grant|revoke> [args]")
	}

	switch os.Args[1] {
	case "tenant-create":
		tenantCreate(os.Args[2:])
	case "tenant-list":
		tenantList(os.Args[2:])
	case "grant":
		grant(os.Args[2:])
	case "revoke":
		revoke(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

func tenantCreate(args []string) {
	fs := flag.NewFlagSet("tenant-create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url, id, name, subdomain, trustDomain string
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	fs.StringVar(&id, "id", "", "tenant id")
	fs.StringVar(&name, "name", "", "tenant display name")
	fs.StringVar(&subdomain, "subdomain", "", "tenant subdomain")
	fs.StringVar(&trustDomain, "trust-domain", "", "token issuer for the tenant")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	id = types.NormalizeTenantID(id)
	if url == "" || id == "" || subdomain == "" || trustDomain == "" {
		fatalf("missing --url, --id, --subdomain or --trust-domain")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := mustPool(ctx, url)
	defer pool.Close()

	tenants := iampersistence.NewTenantPGStore(pool)
	if err := tenants.Create(ctx, types.Tenant{
		ID:          id,
		Name:        name,
		Subdomain:   strings.ToLower(strings.TrimSpace(subdomain)),
		TrustDomain: strings.TrimSpace(trustDomain),
		IsActive:    true,
	}); err != nil {
		fatal(err)
	}
	fmt.Printf("tenant %s created\n", id)
}

func tenantList(args []string) {
	fs := flag.NewFlagSet("tenant-list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := mustPool(ctx, url)
	defer pool.Close()

	tenants, err := iampersistence.NewTenantPGStore(pool).List(ctx)
	if err != nil {
		fatal(err)
	}
	for _, t := range tenants {
		status := "inactive"
		if t.IsActive {
			status = "active"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", t.ID, t.Subdomain, t.TrustDomain, status, t.Name)
	}
}

func grant(args []string) {
	fs := flag.NewFlagSet("grant", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url, principal, tenant, roles string
	var primary bool
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	fs.StringVar(&principal, "principal", "", "principal id (token subject)")
	fs.StringVar(&tenant, "tenant", "", "tenant id")
	fs.StringVar(&roles, "roles", "", "comma-separated role slugs")
	fs.BoolVar(&primary, "primary", false, "mark as the principal's primary tenant")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	tenant = types.NormalizeTenantID(tenant)
	if url == "" || principal == "" || tenant == "" {
		fatalf("missing --url, --principal or --tenant")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := mustPool(ctx, url)
	defer pool.Close()

	var roleSlugs []string
	for _, r := range strings.Split(roles, ",") {
		r = strings.TrimSpace(strings.ToLower(r))
		if r != "" {
			roleSlugs = append(roleSlugs, r)
		}
	}

	grants := iampersistence.NewGrantPGStore(pool)
	if err := grants.Create(ctx, types.AccessGrant{
		PrincipalID: principal,
		TenantID:    tenant,
		Roles:       roleSlugs,
		IsPrimary:   primary,
		IsActive:    true,
	}); err != nil {
		fatal(err)
	}
	fmt.Printf("granted %s access to %s\n", principal, tenant)
}

func revoke(args []string) {
	fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url, principal, tenant string
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	fs.StringVar(&principal, "principal", "", "principal id (token subject)")
	fs.StringVar(&tenant, "tenant", "", "tenant id")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	tenant = types.NormalizeTenantID(tenant)
	if url == "" || principal == "" || tenant == "" {
		fatalf("missing --url, --principal or --tenant")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := mustPool(ctx, url)
	defer pool.Close()

	grants := iampersistence.NewGrantPGStore(pool)

	// Revocation evicts the shared decision cache in the same operation.
	// Without REDIS_ADDR the server caches in process memory and the entry
	// expires on its TTL instead.
	var cache *iamcache.RedisDecisionCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache = iamcache.NewRedisDecisionCache(redis.NewClient(&redis.Options{Addr: addr}))
	}

	if cache != nil {
		validator := services.NewAccessValidator(grants, cache, 0, zap.NewNop())
		if err := grants.Deactivate(ctx, principal, tenant); err != nil {
			fatal(err)
		}
		validator.Evict(ctx, principal, tenant)
	} else {
		validator := services.NewAccessValidator(grants, iamcache.NewMemoryDecisionCache(clockwork.NewRealClock()), 0, zap.NewNop())
		if err := grants.Deactivate(ctx, principal, tenant); err != nil {
			fatal(err)
		}
		validator.Evict(ctx, principal, tenant)
		fmt.Fprintln(os.Stderr, "warning: no REDIS_ADDR; server-side cached decisions expire on TTL")
	}
	fmt.Printf("revoked %s access to %s\n", principal, tenant)
}

func mustPool(ctx context.Context, url string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		fatal(err)
	}
	if err := pool.Ping(ctx); err != nil {
		fatal(err)
	}
	return pool
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
