package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridianclinic/meridian/internal/routing"
	clinicports "github.com/meridianclinic/meridian/modules/clinic/domain/ports"
	clinicpersistence "github.com/meridianclinic/meridian/modules/clinic/infrastructure/persistence"
	"github.com/meridianclinic/meridian/modules/iam/domain/ports"
	iamaudit "github.com/meridianclinic/meridian/modules/iam/infrastructure/audit"
	iamcache "github.com/meridianclinic/meridian/modules/iam/infrastructure/cache"
	iampersistence "github.com/meridianclinic/meridian/modules/iam/infrastructure/persistence"
	"github.com/meridianclinic/meridian/modules/iam/infrastructure/trust"
	"github.com/meridianclinic/meridian/modules/iam/services"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

type HandlerOptions struct {
	TenantStore    ports.TenantStore
	GrantStore     ports.AccessGrantStore
	DecisionCache  ports.DecisionCache
	AuditSink      ports.AuditSink
	TrustResolver  *trust.Resolver
	PatientStore   clinicports.PatientStore
	StaffStore     clinicports.StaffStore
	SpecialtyStore clinicports.SpecialtyStore
	InvoiceStore   clinicports.InvoiceStore
	Logger         *zap.Logger
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := os.Getenv("ALLOWLIST_PATH")
	if allowlistPath == "" {
		p, err := defaultAllowlistPath()
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}

	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		l, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		log = l
	}

	tenantStore := opts.TenantStore
	grantStore := opts.GrantStore
	auditSink := opts.AuditSink
	patientStore := opts.PatientStore
	staffStore := opts.StaffStore
	specialtyStore := opts.SpecialtyStore
	invoiceStore := opts.InvoiceStore

	// DEV_FIXTURES=1 runs on in-process stores seeded from the yaml tenant
	// registry, with no database.
	devFixtures := os.Getenv("DEV_FIXTURES") == "1"

	var pgPool *pgxpool.Pool
	if tenantStore == nil {
		if devFixtures {
			seed, err := loadTenants()
			if err != nil {
				return nil, err
			}
			tenantStore = iampersistence.NewMemoryTenantStore(seed...)
		} else {
			dsn := dbDSNFromEnv()
			pool, err := pgxpool.New(context.Background(), dsn)
			if err != nil {
				return nil, err
			}
			pgPool = pool
			tenantStore = iampersistence.NewTenantPGStore(pgPool)
		}
	}
	if grantStore == nil {
		switch {
		case pgPool != nil:
			grantStore = iampersistence.NewGrantPGStore(pgPool)
		case devFixtures:
			grantStore = iampersistence.NewMemoryGrantStore()
		default:
			return nil, errors.New("server: missing grant store (set HandlerOptions.GrantStore or use default PG stores)")
		}
	}
	if auditSink == nil {
		if pgPool != nil {
			auditSink = iamaudit.NewFanoutSink(iamaudit.NewZapSink(log), iampersistence.NewAuditPGStore(pgPool))
		} else {
			auditSink = iamaudit.NewZapSink(log)
		}
	}

	cache := opts.DecisionCache
	if cache == nil {
		if addr := os.Getenv("REDIS_ADDR"); addr != "" {
			cache = iamcache.NewRedisDecisionCache(redis.NewClient(&redis.Options{Addr: addr}))
		} else {
			cache = iamcache.NewMemoryDecisionCache(clockwork.NewRealClock())
		}
	}

	validator := services.NewAccessValidator(grantStore, cache, accessCacheTTLFromEnv(), log)
	deriver := services.NewAuthorityDeriver(os.Getenv("GLOBAL_ROLE_PREFIX"), log)

	authorizer, err := loadAuthorizer()
	if err != nil {
		return nil, err
	}
	enforcer := services.NewAuthorizationEnforcer(
		tenantStore,
		validator,
		deriver,
		casbinRoleGate{a: authorizer},
		auditSink,
		services.EnforcerConfig{DefaultTenant: os.Getenv("DEFAULT_TENANT")},
		log,
	)

	resolver := opts.TrustResolver
	if resolver == nil {
		directory, ok := tenantStore.(trust.IssuerDirectory)
		if !ok {
			return nil, errors.New("server: tenant store does not expose an issuer directory")
		}
		resolver = trust.NewResolver(directory, trust.ResolverOptions{})
	}

	guard := services.NewIsolationGuard()
	if patientStore == nil {
		switch {
		case pgPool != nil:
			patientStore = clinicpersistence.NewPatientPGStore(pgPool, guard)
		case devFixtures:
			patientStore = clinicpersistence.NewMemoryPatientStore(guard)
		default:
			return nil, errors.New("server: missing patient store (set HandlerOptions.PatientStore or use default PG stores)")
		}
	}
	if staffStore == nil {
		switch {
		case pgPool != nil:
			staffStore = clinicpersistence.NewStaffPGStore(pgPool, guard)
		case devFixtures:
			staffStore = clinicpersistence.NewMemoryStaffStore(guard)
		default:
			return nil, errors.New("server: missing staff store (set HandlerOptions.StaffStore or use default PG stores)")
		}
	}
	if specialtyStore == nil {
		switch {
		case pgPool != nil:
			specialtyStore = clinicpersistence.NewSpecialtyPGStore(pgPool, guard)
		case devFixtures:
			specialtyStore = clinicpersistence.NewMemorySpecialtyStore(guard)
		default:
			return nil, errors.New("server: missing specialty store (set HandlerOptions.SpecialtyStore or use default PG stores)")
		}
	}
	if invoiceStore == nil {
		switch {
		case pgPool != nil:
			invoiceStore = clinicpersistence.NewInvoicePGStore(pgPool, guard)
		case devFixtures:
			invoiceStore = clinicpersistence.NewMemoryInvoiceStore(guard)
		default:
			return nil, errors.New("server: missing invoice store (set HandlerOptions.InvoiceStore or use default PG stores)")
		}
	}

	tenantRes := newTenantResolverFromEnv(tenantStore)

	router := routing.NewRouter(classifier)

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/patients", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlePatientsAPI(w, r, patientStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/patients", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlePatientsAPI(w, r, patientStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/patients/{patient_uuid}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlePatientByUUIDAPI(w, r, patientStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/staff", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleStaffAPI(w, r, staffStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/staff", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleStaffAPI(w, r, staffStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/specialties", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleSpecialtiesAPI(w, r, specialtyStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/specialties", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleSpecialtiesAPI(w, r, specialtyStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/api/invoices", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleInvoicesAPI(w, r, invoiceStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/api/invoices", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleInvoicesAPI(w, r, invoiceStore)
	}))

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/iam/api/tenants", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleTenantsAPI(w, r, tenantStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/iam/api/tenants", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleTenantsAPI(w, r, tenantStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/iam/api/grants", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGrantsAPI(w, r, tenantStore, grantStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/iam/api/grants:revoke", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGrantsRevokeAPI(w, r, grantStore, validator)
	}))

	guarded := withAuthorization(classifier, resolver, tenantRes, enforcer, log, router)

	mux := http.NewServeMux()
	mux.Handle("/", guarded)
	return mux, nil
}

func MustNewHandler() http.Handler {
	h, err := NewHandler()
	if err != nil {
		panic(errors.New("server: failed to build handler: " + err.Error()))
	}
	return h
}

func accessCacheTTLFromEnv() time.Duration {
	raw := os.Getenv("ACCESS_CACHE_TTL")
	if raw == "" {
		return services.DefaultAccessCacheTTL
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return services.DefaultAccessCacheTTL
	}
	return d
}

func defaultAllowlistPath() (string, error) {
	path := "config/routing/allowlist.yaml"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: allowlist not found")
}
