package server

import (
	"net/http"
	"strings"

	"github.com/meridianclinic/meridian/internal/routing"
	"github.com/meridianclinic/meridian/modules/iam/services"
	"github.com/meridianclinic/meridian/pkg/authz"
)

// operationForRoute maps a route to its authorization operation. Routes
// without a registered object/action still pass through the enforcer (token,
// tenant, membership) but carry no role gate. Tenant-required and bypassable
// flags come from the routing allowlist.
func operationForRoute(classifier *routing.Classifier, method string, path string) services.Operation {
	op := services.Operation{TenantRequired: true}
	if classifier != nil {
		if f, ok := classifier.Flags(path); ok {
			op.TenantRequired = f.TenantRequired
			op.Bypassable = f.Bypassable
		}
	}

	object, action, ok := authzRequirementForRoute(method, path)
	if ok {
		op.Resource = object
		op.Action = action
	}
	return op
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	switch path {
	case "/api/patients":
		if method == http.MethodGet {
			return authz.ObjectPatients, authz.ActionRead, true
		}
		if method == http.MethodPost {
			return authz.ObjectPatients, authz.ActionWrite, true
		}
		return "", "", false
	case "/api/staff":
		if method == http.MethodGet {
			return authz.ObjectStaff, authz.ActionRead, true
		}
		if method == http.MethodPost {
			return authz.ObjectStaff, authz.ActionAdmin, true
		}
		return "", "", false
	case "/api/invoices":
		if method == http.MethodGet {
			return authz.ObjectInvoices, authz.ActionRead, true
		}
		if method == http.MethodPost {
			return authz.ObjectInvoices, authz.ActionWrite, true
		}
		return "", "", false
	case "/api/specialties":
		if method == http.MethodGet {
			return authz.ObjectSpecialties, authz.ActionRead, true
		}
		if method == http.MethodPost {
			return authz.ObjectSpecialties, authz.ActionAdmin, true
		}
		return "", "", false
	case "/iam/api/tenants":
		if method == http.MethodGet || method == http.MethodPost {
			return authz.ObjectTenants, authz.ActionAdmin, true
		}
		return "", "", false
	case "/iam/api/grants", "/iam/api/grants:revoke":
		if method == http.MethodPost {
			return authz.ObjectGrants, authz.ActionAdmin, true
		}
		return "", "", false
	default:
		if pathMatchRouteTemplate(path, "/api/patients/{patient_uuid}") && method == http.MethodGet {
			return authz.ObjectPatients, authz.ActionRead, true
		}
		return "", "", false
	}
}

func pathMatchRouteTemplate(path string, template string) bool {
	in := splitRouteSegments(path)
	want := splitRouteSegments(template)
	if len(in) != len(want) {
		return false
	}
	for i := range want {
		w := want[i]
		g := in[i]
		if g == "" {
			return false
		}
		if routeTemplateIsParamSegment(w) {
			continue
		}
		if g != w {
			return false
		}
	}
	return true
}

func splitRouteSegments(path string) []string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func routeTemplateIsParamSegment(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) > 2
}
