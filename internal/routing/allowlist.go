package routing

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
	// TenantRequired defaults to true for API route classes; a route may
	// opt out to allow default-tenant fallback.
	TenantRequired *bool `yaml:"tenant_required,omitempty"`
	// Bypassable marks operations reachable with a super-admin capability
	// and no tenant membership (e.g. tenant provisioning).
	Bypassable bool `yaml:"bypassable,omitempty"`
}

// RouteFlags are the tenant-resolution knobs attached to a route.
type RouteFlags struct {
	TenantRequired bool
	Bypassable     bool
}

// FlagsFor returns the flags of the first route in the entrypoint matching
// path. Routes without an explicit tenant_required default to required.
func FlagsFor(a Allowlist, entrypoint string, path string) (RouteFlags, bool) {
	ep, ok := a.Entrypoints[entrypoint]
	if !ok {
		return RouteFlags{}, false
	}
	for _, r := range ep.Routes {
		matched := r.Path == path
		if !matched {
			if p, ok := parsePathPattern(r.Path); ok {
				matched = p.Match(path)
			}
		}
		if !matched {
			continue
		}
		f := RouteFlags{TenantRequired: true, Bypassable: r.Bypassable}
		if r.TenantRequired != nil {
			f.TenantRequired = *r.TenantRequired
		}
		return f, true
	}
	return RouteFlags{}, false
}

func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, err
	}
	if a.Version != 1 {
		return Allowlist{}, errors.New("allowlist: unsupported version")
	}
	if a.Entrypoints == nil {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	return a, nil
}

func LoadAllowlist(path string) (Allowlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, err
	}
	return ParseAllowlistYAML(b)
}
