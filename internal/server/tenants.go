package server

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// tenantsFile is the bootstrap tenant registry. Production runs use the pg
// tenant store; the yaml file seeds development and tests.
type tenantsFile struct {
	Version int            `yaml:"version"`
	Tenants []types.Tenant `yaml:"tenants"`
}

func loadTenants() ([]types.Tenant, error) {
	path := os.Getenv("TENANTS_PATH")
	if path == "" {
		p, err := defaultTenantsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTenantsYAML(b)
}

func parseTenantsYAML(b []byte) ([]types.Tenant, error) {
	var tf tenantsFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return nil, err
	}
	if tf.Version != 1 {
		return nil, errors.New("tenants: unsupported version")
	}
	if len(tf.Tenants) == 0 {
		return nil, errors.New("tenants: empty")
	}
	for _, t := range tf.Tenants {
		if t.ID == "" || t.Subdomain == "" || t.TrustDomain == "" {
			return nil, errors.New("tenants: invalid tenant")
		}
	}
	return tf.Tenants, nil
}

func defaultTenantsPath() (string, error) {
	path := "config/tenants.yaml"
	for i := 0; i < 8; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", errors.New("server: tenants config not found")
}
