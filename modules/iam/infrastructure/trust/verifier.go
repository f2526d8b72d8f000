package trust

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// Verifier validates bearer tokens of a single trust domain against that
// domain's published key material.
type Verifier struct {
	issuer string
	keys   *keySet
	parser *jwt.Parser
}

func newVerifier(issuer string, keys *keySet, clockSkew time.Duration) *Verifier {
	return &Verifier{
		issuer: issuer,
		keys:   keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

func (v *Verifier) Issuer() string { return v.issuer }

// Verify checks signature and standard claims and returns the decoded claim
// set. The tenant_roles claim is decoded exactly once, here.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (types.Claims, error) {
	mc := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(rawToken, mc, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("trust: token missing kid header")
		}
		return v.keys.key(ctx, kid)
	})
	if err != nil {
		return types.Claims{}, err
	}
	if !token.Valid {
		return types.Claims{}, errors.New("trust: token invalid")
	}

	return claimsFromMap(mc), nil
}

func claimsFromMap(mc jwt.MapClaims) types.Claims {
	c := types.Claims{
		Subject:      stringClaim(mc, "sub"),
		Issuer:       stringClaim(mc, "iss"),
		Email:        stringClaim(mc, "email"),
		ActiveTenant: stringClaim(mc, "active_tenant"),
		HomeTenant:   stringClaim(mc, "home_tenant"),
		TenantRoles:  types.DecodeTenantRoleClaim(mc["tenant_roles"]),
	}
	if raw, ok := mc["realm_roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok && s != "" {
				c.RealmRoles = append(c.RealmRoles, s)
			}
		}
	}
	return c
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}
