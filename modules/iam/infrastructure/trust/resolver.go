// Package trust establishes and caches token verifiers per trust domain.
package trust

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridianclinic/meridian/modules/iam/domain/types"
)

// IssuerDirectory reports whether an issuer names a known trust domain. The
// tenant registry backs this: every active tenant's trust domain is known.
type IssuerDirectory interface {
	KnownIssuer(ctx context.Context, issuer string) (bool, error)
}

// ResolverOptions tune verifier construction.
type ResolverOptions struct {
	// JWKSURL maps an issuer to its JWKS endpoint. Default: issuer +
	// "/.well-known/jwks.json".
	JWKSURL func(issuer string) string
	// FetchTimeout bounds the key-material fetch on first use.
	FetchTimeout time.Duration
	// ClockSkew is the validation leeway for exp/nbf.
	ClockSkew  time.Duration
	HTTPClient *http.Client
}

// Resolver returns (building and caching on first use) the verifier for a
// trust domain. Concurrent first use of the same issuer is collapsed to a
// single key fetch. An unknown or unreachable trust domain yields
// types.ErrTrustDomainUnavailable; there is no fallback domain.
type Resolver struct {
	directory IssuerDirectory
	opts      ResolverOptions

	mu        sync.RWMutex
	verifiers map[string]*Verifier
	group     singleflight.Group
}

func NewResolver(directory IssuerDirectory, opts ResolverOptions) *Resolver {
	if opts.JWKSURL == nil {
		opts.JWKSURL = func(issuer string) string {
			return strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"
		}
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.FetchTimeout}
	}
	return &Resolver{
		directory: directory,
		opts:      opts,
		verifiers: map[string]*Verifier{},
	}
}

func (r *Resolver) Resolve(ctx context.Context, issuer string) (*Verifier, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("%w: empty issuer", types.ErrTrustDomainUnavailable)
	}

	r.mu.RLock()
	v, ok := r.verifiers[issuer]
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := r.group.Do(issuer, func() (any, error) {
		r.mu.RLock()
		v, ok := r.verifiers[issuer]
		r.mu.RUnlock()
		if ok {
			return v, nil
		}

		known, err := r.directory.KnownIssuer(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTrustDomainUnavailable, err)
		}
		if !known {
			return nil, fmt.Errorf("%w: %q", types.ErrTrustDomainUnavailable, issuer)
		}

		keys := newKeySet(r.opts.JWKSURL(issuer), r.opts.HTTPClient)

		fctx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
		defer cancel()
		fetched, err := fetchJWKS(fctx, r.opts.HTTPClient, keys.url)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrTrustDomainUnavailable, err)
		}
		keys.mu.Lock()
		keys.keys = fetched
		keys.lastFetched = time.Now()
		keys.mu.Unlock()

		nv := newVerifier(issuer, keys, r.opts.ClockSkew)
		r.mu.Lock()
		r.verifiers[issuer] = nv
		r.mu.Unlock()
		return nv, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Verifier), nil
}
