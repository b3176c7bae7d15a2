package auth

import (
	"context"
	"strings"
)

// SubjectSource is one identity store probed by the resolver. A miss is
// reported as (nil, nil); errors are reserved for store failures.
type SubjectSource interface {
	FindByLogin(ctx context.Context, login string) (Subject, error)
}

// Resolver resolves a login identifier against two disjoint identity stores:
// end users and service providers. The stores are probed in priority order
// and the first hit wins; after a hit the remaining store is never consulted.
//
// Login uniqueness is enforced within each store, not across them. The same
// identifier may therefore exist in both; the store probed first silently
// shadows the other. End users come first by default, which mirrors the
// behavior this service has always had.
type Resolver struct {
	sources []taggedSource
}

type taggedSource struct {
	kind   Kind
	source SubjectSource
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithProviderPreference flips the probe order so service providers shadow
// end users on a login collision.
func WithProviderPreference() ResolverOption {
	return func(r *Resolver) {
		if len(r.sources) == 2 {
			r.sources[0], r.sources[1] = r.sources[1], r.sources[0]
		}
	}
}

// NewResolver builds a Resolver over the two identity stores.
func NewResolver(users, providers SubjectSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		sources: []taggedSource{
			{kind: KindEndUser, source: users},
			{kind: KindServiceProvider, source: providers},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveByLogin finds the principal registered under the login identifier.
// Returns ErrIdentityNotFound when neither store has a match; store failures
// are returned as-is so the caller can distinguish outage from absence.
func (r *Resolver) ResolveByLogin(ctx context.Context, login string) (Principal, error) {
	login = strings.TrimSpace(strings.ToLower(login))
	if login == "" {
		return Principal{}, ErrIdentityNotFound
	}
	for _, ts := range r.sources {
		subject, err := ts.source.FindByLogin(ctx, login)
		if err != nil {
			return Principal{}, err
		}
		if subject != nil {
			return NewPrincipal(subject, ts.kind), nil
		}
	}
	return Principal{}, ErrIdentityNotFound
}
