package tenant

import (
	"errors"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/auth"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

// ErrUnresolvedTenant is returned when a tenant cannot be mapped to exactly
// one known index domain. Callers must treat this as a hard failure; a
// request is never served against a guessed or shared domain.
var ErrUnresolvedTenant = errors.New("tenant could not be resolved to an index domain")

// Resolver maps tenants to their assigned index domain. The mapping is
// loaded once at startup and never mutated, so it is safe for concurrent
// reads without locking.
type Resolver struct {
	tenantDomains map[string]string
	knownDomains  map[string]struct{}
}

// NewResolver builds a resolver from the tenant assignment map and the set
// of configured domains. Assignments pointing at an unconfigured domain are
// dropped rather than served.
func NewResolver(tenantDomains map[string]string, domains map[string]string) *Resolver {
	known := make(map[string]struct{}, len(domains))
	for name := range domains {
		known[name] = struct{}{}
	}
	assignments := make(map[string]string, len(tenantDomains))
	for tenantID, domain := range tenantDomains {
		if _, ok := known[domain]; ok {
			assignments[tenantID] = domain
		}
	}
	return &Resolver{tenantDomains: assignments, knownDomains: known}
}

// Resolve validates the claims against the configured assignment and
// returns the tenant context. A missing tenant id, an unassigned tenant, or
// claims naming a different domain than the assignment all yield
// ErrUnresolvedTenant; a partial context is never returned.
func (r *Resolver) Resolve(claims *auth.Claims) (model.TenantContext, error) {
	if claims == nil || claims.TenantID == "" {
		return model.TenantContext{}, ErrUnresolvedTenant
	}
	domain, ok := r.tenantDomains[claims.TenantID]
	if !ok {
		return model.TenantContext{}, ErrUnresolvedTenant
	}
	if claims.IndexDomain != "" && claims.IndexDomain != domain {
		return model.TenantContext{}, ErrUnresolvedTenant
	}
	return model.TenantContext{
		TenantID:    claims.TenantID,
		IndexDomain: domain,
	}, nil
}

// DomainFor returns the index domain assigned to a tenant. Background
// components use this where no verified claims are in hand.
func (r *Resolver) DomainFor(tenantID string) (string, error) {
	domain, ok := r.tenantDomains[tenantID]
	if !ok {
		return "", ErrUnresolvedTenant
	}
	return domain, nil
}
