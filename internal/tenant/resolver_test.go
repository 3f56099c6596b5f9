package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/auth"
)

func newTestResolver() *Resolver {
	return NewResolver(
		map[string]string{
			"tenant-1": "domain-a",
			"tenant-2": "domain-b",
			"tenant-3": "domain-missing",
		},
		map[string]string{
			"domain-a": "data/index/domain-a",
			"domain-b": "data/index/domain-b",
		},
	)
}

func TestResolve(t *testing.T) {
	r := newTestResolver()

	tc, err := r.Resolve(&auth.Claims{TenantID: "tenant-1", IndexDomain: "domain-a"})
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", tc.TenantID)
	assert.Equal(t, "domain-a", tc.IndexDomain)

	// claims may omit the domain; the assignment fills it in
	tc, err = r.Resolve(&auth.Claims{TenantID: "tenant-2"})
	require.NoError(t, err)
	assert.Equal(t, "domain-b", tc.IndexDomain)
}

func TestResolveHardFailures(t *testing.T) {
	r := newTestResolver()

	cases := []struct {
		name   string
		claims *auth.Claims
	}{
		{"nil claims", nil},
		{"missing tenant id", &auth.Claims{IndexDomain: "domain-a"}},
		{"unassigned tenant", &auth.Claims{TenantID: "tenant-unknown"}},
		{"claims disagree with assignment", &auth.Claims{TenantID: "tenant-1", IndexDomain: "domain-b"}},
		{"assignment to unconfigured domain", &auth.Claims{TenantID: "tenant-3", IndexDomain: "domain-missing"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(tc.claims)
			assert.ErrorIs(t, err, ErrUnresolvedTenant)
			assert.Empty(t, got.TenantID)
			assert.Empty(t, got.IndexDomain)
		})
	}
}

func TestDomainFor(t *testing.T) {
	r := newTestResolver()

	domain, err := r.DomainFor("tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "domain-a", domain)

	_, err = r.DomainFor("tenant-unknown")
	assert.ErrorIs(t, err, ErrUnresolvedTenant)
}
