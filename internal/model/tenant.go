package model

// TenantContext identifies the tenant a request acts on behalf of and the
// search cluster its data lives in. Every downstream component is
// parameterized by this pair; nothing below the resolver ever sees a raw
// tenant claim.
type TenantContext struct {
	TenantID    string `json:"tenant_id"`
	IndexDomain string `json:"index_domain"`
}
