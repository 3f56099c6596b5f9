package model

// MonthKey is the billing-month bucket format for usage records.
const MonthKey = "2006-01"

// UsageRecord is the per-tenant-per-model aggregate for one billing month.
// All counters are monotonically non-decreasing; increments are commutative
// so concurrent writers and retried deliveries converge to the same totals.
type UsageRecord struct {
	TenantID     string  `json:"tenant_id"`
	ModelID      string  `json:"model_id"`
	Month        string  `json:"month"`
	Invocations  int64   `json:"invocations"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// ModelUsage is the per-model slice of a dashboard aggregate.
type ModelUsage struct {
	Invocations  int64   `json:"invocations"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// MonthSummary aggregates a tenant's usage for one billing month.
type MonthSummary struct {
	TotalCost        float64               `json:"total_cost"`
	TotalInvocations int64                 `json:"total_invocations"`
	TotalTokens      int64                 `json:"total_tokens"`
	ModelBreakdown   map[string]ModelUsage `json:"model_breakdown"`
}

// UsageTrends compares the current month against the prior one. Deltas are
// percentages; a prior month with zero total yields 0, not a division error.
type UsageTrends struct {
	CostTrend  float64 `json:"cost_trend"`
	UsageTrend float64 `json:"usage_trend"`
}

// Dashboard is the payload returned to the usage dashboard endpoint.
type Dashboard struct {
	CurrentMonth MonthSummary `json:"current_month"`
	Trends       UsageTrends  `json:"trends"`
}
