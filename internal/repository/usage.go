package repository

import (
	"context"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
)

// UsageRepository persists per-tenant usage aggregates. Increments are
// commutative: rows are upserted with additive updates, so the final
// totals do not depend on arrival order.
type UsageRepository interface {
	// AddUsage adds the record's counters onto the (tenant, model, month)
	// aggregate, creating the row if it does not exist.
	AddUsage(ctx context.Context, rec model.UsageRecord) error

	// MonthRecords returns all per-model aggregates of a tenant for one month.
	MonthRecords(ctx context.Context, tenantID, month string) ([]model.UsageRecord, error)
}
