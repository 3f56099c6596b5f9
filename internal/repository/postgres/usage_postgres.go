package postgres

import (
	"context"
	"database/sql"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

// UsagePostgres is a PostgreSQL implementation of repository.UsageRepository.
type UsagePostgres struct {
	db *sql.DB
}

// NewUsagePostgres creates a new UsagePostgres repository.
func NewUsagePostgres(db *sql.DB) *UsagePostgres {
	return &UsagePostgres{db: db}
}

var _ repository.UsageRepository = (*UsagePostgres)(nil)

// AddUsage upserts additive counters onto the (tenant, model, month) row.
// The increments commute, so replayed or reordered writers converge on the
// same totals.
func (r *UsagePostgres) AddUsage(ctx context.Context, rec model.UsageRecord) error {
	const q = `
		INSERT INTO usage_records (tenant_id, model_id, month, invocations, input_tokens, output_tokens, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, model_id, month) DO UPDATE SET
			invocations   = usage_records.invocations + excluded.invocations,
			input_tokens  = usage_records.input_tokens + excluded.input_tokens,
			output_tokens = usage_records.output_tokens + excluded.output_tokens,
			cost          = usage_records.cost + excluded.cost
	`
	_, err := r.db.ExecContext(ctx, q,
		rec.TenantID,
		rec.ModelID,
		rec.Month,
		rec.Invocations,
		rec.InputTokens,
		rec.OutputTokens,
		rec.Cost,
	)
	return err
}

// MonthRecords returns all per-model aggregates of a tenant for one month.
func (r *UsagePostgres) MonthRecords(ctx context.Context, tenantID, month string) ([]model.UsageRecord, error) {
	const q = `
		SELECT tenant_id, model_id, month, invocations, input_tokens, output_tokens, cost
		FROM usage_records
		WHERE tenant_id = $1 AND month = $2
		ORDER BY model_id
	`
	rows, err := r.db.QueryContext(ctx, q, tenantID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.UsageRecord, 0)
	for rows.Next() {
		var rec model.UsageRecord
		if err := rows.Scan(
			&rec.TenantID,
			&rec.ModelID,
			&rec.Month,
			&rec.Invocations,
			&rec.InputTokens,
			&rec.OutputTokens,
			&rec.Cost,
		); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
