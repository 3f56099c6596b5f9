package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/idempotency"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

// modelPricing is the per-1k-token price for a model.
type modelPricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// pricingTable maps model ids to their token prices. Unknown models are
// metered with zero cost so invocation counts stay accurate.
var pricingTable = map[string]modelPricing{
	"anthropic.claude-3-5-sonnet-20241022-v2:0": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"amazon.titan-embed-text-v2:0":              {InputPer1K: 0.00002},
}

// UsageService meters model invocations per tenant and serves the dashboard.
type UsageService interface {
	// Record adds one invocation's tokens and cost onto the tenant's
	// monthly aggregate. Replays of the same invocation id inside the
	// dedupe window are absorbed.
	Record(ctx context.Context, tenantID, modelID, invocationID string, inputTokens, outputTokens int64) error

	// Dashboard returns the current month summary plus trends against the
	// prior month.
	Dashboard(ctx context.Context, tenantID string) (*model.Dashboard, error)
}

type usageService struct {
	repo    repository.UsageRepository
	deduper idempotency.Deduper
	log     *zap.Logger
	now     func() time.Time
}

// NewUsageService constructs a UsageService.
func NewUsageService(repo repository.UsageRepository, deduper idempotency.Deduper, log *zap.Logger) UsageService {
	return &usageService{repo: repo, deduper: deduper, log: log, now: time.Now}
}

func (s *usageService) Record(ctx context.Context, tenantID, modelID, invocationID string, inputTokens, outputTokens int64) error {
	if invocationID != "" {
		seen, err := s.deduper.Seen(ctx, invocationID)
		if err != nil {
			return fmt.Errorf("usage dedupe: %w", err)
		}
		if seen {
			s.log.Debug("usage record absorbed",
				zap.String("tenant_id", tenantID),
				zap.String("invocation_id", invocationID))
			return nil
		}
	}

	price, ok := pricingTable[modelID]
	if !ok {
		s.log.Warn("no pricing for model, metering cost as zero", zap.String("model_id", modelID))
	}
	cost := float64(inputTokens)/1000*price.InputPer1K + float64(outputTokens)/1000*price.OutputPer1K

	rec := model.UsageRecord{
		TenantID:     tenantID,
		ModelID:      modelID,
		Month:        s.now().UTC().Format(model.MonthKey),
		Invocations:  1,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost,
	}
	if err := s.repo.AddUsage(ctx, rec); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (s *usageService) Dashboard(ctx context.Context, tenantID string) (*model.Dashboard, error) {
	now := s.now().UTC()
	current := now.Format(model.MonthKey)
	// Anchor on the first of the month before stepping back; AddDate on a
	// month-end day normalizes forward into the current month.
	prior := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC).Format(model.MonthKey)

	currentRecs, err := s.repo.MonthRecords(ctx, tenantID, current)
	if err != nil {
		return nil, err
	}
	priorRecs, err := s.repo.MonthRecords(ctx, tenantID, prior)
	if err != nil {
		return nil, err
	}

	summary := summarize(currentRecs)
	priorSummary := summarize(priorRecs)

	return &model.Dashboard{
		CurrentMonth: summary,
		Trends: model.UsageTrends{
			CostTrend:  trend(summary.TotalCost, priorSummary.TotalCost),
			UsageTrend: trend(float64(summary.TotalInvocations), float64(priorSummary.TotalInvocations)),
		},
	}, nil
}

func summarize(recs []model.UsageRecord) model.MonthSummary {
	out := model.MonthSummary{ModelBreakdown: make(map[string]model.ModelUsage, len(recs))}
	for _, rec := range recs {
		out.TotalCost += rec.Cost
		out.TotalInvocations += rec.Invocations
		out.TotalTokens += rec.InputTokens + rec.OutputTokens
		out.ModelBreakdown[rec.ModelID] = model.ModelUsage{
			Invocations:  rec.Invocations,
			InputTokens:  rec.InputTokens,
			OutputTokens: rec.OutputTokens,
			Cost:         rec.Cost,
		}
	}
	return out
}

// trend is the percent change against the prior value. A zero prior yields
// zero rather than a division blowup.
func trend(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / prior * 100
}
