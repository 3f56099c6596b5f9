package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/search"
)

const (
	// defaultTopK bounds how many sources feed a prompt.
	defaultTopK = 5
	// dedupeThreshold is the token-overlap ratio above which two snippets
	// count as near-identical.
	dedupeThreshold = 0.85
)

// RetrievalService runs tenant-scoped queries against the index domain.
type RetrievalService interface {
	// Retrieve returns up to topK deduplicated sources, best first.
	Retrieve(ctx context.Context, tc model.TenantContext, query string, topK int) ([]model.Source, error)
}

type retrievalService struct {
	engine search.Engine
	log    *zap.Logger
}

// NewRetrievalService constructs a RetrievalService over a search engine.
func NewRetrievalService(engine search.Engine, log *zap.Logger) RetrievalService {
	return &retrievalService{engine: engine, log: log}
}

func (s *retrievalService) Retrieve(ctx context.Context, tc model.TenantContext, query string, topK int) ([]model.Source, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	// Fetch extra headroom so dedupe does not starve the result.
	hits, err := s.engine.Query(ctx, tc.IndexDomain, tc.TenantID, query, topK*2)
	if err != nil {
		if errors.Is(err, search.ErrUnknownDomain) {
			return nil, err
		}
		s.log.Error("retrieval query failed",
			zap.String("tenant_id", tc.TenantID),
			zap.String("domain", tc.IndexDomain),
			zap.Error(err))
		return nil, ErrRetrievalUnavailable
	}

	sources := make([]model.Source, 0, topK)
	for _, hit := range hits {
		if len(sources) == topK {
			break
		}
		if isNearDuplicate(sources, hit.Snippet) {
			continue
		}
		sources = append(sources, model.Source{
			DocumentID: hit.DocID,
			Title:      hit.Title,
			Snippet:    hit.Snippet,
			Score:      hit.Score,
		})
	}
	return sources, nil
}

func isNearDuplicate(kept []model.Source, snippet string) bool {
	for _, src := range kept {
		if snippetSimilarity(src.Snippet, snippet) >= dedupeThreshold {
			return true
		}
	}
	return false
}

// snippetSimilarity is the Jaccard overlap of the lowercased token sets.
func snippetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = struct{}{}
	}
	return out
}
