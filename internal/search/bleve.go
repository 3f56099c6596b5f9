package search

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// BleveEngine backs retrieval with one embedded Bleve index per domain.
// The per-domain indexes live in separate directories; nothing below this
// type can see more than one domain at a time.
type BleveEngine struct {
	indexes map[string]bleve.Index
}

// NewBleveEngine opens or creates one index per configured domain.
// domains maps domain name to index directory path.
func NewBleveEngine(domains map[string]string) (*BleveEngine, error) {
	e := &BleveEngine{indexes: make(map[string]bleve.Index, len(domains))}
	for name, path := range domains {
		idx, err := openIndex(path)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("open index for domain %s: %w", name, err)
		}
		e.indexes[name] = idx
	}
	return e, nil
}

func openIndex(path string) (bleve.Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("tenant_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("doc_id", keywordFieldMapping)
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open bleve index: %w", openErr)
		}
		return idx, nil
	}

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return idx, nil
}

func (e *BleveEngine) domainIndex(domain string) (bleve.Index, error) {
	idx, ok := e.indexes[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return idx, nil
}

// Index adds or replaces a document in the domain's index.
func (e *BleveEngine) Index(ctx context.Context, domain string, doc Document) error {
	idx, err := e.domainIndex(domain)
	if err != nil {
		return err
	}
	return idx.Index(doc.DocID, doc)
}

// Delete removes a document from the domain's index.
func (e *BleveEngine) Delete(ctx context.Context, domain, docID string) error {
	idx, err := e.domainIndex(domain)
	if err != nil {
		return err
	}
	return idx.Delete(docID)
}

// Query runs a match query conjoined with an exact tenant_id term, so hits
// from other tenants sharing the domain index are filtered at query time.
func (e *BleveEngine) Query(ctx context.Context, domain, tenantID, query string, limit int) ([]Hit, error) {
	idx, err := e.domainIndex(domain)
	if err != nil {
		return nil, err
	}

	match := bleve.NewMatchQuery(query)
	tenantTerm := bleve.NewTermQuery(tenantID)
	tenantTerm.SetField("tenant_id")
	q := bleve.NewConjunctionQuery(match, tenantTerm)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"title", "content"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		title, _ := h.Fields["title"].(string)
		content, _ := h.Fields["content"].(string)
		hits = append(hits, Hit{
			DocID:   h.ID,
			Title:   title,
			Snippet: makeSnippet(content),
			Score:   h.Score,
		})
	}
	return hits, nil
}

// Close closes all domain indexes.
func (e *BleveEngine) Close() error {
	var firstErr error
	for _, idx := range e.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Engine = (*BleveEngine)(nil)
