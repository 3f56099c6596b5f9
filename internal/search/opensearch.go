package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// OpenSearchEngine talks to OpenSearch over its REST API. Each domain maps
// to a separate collection endpoint URL, mirroring the one-index-per-domain
// layout of the embedded backend.
type OpenSearchEngine struct {
	endpoints map[string]string
	username  string
	password  string
	client    *http.Client
}

// NewOpenSearchEngine builds a client over the configured domain endpoints.
// domains maps domain name to the index base URL, e.g.
// https://search.example.com/tenant-data-a.
func NewOpenSearchEngine(domains map[string]string, username, password string) *OpenSearchEngine {
	return &OpenSearchEngine{
		endpoints: domains,
		username:  username,
		password:  password,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

var _ Engine = (*OpenSearchEngine)(nil)

func (e *OpenSearchEngine) endpoint(domain string) (string, error) {
	base, ok := e.endpoints[domain]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return base, nil
}

func (e *OpenSearchEngine) do(ctx context.Context, method, rawURL string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.username != "" {
		req.SetBasicAuth(e.username, e.password)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

// Index adds or replaces a document in the domain's index.
func (e *OpenSearchEngine) Index(ctx context.Context, domain string, doc Document) error {
	base, err := e.endpoint(domain)
	if err != nil {
		return err
	}

	status, body, err := e.do(ctx, http.MethodPut,
		fmt.Sprintf("%s/_doc/%s", base, url.PathEscape(doc.DocID)), doc)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("index document: status %d: %s", status, body)
	}
	return nil
}

// Delete removes a document from the domain's index. A 404 means the
// document was never indexed and is treated as success.
func (e *OpenSearchEngine) Delete(ctx context.Context, domain, docID string) error {
	base, err := e.endpoint(domain)
	if err != nil {
		return err
	}

	status, body, err := e.do(ctx, http.MethodDelete,
		fmt.Sprintf("%s/_doc/%s", base, url.PathEscape(docID)), nil)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("delete document: status %d: %s", status, body)
	}
	return nil
}

type osSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Score  float64  `json:"_score"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Query runs a bool query: a match over title/content, filtered by an exact
// tenant_id term.
func (e *OpenSearchEngine) Query(ctx context.Context, domain, tenantID, query string, limit int) ([]Hit, error) {
	base, err := e.endpoint(domain)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"title", "content"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"tenant_id": tenantID},
				},
			},
		},
	}

	status, body, err := e.do(ctx, http.MethodPost, base+"/_search", payload)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("search: status %d: %s", status, body)
	}

	var parsed osSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, Hit{
			DocID:   h.ID,
			Title:   h.Source.Title,
			Snippet: makeSnippet(h.Source.Content),
			Score:   h.Score,
		})
	}
	return hits, nil
}

// Close is a no-op; connections are managed by the HTTP client.
func (e *OpenSearchEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
