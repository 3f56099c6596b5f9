package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/config"
)

// HTTPCompleter calls an OpenAI-compatible chat completions endpoint.
type HTTPCompleter struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPCompleter builds a client from the generation config.
func NewHTTPCompleter(cfg config.GenerationConfig) *HTTPCompleter {
	timeout := cfg.CallTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPCompleter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

var _ Completer = (*HTTPCompleter)(nil)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one completion request. 429 and 5xx map to retryable
// errors, other non-2xx statuses are permanent; a content-filter refusal
// maps to ErrRejected.
func (h *HTTPCompleter) Complete(ctx context.Context, modelID, prompt string) (*Result, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    modelID,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, &ProviderError{Message: "failed to marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Message: "http request failed", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, h.errorFromStatus(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: "response contained no choices"}
	}
	if parsed.Choices[0].FinishReason == "content_filter" {
		return nil, ErrRejected
	}

	return &Result{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

func (h *HTTPCompleter) errorFromStatus(status int, body []byte) error {
	var parsed chatResponse
	_ = json.Unmarshal(body, &parsed)

	msg := strings.TrimSpace(string(body))
	if parsed.Error != nil {
		msg = parsed.Error.Message
		if parsed.Error.Code == "content_filter" || parsed.Error.Code == "content_rejected" {
			return ErrRejected
		}
	}

	return &ProviderError{
		StatusCode: status,
		Message:    msg,
		Retryable:  status == http.StatusTooManyRequests || status >= 500,
	}
}
