package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/config"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/generation"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/repository"
)

const (
	// historyLimit caps how many stored turns are loaded per request.
	historyLimit = 20
	// historyCharBudget bounds how much conversation history enters the
	// prompt; oldest turns are dropped first.
	historyCharBudget = 4000
	// pendingContent marks an assistant turn whose answer is in flight.
	pendingContent = "..."
	// failedContent replaces the placeholder when generation gives up.
	failedContent = "The assistant could not produce an answer. Please try again."
)

// ChatService handles a conversation turn end to end: retrieve, prompt,
// generate, persist, meter.
type ChatService interface {
	// SendMessage appends the user turn, generates a grounded answer and
	// returns the finalized assistant message with its sources.
	SendMessage(ctx context.Context, tc model.TenantContext, sessionID, message string) (*model.ChatMessage, error)

	// History returns the most recent turns of a session in order.
	History(ctx context.Context, tc model.TenantContext, sessionID string, limit int) ([]model.ChatMessage, error)
}

type chatService struct {
	retrieval RetrievalService
	chats     repository.ChatRepository
	completer generation.Completer
	usage     UsageService
	cfg       config.GenerationConfig
	log       *zap.Logger

	// retryBase seeds the exponential backoff between generation attempts.
	retryBase time.Duration
}

// NewChatService constructs a ChatService.
func NewChatService(
	retrieval RetrievalService,
	chats repository.ChatRepository,
	completer generation.Completer,
	usage UsageService,
	cfg config.GenerationConfig,
	log *zap.Logger,
) ChatService {
	return &chatService{
		retrieval: retrieval,
		chats:     chats,
		completer: completer,
		usage:     usage,
		cfg:       cfg,
		log:       log,
		retryBase: 250 * time.Millisecond,
	}
}

// sessionKey namespaces the caller's session id under the tenant, so two
// tenants using the same session id never share history.
func sessionKey(tc model.TenantContext, sessionID string) string {
	return tc.TenantID + ":" + sessionID
}

func (s *chatService) SendMessage(ctx context.Context, tc model.TenantContext, sessionID, message string) (*model.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" || sessionID == "" {
		return nil, ErrInvalidQuery
	}
	sid := sessionKey(tc, sessionID)

	history, err := s.chats.ListBySession(ctx, sid, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	sources, err := s.retrieval.Retrieve(ctx, tc, message, defaultTopK)
	if err != nil {
		if !errors.Is(err, ErrRetrievalUnavailable) {
			return nil, err
		}
		// A down search backend degrades the answer, it does not block it.
		s.log.Warn("retrieval unavailable, answering without document context",
			zap.String("tenant_id", tc.TenantID),
			zap.Error(err))
		sources = nil
	}

	if _, err := s.chats.Append(ctx, &model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sid,
		Role:      model.RoleUser,
		Content:   message,
	}); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	placeholder, err := s.chats.Append(ctx, &model.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sid,
		Role:      model.RoleAssistant,
		Content:   pendingContent,
	})
	if err != nil {
		return nil, fmt.Errorf("append placeholder: %w", err)
	}

	prompt := buildPrompt(history, sources, message)

	result, err := s.completeWithRetry(ctx, prompt)
	if err != nil {
		if _, rerr := s.chats.ReplacePlaceholder(ctx, sid, placeholder.ID, failedContent, nil); rerr != nil {
			s.log.Error("failed to finalize placeholder after error", zap.Error(rerr))
		}
		if errors.Is(err, generation.ErrRejected) {
			return nil, ErrGenerationRejected
		}
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if _, err := s.chats.ReplacePlaceholder(ctx, sid, placeholder.ID, result.Text, sources); err != nil {
		return nil, fmt.Errorf("finalize answer: %w", err)
	}

	// Metering failures must not lose an already-delivered answer. The
	// persisted assistant message id doubles as the invocation id, so any
	// replay of the metering for this answer hits the dedupe window.
	if err := s.usage.Record(ctx, tc.TenantID, s.cfg.ModelID, placeholder.ID, result.InputTokens, result.OutputTokens); err != nil {
		s.log.Error("usage record failed",
			zap.String("tenant_id", tc.TenantID),
			zap.Error(err))
	}

	placeholder.Content = result.Text
	placeholder.Sources = sources
	return placeholder, nil
}

func (s *chatService) History(ctx context.Context, tc model.TenantContext, sessionID string, limit int) ([]model.ChatMessage, error) {
	if sessionID == "" {
		return nil, ErrInvalidQuery
	}
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	return s.chats.ListBySession(ctx, sessionKey(tc, sessionID), limit)
}

// completeWithRetry retries transient provider failures with exponential
// backoff. Rejections and other permanent errors surface immediately.
func (s *chatService) completeWithRetry(ctx context.Context, prompt string) (*generation.Result, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := s.completer.Complete(ctx, s.cfg.ModelID, prompt)
		if err == nil {
			return result, nil
		}
		if !generation.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		s.log.Warn("generation attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, lastErr
}

// buildPrompt assembles the grounded prompt: instructions, delimited source
// excerpts, a bounded slice of history, then the question. With zero
// sources the model is told to answer from general knowledge and say that
// no documents matched.
func buildPrompt(history []model.ChatMessage, sources []model.Source, question string) string {
	var b strings.Builder

	b.WriteString("You are an assistant answering questions using the provided document excerpts.\n")
	b.WriteString("Base your answer on the excerpts when they are relevant. ")
	b.WriteString("If the excerpts do not contain the answer, say so plainly instead of guessing.\n\n")

	b.WriteString("<documents>\n")
	if len(sources) == 0 {
		b.WriteString("(no matching documents)\n")
	}
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s\n%s\n", i+1, src.Title, src.Snippet)
	}
	b.WriteString("</documents>\n\n")

	if trimmed := trimHistory(history, historyCharBudget); len(trimmed) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, msg := range trimmed {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// trimHistory keeps the most recent turns that fit the character budget.
func trimHistory(history []model.ChatMessage, budget int) []model.ChatMessage {
	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := len(history[i].Content) + len(history[i].Role) + 2
		if total+cost > budget {
			break
		}
		total += cost
		start = i
	}
	return history[start:]
}
