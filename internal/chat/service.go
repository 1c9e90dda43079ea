// Package chat implements the message orchestration workflow: for one
// inbound user message it persists the user turn, rebuilds the
// conversation context, dispatches to the provider, and persists the
// assistant reply.
package chat

import (
	"context"
	"log/slog"
	"time"

	"chathub/internal/core"
	"chathub/internal/store"
)

// Dispatcher is the provider dispatch capability the orchestrator needs.
type Dispatcher interface {
	Chat(ctx context.Context, model string, history []core.Message) (*core.ChatResult, error)
}

// Service orchestrates message exchanges against the store and dispatcher.
// It assumes at most one in-flight exchange per conversation; concurrent
// exchanges against the same conversation can interleave their history
// reads, and guarding against that is the caller's job.
type Service struct {
	store      store.Store
	dispatcher Dispatcher
}

// NewService creates a new orchestration service.
func NewService(st store.Store, dispatcher Dispatcher) *Service {
	return &Service{store: st, dispatcher: dispatcher}
}

// ExchangeResult is the outcome of one successful message exchange.
type ExchangeResult struct {
	UserMessage      *store.Message `json:"userMessage"`
	AssistantMessage *store.Message `json:"aiMessage"`
	ResponseTimeMs   int64          `json:"responseTime"`
}

// HandleIncomingMessage runs one exchange: persist the user message, send
// the full conversation history to the provider, persist the reply, and
// touch the conversation.
//
// Failure semantics: if the conversation is missing nothing is written.
// Once the user message commits it is never rolled back; a dispatch
// failure leaves the conversation with the user turn persisted and no
// assistant turn. Callers must treat stored state as the source of truth
// after an error.
func (s *Service) HandleIncomingMessage(ctx context.Context, conversationID int64, content, model string) (*ExchangeResult, error) {
	if content == "" || model == "" {
		return nil, core.NewValidationError("content and model are required")
	}

	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	userMessage, err := s.store.CreateMessage(ctx, conversationID, core.RoleUser, content, nil)
	if err != nil {
		return nil, err
	}

	// Reload the full history, including the message just written. The
	// whole sequence is the provider's context window; no truncation.
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	history := make([]core.Message, len(messages))
	for i, m := range messages {
		history[i] = core.Message{Role: m.Role, Content: m.Content}
	}

	result, err := s.dispatcher.Chat(ctx, model, history)
	if err != nil {
		// The user message stays persisted; the caller sees the error
		// and decides whether to issue a new request.
		return nil, err
	}

	assistantMessage, err := s.store.CreateMessage(ctx, conversationID, core.RoleAssistant, result.Content, &result.ResponseTimeMs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := s.store.UpdateConversation(ctx, conversationID, store.ConversationUpdate{UpdatedAt: &now}); err != nil {
		// The exchange itself succeeded; a failed timestamp touch is
		// not worth surfacing as a failed send.
		slog.Warn("failed to touch conversation", "conversation_id", conversationID, "error", err)
	}

	return &ExchangeResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		ResponseTimeMs:   result.ResponseTimeMs,
	}, nil
}
