package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// MaxAppendAttempts bounds reload-and-retry on version conflicts.
const MaxAppendAttempts = 5

// ConversationService manages per-page chat histories.
type ConversationService struct {
	store driven.ConversationStore
}

// NewConversationService creates a conversation service.
func NewConversationService(store driven.ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

// Key derives the conversation key of a page URL.
func (s *ConversationService) Key(pageURL string) (string, error) {
	return domain.PageKey(pageURL)
}

// Load returns the history stored under key.
func (s *ConversationService) Load(ctx context.Context, key string) (*domain.History, error) {
	h, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return h, nil
}

// History returns the history of a page.
func (s *ConversationService) History(ctx context.Context, pageURL string) (*domain.History, error) {
	key, err := s.Key(pageURL)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, key)
}

// Append adds msgs to the end of the history under key. A concurrent
// writer causes a reload and another attempt.
func (s *ConversationService) Append(ctx context.Context, key string, msgs ...domain.ChatMessage) (*domain.History, error) {
	for attempt := 1; attempt <= MaxAppendAttempts; attempt++ {
		h, err := s.store.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}

		version, err := s.store.Append(ctx, key, h.Version, msgs...)
		if err == nil {
			h.Messages = append(h.Messages, msgs...)
			h.Version = version
			return h, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("append history: %w", err)
		}
		logger.Debug("History %s changed underneath us (attempt %d)", key, attempt)
	}
	return nil, fmt.Errorf("append history %s: %w", key, domain.ErrVersionConflict)
}

// Clear removes the history of a page.
func (s *ConversationService) Clear(ctx context.Context, pageURL string) error {
	key, err := s.Key(pageURL)
	if err != nil {
		return err
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Pages lists every stored conversation key.
func (s *ConversationService) Pages(ctx context.Context) ([]string, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	return keys, nil
}
