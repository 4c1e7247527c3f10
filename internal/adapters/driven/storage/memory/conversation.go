package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore keeps page histories in process memory.
// Entries never expire unless a TTL is given.
type ConversationStore struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

// NewConversationStore creates an in-memory conversation store.
// A ttl of zero keeps histories for the lifetime of the process.
func NewConversationStore(ttl time.Duration) *ConversationStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &ConversationStore{
		items: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

// Load returns a copy of the stored history.
func (s *ConversationStore) Load(_ context.Context, key string) (*domain.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key), nil
}

// Append adds messages when expectedVersion matches the stored version.
func (s *ConversationStore) Append(_ context.Context, key string, expectedVersion int64, msgs ...domain.ChatMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.get(key)
	if current.Version != expectedVersion {
		return current.Version, domain.ErrVersionConflict
	}
	current.Messages = append(current.Messages, msgs...)
	current.Version++
	s.items.Set(key, current, s.ttl)
	return current.Version, nil
}

// Clear removes the history for key.
func (s *ConversationStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Delete(key)
	return nil
}

// Keys lists stored keys in sorted order.
func (s *ConversationStore) Keys(_ context.Context) ([]string, error) {
	items := s.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close flushes all histories.
func (s *ConversationStore) Close() error {
	s.items.Flush()
	return nil
}

// get returns a detached copy so callers never share the backing slice.
func (s *ConversationStore) get(key string) *domain.History {
	v, ok := s.items.Get(key)
	if !ok {
		return &domain.History{Key: key}
	}
	stored := v.(*domain.History)
	return &domain.History{
		Key:      stored.Key,
		Messages: slices.Clone(stored.Messages),
		Version:  stored.Version,
	}
}
