package driven

import (
	"context"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// ConversationStore persists per-page chat histories.
// Writes are optimistic: every append names the version it was based on.
type ConversationStore interface {
	// Load returns the history for key. A missing key yields an empty
	// history at version 0.
	Load(ctx context.Context, key string) (*domain.History, error)

	// Append adds messages to the end of the history if its current
	// version equals expectedVersion. Returns the new version, or
	// domain.ErrVersionConflict when another writer got there first.
	Append(ctx context.Context, key string, expectedVersion int64, msgs ...domain.ChatMessage) (int64, error)

	// Clear removes the history for key. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error

	// Keys lists every stored history key.
	Keys(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
