package driven

import (
	"context"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// SnapshotSource captures a detached DOM tree for a page.
//
// Implementations include:
//   - headless Chrome via go-rod, with computed styles
//   - static HTML fetch, with inline styles only
type SnapshotSource interface {
	// Snapshot loads pageURL and returns its body subtree.
	Snapshot(ctx context.Context, pageURL string) (*domain.PageSnapshot, error)

	// Close releases resources.
	Close() error
}

// PageDigester produces a readable markdown rendition of a page.
type PageDigester interface {
	// Digest fetches pageURL and converts its main content to markdown.
	Digest(ctx context.Context, pageURL string) (string, error)
}
