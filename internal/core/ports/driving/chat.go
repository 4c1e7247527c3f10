package driving

import (
	"context"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// ChatService answers questions about pages and manages their conversations.
type ChatService interface {
	// Ask snapshots pageURL, sends the question with the extracted page data
	// to the LLM and records both sides of the exchange.
	// LLM failures are reported in Turn.Error; only invalid input and
	// storage failures are returned as errors.
	Ask(ctx context.Context, pageURL, question string) (*domain.Turn, error)

	// AskSnapshot is Ask for a snapshot captured by the caller.
	AskSnapshot(ctx context.Context, snapshot *domain.PageSnapshot, question string) (*domain.Turn, error)

	// Suggest returns exactly three follow-up questions for the page.
	Suggest(ctx context.Context, pageURL string) ([]string, error)

	// SuggestSnapshot is Suggest for a snapshot captured by the caller.
	SuggestSnapshot(ctx context.Context, snapshot *domain.PageSnapshot) ([]string, error)

	// History returns the stored conversation for the page.
	History(ctx context.Context, pageURL string) (*domain.History, error)

	// ClearHistory removes the stored conversation for the page.
	ClearHistory(ctx context.Context, pageURL string) error

	// Pages lists the keys of every stored conversation.
	Pages(ctx context.Context) ([]string, error)

	// Extract returns the semantic document of the page without calling the LLM.
	Extract(ctx context.Context, pageURL string) (*domain.SemanticDocument, error)

	// Digest returns a markdown rendition of the page.
	Digest(ctx context.Context, pageURL string) (string, error)

	// RenderMessage restores the display HTML of a persisted message.
	RenderMessage(msg domain.ChatMessage) string

	// ChartSVG returns the rendered SVG of a chart container.
	ChartSVG(ctx context.Context, containerID string) (string, error)
}
