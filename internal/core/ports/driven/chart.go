package driven

import (
	"context"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// ChartSurface is the privileged execution context charts are drawn in.
// It hosts chart containers, loads the chart library scripts and posts
// render acknowledgements back to the host.
type ChartSurface interface {
	// Mount creates a container carrying spec, ready to be located.
	Mount(ctx context.Context, containerID string, spec []byte) error

	// Locate resolves a container by id, then by the newest spec marker,
	// then by an unclaimed chart container. It returns the resolved id,
	// or domain.ErrContainerNotFound.
	Locate(ctx context.Context, containerID string) (string, error)

	// Available reports whether the named global is defined.
	Available(ctx context.Context, global string) (bool, error)

	// LoadScript injects a script tag and waits for its load event.
	LoadScript(ctx context.Context, script domain.ChartScript) error

	// Subscribe opens the acknowledgement channel for one container.
	// The returned cancel func must be called once the caller is done.
	Subscribe(containerID string) (<-chan domain.ChartSignal, func())

	// Embed starts rendering spec into the container. It returns once the
	// embed call has been issued; completion arrives via Subscribe.
	Embed(ctx context.Context, containerID string, spec []byte) error

	// Probe inspects the container during fallback polling.
	Probe(ctx context.Context, containerID string) (domain.ChartProbe, error)

	// ShowNotice replaces the container's placeholder text.
	ShowNotice(ctx context.Context, containerID, text string) error

	// ShowError writes an inline error into the container.
	ShowError(ctx context.Context, containerID, message string) error

	// SVG returns the serialised chart, or "" when none is drawn.
	SVG(ctx context.Context, containerID string) (string, error)

	// ID identifies the surface for per-surface library memoisation.
	ID() string
}

// MarkdownRenderer converts assistant markdown into sanitised HTML.
type MarkdownRenderer interface {
	Render(text string) string
}
