package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// Verify interface compliance.
var _ driven.SnapshotSource = (*SnapshotSource)(nil)

//go:embed snapshot.js
var snapshotJS string

// SnapshotSource captures pages rendered by headless Chrome, with computed
// display and visibility on every element.
type SnapshotSource struct {
	mgr *Manager
}

// NewSnapshotSource creates a snapshot source backed by mgr.
func NewSnapshotSource(mgr *Manager) *SnapshotSource {
	return &SnapshotSource{mgr: mgr}
}

// Snapshot loads pageURL in a fresh tab and serialises its body.
func (s *SnapshotSource) Snapshot(ctx context.Context, pageURL string) (*domain.PageSnapshot, error) {
	page, err := s.mgr.Open(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Debug("browser: close page: %v", err)
		}
	}()

	res, err := page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("browser: serialise %s: %w", pageURL, err)
	}
	return decodeSnapshot(res.Value.Str())
}

// Close shuts the shared browser down.
func (s *SnapshotSource) Close() error {
	return s.mgr.Close()
}

func decodeSnapshot(raw string) (*domain.PageSnapshot, error) {
	var snap domain.PageSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("browser: decode snapshot: %w", err)
	}
	if snap.Root == nil {
		snap.Root = domain.Element("body", nil)
	}
	return &snap, nil
}
