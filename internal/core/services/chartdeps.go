package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// ChartLibraryLoader makes sure the chart scripts are present on a surface.
// Scripts load in order, each under its own timeout, at most once per surface.
type ChartLibraryLoader struct {
	scripts []domain.ChartScript
	timings ChartTimings

	mu      sync.Mutex
	entries map[string]*libraryEntry
}

// libraryEntry serialises loads for one surface. sem is a one-slot lock
// that waiters can abandon when their context ends.
type libraryEntry struct {
	sem chan struct{}
	lib *domain.ChartLibrary
}

// NewChartLibraryLoader creates a loader for scripts.
func NewChartLibraryLoader(scripts []domain.ChartScript, timings ChartTimings) *ChartLibraryLoader {
	return &ChartLibraryLoader{
		scripts: scripts,
		timings: timings,
		entries: make(map[string]*libraryEntry),
	}
}

// Ensure returns the library handle for surface, loading scripts on first use.
// A failed load is not remembered, so the next render tries again.
func (l *ChartLibraryLoader) Ensure(ctx context.Context, surface driven.ChartSurface) (*domain.ChartLibrary, error) {
	l.mu.Lock()
	entry, ok := l.entries[surface.ID()]
	if !ok {
		entry = &libraryEntry{sem: make(chan struct{}, 1)}
		l.entries[surface.ID()] = entry
	}
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-entry.sem }()

	if entry.lib != nil {
		return entry.lib, nil
	}

	lib, err := l.load(ctx, surface)
	if err != nil {
		return nil, err
	}
	entry.lib = lib
	return lib, nil
}

// Forget drops the memoised handle of a surface, e.g. after it was reloaded.
func (l *ChartLibraryLoader) Forget(surfaceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, surfaceID)
}

func (l *ChartLibraryLoader) load(ctx context.Context, surface driven.ChartSurface) (*domain.ChartLibrary, error) {
	lib := &domain.ChartLibrary{Scripts: l.scripts}

	present, err := l.allPresent(ctx, surface)
	if err != nil {
		return nil, err
	}
	if present {
		logger.Debug("Chart libraries already present on %s", surface.ID())
		lib.Preloaded = true
		return lib, nil
	}

	fresh := false
	for _, script := range l.scripts {
		ok, err := surface.Available(ctx, script.Global)
		if err != nil {
			return nil, scriptError(script, err)
		}
		if ok {
			continue
		}

		if err := l.loadOne(ctx, surface, script); err != nil {
			return nil, err
		}
		fresh = true
	}

	if fresh {
		if err := sleepCtx(ctx, l.timings.Settle); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func (l *ChartLibraryLoader) loadOne(ctx context.Context, surface driven.ChartSurface, script domain.ChartScript) error {
	logger.Debug("Loading %s from %s", script.Name, script.URL)

	loadCtx, cancel := context.WithTimeout(ctx, l.timings.ScriptTimeout)
	err := surface.LoadScript(loadCtx, script)
	timedOut := loadCtx.Err() == context.DeadlineExceeded
	cancel()
	if err != nil {
		if timedOut && ctx.Err() == nil {
			return fmt.Errorf("%w: timeout loading %s", domain.ErrScriptLoad, script.Name)
		}
		return scriptError(script, err)
	}

	ok, err := surface.Available(ctx, script.Global)
	if err != nil {
		return scriptError(script, err)
	}
	if !ok {
		if err := sleepCtx(ctx, l.timings.Grace); err != nil {
			return err
		}
		if ok, err = surface.Available(ctx, script.Global); err != nil {
			return scriptError(script, err)
		}
	}
	if ok {
		return nil
	}
	if script.Optional {
		logger.Warn("%s loaded but %s is not defined, continuing", script.Name, script.Global)
		return nil
	}
	return fmt.Errorf("%w: %s loaded but %s is not available", domain.ErrScriptLoad, script.Name, script.Global)
}

func (l *ChartLibraryLoader) allPresent(ctx context.Context, surface driven.ChartSurface) (bool, error) {
	for _, script := range l.scripts {
		if script.Optional {
			continue
		}
		ok, err := surface.Available(ctx, script.Global)
		if err != nil {
			return false, fmt.Errorf("%w: probe %s: %v", domain.ErrScriptLoad, script.Global, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func scriptError(script domain.ChartScript, err error) error {
	return fmt.Errorf("%w: failed to load %s: %v", domain.ErrScriptLoad, script.Name, err)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
