package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// Inline texts written into chart containers.
const (
	SlowChartNotice   = "Loading chart... (this may take longer with VPN)"
	ChartNotFoundText = "Chart container not found"
)

// ChartTimings holds every delay of the render pipeline.
type ChartTimings struct {
	LocateAttempts int
	LocateDelay    time.Duration

	ScriptTimeout time.Duration
	Grace         time.Duration
	Settle        time.Duration

	AckTimeout   time.Duration
	PollInterval time.Duration
	PollCeiling  time.Duration
}

// DefaultChartTimings returns the production render timings.
func DefaultChartTimings() ChartTimings {
	return ChartTimings{
		LocateAttempts: 10,
		LocateDelay:    200 * time.Millisecond,
		ScriptTimeout:  30 * time.Second,
		Grace:          500 * time.Millisecond,
		Settle:         300 * time.Millisecond,
		AckTimeout:     15 * time.Second,
		PollInterval:   time.Second,
		PollCeiling:    35 * time.Second,
	}
}

// ChartRenderer drives one chart render on a ChartSurface and reports the
// outcome as a single event.
type ChartRenderer struct {
	surface driven.ChartSurface
	loader  *ChartLibraryLoader
	timings ChartTimings
}

// NewChartRenderer creates a renderer. A nil loader means every surface
// already carries the chart library.
func NewChartRenderer(surface driven.ChartSurface, loader *ChartLibraryLoader, timings ChartTimings) *ChartRenderer {
	return &ChartRenderer{surface: surface, loader: loader, timings: timings}
}

// Mount creates the container a later Render draws into.
func (r *ChartRenderer) Mount(ctx context.Context, containerID string, spec []byte) error {
	return r.surface.Mount(ctx, containerID, spec)
}

// Render starts drawing spec into containerID and returns immediately.
// The channel yields exactly one terminal event and is then closed.
// Cancelling ctx stops every timer and ends the render with an error event.
func (r *ChartRenderer) Render(ctx context.Context, containerID string, spec []byte) <-chan domain.ChartEvent {
	events := make(chan domain.ChartEvent, 1)
	go func() {
		defer close(events)
		ev := r.run(ctx, containerID, spec)
		log := logger.With(zap.String("container", ev.ContainerID), zap.String("kind", string(ev.Kind)))
		if ev.Kind == domain.ChartError {
			log.Warn("chart render failed", zap.String("error", ev.Message))
		} else {
			log.Debug("chart rendered")
		}
		events <- ev
	}()
	return events
}

// SVG returns the serialised chart of a container.
func (r *ChartRenderer) SVG(ctx context.Context, containerID string) (string, error) {
	svg, err := r.surface.SVG(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("read chart svg: %w", err)
	}
	if svg == "" {
		return "", fmt.Errorf("chart %s: %w", containerID, domain.ErrNotFound)
	}
	return svg, nil
}

func (r *ChartRenderer) run(ctx context.Context, containerID string, spec []byte) domain.ChartEvent {
	id, err := r.locate(ctx, containerID)
	if err != nil {
		if ctx.Err() != nil {
			return r.unplaced(containerID, "Chart rendering cancelled")
		}
		if errors.Is(err, domain.ErrContainerNotFound) {
			return r.unplaced(containerID, ChartNotFoundText)
		}
		return r.unplaced(containerID, "Error rendering chart: "+err.Error())
	}

	if r.loader != nil {
		if _, err := r.loader.Ensure(ctx, r.surface); err != nil {
			if ctx.Err() != nil {
				return r.fail(ctx, id, "Chart rendering cancelled")
			}
			return r.fail(ctx, id, "Failed to load chart library: "+err.Error())
		}
	}

	signals, unsubscribe := r.surface.Subscribe(id)
	defer unsubscribe()

	started := time.Now()
	if err := r.surface.Embed(ctx, id, spec); err != nil {
		return r.fail(ctx, id, "Error rendering chart: "+err.Error())
	}

	ack := time.NewTimer(r.timings.AckTimeout)
	defer ack.Stop()

	select {
	case <-ctx.Done():
		return r.fail(ctx, id, "Chart rendering cancelled")
	case sig, ok := <-signals:
		if ok {
			return r.acknowledged(ctx, id, sig)
		}
	case <-ack.C:
	}

	if err := r.surface.ShowNotice(ctx, id, SlowChartNotice); err != nil {
		logger.Debug("Could not show notice in %s: %v", id, err)
	}
	return r.poll(ctx, id, signals, started)
}

// locate retries until the container is attached.
func (r *ChartRenderer) locate(ctx context.Context, containerID string) (string, error) {
	attempts := max(r.timings.LocateAttempts, 1)
	for i := 0; i < attempts; i++ {
		id, err := r.surface.Locate(ctx, containerID)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, domain.ErrContainerNotFound) {
			return "", err
		}
		if i == attempts-1 {
			break
		}
		if err := sleepCtx(ctx, r.timings.LocateDelay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: %w", containerID, domain.ErrContainerNotFound)
}

func (r *ChartRenderer) acknowledged(ctx context.Context, id string, sig domain.ChartSignal) domain.ChartEvent {
	if sig.Error != "" {
		return r.fail(ctx, id, "Error rendering chart: "+sig.Error)
	}
	probe, err := r.surface.Probe(ctx, id)
	if err != nil {
		return r.fail(ctx, id, "Error rendering chart: "+err.Error())
	}
	if !probe.Rendered {
		return r.fail(ctx, id, "Chart rendered but no SVG was found")
	}
	return domain.ChartEvent{ContainerID: id, Kind: domain.ChartRendered}
}

// poll is the fallback when no acknowledgement arrived in time.
func (r *ChartRenderer) poll(ctx context.Context, id string, signals <-chan domain.ChartSignal, started time.Time) domain.ChartEvent {
	remaining := r.timings.PollCeiling - time.Since(started)
	if remaining < 0 {
		remaining = 0
	}
	ceiling := time.NewTimer(remaining)
	defer ceiling.Stop()
	ticker := time.NewTicker(r.timings.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.fail(ctx, id, "Chart rendering cancelled")
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			return r.acknowledged(ctx, id, sig)
		case <-ceiling.C:
			return r.fail(ctx, id, "Chart rendering timed out. Please check your network connection.")
		case <-ticker.C:
			probe, err := r.surface.Probe(ctx, id)
			if err != nil {
				logger.Debug("Probe of %s failed: %v", id, err)
				continue
			}
			if probe.Rendered {
				return domain.ChartEvent{ContainerID: id, Kind: domain.ChartRendered}
			}
			if probe.Error != "" {
				return r.fail(ctx, id, "Error rendering chart: "+probe.Error)
			}
		}
	}
}

// fail writes message into the container and returns the error event.
// The write survives cancellation of ctx.
func (r *ChartRenderer) fail(ctx context.Context, id, message string) domain.ChartEvent {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := r.surface.ShowError(writeCtx, id, message); err != nil {
		logger.Debug("Could not write error into %s: %v", id, err)
	}
	return r.unplaced(id, message)
}

// unplaced reports a failure for a container that could not be written to.
func (r *ChartRenderer) unplaced(id, message string) domain.ChartEvent {
	return domain.ChartEvent{ContainerID: id, Kind: domain.ChartError, Message: message}
}
