package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

// mockGateway is a scripted Gateway.
type mockGateway struct {
	mu          sync.Mutex
	result      *domain.NormalizedResult
	err         error
	suggestions []string
	suggestErr  error

	questions   []string
	docs        []*domain.SemanticDocument
	histories   [][]domain.ChatMessage
	suggestCall int
}

func (m *mockGateway) CallLLM(_ context.Context, question string, doc *domain.SemanticDocument) (*domain.NormalizedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = append(m.questions, question)
	m.docs = append(m.docs, doc)
	return m.result, m.err
}

func (m *mockGateway) GenerateSuggestions(_ context.Context, _ *domain.SemanticDocument, history []domain.ChatMessage) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestCall++
	m.histories = append(m.histories, history)
	return m.suggestions, m.suggestErr
}

// mockSnapshotSource serves fixed snapshots keyed by URL.
type mockSnapshotSource struct {
	snapshots map[string]*domain.PageSnapshot
	err       error
}

func (m *mockSnapshotSource) Snapshot(_ context.Context, pageURL string) (*domain.PageSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.snapshots[pageURL]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("fetch %s: %w", pageURL, domain.ErrNotFound)
}

func (m *mockSnapshotSource) Close() error { return nil }

// mockDigester returns fixed markdown.
type mockDigester struct {
	markdown string
}

func (m *mockDigester) Digest(_ context.Context, _ string) (string, error) {
	return m.markdown, nil
}

// mockPromptStore serves in-memory templates.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown prompt: %s", name)
}

func (m *mockPromptStore) Reload() {}

// conflictStore fails the first n appends with a version conflict.
type conflictStore struct {
	driven.ConversationStore
	conflicts int
	appendErr error
}

func (c *conflictStore) Append(ctx context.Context, key string, v int64, msgs ...domain.ChatMessage) (int64, error) {
	if c.appendErr != nil {
		return 0, c.appendErr
	}
	if c.conflicts > 0 {
		c.conflicts--
		return v, domain.ErrVersionConflict
	}
	return c.ConversationStore.Append(ctx, key, v, msgs...)
}

var errStorage = errors.New("disk on fire")

// fakeSurface is a scripted ChartSurface.
type fakeSurface struct {
	mu sync.Mutex

	id         string
	mounted    map[string][]byte
	missingFor int // Locate fails this many times first
	globals    map[string]bool
	loadErr    map[string]error
	loadBlocks bool
	noGlobal   map[string]bool // scripts that load without defining their global

	ack       *domain.ChartSignal
	embedErr  error
	probes    []domain.ChartProbe
	probeIdx  int
	svg       string
	loads     []string
	notices   []string
	errors    map[string]string
	subs      map[string]chan domain.ChartSignal
	locateHit int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		id:       "surface-1",
		mounted:  make(map[string][]byte),
		globals:  make(map[string]bool),
		loadErr:  make(map[string]error),
		noGlobal: make(map[string]bool),
		errors:   make(map[string]string),
		subs:     make(map[string]chan domain.ChartSignal),
	}
}

func (f *fakeSurface) Mount(_ context.Context, id string, spec []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounted[id] = spec
	return nil
}

func (f *fakeSurface) Locate(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locateHit++
	if f.missingFor > 0 {
		f.missingFor--
		return "", domain.ErrContainerNotFound
	}
	if _, ok := f.mounted[id]; !ok {
		return "", domain.ErrContainerNotFound
	}
	return id, nil
}

func (f *fakeSurface) Available(_ context.Context, global string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.globals[global], nil
}

func (f *fakeSurface) LoadScript(ctx context.Context, script domain.ChartScript) error {
	f.mu.Lock()
	f.loads = append(f.loads, script.Name)
	blocks := f.loadBlocks
	err := f.loadErr[script.Name]
	f.mu.Unlock()

	if blocks {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	if !f.noGlobal[script.Name] {
		f.globals[script.Global] = true
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) Subscribe(id string) (<-chan domain.ChartSignal, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan domain.ChartSignal, 1)
	f.subs[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeSurface) Embed(_ context.Context, id string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return f.embedErr
	}
	if f.ack != nil {
		sig := *f.ack
		sig.ContainerID = id
		f.subs[id] <- sig
	}
	return nil
}

func (f *fakeSurface) Probe(_ context.Context, _ string) (domain.ChartProbe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.probes) == 0 {
		return domain.ChartProbe{Loading: true}, nil
	}
	p := f.probes[min(f.probeIdx, len(f.probes)-1)]
	f.probeIdx++
	return p, nil
}

func (f *fakeSurface) ShowNotice(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, text)
	return nil
}

func (f *fakeSurface) ShowError(_ context.Context, id, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[id] = message
	return nil
}

func (f *fakeSurface) SVG(_ context.Context, _ string) (string, error) {
	return f.svg, nil
}

func (f *fakeSurface) ID() string { return f.id }

func (f *fakeSurface) errorFor(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[id]
}
