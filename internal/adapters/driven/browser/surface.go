package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// Verify interface compliance.
var _ driven.ChartSurface = (*ChartSurface)(nil)

// BindingName is the page function that posts render signals to the host.
const BindingName = "pagechatChart"

const hostDocument = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>pagechat charts</title></head>` +
	`<body><div id="charts"></div></body></html>`

const (
	mountJS = `(id, spec) => {
  const el = document.createElement('div');
  el.id = id;
  el.className = 'vega-lite-container';
  el.setAttribute('data-vega-spec', spec);
  el.style.minHeight = '200px';
  el.innerHTML = '<div class="chart-loading">Loading chart...</div>';
  document.getElementById('charts').appendChild(el);
  return true;
}`

	locateJS = `(id) => {
  let el = document.getElementById(id);
  if (!el) {
    const marked = document.querySelectorAll('[data-vega-spec]:not([data-claimed])');
    el = marked.length ? marked[marked.length - 1] : null;
  }
  if (!el) {
    el = document.querySelector('.vega-lite-container:not([data-claimed])');
  }
  if (!el) return '';
  if (!el.id) el.id = id;
  el.setAttribute('data-claimed', '1');
  return el.id;
}`

	availableJS = `(name) => typeof window[name] !== 'undefined'`

	loadScriptJS = `(url) => new Promise((resolve, reject) => {
  const s = document.createElement('script');
  s.src = url;
  s.onload = () => resolve(true);
  s.onerror = () => reject(new Error('failed to load ' + url));
  document.head.appendChild(s);
})`

	embedJS = `(id, spec) => {
  const el = document.getElementById(id);
  const post = (msg) => window.` + BindingName + `(JSON.stringify(msg));
  if (!el) {
    post({type: 'vegaError', containerId: id, error: 'Chart container not found'});
    return false;
  }
  el.innerHTML = '';
  vegaEmbed(el, JSON.parse(spec), {actions: false, renderer: 'svg'})
    .then(() => post({type: 'vegaChartRendered', containerId: id}))
    .catch((e) => post({type: 'vegaError', containerId: id, error: String((e && e.message) || e)}));
  return true;
}`

	probeJS = `(id) => {
  const el = document.getElementById(id);
  if (!el) return JSON.stringify({rendered: false, error: 'Chart container not found', loading: false});
  const svg = el.querySelector('svg');
  const text = el.textContent || '';
  const failed = el.querySelector('.chart-error');
  return JSON.stringify({
    rendered: !!svg && svg.children.length > 0,
    error: failed ? failed.textContent : '',
    loading: text.includes('Loading chart'),
  });
}`

	noticeJS = `(id, text) => {
  const el = document.getElementById(id);
  if (!el) return false;
  const loading = el.querySelector('.chart-loading');
  if (!loading) return false;
  loading.textContent = text;
  return true;
}`

	errorJS = `(id, message) => {
  const el = document.getElementById(id);
  if (!el) return false;
  const box = document.createElement('div');
  box.className = 'chart-error';
  box.textContent = 'Error: ' + message;
  el.replaceChildren(box);
  return true;
}`

	svgJS = `(id) => {
  const el = document.getElementById(id);
  const svg = el && el.querySelector('svg');
  return svg ? new XMLSerializer().serializeToString(svg) : '';
}`
)

// bindingPayload is what the page posts through the binding.
type bindingPayload struct {
	Type        string `json:"type"`
	ContainerID string `json:"containerId"`
	Error       string `json:"error"`
}

// ChartSurface draws charts in a dedicated headless Chrome page.
type ChartSurface struct {
	id   string
	page *rod.Page

	mu   sync.Mutex
	subs map[string]chan domain.ChartSignal

	stop   context.CancelFunc
	closed bool
}

// NewChartSurface opens the chart host page and starts listening for
// render signals.
func NewChartSurface(ctx context.Context, mgr *Manager) (*ChartSurface, error) {
	page, err := mgr.NewPage()
	if err != nil {
		return nil, err
	}
	if err := page.Context(ctx).SetDocumentContent(hostDocument); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: chart host: %w", err)
	}
	if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}

	listenCtx, stop := context.WithCancel(context.Background())
	s := &ChartSurface{
		id:   uuid.NewString(),
		page: page,
		subs: make(map[string]chan domain.ChartSignal),
		stop: stop,
	}
	go page.Context(listenCtx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name == BindingName {
			s.dispatch(e.Payload)
		}
	})()
	return s, nil
}

// dispatch routes one binding payload to its subscriber.
func (s *ChartSurface) dispatch(raw string) {
	sig, err := decodeSignal(raw)
	if err != nil {
		logger.Warn("browser: chart signal: %v", err)
		return
	}

	s.mu.Lock()
	ch, ok := s.subs[sig.ContainerID]
	s.mu.Unlock()
	if !ok {
		logger.Debug("browser: chart signal for %s without subscriber", sig.ContainerID)
		return
	}
	select {
	case ch <- sig:
	default:
	}
}

func decodeSignal(raw string) (domain.ChartSignal, error) {
	var p bindingPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.ChartSignal{}, fmt.Errorf("decode: %w", err)
	}
	switch p.Type {
	case "vegaChartRendered":
		return domain.ChartSignal{ContainerID: p.ContainerID, Rendered: true}, nil
	case "vegaError":
		msg := p.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return domain.ChartSignal{ContainerID: p.ContainerID, Error: msg}, nil
	default:
		return domain.ChartSignal{}, fmt.Errorf("unknown signal type %q", p.Type)
	}
}

// ID identifies the surface.
func (s *ChartSurface) ID() string { return s.id }

// Mount appends a container carrying spec to the host page.
func (s *ChartSurface) Mount(ctx context.Context, containerID string, spec []byte) error {
	_, err := s.eval(ctx, mountJS, containerID, string(spec))
	return err
}

// Locate resolves a container, falling back to the newest unclaimed one.
func (s *ChartSurface) Locate(ctx context.Context, containerID string) (string, error) {
	res, err := s.eval(ctx, locateJS, containerID)
	if err != nil {
		return "", err
	}
	id := res.Value.Str()
	if id == "" {
		return "", domain.ErrContainerNotFound
	}
	return id, nil
}

// Available reports whether a global is defined in the host page.
func (s *ChartSurface) Available(ctx context.Context, global string) (bool, error) {
	res, err := s.eval(ctx, availableJS, global)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// LoadScript appends a script tag and waits for its load event.
func (s *ChartSurface) LoadScript(ctx context.Context, script domain.ChartScript) error {
	if _, err := s.eval(ctx, loadScriptJS, script.URL); err != nil {
		return fmt.Errorf("%s: %w", script.Name, err)
	}
	return nil
}

// Subscribe opens the signal channel of one container.
func (s *ChartSurface) Subscribe(containerID string) (<-chan domain.ChartSignal, func()) {
	ch := make(chan domain.ChartSignal, 1)
	s.mu.Lock()
	s.subs[containerID] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.subs[containerID] == ch {
			delete(s.subs, containerID)
		}
	}
}

// Embed starts vegaEmbed on the container.
func (s *ChartSurface) Embed(ctx context.Context, containerID string, spec []byte) error {
	_, err := s.eval(ctx, embedJS, containerID, string(spec))
	return err
}

// Probe reads the container state.
func (s *ChartSurface) Probe(ctx context.Context, containerID string) (domain.ChartProbe, error) {
	res, err := s.eval(ctx, probeJS, containerID)
	if err != nil {
		return domain.ChartProbe{}, err
	}
	var p domain.ChartProbe
	if err := json.Unmarshal([]byte(res.Value.Str()), &p); err != nil {
		return domain.ChartProbe{}, fmt.Errorf("browser: decode probe: %w", err)
	}
	return p, nil
}

// ShowNotice replaces the loading text, if it is still shown.
func (s *ChartSurface) ShowNotice(ctx context.Context, containerID, text string) error {
	_, err := s.eval(ctx, noticeJS, containerID, text)
	return err
}

// ShowError replaces the container contents with an error box.
func (s *ChartSurface) ShowError(ctx context.Context, containerID, message string) error {
	_, err := s.eval(ctx, errorJS, containerID, message)
	return err
}

// SVG serialises the rendered chart.
func (s *ChartSurface) SVG(ctx context.Context, containerID string) (string, error) {
	res, err := s.eval(ctx, svgJS, containerID)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Close stops the listener and closes the host page.
func (s *ChartSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	return s.page.Close()
}

func (s *ChartSurface) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, domain.ErrSurfaceClosed
	}

	res, err := s.page.Context(ctx).Eval(js, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("browser: eval: %w", err)
	}
	return res, nil
}
