// Package transport sends vendor requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

// Ensure HTTP implements the interface.
var _ driven.Transport = (*HTTP)(nil)

// Default configuration values.
const (
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes bounds how much of a reply is read into memory.
	maxResponseBytes = 10 << 20
)

// HTTP is a Transport backed by net/http.
type HTTP struct {
	client *http.Client
}

// New creates an HTTP transport. A nil client gets a default one with
// DefaultTimeout.
func New(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{client: client}
}

// Do POSTs the request. The request's own timeout, when set, bounds the call
// in addition to ctx.
func (t *HTTP) Do(ctx context.Context, req *domain.WireRequest) (*domain.WireResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &domain.NetworkError{Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.NetworkError{Err: fmt.Errorf("read response: %w", err)}
	}

	return &domain.WireResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
