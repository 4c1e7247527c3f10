package domain

import "time"

// CompletionRequest is the vendor-neutral description of one LLM call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// WireRequest is a fully built vendor HTTP request.
type WireRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// WireResponse is the raw HTTP reply of a vendor endpoint.
type WireResponse struct {
	StatusCode int
	Body       []byte
}

// OK returns true for 2xx statuses.
func (r *WireResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
