package driven

import (
	"context"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// Transport sends a built vendor request over the network.
type Transport interface {
	// Do issues a POST with the request body and headers.
	// Failures to reach the endpoint return a *domain.NetworkError.
	// Non-2xx responses are returned as-is with a nil error.
	Do(ctx context.Context, req *domain.WireRequest) (*domain.WireResponse, error)
}
