package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates required LLM settings are missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrAPI indicates the LLM endpoint answered with a non-2xx status
	// or a body the vendor adapter could not read text from.
	ErrAPI = errors.New("API error")

	// ErrNetwork indicates the LLM endpoint could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrUnsupportedVendor indicates an unknown vendor identifier.
	ErrUnsupportedVendor = errors.New("unsupported vendor")

	// ErrVersionConflict indicates a history write raced with another writer.
	// The caller should reload and retry.
	ErrVersionConflict = errors.New("version conflict")

	// Chart Errors.

	// ErrContainerNotFound indicates the chart container never appeared.
	ErrContainerNotFound = errors.New("container not found")

	// ErrScriptLoad indicates a chart library script failed to load.
	ErrScriptLoad = errors.New("script load failed")

	// ErrSurfaceClosed indicates the chart surface has been shut down.
	ErrSurfaceClosed = errors.New("surface closed")
)

// ConfigError reports missing or invalid LLM configuration.
// It is fatal to the call and surfaced verbatim to the user.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// Unwrap allows errors.Is(err, ErrNotConfigured).
func (e *ConfigError) Unwrap() error { return ErrNotConfigured }

// APIError reports a non-2xx response from the LLM endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// Unwrap allows errors.Is(err, ErrAPI).
func (e *APIError) Unwrap() error { return ErrAPI }

// NetworkError reports a transport failure talking to the LLM endpoint.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Is reports ErrNetwork so callers can match the category.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Unwrap exposes the transport error (e.g. context.DeadlineExceeded).
func (e *NetworkError) Unwrap() error { return e.Err }

// RenderError reports a chart pipeline failure for one container.
type RenderError struct {
	ContainerID string
	Message     string
	Err         error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s", e.ContainerID, e.Message)
}

func (e *RenderError) Unwrap() error { return e.Err }

// IsUserFacing reports whether err belongs to the configuration or transport
// categories that are shown to the user so they can self-correct.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrAPI) || errors.Is(err, ErrNetwork)
}
