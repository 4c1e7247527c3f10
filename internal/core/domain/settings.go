package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// Vendor identifies an LLM wire protocol.
type Vendor string

// Supported vendors.
const (
	// VendorLiteLLM is a LiteLLM proxy speaking the OpenAI chat completions protocol.
	VendorLiteLLM Vendor = "litellm"

	// VendorOpenAI is the OpenAI API or any compatible server.
	VendorOpenAI Vendor = "openai"

	// VendorClaude is the Anthropic messages API.
	VendorClaude Vendor = "claude"

	// VendorGemini is the Google generateContent API.
	VendorGemini Vendor = "gemini"

	// VendorCustom is a user-supplied endpoint treated as chat completions.
	VendorCustom Vendor = "custom"
)

// IsValid returns true if the vendor is recognised.
func (v Vendor) IsValid() bool {
	switch v {
	case VendorLiteLLM, VendorOpenAI, VendorClaude, VendorGemini, VendorCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (v Vendor) String() string {
	return string(v)
}

// Description returns a human-readable description of the vendor.
func (v Vendor) Description() string {
	switch v {
	case VendorLiteLLM:
		return "LiteLLM proxy (chat completions)"
	case VendorOpenAI:
		return "OpenAI-compatible (chat completions)"
	case VendorClaude:
		return "Anthropic Claude (messages)"
	case VendorGemini:
		return "Google Gemini (generateContent)"
	case VendorCustom:
		return "Custom endpoint"
	default:
		return unknownDescription
	}
}

// DefaultEndpoint returns the conventional base URL for the vendor.
func (v Vendor) DefaultEndpoint() string {
	switch v {
	case VendorOpenAI:
		return "https://api.openai.com/v1"
	case VendorClaude:
		return "https://api.anthropic.com/v1"
	case VendorGemini:
		return "https://generativelanguage.googleapis.com/v1beta"
	case VendorLiteLLM:
		return "http://localhost:4000"
	default:
		return ""
	}
}

// AllVendors returns every supported vendor.
func AllVendors() []Vendor {
	return []Vendor{VendorLiteLLM, VendorOpenAI, VendorClaude, VendorGemini, VendorCustom}
}

// DefaultModels returns the default model for each vendor.
func DefaultModels() map[Vendor]string {
	return map[Vendor]string{
		VendorLiteLLM: "gpt-4o",
		VendorOpenAI:  "gpt-4o",
		VendorClaude:  "claude-3-sonnet-20240229",
		VendorGemini:  "gemini-1.5-flash",
	}
}

// LLMSettings holds the LLM endpoint configuration.
// It is consumed read-only by the gateway.
type LLMSettings struct {
	// Vendor selects the wire protocol.
	Vendor Vendor

	// APIEndpoint is the base URL of the endpoint.
	APIEndpoint string

	// APIKey authenticates against the endpoint.
	APIKey string

	// Model is passed to the endpoint as given by the user.
	Model string

	Temperature float64
	MaxTokens   int

	// Timeout bounds one network call.
	Timeout time.Duration

	// RequestsPerMinute limits outgoing calls. Zero means unlimited.
	RequestsPerMinute int
}

// Validate checks the settings required to issue a call.
func (l LLMSettings) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return &ConfigError{Message: "API key not configured. Please configure it in settings."}
	}
	if strings.TrimSpace(l.APIEndpoint) == "" {
		return &ConfigError{Message: "API endpoint not configured. Please configure it in settings."}
	}
	return nil
}

// IsConfigured returns true if a call could be issued.
func (l LLMSettings) IsConfigured() bool {
	return l.Validate() == nil
}

// ChartSettings holds the chart library resource URLs.
type ChartSettings struct {
	VegaURL      string
	VegaLiteURL  string
	VegaEmbedURL string
}

// Scripts returns the chart dependencies in load order.
func (c ChartSettings) Scripts() []ChartScript {
	return []ChartScript{
		{Name: "vega", URL: c.VegaURL, Global: "vega"},
		{Name: "vega-lite", URL: c.VegaLiteURL, Global: "vl", Optional: true},
		{Name: "vega-embed", URL: c.VegaEmbedURL, Global: "vegaEmbed"},
	}
}

// SnapshotMode selects how pages are captured.
type SnapshotMode string

// Snapshot modes.
const (
	// SnapshotHTTP fetches static HTML; visibility comes from inline styles only.
	SnapshotHTTP SnapshotMode = "http"

	// SnapshotBrowser renders the page in headless Chrome with computed styles.
	SnapshotBrowser SnapshotMode = "browser"
)

// IsValid returns true if the snapshot mode is recognised.
func (m SnapshotMode) IsValid() bool {
	return m == SnapshotHTTP || m == SnapshotBrowser
}

// StorageBackend selects the ConversationStore implementation.
type StorageBackend string

// Storage backends.
const (
	StorageSQLite StorageBackend = "sqlite"
	StorageMemory StorageBackend = "memory"
	StorageRedis  StorageBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageMemory, StorageRedis:
		return true
	default:
		return false
	}
}

// ExtractSettings holds page capture configuration.
type ExtractSettings struct {
	Source SnapshotMode
}

// StorageSettings holds conversation persistence configuration.
type StorageSettings struct {
	Backend  StorageBackend
	RedisURL string
}

// ServerSettings holds the HTTP API configuration.
type ServerSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM     LLMSettings
	Chart   ChartSettings
	Extract ExtractSettings
	Storage StorageSettings
	Server  ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The API key is left empty; users must configure it.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Vendor:      VendorOpenAI,
			APIEndpoint: VendorOpenAI.DefaultEndpoint(),
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   2000,
			Timeout:     60 * time.Second,
		},
		Chart: ChartSettings{
			VegaURL:      "https://cdn.jsdelivr.net/npm/vega@5/build/vega.min.js",
			VegaLiteURL:  "https://cdn.jsdelivr.net/npm/vega-lite@5/build/vega-lite.min.js",
			VegaEmbedURL: "https://cdn.jsdelivr.net/npm/vega-embed@6/build/vega-embed.min.js",
		},
		Extract: ExtractSettings{Source: SnapshotHTTP},
		Storage: StorageSettings{Backend: StorageSQLite},
		Server:  ServerSettings{Addr: "127.0.0.1:8787"},
	}
}
