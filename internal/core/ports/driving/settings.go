package driving

import "github.com/msantosh308/ai-chrome-assistant/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetVendor selects the wire protocol. When endpoint is empty the
	// vendor's conventional endpoint is used.
	SetVendor(vendor domain.Vendor, endpoint string) error

	// SetAPIKey stores the LLM API key.
	SetAPIKey(apiKey string) error

	// SetModel stores the model name, passed to the endpoint as given.
	SetModel(model string) error

	// SetSnapshotMode selects how pages are captured.
	SetSnapshotMode(mode domain.SnapshotMode) error

	// SetStorageBackend selects the conversation store.
	SetStorageBackend(backend domain.StorageBackend, redisURL string) error

	// Validate checks the LLM settings required to issue a call.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
