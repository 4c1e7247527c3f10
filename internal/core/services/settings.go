package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMVendor      = "llm.vendor"
	keyLLMEndpoint    = "llm.api_endpoint"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMModel       = "llm.model"
	keyLLMTemperature = "llm.temperature"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyLLMTimeout     = "llm.timeout_seconds"
	keyLLMRateLimit   = "llm.requests_per_minute"
	keyVegaURL        = "chart.vega_url"
	keyVegaLiteURL    = "chart.vega_lite_url"
	keyVegaEmbedURL   = "chart.vega_embed_url"
	keyExtractSource  = "extract.source"
	keyStorageBackend = "storage.backend"
	keyStorageRedis   = "storage.redis_url"
	keyServerAddr     = "server.addr"
)

// Environment variables that override the stored LLM settings.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvAPIKey      = "PAGECHAT_API_KEY"
	EnvAPIEndpoint = "PAGECHAT_API_ENDPOINT"
	EnvVendor      = "PAGECHAT_VENDOR"
	EnvModel       = "PAGECHAT_MODEL"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings. Environment variables
// take precedence over the config file for the LLM connection.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Vendor:            s.getVendor(defaults.LLM.Vendor),
			APIEndpoint:       s.getString(keyLLMEndpoint, defaults.LLM.APIEndpoint),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			Temperature:       s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:         s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Timeout:           s.getSeconds(keyLLMTimeout, defaults.LLM.Timeout),
			RequestsPerMinute: s.configStore.GetInt(keyLLMRateLimit),
		},
		Chart: domain.ChartSettings{
			VegaURL:      s.getString(keyVegaURL, defaults.Chart.VegaURL),
			VegaLiteURL:  s.getString(keyVegaLiteURL, defaults.Chart.VegaLiteURL),
			VegaEmbedURL: s.getString(keyVegaEmbedURL, defaults.Chart.VegaEmbedURL),
		},
		Extract: domain.ExtractSettings{
			Source: s.getSnapshotMode(defaults.Extract.Source),
		},
		Storage: domain.StorageSettings{
			Backend:  s.getStorageBackend(defaults.Storage.Backend),
			RedisURL: s.configStore.GetString(keyStorageRedis),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	s.applyEnv(&settings.LLM)
	return settings, nil
}

func (s *SettingsService) applyEnv(llm *domain.LLMSettings) {
	if v, ok := s.env(EnvVendor); ok {
		llm.Vendor = domain.Vendor(v)
	}
	if v, ok := s.env(EnvAPIEndpoint); ok {
		llm.APIEndpoint = v
	}
	if v, ok := s.env(EnvAPIKey); ok {
		llm.APIKey = v
	}
	if v, ok := s.env(EnvModel); ok {
		llm.Model = v
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	if s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMVendor, settings.LLM.Vendor.String()},
		{keyLLMEndpoint, settings.LLM.APIEndpoint},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyLLMRateLimit, settings.LLM.RequestsPerMinute},
		{keyVegaURL, settings.Chart.VegaURL},
		{keyVegaLiteURL, settings.Chart.VegaLiteURL},
		{keyVegaEmbedURL, settings.Chart.VegaEmbedURL},
		{keyExtractSource, string(settings.Extract.Source)},
		{keyStorageBackend, string(settings.Storage.Backend)},
		{keyStorageRedis, settings.Storage.RedisURL},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// An empty key never overwrites a stored one.
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}
	return nil
}

// SetVendor selects the LLM wire protocol.
func (s *SettingsService) SetVendor(vendor domain.Vendor, endpoint string) error {
	if !vendor.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedVendor, vendor)
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = vendor.DefaultEndpoint()
	}
	if endpoint == "" {
		return fmt.Errorf("%w: vendor %s requires an endpoint", domain.ErrInvalidInput, vendor)
	}

	if err := s.configStore.Set(keyLLMVendor, vendor.String()); err != nil {
		return fmt.Errorf("save %s: %w", keyLLMVendor, err)
	}
	if err := s.configStore.Set(keyLLMEndpoint, endpoint); err != nil {
		return fmt.Errorf("save %s: %w", keyLLMEndpoint, err)
	}

	// An unset model takes the vendor default.
	if model, ok := domain.DefaultModels()[vendor]; ok && s.configStore.GetString(keyLLMModel) == "" {
		return s.SetModel(model)
	}
	return nil
}

// SetAPIKey stores the LLM API key.
func (s *SettingsService) SetAPIKey(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: API key cannot be empty", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyLLMAPIKey, apiKey)
}

// SetModel stores the model name.
func (s *SettingsService) SetModel(model string) error {
	return s.configStore.Set(keyLLMModel, strings.TrimSpace(model))
}

// SetSnapshotMode selects how pages are captured.
func (s *SettingsService) SetSnapshotMode(mode domain.SnapshotMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: snapshot mode %q", domain.ErrInvalidInput, mode)
	}
	return s.configStore.Set(keyExtractSource, string(mode))
}

// SetStorageBackend selects the conversation store.
func (s *SettingsService) SetStorageBackend(backend domain.StorageBackend, redisURL string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, backend)
	}
	if backend == domain.StorageRedis && strings.TrimSpace(redisURL) == "" {
		return fmt.Errorf("%w: redis backend requires a URL", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyStorageBackend, string(backend)); err != nil {
		return fmt.Errorf("save %s: %w", keyStorageBackend, err)
	}
	if redisURL != "" {
		if err := s.configStore.Set(keyStorageRedis, strings.TrimSpace(redisURL)); err != nil {
			return fmt.Errorf("save %s: %w", keyStorageRedis, err)
		}
	}
	return nil
}

// Validate checks the LLM settings required to issue a call.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.LLM.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// LLMSettings returns the current LLM settings. It satisfies the
// gateway's settings provider so that edits take effect on the next call.
func (s *SettingsService) LLMSettings() (domain.LLMSettings, error) {
	settings, err := s.Get()
	if err != nil {
		return domain.LLMSettings{}, err
	}
	return settings.LLM, nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.configStore.GetInt(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func (s *SettingsService) getVendor(defaultVal domain.Vendor) domain.Vendor {
	val := s.configStore.GetString(keyLLMVendor)
	if val == "" {
		return defaultVal
	}
	// Unknown ids are kept; the vendor registry decides the fallback.
	return domain.Vendor(val)
}

func (s *SettingsService) getSnapshotMode(defaultVal domain.SnapshotMode) domain.SnapshotMode {
	mode := domain.SnapshotMode(s.configStore.GetString(keyExtractSource))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getStorageBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
