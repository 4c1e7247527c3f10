package driven

// ConfigStore holds settings under dotted keys such as "llm.api_key".
// Typed getters return the zero value when a key is missing or holds
// another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integer values.
	GetFloat(key string) float64

	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores the value and persists it before returning.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the configuration lives, for display.
	Path() string
}
