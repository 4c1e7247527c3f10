package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps pagechat settings in ~/.pagechat/config.toml.
//
// Keys are dotted ("llm.api_key"). On disk they are written as TOML tables
// ([llm] api_key = ...), and tables are flattened back into dotted keys on
// load, so hand-edited files and keys written by Set read the same way.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	data map[string]any
}

// NewConfigStore opens the config file in configDir, creating the directory
// if needed. An empty configDir means DefaultDir.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	s := &ConfigStore{
		path: filepath.Join(configDir, "config.toml"),
		data: map[string]any{},
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultDir returns ~/.pagechat, the root of all pagechat state.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".pagechat"), nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Get returns the raw value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// GetFloat accepts whole numbers too; TOML decodes "temperature = 1" as int64.
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	v, _ := s.Get(key)
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set stores value under key and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.write()
}

// Save writes the current values to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// Load replaces the in-memory values with the file contents. A missing file
// leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.data = map[string]any{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	tree := map[string]any{}
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	data := map[string]any{}
	flatten(tree, "", data)
	s.data = data
	return nil
}

// write saves through a temp file so a crash never leaves a truncated
// config behind. Callers hold mu.
func (s *ConfigStore) write() error {
	raw, err := toml.Marshal(nest(s.data))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func flatten(tree map[string]any, prefix string, out map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(sub, k, out)
			continue
		}
		out[k] = v
	}
}

// nest turns dotted keys back into tables. Keys are visited in order, so
// when a leaf and a table share a name ("a" and "a.b") the leaf wins.
func nest(data map[string]any) map[string]any {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := map[string]any{}
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, p := range parts[:len(parts)-1] {
			next, exists := node[p]
			if !exists {
				child := map[string]any{}
				node[p] = child
				node = child
				continue
			}
			child, isTable := next.(map[string]any)
			if !isTable {
				ok = false
				break
			}
			node = child
		}
		if ok {
			leaf := parts[len(parts)-1]
			if _, isTable := node[leaf].(map[string]any); !isTable {
				node[leaf] = data[key]
			}
		}
	}
	return root
}
