package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are a web data assistant.
You receive:
- user intent
- structured page data (tables)

Decide:
- explanation
- visualization
- transformation

For visualizations:
- always return Vega-Lite JSON
- always include a summary/description of the chart
- never return prose only

IMPORTANT: You MUST respond with valid JSON only. Use one of these formats:
- For explanations: {"type": "markdown", "content": "your explanation here"}
- For visualizations: {"type": "vega-lite", "spec": {your vega-lite specification}, "summary": "brief description of what the chart shows and key insights"}

The summary should explain what the chart visualizes, highlight key trends or patterns, and provide context for the data shown.

Never return an empty object {}. Always include type and content/spec fields.`,

	driven.PromptUser: `User question: {question}

Page context:
{context}`,

	driven.PromptSuggestionsSystem: `You are a helpful assistant that generates contextual question suggestions based on web page content and conversation history. Analyze the page context and recent conversation to generate exactly 3 relevant, concise follow-up questions that users might want to ask. These should build on the conversation or explore related aspects. Return ONLY a JSON array of exactly 3 strings, no other text. Example format: ["Question 1?", "Question 2?", "Question 3?"]`,

	driven.PromptSuggestionsUser: `Based on the following page content{conversation_intro}, generate exactly 3 relevant, concise follow-up questions that would help users continue exploring or understand more about this page:

Page context:
{context}{conversation}

Return only a JSON array of exactly 3 question strings.`,
}

// DefaultPrompt returns the embedded default for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.pagechat/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist or is empty.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock held during I/O
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = fmt.Errorf("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch clears the cache whenever a file in the prompt directory changes,
// so edits take effect without a restart. It blocks until ctx is done.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch prompt directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".txt") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("Prompt changed: %s", filepath.Base(event.Name))
				s.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Only create files that don't exist; user edits are never overwritten
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# pagechat prompts

This directory contains the prompts pagechat sends to your LLM endpoint.

## Files

- ` + "`system.txt`" + ` - Instructs the model to answer with markdown or Vega-Lite JSON
- ` + "`user.txt`" + ` - Wraps the question and the extracted page data
- ` + "`suggestions_system.txt`" + ` - Asks for three follow-up questions
- ` + "`suggestions_user.txt`" + ` - Carries page data and recent conversation for suggestions

## Customisation

Edit any file to customise the assistant. Running servers pick up changes
immediately. Delete a file to restore its default.

## Placeholders

Each placeholder is replaced once:
- ` + "`{question}`" + ` - the user's question (user.txt)
- ` + "`{context}`" + ` - the page data as indented JSON
- ` + "`{conversation_intro}`" + `, ` + "`{conversation}`" + ` - recent conversation (suggestions_user.txt)

The reply contract in system.txt must be kept: the model has to answer with
{"type": "markdown", ...} or {"type": "vega-lite", ...} JSON.
`
	return os.WriteFile(path, []byte(content), 0600)
}
