package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// Suggestion call parameters.
const (
	SuggestionCount       = 3
	SuggestionTemperature = 0.8
	SuggestionMaxTokens   = 500
	SuggestionFiller      = "Ask a question about this page"

	suggestionHistory = 4
	suggestionClip    = 200
	errorBodyClip     = 200
)

// DefaultSuggestions is returned when the model output cannot be read.
var DefaultSuggestions = []string{
	"Explain the main content on this page",
	"What data or information is displayed here?",
	"Can you summarize this page?",
}

// LLMSettingsProvider supplies the settings in force for the next call.
type LLMSettingsProvider interface {
	LLMSettings() (domain.LLMSettings, error)
}

// StaticSettings serves fixed settings.
type StaticSettings domain.LLMSettings

// LLMSettings returns the wrapped settings.
func (s StaticSettings) LLMSettings() (domain.LLMSettings, error) {
	return domain.LLMSettings(s), nil
}

// LLMGateway issues normalized LLM calls.
// It resolves the vendor adapter, sends the request through the transport
// and repairs replies that break the JSON contract.
type LLMGateway struct {
	settings  LLMSettingsProvider
	vendors   driven.VendorRegistry
	transport driven.Transport
	prompts   driven.PromptStore

	mu         sync.Mutex
	limiter    *rate.Limiter
	limiterRPM int
}

// NewLLMGateway creates a gateway.
func NewLLMGateway(
	settings LLMSettingsProvider,
	vendors driven.VendorRegistry,
	transport driven.Transport,
	prompts driven.PromptStore,
) *LLMGateway {
	return &LLMGateway{
		settings:  settings,
		vendors:   vendors,
		transport: transport,
		prompts:   prompts,
	}
}

// SetPromptStore replaces the prompt store.
func (g *LLMGateway) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// Ensure LLMGateway accepts prompt stores.
var _ driven.PromptStoreAware = (*LLMGateway)(nil)

// CallLLM asks question about doc and returns the normalized result.
// Configuration, API and network failures are returned as errors.
// Replies that break the reply contract never are.
func (g *LLMGateway) CallLLM(ctx context.Context, question string, doc *domain.SemanticDocument) (*domain.NormalizedResult, error) {
	system, err := g.prompt(driven.PromptSystem)
	if err != nil {
		return nil, err
	}
	userTmpl, err := g.prompt(driven.PromptUser)
	if err != nil {
		return nil, err
	}
	pageContext, err := indentJSON(doc)
	if err != nil {
		return nil, err
	}
	user := strings.Replace(userTmpl, "{question}", question, 1)
	user = strings.Replace(user, "{context}", pageContext, 1)

	settings, err := g.loadSettings()
	if err != nil {
		return nil, err
	}

	text, err := g.complete(ctx, settings, domain.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}, true)
	if err != nil {
		return nil, err
	}

	return NormalizeReply(text), nil
}

// GenerateSuggestions returns exactly three follow-up questions for doc.
// Unreadable model output yields DefaultSuggestions.
func (g *LLMGateway) GenerateSuggestions(ctx context.Context, doc *domain.SemanticDocument, history []domain.ChatMessage) ([]string, error) {
	system, err := g.prompt(driven.PromptSuggestionsSystem)
	if err != nil {
		return nil, err
	}
	userTmpl, err := g.prompt(driven.PromptSuggestionsUser)
	if err != nil {
		return nil, err
	}
	pageContext, err := indentJSON(doc)
	if err != nil {
		return nil, err
	}

	conversation := ConversationContext(history)
	intro := ""
	if conversation != "" {
		intro = " and recent conversation"
	}
	user := strings.Replace(userTmpl, "{conversation_intro}", intro, 1)
	user = strings.Replace(user, "{context}", pageContext, 1)
	user = strings.Replace(user, "{conversation}", conversation, 1)

	settings, err := g.loadSettings()
	if err != nil {
		return nil, err
	}

	text, err := g.complete(ctx, settings, domain.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: SuggestionTemperature,
		MaxTokens:   SuggestionMaxTokens,
	}, false)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 0 {
			return nil, &domain.APIError{Message: "No response from LLM for suggestions"}
		}
		return nil, err
	}

	return ParseSuggestions(text), nil
}

// ConversationContext summarises the last four messages for the
// suggestions prompt. It returns "" for an empty history.
func ConversationContext(history []domain.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	h := domain.History{Messages: history}
	lines := make([]string, 0, suggestionHistory)
	for _, msg := range h.Recent(suggestionHistory) {
		role := "Assistant"
		if msg.Role == domain.RoleUser {
			role = "User"
		}
		var content string
		if msg.IsChart() {
			content = msg.Summary
			if content == "" {
				content = "Created a visualization/chart"
			}
		} else {
			content = domain.ClipText(msg.Content, suggestionClip)
		}
		lines = append(lines, role+": "+content)
	}
	return "\n\nRecent conversation:\n" + strings.Join(lines, "\n")
}

// ParseSuggestions reads a JSON array of questions, dropping one code fence.
// The result always has exactly three entries.
func ParseSuggestions(text string) []string {
	jsonStr := strings.TrimSpace(text)
	if strings.HasPrefix(jsonStr, "```") {
		lines := strings.Split(jsonStr, "\n")
		if len(lines) >= 2 {
			jsonStr = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		} else {
			jsonStr = ""
		}
	}

	var parsed []any
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil || parsed == nil {
		logger.Debug("Unreadable suggestions, using defaults: %s", domain.ClipText(text, 100))
		return append([]string(nil), DefaultSuggestions...)
	}

	out := make([]string, 0, SuggestionCount)
	for _, item := range parsed {
		if len(out) == SuggestionCount {
			break
		}
		s, ok := item.(string)
		if !ok {
			s = compactJSON(item)
		}
		out = append(out, s)
	}
	for len(out) < SuggestionCount {
		out = append(out, SuggestionFiller)
	}
	return out
}

// NormalizeReply coerces raw model text into a NormalizedResult.
func NormalizeReply(text string) *domain.NormalizedResult {
	candidate := stripFence(text)

	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		logger.Debug("Response is not JSON, treating as markdown: %s", domain.ClipText(text, 100))
		return &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: text}
	}

	if isEmptyJSON(parsed) {
		logger.Warn("Empty or invalid JSON response")
		return &domain.NormalizedResult{
			Type:    domain.ResultMarkdown,
			Content: "The AI returned an empty response. Raw content: " + text,
		}
	}

	obj, _ := parsed.(map[string]any)
	typ, _ := obj["type"].(string)
	if !domain.ResultType(typ).IsValid() {
		logger.Warn("Unexpected response type: %v", obj["type"])
		if content, ok := obj["content"]; ok && truthy(content) {
			return &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: stringify(content)}
		}
		return &domain.NormalizedResult{
			Type:    domain.ResultMarkdown,
			Content: "Unexpected response format:\n\n" + indentAny(parsed),
		}
	}

	result := &domain.NormalizedResult{Type: domain.ResultType(typ)}
	result.Summary, _ = obj["summary"].(string)

	switch result.Type {
	case domain.ResultVegaLite:
		spec, ok := obj["spec"].(map[string]any)
		if !ok || len(spec) == 0 {
			return &domain.NormalizedResult{
				Type:    domain.ResultMarkdown,
				Content: "**Error:** Vega-Lite response has no spec.",
			}
		}
		raw, err := json.Marshal(spec)
		if err != nil {
			return &domain.NormalizedResult{Type: domain.ResultMarkdown, Content: text}
		}
		result.Spec = raw
	default:
		content, ok := obj["content"]
		if !ok || !truthy(content) {
			return &domain.NormalizedResult{
				Type:    domain.ResultMarkdown,
				Content: "**Error:** Markdown response has no content.",
			}
		}
		result.Content = stringify(content)
	}
	return result
}

// complete resolves the adapter, sends the request and returns the reply text.
// withDetail appends the error body's detail field to API errors.
func (g *LLMGateway) complete(ctx context.Context, settings domain.LLMSettings, req domain.CompletionRequest, withDetail bool) (string, error) {
	if err := settings.Validate(); err != nil {
		return "", err
	}
	if err := g.wait(ctx, settings.RequestsPerMinute); err != nil {
		return "", &domain.NetworkError{Err: err}
	}

	adapter := g.vendors.Adapter(settings.Vendor)
	wire, err := adapter.BuildRequest(settings, req)
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", adapter.Vendor(), err)
	}

	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.transport.Do(ctx, wire)
	if err != nil {
		return "", err
	}
	log := logger.With(
		zap.String("vendor", string(adapter.Vendor())),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !resp.OK() {
		log.Warn("llm call failed")
		return "", &domain.APIError{
			StatusCode: resp.StatusCode,
			Message:    ErrorMessage(resp.StatusCode, resp.Body, withDetail),
		}
	}
	log.Debug("llm call completed")

	return adapter.ParseResponse(resp.Body)
}

// ErrorMessage extracts the best available message from a non-2xx body:
// error.message, then message, then "API error: {status}".
func ErrorMessage(status int, body []byte, withDetail bool) string {
	msg := fmt.Sprintf("API error: %d", status)

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		if text := string(body); strings.TrimSpace(text) != "" {
			msg += " - " + domain.ClipText(text, errorBodyClip)
		}
		return msg
	}

	if e, ok := data["error"].(map[string]any); ok && truthy(e["message"]) {
		msg = stringify(e["message"])
	} else if truthy(data["message"]) {
		msg = stringify(data["message"])
	}
	if withDetail && truthy(data["detail"]) {
		msg += " - " + stringify(data["detail"])
	}
	return msg
}

func (g *LLMGateway) loadSettings() (domain.LLMSettings, error) {
	if g.settings == nil {
		return domain.LLMSettings{}, &domain.ConfigError{Message: "API key not configured. Please configure it in settings."}
	}
	return g.settings.LLMSettings()
}

func (g *LLMGateway) prompt(name string) (string, error) {
	if g.prompts == nil {
		return "", fmt.Errorf("no prompt store configured")
	}
	text, err := g.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return text, nil
}

// wait blocks on the shared limiter. The limiter is rebuilt when the
// configured rate changes.
func (g *LLMGateway) wait(ctx context.Context, rpm int) error {
	if rpm <= 0 {
		return nil
	}
	g.mu.Lock()
	if g.limiter == nil || g.limiterRPM != rpm {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		g.limiterRPM = rpm
	}
	limiter := g.limiter
	g.mu.Unlock()
	return limiter.Wait(ctx)
}

// stripFence removes one markdown code fence surrounding the whole text.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}
	inner := strings.TrimSuffix(trimmed, "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return text
	}
	return strings.TrimSpace(inner[nl+1:])
}

func isEmptyJSON(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return !truthy(v)
	}
}

// truthy mirrors the loose truth test the reply contract was written against.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return compactJSON(v)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func indentAny(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func indentJSON(doc *domain.SemanticDocument) (string, error) {
	if doc == nil {
		doc = &domain.SemanticDocument{Content: []domain.ContentNode{}}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode page context: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
