package domain

import "encoding/json"

// Role identifies the author of a chat message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResultType is the discriminator of a NormalizedResult.
type ResultType string

// Result types accepted from the model.
const (
	ResultMarkdown ResultType = "markdown"
	ResultVegaLite ResultType = "vega-lite"
)

// IsValid returns true for the two literals of the reply contract.
func (t ResultType) IsValid() bool {
	return t == ResultMarkdown || t == ResultVegaLite
}

// NormalizedResult is the single contract every vendor reply is coerced into.
// Exactly one of Content and Spec is populated.
type NormalizedResult struct {
	Type    ResultType      `json:"type"`
	Content string          `json:"content,omitempty"`
	Spec    json.RawMessage `json:"spec,omitempty"`
	Summary string          `json:"summary,omitempty"`
}

// IsChart returns true for vega-lite results.
func (r *NormalizedResult) IsChart() bool {
	return r != nil && r.Type == ResultVegaLite
}

// ChatMessage is one entry of a page conversation.
// Messages are immutable once appended; identity within a history is positional.
type ChatMessage struct {
	ID        string          `json:"id,omitempty"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Timestamp int64           `json:"timestamp"`
	Type      ResultType      `json:"type,omitempty"`
	Spec      json.RawMessage `json:"spec,omitempty"`
	Summary   string          `json:"summary,omitempty"`

	// IsHTML marks rich content that is rendered as markdown on display.
	// Plain notes (user input, error lines) are shown verbatim.
	IsHTML bool `json:"isHTML,omitempty"`
}

// IsChart returns true for assistant chart messages.
func (m ChatMessage) IsChart() bool {
	return m.Type == ResultVegaLite
}

// ChartContainerID returns the id of the container a chart message renders into.
func (m ChatMessage) ChartContainerID() string {
	return ChartContainerPrefix + m.ID
}

// History is the ordered conversation of one page.
// Version increases by one on every successful append and guards
// concurrent writers.
type History struct {
	Key      string        `json:"key"`
	Messages []ChatMessage `json:"messages"`
	Version  int64         `json:"version"`
}

// Recent returns at most the last n messages.
func (h *History) Recent(n int) []ChatMessage {
	if h == nil || n <= 0 {
		return nil
	}
	if len(h.Messages) <= n {
		return h.Messages
	}
	return h.Messages[len(h.Messages)-n:]
}

// Turn is the outcome of one question on one page.
type Turn struct {
	PageKey  string            `json:"pageKey"`
	Question string            `json:"question"`
	Result   *NormalizedResult `json:"result,omitempty"`

	// HTML is the rendered reply: markdown output, or the chart summary.
	HTML string `json:"html,omitempty"`

	// ChartID names the container mounted for a vega-lite reply.
	ChartID string `json:"chartId,omitempty"`

	// Chart delivers the single terminal render event when a chart surface is
	// configured. Nil otherwise.
	Chart <-chan ChartEvent `json:"-"`

	// Error carries a configuration or transport failure shown inline.
	Error string `json:"error,omitempty"`

	Suggestions []string `json:"suggestions,omitempty"`
}
