package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// chartWait bounds how long ask_page waits for a chart to render.
const chartWait = 40 * time.Second

// AskInput is the input schema for the ask_page tool.
type AskInput struct {
	URL      string `json:"url" jsonschema:"the absolute URL of the page to ask about"`
	Question string `json:"question" jsonschema:"the question to answer from the page content"`
}

// AskOutput is the output schema for the ask_page tool.
type AskOutput struct {
	Type        string   `json:"type"`
	Content     string   `json:"content,omitempty"`
	Spec        string   `json:"spec,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	ChartSVG    string   `json:"chart_svg,omitempty"`
	ChartError  string   `json:"chart_error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// PageInput identifies a page.
type PageInput struct {
	URL string `json:"url" jsonschema:"the absolute URL of the page"`
}

// SuggestOutput is the output schema for the suggest_questions tool.
type SuggestOutput struct {
	Suggestions []string `json:"suggestions"`
}

// ExtractOutput is the output schema for the extract_page tool.
type ExtractOutput struct {
	Title   string               `json:"title"`
	URL     string               `json:"url"`
	Content []domain.ContentNode `json:"content"`
	Count   int                  `json:"count"`
}

// MarkdownOutput is the output schema for the page_markdown tool.
type MarkdownOutput struct {
	Markdown string `json:"markdown"`
}

// HistoryOutput is the output schema for the page_history tool.
type HistoryOutput struct {
	Key      string           `json:"key"`
	Messages []HistoryMessage `json:"messages"`
	Count    int              `json:"count"`
}

// HistoryMessage is one stored message.
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content,omitempty"`
	Type      string `json:"type,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_page",
		Description: "Ask a question about a web page. Answers are markdown, or a Vega-Lite chart spec for visualisation requests",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_questions",
		Description: "Suggest three follow-up questions about a web page",
	}, s.handleSuggest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_page",
		Description: "Extract the visible content of a web page as structured nodes, including tables",
	}, s.handleExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "page_markdown",
		Description: "Convert a web page to markdown",
	}, s.handleMarkdown)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "page_history",
		Description: "Show the stored conversation for a web page",
	}, s.handleHistory)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	turn, err := s.ports.Chat.Ask(ctx, input.URL, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	if turn.Error != "" {
		return errorResult(turn.Error), AskOutput{}, nil
	}

	out := AskOutput{Suggestions: turn.Suggestions}
	if r := turn.Result; r != nil {
		out.Type = string(r.Type)
		out.Content = r.Content
		out.Spec = string(r.Spec)
		out.Summary = r.Summary
	}

	if turn.Chart != nil {
		if err := s.awaitChart(ctx, turn, &out); err != nil {
			return nil, AskOutput{}, err
		}
	}
	return nil, out, nil
}

// awaitChart waits for the render event and attaches the SVG.
func (s *Server) awaitChart(ctx context.Context, turn *domain.Turn, out *AskOutput) error {
	timer := time.NewTimer(chartWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		out.ChartError = "chart did not finish rendering"
	case ev := <-turn.Chart:
		if ev.Kind == domain.ChartError {
			out.ChartError = ev.Message
			return nil
		}
		svg, err := s.ports.Chat.ChartSVG(ctx, ev.ContainerID)
		if err != nil {
			out.ChartError = err.Error()
			return nil
		}
		out.ChartSVG = svg
	}
	return nil
}

func (s *Server) handleSuggest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestions, err := s.ports.Chat.Suggest(ctx, input.URL)
	if err != nil {
		return nil, SuggestOutput{}, err
	}
	return nil, SuggestOutput{Suggestions: suggestions}, nil
}

func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	doc, err := s.ports.Chat.Extract(ctx, input.URL)
	if err != nil {
		return nil, ExtractOutput{}, err
	}
	return nil, ExtractOutput{
		Title:   doc.Page.Title,
		URL:     doc.Page.URL,
		Content: doc.Content,
		Count:   len(doc.Content),
	}, nil
}

func (s *Server) handleMarkdown(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, MarkdownOutput, error) {
	md, err := s.ports.Chat.Digest(ctx, input.URL)
	if err != nil {
		return nil, MarkdownOutput{}, err
	}
	return nil, MarkdownOutput{Markdown: md}, nil
}

func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	h, err := s.ports.Chat.History(ctx, input.URL)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, historyOutput(h), nil
}

func historyOutput(h *domain.History) HistoryOutput {
	out := HistoryOutput{Key: h.Key, Messages: make([]HistoryMessage, len(h.Messages)), Count: len(h.Messages)}
	for i, m := range h.Messages {
		out.Messages[i] = HistoryMessage{
			Role:      string(m.Role),
			Content:   m.Content,
			Type:      string(m.Type),
			Summary:   m.Summary,
			Timestamp: m.Timestamp,
		}
	}
	return out
}

// errorResult reports a failure the caller can act on, such as a missing
// API key, as tool output rather than a protocol error.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Error: %s", message)}},
	}
}
