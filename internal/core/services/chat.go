package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
	"github.com/msantosh308/ai-chrome-assistant/internal/extract"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
	"github.com/msantosh308/ai-chrome-assistant/internal/markdown"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// FollowUpSuggestions is the fallback once a conversation has started.
var FollowUpSuggestions = []string{
	"Tell me more about this",
	"Can you provide more details?",
	"What else can you help me with?",
}

// Gateway is the LLM surface the chat service depends on.
type Gateway interface {
	CallLLM(ctx context.Context, question string, doc *domain.SemanticDocument) (*domain.NormalizedResult, error)
	GenerateSuggestions(ctx context.Context, doc *domain.SemanticDocument, history []domain.ChatMessage) ([]string, error)
}

// ChatService answers questions about pages.
// One Ask runs strictly in order: record the question, extract the page,
// call the model, render, record the answer, refresh suggestions.
type ChatService struct {
	gateway       Gateway
	conversations *ConversationService
	snapshots     driven.SnapshotSource
	markdown      driven.MarkdownRenderer

	charts   *ChartRenderer
	digester driven.PageDigester

	now   func() time.Time
	newID func() string
}

// NewChatService creates a chat service.
func NewChatService(
	gateway Gateway,
	conversations *ConversationService,
	snapshots driven.SnapshotSource,
	renderer driven.MarkdownRenderer,
) *ChatService {
	return &ChatService{
		gateway:       gateway,
		conversations: conversations,
		snapshots:     snapshots,
		markdown:      renderer,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// SetChartRenderer enables chart rendering for vega-lite replies.
func (s *ChatService) SetChartRenderer(r *ChartRenderer) {
	s.charts = r
}

// SetDigester enables markdown digests of pages.
func (s *ChatService) SetDigester(d driven.PageDigester) {
	s.digester = d
}

// Ask snapshots pageURL and answers question about it.
func (s *ChatService) Ask(ctx context.Context, pageURL, question string) (*domain.Turn, error) {
	key, question, err := s.prepare(pageURL, question)
	if err != nil {
		return nil, err
	}
	return s.ask(ctx, key, question, func() (*domain.SemanticDocument, error) {
		return s.Extract(ctx, pageURL)
	})
}

// AskSnapshot answers question about a snapshot posted by the caller.
func (s *ChatService) AskSnapshot(ctx context.Context, snapshot *domain.PageSnapshot, question string) (*domain.Turn, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot is required", domain.ErrInvalidInput)
	}
	key, question, err := s.prepare(snapshot.Page.URL, question)
	if err != nil {
		return nil, err
	}
	return s.ask(ctx, key, question, func() (*domain.SemanticDocument, error) {
		return extract.Document(snapshot), nil
	})
}

func (s *ChatService) prepare(pageURL, question string) (string, string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", "", fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	key, err := domain.PageKey(pageURL)
	if err != nil {
		return "", "", err
	}
	return key, question, nil
}

func (s *ChatService) ask(
	ctx context.Context,
	key, question string,
	document func() (*domain.SemanticDocument, error),
) (*domain.Turn, error) {
	log := logger.With(zap.String("page", key))
	turn := &domain.Turn{PageKey: key, Question: question}

	if _, err := s.conversations.Append(ctx, key, s.message(domain.RoleUser, question)); err != nil {
		return nil, err
	}

	doc, err := document()
	if err == nil {
		log.Debug("page extracted", zap.Int("nodes", len(doc.Content)))
		turn.Result, err = s.gateway.CallLLM(ctx, question, doc)
	}

	var reply domain.ChatMessage
	if err != nil {
		if !domain.IsUserFacing(err) && !isFetchError(err) {
			return nil, err
		}
		log.Warn("question failed", zap.Error(err))
		turn.Error = err.Error()
		turn.HTML = markdown.Escape("Error: " + err.Error())
		reply = s.message(domain.RoleAssistant, "Error: "+err.Error())
	} else {
		reply = s.render(ctx, turn)
	}

	history, err := s.conversations.Append(ctx, key, reply)
	if err != nil {
		return nil, err
	}

	turn.Suggestions = s.suggest(ctx, doc, history)
	return turn, nil
}

// render fills the display fields of turn and returns the message to persist.
func (s *ChatService) render(ctx context.Context, turn *domain.Turn) domain.ChatMessage {
	result := turn.Result
	msg := s.message(domain.RoleAssistant, "")
	msg.Type = result.Type

	if !result.IsChart() {
		msg.Content = result.Content
		msg.IsHTML = true
		turn.HTML = s.markdown.Render(result.Content)
		return msg
	}

	msg.Spec = result.Spec
	msg.Summary = result.Summary
	msg.IsHTML = true

	turn.ChartID = msg.ChartContainerID()
	turn.HTML = s.chartHTML(result.Summary, turn.ChartID)

	if s.charts != nil {
		if err := s.charts.Mount(ctx, turn.ChartID, result.Spec); err != nil {
			logger.Warn("Failed to mount chart %s: %v", turn.ChartID, err)
			turn.Chart = failedChart(turn.ChartID, "Failed to create chart container: "+err.Error())
		} else {
			turn.Chart = s.charts.Render(context.WithoutCancel(ctx), turn.ChartID, result.Spec)
		}
	}
	return msg
}

func (s *ChatService) chartHTML(summary, containerID string) string {
	var b strings.Builder
	if summary != "" {
		b.WriteString(`<div class="chart-summary">`)
		b.WriteString(s.markdown.Render(summary))
		b.WriteString(`</div>`)
	}
	b.WriteString(`<div class="vega-lite-container" id="`)
	b.WriteString(markdown.Escape(containerID))
	b.WriteString(`"></div>`)
	return b.String()
}

// suggest refreshes the suggestions, falling back on any failure.
func (s *ChatService) suggest(ctx context.Context, doc *domain.SemanticDocument, history *domain.History) []string {
	var messages []domain.ChatMessage
	if history != nil {
		messages = history.Messages
	}
	if doc == nil {
		return fallbackSuggestions(messages)
	}
	suggestions, err := s.gateway.GenerateSuggestions(ctx, doc, messages)
	if err != nil || len(suggestions) == 0 {
		if err != nil {
			logger.Debug("Suggestions failed: %v", err)
		}
		return fallbackSuggestions(messages)
	}
	return append([]string(nil), suggestions...)
}

// Suggest returns follow-up questions for pageURL.
func (s *ChatService) Suggest(ctx context.Context, pageURL string) ([]string, error) {
	history, err := s.conversations.History(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := s.Extract(ctx, pageURL)
	if err != nil {
		logger.Debug("Extraction for suggestions failed: %v", err)
		return fallbackSuggestions(history.Messages), nil
	}
	return s.suggest(ctx, doc, history), nil
}

// SuggestSnapshot returns follow-up questions for a posted snapshot.
func (s *ChatService) SuggestSnapshot(ctx context.Context, snapshot *domain.PageSnapshot) ([]string, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot is required", domain.ErrInvalidInput)
	}
	history, err := s.conversations.History(ctx, snapshot.Page.URL)
	if err != nil {
		return nil, err
	}
	return s.suggest(ctx, extract.Document(snapshot), history), nil
}

func fallbackSuggestions(history []domain.ChatMessage) []string {
	if len(history) > 0 {
		return append([]string(nil), FollowUpSuggestions...)
	}
	return append([]string(nil), DefaultSuggestions...)
}

// History returns the stored conversation of pageURL.
func (s *ChatService) History(ctx context.Context, pageURL string) (*domain.History, error) {
	return s.conversations.History(ctx, pageURL)
}

// ClearHistory removes the stored conversation of pageURL.
func (s *ChatService) ClearHistory(ctx context.Context, pageURL string) error {
	return s.conversations.Clear(ctx, pageURL)
}

// Pages lists every stored conversation key.
func (s *ChatService) Pages(ctx context.Context) ([]string, error) {
	return s.conversations.Pages(ctx)
}

// Extract snapshots pageURL and returns its semantic document.
func (s *ChatService) Extract(ctx context.Context, pageURL string) (*domain.SemanticDocument, error) {
	if s.snapshots == nil {
		return nil, &fetchError{err: errors.New("no snapshot source configured")}
	}
	snapshot, err := s.snapshots.Snapshot(ctx, pageURL)
	if err != nil {
		return nil, &fetchError{err: err}
	}
	return extract.Document(snapshot), nil
}

// Digest returns a markdown rendition of pageURL.
func (s *ChatService) Digest(ctx context.Context, pageURL string) (string, error) {
	if s.digester == nil {
		return "", fmt.Errorf("markdown digests are not available")
	}
	return s.digester.Digest(ctx, pageURL)
}

// RenderMessage restores the display HTML of a persisted message.
func (s *ChatService) RenderMessage(msg domain.ChatMessage) string {
	if msg.IsChart() && len(msg.Spec) > 0 {
		return s.chartHTML(msg.Summary, msg.ChartContainerID())
	}
	if msg.IsHTML {
		return s.markdown.Render(msg.Content)
	}
	return markdown.Escape(msg.Content)
}

// ChartSVG returns the SVG of a rendered chart.
func (s *ChatService) ChartSVG(ctx context.Context, containerID string) (string, error) {
	if s.charts == nil {
		return "", fmt.Errorf("chart rendering is not enabled: %w", domain.ErrNotFound)
	}
	return s.charts.SVG(ctx, containerID)
}

func (s *ChatService) message(role domain.Role, content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        s.newID(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UnixMilli(),
	}
}

// fetchError marks a page that could not be captured. It is shown to the
// user like a transport failure.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return "could not load page: " + e.err.Error() }

func (e *fetchError) Unwrap() error { return e.err }

func isFetchError(err error) bool {
	var fe *fetchError
	return errors.As(err, &fe)
}

func failedChart(id, message string) <-chan domain.ChartEvent {
	ch := make(chan domain.ChartEvent, 1)
	ch <- domain.ChartEvent{ContainerID: id, Kind: domain.ChartError, Message: message}
	close(ch)
	return ch
}
