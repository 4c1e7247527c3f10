package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	URL      string               `json:"url"`
	Question string               `json:"question"`
	Snapshot *domain.PageSnapshot `json:"snapshot,omitempty"`
}

// AskResponse is the reply of POST /api/ask.
type AskResponse struct {
	Success     bool                     `json:"success"`
	Data        *domain.NormalizedResult `json:"data,omitempty"`
	Error       string                   `json:"error,omitempty"`
	HTML        string                   `json:"html,omitempty"`
	ChartID     string                   `json:"chartId,omitempty"`
	Suggestions []string                 `json:"suggestions,omitempty"`
}

// SuggestionsRequest is the body of POST /api/suggestions.
type SuggestionsRequest struct {
	URL      string               `json:"url"`
	Snapshot *domain.PageSnapshot `json:"snapshot,omitempty"`
}

// SuggestionsResponse is the reply of POST /api/suggestions.
type SuggestionsResponse struct {
	Success     bool     `json:"success"`
	Suggestions []string `json:"suggestions,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// HistoryResponse is the reply of GET /api/history.
type HistoryResponse struct {
	Success  bool             `json:"success"`
	Key      string           `json:"key,omitempty"`
	Messages []HistoryMessage `json:"messages"`
	Error    string           `json:"error,omitempty"`
}

// HistoryMessage is a stored message with its display HTML restored.
type HistoryMessage struct {
	domain.ChatMessage
	HTML string `json:"html"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// chartState tracks one render for GET /api/charts/{id}.
type chartState struct {
	done  bool
	svg   string
	error string
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWidget(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(widgetJS)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		turn *domain.Turn
		err  error
	)
	if req.Snapshot != nil {
		if req.Snapshot.Page.URL == "" {
			req.Snapshot.Page.URL = req.URL
		}
		turn, err = s.chat.AskSnapshot(r.Context(), req.Snapshot, req.Question)
	} else {
		turn, err = s.chat.Ask(r.Context(), req.URL, req.Question)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp := AskResponse{
		Success:     turn.Error == "",
		Data:        turn.Result,
		Error:       turn.Error,
		HTML:        turn.HTML,
		ChartID:     turn.ChartID,
		Suggestions: turn.Suggestions,
	}
	if turn.Chart != nil {
		s.track(turn.ChartID, turn.Chart)
	}
	writeJSON(w, http.StatusOK, resp)
}

// track records the outcome of a render so it can be fetched later.
func (s *Server) track(id string, events <-chan domain.ChartEvent) {
	s.charts.Set(id, &chartState{}, cache.DefaultExpiration)

	go func() {
		timer := time.NewTimer(ChartWait)
		defer timer.Stop()

		state := &chartState{done: true}
		select {
		case ev := <-events:
			if ev.Kind == domain.ChartError {
				state.error = ev.Message
				break
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			svg, err := s.chat.ChartSVG(ctx, ev.ContainerID)
			cancel()
			if err != nil {
				state.error = err.Error()
				break
			}
			state.svg = svg
		case <-timer.C:
			state.error = "Chart rendering timed out"
		}
		s.charts.Set(id, state, cache.DefaultExpiration)
		logger.Debug("Chart %s finished (error=%q)", id, state.error)
	}()
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok := s.charts.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown chart"})
		return
	}
	state := v.(*chartState)
	switch {
	case !state.done:
		writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "status": "pending"})
	case state.error != "":
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: state.error})
	default:
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(state.svg))
	}
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req SuggestionsRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		suggestions []string
		err         error
	)
	if req.Snapshot != nil {
		if req.Snapshot.Page.URL == "" {
			req.Snapshot.Page.URL = req.URL
		}
		suggestions, err = s.chat.SuggestSnapshot(r.Context(), req.Snapshot)
	} else {
		suggestions, err = s.chat.Suggest(r.Context(), req.URL)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Success: true, Suggestions: suggestions})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.chat.History(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := HistoryResponse{Success: true, Key: h.Key, Messages: make([]HistoryMessage, len(h.Messages))}
	for i, m := range h.Messages {
		resp.Messages[i] = HistoryMessage{ChatMessage: m, HTML: s.chat.RenderMessage(m)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.ClearHistory(r.Context(), r.URL.Query().Get("url")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.chat.Pages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if pages == nil {
		pages = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "pages": pages})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

// writeError maps service errors to statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	default:
		logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response: %v", err)
	}
}
