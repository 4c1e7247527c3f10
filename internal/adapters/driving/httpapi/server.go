// Package httpapi exposes the chat service over HTTP for the embeddable
// widget and other clients.
package httpapi

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driving"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// Limits and lifetimes.
const (
	// MaxBodyBytes bounds a request body; posted snapshots can be large.
	MaxBodyBytes = 8 << 20

	// ChartTTL is how long rendered charts stay retrievable.
	ChartTTL = 10 * time.Minute

	// ChartWait bounds how long a render is tracked before it is
	// recorded as failed.
	ChartWait = 45 * time.Second
)

//go:embed widget.js
var widgetJS []byte

// Server serves the JSON API and the widget script.
type Server struct {
	chat   driving.ChatService
	charts *cache.Cache
	router chi.Router
}

// NewServer creates a server over chat.
func NewServer(chat driving.ChatService) *Server {
	s := &Server{
		chat:   chat,
		charts: cache.New(ChartTTL, 2*ChartTTL),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Get("/widget.js", s.handleWidget)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Post("/suggestions", s.handleSuggestions)
		r.Get("/history", s.handleHistory)
		r.Delete("/history", s.handleClearHistory)
		r.Get("/pages", s.handlePages)
		r.Get("/charts/{id}", s.handleChart)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.With(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		).Debug("http request")
	})
}

// cors allows the widget to call the API from any page.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
