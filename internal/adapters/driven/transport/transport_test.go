package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

func TestHTTP_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"error":{"message":"short and stout"}}`))
	}))
	defer server.Close()

	resp, err := New(nil).Do(context.Background(), &domain.WireRequest{
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer k"},
		Body:    []byte(`{"a":1}`),
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Contains(t, string(resp.Body), "short and stout")
}

func TestHTTP_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(nil).Do(context.Background(), &domain.WireRequest{
		URL:     server.URL + "/models/x:generateContent?key=secret",
		Timeout: 50 * time.Millisecond,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotContains(t, err.Error(), "secret")
}

func TestHTTP_Do_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(nil).Do(context.Background(), &domain.WireRequest{URL: url})

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
}
