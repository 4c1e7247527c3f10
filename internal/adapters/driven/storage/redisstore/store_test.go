package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// setupTestStore connects to the server named by PAGECHAT_TEST_REDIS_URL.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("PAGECHAT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PAGECHAT_TEST_REDIS_URL not set")
	}
	store, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func uniqueKey(t *testing.T) string {
	t.Helper()
	return "chatHistory_test-" + uuid.NewString()
}

func TestKeyNames(t *testing.T) {
	assert.Equal(t, "pagechat:msgs:k", messagesKey("k"))
	assert.Equal(t, "pagechat:ver:k", versionKey("k"))
	assert.Equal(t, "pagechat:keys", indexKey())
}

func TestDecodeMessages(t *testing.T) {
	msgs, err := decodeMessages([]string{`{"role":"user","content":"hi","timestamp":1}`})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)

	_, err = decodeMessages([]string{"{broken"})
	assert.Error(t, err)
}

func TestStore_AppendLoadClear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	key := uniqueKey(t)
	t.Cleanup(func() { store.Clear(ctx, key) })

	h, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.Version)

	v, err := store.Append(ctx, key, 0, domain.ChatMessage{Role: domain.RoleUser, Content: "q"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = store.Append(ctx, key, 0, domain.ChatMessage{Content: "stale"})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	h, err = store.Load(ctx, key)
	require.NoError(t, err)
	require.Len(t, h.Messages, 1)
	assert.Equal(t, "q", h.Messages[0].Content)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, store.Clear(ctx, key))
	h, _ = store.Load(ctx, key)
	assert.Empty(t, h.Messages)
}
