package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

const testKey = "chatHistory_https://example.com/report"

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// ==================== Store Creation ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	_, err = store.Append(ctx, testKey, 0, domain.ChatMessage{Role: domain.RoleUser, Content: "persist me"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	h, err := reopened.Load(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, h.Messages, 1)
	assert.Equal(t, "persist me", h.Messages[0].Content)
	assert.Equal(t, int64(1), h.Version)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

// ==================== Conversations ====================

func TestStore_LoadMissing(t *testing.T) {
	store := setupTestStore(t)

	h, err := store.Load(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, testKey, h.Key)
	assert.Empty(t, h.Messages)
	assert.Equal(t, int64(0), h.Version)
}

func TestStore_AppendRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	spec := json.RawMessage(`{"mark":"bar"}`)

	v, err := store.Append(ctx, testKey, 0,
		domain.ChatMessage{ID: "u1", Role: domain.RoleUser, Content: "chart it", Timestamp: 1700000000000},
		domain.ChatMessage{ID: "a1", Role: domain.RoleAssistant, Type: domain.ResultVegaLite, Spec: spec, Summary: "Bar chart", IsHTML: true},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = store.Append(ctx, testKey, 1, domain.ChatMessage{Role: domain.RoleUser, Content: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	h, err := store.Load(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, h.Messages, 3)
	assert.Equal(t, "u1", h.Messages[0].ID)
	assert.Equal(t, int64(1700000000000), h.Messages[0].Timestamp)
	assert.Nil(t, h.Messages[0].Spec)
	assert.True(t, h.Messages[1].IsChart())
	assert.JSONEq(t, `{"mark":"bar"}`, string(h.Messages[1].Spec))
	assert.Equal(t, "Bar chart", h.Messages[1].Summary)
	assert.True(t, h.Messages[1].IsHTML)
	assert.Equal(t, "thanks", h.Messages[2].Content)
	assert.Equal(t, int64(2), h.Version)
}

func TestStore_AppendVersionConflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, testKey, 0, domain.ChatMessage{Content: "first"})
	require.NoError(t, err)

	current, err := store.Append(ctx, testKey, 0, domain.ChatMessage{Content: "stale"})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, int64(1), current)

	_, err = store.Append(ctx, testKey, 5, domain.ChatMessage{Content: "future"})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	h, _ := store.Load(ctx, testKey)
	assert.Len(t, h.Messages, 1)
}

func TestStore_ClearRemovesMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, testKey, 0, domain.ChatMessage{Content: "x"}, domain.ChatMessage{Content: "y"})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, testKey))
	require.NoError(t, store.Clear(ctx, "chatHistory_missing"))

	h, err := store.Load(ctx, testKey)
	require.NoError(t, err)
	assert.Empty(t, h.Messages)
	assert.Equal(t, int64(0), h.Version)

	var orphans int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&orphans))
	assert.Zero(t, orphans)

	_, err = store.Append(ctx, testKey, 0, domain.ChatMessage{Content: "fresh"})
	assert.NoError(t, err)
}

func TestStore_Keys(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, _ = store.Append(ctx, "chatHistory_a", 0, domain.ChatMessage{Content: "a"})
	_, _ = store.Append(ctx, "chatHistory_b", 0, domain.ChatMessage{Content: "b"})

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"chatHistory_a", "chatHistory_b"}, keys)
}
