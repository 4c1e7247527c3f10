package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}

func TestNewConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.vendor": "gemini"}, map[string]any{"llm.max_tokens": 42})

	assert.Equal(t, "gemini", store.GetString("llm.vendor"))
	assert.Equal(t, 42, store.GetInt("llm.max_tokens"))
}

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", int64(7)))
	require.NoError(t, store.Set("f", 0.5))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("list", []any{"a", 1, "b"}))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 7, store.GetInt("i"))
	assert.Equal(t, 0, store.GetInt("f"))
	assert.InDelta(t, 0.5, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 7.0, store.GetFloat("i"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
}

func TestConfigStore_WrongTypesAndMissing(t *testing.T) {
	store := NewConfigStore(map[string]any{"n": 3})

	assert.Equal(t, "", store.GetString("n"))
	assert.False(t, store.GetBool("n"))
	assert.Nil(t, store.GetStringSlice("n"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("k", n)
			_ = store.GetInt("k")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("k")
	assert.True(t, ok)
}
