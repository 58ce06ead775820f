package memory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndGetRecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", "user", "첫 질문"))
	require.NoError(t, store.Append(ctx, "u1", "assistant", "첫 답변"))
	require.NoError(t, store.Append(ctx, "u1", "user", "두번째 질문"))

	entries, err := store.GetRecent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "두번째 질문", entries[0].Content)
	assert.Equal(t, "첫 답변", entries[1].Content)
	assert.Equal(t, "첫 질문", entries[2].Content)
	assert.Equal(t, "user", entries[0].Role)
	assert.NotZero(t, entries[0].Timestamp)
}

func TestGetRecentRespectsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, store.Append(ctx, "u2", "user", "메시지"))
	}

	entries, err := store.GetRecent(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestGetRecentDefaultsWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, store.Append(ctx, "u3", "user", "메시지"))
	}

	entries, err := store.GetRecent(ctx, "u3", 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultHistoryWindow)
}

func TestGetRecentIsolatedPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", "user", "a의 질문"))

	entries, err := store.GetRecent(ctx, "b", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
