package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/chatts-server/internal/models"
)

func seedChat(t *testing.T, store *MockStore) *models.Chat {
	t.Helper()
	chat, err := store.CreateChat(context.Background(), &models.Chat{
		Name: "pair",
		Members: []models.ChatMember{
			{User: "alice"},
			{User: "bob"},
		},
	})
	require.NoError(t, err)
	return chat
}

func TestCachedChatStore_CacheAside(t *testing.T) {
	store := NewMockStore()
	cache := NewMockCache()
	cached := NewCachedChatStore(store, cache)
	chat := seedChat(t, store)

	// first read misses the cache and fills it
	members, err := cached.FindChatMembers(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, 0, cache.GetHits)

	// second read is served from the cache, even if the backing store fails
	store.FindChatErr = errors.New("db down")
	members, err = cached.FindChatMembers(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, 1, cache.GetHits)
}

func TestCachedChatStore_CacheFailureFallsThrough(t *testing.T) {
	store := NewMockStore()
	cache := NewMockCache()
	cache.GetErr = errors.New("redis down")
	cache.SetErr = errors.New("redis down")
	cached := NewCachedChatStore(store, cache)
	chat := seedChat(t, store)

	members, err := cached.FindChatMembers(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestCachedChatStore_CreateChatPrimesCache(t *testing.T) {
	store := NewMockStore()
	cache := NewMockCache()
	cached := NewCachedChatStore(store, cache)

	chat, err := cached.CreateChat(context.Background(), &models.Chat{
		Name:      "group",
		GroupChat: true,
		Members: []models.ChatMember{
			{User: "alice"},
			{User: "bob"},
			{User: "carol"},
		},
	})
	require.NoError(t, err)

	// the member list is served without touching the backing store
	store.FindChatErr = errors.New("db down")
	members, err := cached.FindChatMembers(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Equal(t, 1, cache.GetHits)
}

func TestCachedChatStore_Invalidate(t *testing.T) {
	store := NewMockStore()
	cache := NewMockCache()
	cached := NewCachedChatStore(store, cache)
	chat := seedChat(t, store)

	_, err := cached.FindChatMembers(context.Background(), chat.ID)
	require.NoError(t, err)

	cached.Invalidate(context.Background(), chat.ID)

	_, err = cached.FindChatMembers(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.GetHits)
}

func TestCachedChatStore_NotFound(t *testing.T) {
	cached := NewCachedChatStore(NewMockStore(), NewMockCache())

	_, err := cached.FindChatMembers(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
