package storage

import (
	"context"
	"fmt"

	"github.com/mohamedkhairy/chatts-server/internal/models"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

// CachedChatStore wraps a ChatStore with a cache-aside member-list cache.
// FindChatMembers is the hot path: every inbound event that arrives with only
// a chatId resolves its targets through it.
type CachedChatStore struct {
	ChatStore
	cache Cache
}

// NewCachedChatStore wraps the given chat store with the given cache
func NewCachedChatStore(chats ChatStore, cache Cache) *CachedChatStore {
	return &CachedChatStore{ChatStore: chats, cache: cache}
}

func memberCacheKey(chatID string) string {
	return fmt.Sprintf("chat:members:%s", chatID)
}

// FindChatMembers retrieves the member list of a chat, consulting the cache first
func (s *CachedChatStore) FindChatMembers(ctx context.Context, chatID string) ([]models.ChatMember, error) {
	key := memberCacheKey(chatID)

	var cached []models.ChatMember
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		// Cache trouble must not break target resolution
		logger.Warn("Member cache read failed",
			logger.String("chat_id", chatID),
			logger.ErrorField(err),
		)
	} else if hit {
		return cached, nil
	}

	members, err := s.ChatStore.FindChatMembers(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, members); err != nil {
		logger.Warn("Member cache write failed",
			logger.String("chat_id", chatID),
			logger.ErrorField(err),
		)
	}
	return members, nil
}

// CreateChat creates the chat and primes the member cache
func (s *CachedChatStore) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	created, err := s.ChatStore.CreateChat(ctx, chat)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, memberCacheKey(created.ID), created.Members); err != nil {
		logger.Warn("Member cache prime failed",
			logger.String("chat_id", created.ID),
			logger.ErrorField(err),
		)
	}
	return created, nil
}

// Invalidate drops the cached member list for a chat
func (s *CachedChatStore) Invalidate(ctx context.Context, chatID string) {
	if err := s.cache.Delete(ctx, memberCacheKey(chatID)); err != nil {
		logger.Warn("Member cache invalidation failed",
			logger.String("chat_id", chatID),
			logger.ErrorField(err),
		)
	}
}
