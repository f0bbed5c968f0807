package storage

import (
	"context"

	"github.com/mohamedkhairy/chatts-server/internal/models"
)

// UserStore defines the interface for user account operations
type UserStore interface {
	// CreateUser inserts a new user and returns it with its assigned ID
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	// FindUserByID retrieves a user by ID
	FindUserByID(ctx context.Context, id string) (*models.User, error)

	// FindUserByUsername retrieves a user by username
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// ChatStore defines the interface for chat thread operations
type ChatStore interface {
	// CreateChat inserts a new chat and returns it with its assigned ID
	CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error)

	// FindChatByID retrieves a chat by ID
	FindChatByID(ctx context.Context, id string) (*models.Chat, error)

	// FindChatsByMember retrieves all chats the given user is a member of
	FindChatsByMember(ctx context.Context, userID string) ([]*models.Chat, error)

	// FindChatMembers retrieves the member list of a chat
	FindChatMembers(ctx context.Context, chatID string) ([]models.ChatMember, error)
}

// MessageStore defines the interface for persisted message operations
type MessageStore interface {
	// CreateMessage inserts the canonical message record
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)

	// FindMessagesByChat retrieves a page of messages for a chat, newest first
	FindMessagesByChat(ctx context.Context, chatID string, limit int, page int) ([]*models.Message, error)
}

// RequestStore defines the interface for friend request operations
type RequestStore interface {
	// CreateRequest inserts a new pending friend request
	CreateRequest(ctx context.Context, request *models.FriendRequest) (*models.FriendRequest, error)

	// FindRequestByID retrieves a request by ID
	FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error)

	// FindPendingRequest retrieves a pending request between two users, if any
	FindPendingRequest(ctx context.Context, senderID string, receiverID string) (*models.FriendRequest, error)

	// UpdateRequestStatus transitions a request to accepted/rejected
	UpdateRequestStatus(ctx context.Context, id string, status string) error
}

// Store bundles all document store interfaces
type Store interface {
	UserStore
	ChatStore
	MessageStore
	RequestStore

	// Close closes the storage connection
	Close(ctx context.Context) error
}

// Cache defines the key-value operations used by the member-list cache
type Cache interface {
	SetJSON(ctx context.Context, key string, value interface{}) error
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
