package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/chatts-server/internal/models"
)

// MockStore is an in-memory implementation of Store for testing
type MockStore struct {
	mu       sync.Mutex
	nextID   int
	Users    map[string]*models.User
	Chats    map[string]*models.Chat
	Messages []*models.Message
	Requests map[string]*models.FriendRequest

	CreateUserErr    error
	CreateMessageErr error
	FindChatErr      error
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{
		Users:    make(map[string]*models.User),
		Chats:    make(map[string]*models.Chat),
		Requests: make(map[string]*models.FriendRequest),
	}
}

func (m *MockStore) newID() string {
	m.nextID++
	return fmt.Sprintf("id-%d", m.nextID)
}

func (m *MockStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateUserErr != nil {
		return nil, m.CreateUserErr
	}
	for _, u := range m.Users {
		if u.Username == user.Username {
			return nil, models.ErrUsernameTaken
		}
	}
	user.ID = m.newID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.Users[user.ID] = user
	return user, nil
}

func (m *MockStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func (m *MockStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStore) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat.ID = m.newID()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	m.Chats[chat.ID] = chat
	return chat, nil
}

func (m *MockStore) FindChatByID(ctx context.Context, id string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindChatErr != nil {
		return nil, m.FindChatErr
	}
	chat, ok := m.Chats[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return chat, nil
}

func (m *MockStore) FindChatsByMember(ctx context.Context, userID string) ([]*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Chat
	for _, chat := range m.Chats {
		for _, member := range chat.Members {
			if member.User == userID {
				result = append(result, chat)
				break
			}
		}
	}
	return result, nil
}

func (m *MockStore) FindChatMembers(ctx context.Context, chatID string) ([]models.ChatMember, error) {
	chat, err := m.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Members, nil
}

func (m *MockStore) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateMessageErr != nil {
		return nil, m.CreateMessageErr
	}
	message.ID = m.newID()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.Messages = append(m.Messages, message)
	return message, nil
}

func (m *MockStore) FindMessagesByChat(ctx context.Context, chatID string, limit int, page int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Message
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].ChatID == chatID && !m.Messages[i].IsDeleted {
			result = append(result, m.Messages[i])
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MessageCount returns the number of persisted messages
func (m *MockStore) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

func (m *MockStore) CreateRequest(ctx context.Context, request *models.FriendRequest) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request.ID = m.newID()
	request.Status = models.RequestPending
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.Requests[request.ID] = request
	return request, nil
}

func (m *MockStore) FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.Requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return request, nil
}

func (m *MockStore) FindPendingRequest(ctx context.Context, senderID string, receiverID string) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Requests {
		if r.Status != models.RequestPending {
			continue
		}
		if (r.Sender == senderID && r.Receiver == receiverID) ||
			(r.Sender == receiverID && r.Receiver == senderID) {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStore) UpdateRequestStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.Requests[id]
	if !ok {
		return models.ErrNotFound
	}
	request.Status = status
	request.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) Close(ctx context.Context) error {
	return nil
}

// MockCache is an in-memory implementation of Cache for testing
type MockCache struct {
	mu      sync.Mutex
	Data    map[string]string
	GetErr  error
	SetErr  error
	GetHits int
}

// NewMockCache creates an empty in-memory cache
func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string]string)}
}

func (m *MockCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Data[key] = string(data)
	return nil
}

func (m *MockCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return false, m.GetErr
	}
	value, ok := m.Data[key]
	if !ok {
		return false, nil
	}
	m.GetHits++
	return true, json.Unmarshal([]byte(value), dest)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	return nil
}

func (m *MockCache) Close() error {
	return nil
}
