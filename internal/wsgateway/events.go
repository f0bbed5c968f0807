package wsgateway

import (
	"encoding/json"

	"github.com/mohamedkhairy/chatts-server/internal/models"
)

// Wire-level event names. These strings are a compatibility contract with the
// web client and must not change.
const (
	EventNewMessage      = "NEW_MESSAGE"
	EventNewMessageAlert = "NEW_MESSAGE_ALERT"
	EventStartTyping     = "START_TYPING"
	EventStopTyping      = "STOP_TYPING"
	EventChatJoined      = "CHAT_JOINED"
	EventChatLeaved      = "CHAT_LEAVED"
	EventOnlineUsers     = "ONLINE_USERS"
	EventAlert           = "ALERT"
	EventRefetchChats    = "REFETCH_CHATS"
	EventNewRequest      = "NEW_REQUEST"
	EventError           = "ERROR"
)

// ClientEvent is the inbound wire envelope
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the outbound wire envelope
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// NewMessagePayload is the inbound NEW_MESSAGE payload
type NewMessagePayload struct {
	ChatID  string              `json:"chatId"`
	Members []models.ChatMember `json:"members"`
	Message string              `json:"message"`
}

// TypingPayload is the inbound START_TYPING / STOP_TYPING payload
type TypingPayload struct {
	ChatID  string              `json:"chatId"`
	Members []models.ChatMember `json:"members"`
}

// PresencePayload is the inbound CHAT_JOINED / CHAT_LEAVED payload
type PresencePayload struct {
	UserID  string              `json:"userId"`
	Members []models.ChatMember `json:"members"`
}

// RealtimeMessage is the transient representation dispatched to live
// connections. It is distinct from the persisted models.Message: it carries a
// temporary id and a sender summary, and is never stored.
type RealtimeMessage struct {
	ID        string             `json:"_id"`
	Content   string             `json:"content"`
	Sender    models.UserSummary `json:"sender"`
	ChatID    string             `json:"chat"`
	CreatedAt string             `json:"createdAt"`
}

// NewMessageEvent is the outbound NEW_MESSAGE payload
type NewMessageEvent struct {
	ChatID  string          `json:"chatId"`
	Message RealtimeMessage `json:"message"`
}

// ChatIDPayload is the outbound payload for events that carry only a chat id
// (NEW_MESSAGE_ALERT, typing relays)
type ChatIDPayload struct {
	ChatID string `json:"chatId"`
}

// ErrorPayload is the outbound ERROR payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
