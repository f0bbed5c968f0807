package models

import (
	"time"
)

// User represents a registered account. Password holds the bcrypt hash,
// never the plaintext.
type User struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Username  string    `json:"username" bson:"username"`
	Email     string    `json:"email" bson:"email"`
	Bio       string    `json:"bio,omitempty" bson:"bio,omitempty"`
	Password  string    `json:"-" bson:"password"`
	Avatar    Avatar    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Avatar is a reference into the external object store
type Avatar struct {
	PublicID string `json:"public_id,omitempty" bson:"public_id,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
}

// Summary returns the lightweight representation embedded in real-time events
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// UserSummary is the sender shape carried inside real-time messages
type UserSummary struct {
	ID       string `json:"_id" bson:"_id"`
	Username string `json:"username" bson:"username"`
}

// Chat represents a direct or group chat thread
type Chat struct {
	ID        string       `json:"id" bson:"_id,omitempty"`
	Name      string       `json:"name" bson:"name"`
	GroupChat bool         `json:"groupChat" bson:"groupChat"`
	Creator   string       `json:"creator" bson:"creator"`
	Members   []ChatMember `json:"members" bson:"members"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// ChatMember is one member record with per-user chat-state flags
type ChatMember struct {
	User       string `json:"user" bson:"user"`
	IsPinned   bool   `json:"isPinned" bson:"isPinned"`
	IsArchived bool   `json:"isArchived" bson:"isArchived"`
	IsMuted    bool   `json:"isMuted" bson:"isMuted"`
	IsBlocked  bool   `json:"isBlocked" bson:"isBlocked"`
}

// MemberIDs returns the user ids of the given member records, in order
func MemberIDs(members []ChatMember) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.User)
	}
	return ids
}

// Message is the persisted (canonical) message record. The transient
// real-time representation lives in the gateway, not here.
type Message struct {
	ID          string       `json:"id" bson:"_id,omitempty"`
	Content     string       `json:"content,omitempty" bson:"content,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Sender      string       `json:"sender" bson:"sender"`
	ChatID      string       `json:"chatId" bson:"chatId"`
	IsDelivered bool         `json:"isDelivered" bson:"isDelivered"`
	IsRead      bool         `json:"isRead" bson:"isRead"`
	IsEdited    bool         `json:"isEdited" bson:"isEdited"`
	IsDeleted   bool         `json:"isDeleted" bson:"isDeleted"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
}

// Attachment is a reference into the external object store
type Attachment struct {
	Type     string `json:"type" bson:"type"`
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url" bson:"url"`
}

// Friend request status values
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendRequest represents a pending/answered friend request
type FriendRequest struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Status    string    `json:"status" bson:"status"`
	Sender    string    `json:"sender" bson:"sender"`
	Receiver  string    `json:"receiver" bson:"receiver"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
