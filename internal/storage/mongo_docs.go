package storage

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mohamedkhairy/chatts-server/internal/models"
)

// BSON document shapes. The driver assigns ObjectID primary keys; the rest of
// the codebase only ever sees their hex form, so conversion happens here.

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Bio       string             `bson:"bio,omitempty"`
	Password  string             `bson:"password"`
	Avatar    models.Avatar      `bson:"avatar,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func toUserDoc(u *models.User) *userDoc {
	return &userDoc{
		Username:  u.Username,
		Email:     u.Email,
		Bio:       u.Bio,
		Password:  u.Password,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Bio:       d.Bio,
		Password:  d.Password,
		Avatar:    d.Avatar,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type chatDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Name      string              `bson:"name"`
	GroupChat bool                `bson:"groupChat"`
	Creator   string              `bson:"creator"`
	Members   []models.ChatMember `bson:"members"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

func toChatDoc(c *models.Chat) *chatDoc {
	return &chatDoc{
		Name:      c.Name,
		GroupChat: c.GroupChat,
		Creator:   c.Creator,
		Members:   c.Members,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d *chatDoc) toModel() *models.Chat {
	return &models.Chat{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		GroupChat: d.GroupChat,
		Creator:   d.Creator,
		Members:   d.Members,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type messageDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Content     string              `bson:"content,omitempty"`
	Attachments []models.Attachment `bson:"attachments,omitempty"`
	Sender      string              `bson:"sender"`
	ChatID      string              `bson:"chatId"`
	IsDelivered bool                `bson:"isDelivered"`
	IsRead      bool                `bson:"isRead"`
	IsEdited    bool                `bson:"isEdited"`
	IsDeleted   bool                `bson:"isDeleted"`
	CreatedAt   time.Time           `bson:"createdAt"`
}

func toMessageDoc(m *models.Message) *messageDoc {
	return &messageDoc{
		Content:     m.Content,
		Attachments: m.Attachments,
		Sender:      m.Sender,
		ChatID:      m.ChatID,
		IsDelivered: m.IsDelivered,
		IsRead:      m.IsRead,
		IsEdited:    m.IsEdited,
		IsDeleted:   m.IsDeleted,
		CreatedAt:   m.CreatedAt,
	}
}

func (d *messageDoc) toModel() *models.Message {
	return &models.Message{
		ID:          d.ID.Hex(),
		Content:     d.Content,
		Attachments: d.Attachments,
		Sender:      d.Sender,
		ChatID:      d.ChatID,
		IsDelivered: d.IsDelivered,
		IsRead:      d.IsRead,
		IsEdited:    d.IsEdited,
		IsDeleted:   d.IsDeleted,
		CreatedAt:   d.CreatedAt,
	}
}

type requestDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Status    string             `bson:"status"`
	Sender    string             `bson:"sender"`
	Receiver  string             `bson:"receiver"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func toRequestDoc(r *models.FriendRequest) *requestDoc {
	return &requestDoc{
		Status:    r.Status,
		Sender:    r.Sender,
		Receiver:  r.Receiver,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (d *requestDoc) toModel() *models.FriendRequest {
	return &models.FriendRequest{
		ID:        d.ID.Hex(),
		Status:    d.Status,
		Sender:    d.Sender,
		Receiver:  d.Receiver,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
