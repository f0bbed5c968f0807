package wsgateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedkhairy/chatts-server/internal/models"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

// handleNewMessage relays a chat message to the other live members, then
// persists the canonical record. Real-time delivery comes first: a slow or
// failing store must never hold back or roll back the fan-out.
func (h *Hub) handleNewMessage(conn *Connection, payload NewMessagePayload) {
	members := h.membersFor(payload.ChatID, payload.Members)

	realtime := RealtimeMessage{
		ID:      uuid.New().String(),
		Content: payload.Message,
		Sender: models.UserSummary{
			ID:       conn.UserID,
			Username: conn.Username,
		},
		ChatID:    payload.ChatID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	targets := h.resolver.ResolveExcept(members, conn.ID)
	h.dispatcher.EmitToConnections(targets, EventNewMessage, NewMessageEvent{
		ChatID:  payload.ChatID,
		Message: realtime,
	})
	h.dispatcher.EmitToConnections(targets, EventNewMessageAlert, ChatIDPayload{
		ChatID: payload.ChatID,
	})

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := h.messages.CreateMessage(ctx, &models.Message{
			Content: payload.Message,
			Sender:  conn.UserID,
			ChatID:  payload.ChatID,
		})
		if err != nil {
			persistFailures.Inc()
			logger.Error("Failed to persist message",
				logger.String("chat_id", payload.ChatID),
				logger.String("sender", conn.UserID),
				logger.ErrorField(err),
			)
		}
	}()
}

// handleTyping relays a typing indicator to every live member except the
// typist. Nothing is persisted and presence does not change.
func (h *Hub) handleTyping(conn *Connection, payload TypingPayload, event string) {
	members := h.membersFor(payload.ChatID, payload.Members)
	targets := h.resolver.ResolveExcept(members, conn.ID)
	h.dispatcher.EmitToConnections(targets, event, ChatIDPayload{ChatID: payload.ChatID})
}

// handleChatJoined marks the user online and broadcasts the presence
// snapshot to the chat's live members, the joiner included.
func (h *Hub) handleChatJoined(conn *Connection, payload PresencePayload) {
	userID := payload.UserID
	if userID == "" {
		userID = conn.UserID
	}
	h.presence.MarkOnline(userID)

	targets := h.resolver.Resolve(payload.Members)
	h.dispatcher.EmitToConnections(targets, EventOnlineUsers, h.presence.Snapshot())
}

// handleChatLeaved marks the user offline and broadcasts the updated
// presence snapshot to the chat's live members.
func (h *Hub) handleChatLeaved(conn *Connection, payload PresencePayload) {
	userID := payload.UserID
	if userID == "" {
		userID = conn.UserID
	}
	h.presence.MarkOffline(userID)

	targets := h.resolver.Resolve(payload.Members)
	h.dispatcher.EmitToConnections(targets, EventOnlineUsers, h.presence.Snapshot())
}

// membersFor returns the supplied member list, falling back to the chat
// store when the client sent only a chat id. A failed lookup resolves to no
// targets rather than an error surfaced to the sender.
func (h *Hub) membersFor(chatID string, members []models.ChatMember) []models.ChatMember {
	if len(members) > 0 {
		return members
	}
	if chatID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	found, err := h.chats.FindChatMembers(ctx, chatID)
	if err != nil {
		logger.Warn("Failed to resolve chat members",
			logger.String("chat_id", chatID),
			logger.ErrorField(err),
		)
		return nil
	}
	return found
}
