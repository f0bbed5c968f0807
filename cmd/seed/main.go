package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mohamedkhairy/chatts-server/internal/auth"
	"github.com/mohamedkhairy/chatts-server/internal/config"
	"github.com/mohamedkhairy/chatts-server/internal/models"
	"github.com/mohamedkhairy/chatts-server/internal/storage"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

var fixtureUsers = []struct {
	Username string
	Email    string
	Bio      string
}{
	{"alice", "alice@example.com", "hey there"},
	{"bob", "bob@example.com", "hi"},
	{"carol", "carol@example.com", "available"},
	{"dave", "dave@example.com", "busy"},
	{"erin", "erin@example.com", "at work"},
}

const fixturePassword = "password"

// Seeds a handful of demo users and a group chat that contains all of them.
// Safe to run repeatedly: existing usernames are skipped.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.NewMongoStore(cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to initialize document store",
			logger.ErrorField(err),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer store.Close(ctx)

	hash, err := auth.HashPassword(fixturePassword)
	if err != nil {
		logger.Fatal("Failed to hash fixture password",
			logger.ErrorField(err),
		)
	}

	memberIDs := make([]string, 0, len(fixtureUsers))
	for _, fixture := range fixtureUsers {
		user, err := store.CreateUser(ctx, &models.User{
			Username: fixture.Username,
			Email:    fixture.Email,
			Bio:      fixture.Bio,
			Password: hash,
		})
		if errors.Is(err, models.ErrUsernameTaken) {
			existing, err := store.FindUserByUsername(ctx, fixture.Username)
			if err != nil {
				logger.Fatal("Failed to look up existing user",
					logger.String("username", fixture.Username),
					logger.ErrorField(err),
				)
			}
			memberIDs = append(memberIDs, existing.ID)
			logger.Info("User already exists, skipping",
				logger.String("username", fixture.Username),
			)
			continue
		}
		if err != nil {
			logger.Fatal("Failed to create user",
				logger.String("username", fixture.Username),
				logger.ErrorField(err),
			)
		}
		memberIDs = append(memberIDs, user.ID)
		logger.Info("Created user",
			logger.String("username", fixture.Username),
			logger.String("user_id", user.ID),
		)
	}

	existing, err := store.FindChatsByMember(ctx, memberIDs[0])
	if err != nil {
		logger.Fatal("Failed to list chats",
			logger.ErrorField(err),
		)
	}
	for _, c := range existing {
		if c.Name == "Lounge" && c.GroupChat {
			logger.Info("Group chat already exists, skipping",
				logger.String("chat_id", c.ID),
			)
			return
		}
	}

	members := make([]models.ChatMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, models.ChatMember{User: id})
	}

	chat, err := store.CreateChat(ctx, &models.Chat{
		Name:      "Lounge",
		GroupChat: true,
		Creator:   memberIDs[0],
		Members:   members,
	})
	if err != nil {
		logger.Fatal("Failed to create group chat",
			logger.ErrorField(err),
		)
	}

	logger.Info("Seed complete",
		logger.String("chat_id", chat.ID),
		logger.Int("users", len(memberIDs)),
	)
}
