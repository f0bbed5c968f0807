package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mohamedkhairy/chatts-server/internal/config"
	"github.com/mohamedkhairy/chatts-server/internal/models"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

const (
	usersCollection    = "users"
	chatsCollection    = "chats"
	messagesCollection = "messages"
	requestsCollection = "requests"
)

// MongoStore implements Store backed by MongoDB
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and returns a store
func NewMongoStore(cfg config.MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB",
		logger.String("database", cfg.Database),
	)

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Close closes the storage connection
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CreateUser inserts a new user and returns it with its assigned ID
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	existing, err := s.FindUserByUsername(ctx, user.Username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, models.ErrUsernameTaken
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := toUserDoc(user)
	res, err := s.db.Collection(usersCollection).InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return user, nil
}

// FindUserByID retrieves a user by ID
func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var doc userDoc
	err = s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		return nil, wrapFindErr(err, "user")
	}
	return doc.toModel(), nil
}

// FindUserByUsername retrieves a user by username
func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc userDoc
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		return nil, wrapFindErr(err, "user")
	}
	return doc.toModel(), nil
}

// CreateChat inserts a new chat and returns it with its assigned ID
func (s *MongoStore) CreateChat(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	res, err := s.db.Collection(chatsCollection).InsertOne(ctx, toChatDoc(chat))
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	chat.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return chat, nil
}

// FindChatByID retrieves a chat by ID
func (s *MongoStore) FindChatByID(ctx context.Context, id string) (*models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var doc chatDoc
	err = s.db.Collection(chatsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		return nil, wrapFindErr(err, "chat")
	}
	return doc.toModel(), nil
}

// FindChatsByMember retrieves all chats the given user is a member of
func (s *MongoStore) FindChatsByMember(ctx context.Context, userID string) ([]*models.Chat, error) {
	cursor, err := s.db.Collection(chatsCollection).Find(ctx, bson.M{"members.user": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer cursor.Close(ctx)

	var chats []*models.Chat
	for cursor.Next(ctx) {
		var doc chatDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode chat: %w", err)
		}
		chats = append(chats, doc.toModel())
	}
	return chats, cursor.Err()
}

// FindChatMembers retrieves the member list of a chat
func (s *MongoStore) FindChatMembers(ctx context.Context, chatID string) ([]models.ChatMember, error) {
	chat, err := s.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Members, nil
}

// CreateMessage inserts the canonical message record
func (s *MongoStore) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	res, err := s.db.Collection(messagesCollection).InsertOne(ctx, toMessageDoc(message))
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	message.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return message, nil
}

// FindMessagesByChat retrieves a page of messages for a chat, newest first
func (s *MongoStore) FindMessagesByChat(ctx context.Context, chatID string, limit int, page int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64((page - 1) * limit))

	cursor, err := s.db.Collection(messagesCollection).Find(ctx, bson.M{"chatId": chatID, "isDeleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	for cursor.Next(ctx) {
		var doc messageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, doc.toModel())
	}
	return messages, cursor.Err()
}

// CreateRequest inserts a new pending friend request
func (s *MongoStore) CreateRequest(ctx context.Context, request *models.FriendRequest) (*models.FriendRequest, error) {
	now := time.Now()
	request.Status = models.RequestPending
	request.CreatedAt = now
	request.UpdatedAt = now

	res, err := s.db.Collection(requestsCollection).InsertOne(ctx, toRequestDoc(request))
	if err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}
	request.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return request, nil
}

// FindRequestByID retrieves a request by ID
func (s *MongoStore) FindRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var doc requestDoc
	err = s.db.Collection(requestsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		return nil, wrapFindErr(err, "request")
	}
	return doc.toModel(), nil
}

// FindPendingRequest retrieves a pending request between two users, if any
func (s *MongoStore) FindPendingRequest(ctx context.Context, senderID string, receiverID string) (*models.FriendRequest, error) {
	filter := bson.M{
		"status": models.RequestPending,
		"$or": []bson.M{
			{"sender": senderID, "receiver": receiverID},
			{"sender": receiverID, "receiver": senderID},
		},
	}
	var doc requestDoc
	err := s.db.Collection(requestsCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		return nil, wrapFindErr(err, "request")
	}
	return doc.toModel(), nil
}

// UpdateRequestStatus transitions a request to accepted/rejected
func (s *MongoStore) UpdateRequestStatus(ctx context.Context, id string, status string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	res, err := s.db.Collection(requestsCollection).UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func wrapFindErr(err error, kind string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return fmt.Errorf("failed to find %s: %w", kind, err)
}
