package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"chathub/internal/core"
)

// MongoStore implements Store for MongoDB. Identifiers are allocated from
// a counters collection so they stay small sequential integers like the
// SQL backends.
type MongoStore struct {
	client        *mongo.Client
	users         *mongo.Collection
	conversations *mongo.Collection
	messages      *mongo.Collection
	counters      *mongo.Collection
}

type mongoUser struct {
	ID        int64     `bson:"id"`
	Username  string    `bson:"username"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoConversation struct {
	ID        int64     `bson:"id"`
	Title     string    `bson:"title"`
	Model     string    `bson:"model"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type mongoMessage struct {
	ID             int64     `bson:"id"`
	ConversationID int64     `bson:"conversation_id"`
	Role           string    `bson:"role"`
	Content        string    `bson:"content"`
	ResponseTime   *int64    `bson:"response_time,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

// NewMongoDB creates a new MongoDB store. It verifies connectivity and
// ensures the indexes exist.
func NewMongoDB(ctx context.Context, cfg MongoDBConfig) (*MongoStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("MongoDB URL is required")
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = "chathub"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	s := &MongoStore{
		client:        client,
		users:         database.Collection("users"),
		conversations: database.Collection("conversations"),
		messages:      database.Collection("messages"),
		counters:      database.Collection("counters"),
	}

	s.ensureIndexes(ctx)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		slog.Warn("failed to create user indexes", "error", err)
	}

	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "id", Value: 1}},
		},
	}
	if _, err := s.messages.Indexes().CreateMany(ctx, messageIndexes); err != nil {
		slog.Warn("failed to create message indexes", "error", err)
	}

	convIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.conversations.Indexes().CreateMany(ctx, convIndexes); err != nil {
		slog.Warn("failed to create conversation indexes", "error", err)
	}
}

// nextID allocates the next identifier from the named sequence.
func (s *MongoStore) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id for %s: %w", sequence, err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, username, password string) (*User, error) {
	id, err := s.nextID(ctx, "users")
	if err != nil {
		return nil, err
	}

	doc := mongoUser{ID: id, Username: username, Password: password, CreatedAt: time.Now().UTC()}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, core.NewValidationError("username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &User{ID: doc.ID, Username: doc.Username, Password: doc.Password, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var doc mongoUser
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.NewNotFoundError("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &User{ID: doc.ID, Username: doc.Username, Password: doc.Password, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	cursor, err := s.conversations.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := make([]*Conversation, 0)
	for cursor.Next(ctx) {
		var doc mongoConversation
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		conversations = append(conversations, conversationFromDoc(&doc))
	}
	return conversations, cursor.Err()
}

func (s *MongoStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	var doc mongoConversation
	err := s.conversations.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.NewNotFoundError("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return conversationFromDoc(&doc), nil
}

func (s *MongoStore) CreateConversation(ctx context.Context, title, model string) (*Conversation, error) {
	id, err := s.nextID(ctx, "conversations")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := mongoConversation{ID: id, Title: title, Model: model, CreatedAt: now, UpdatedAt: now}
	if _, err := s.conversations.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversationFromDoc(&doc), nil
}

func (s *MongoStore) UpdateConversation(ctx context.Context, id int64, upd ConversationUpdate) (*Conversation, error) {
	existing, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	title := existing.Title
	if upd.Title != nil {
		title = *upd.Title
	}
	model := existing.Model
	if upd.Model != nil {
		model = *upd.Model
	}
	updatedAt := monotonicUpdatedAt(existing.UpdatedAt, upd.UpdatedAt)

	_, err = s.conversations.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"title": title, "model": model, "updated_at": updatedAt}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	return &Conversation{
		ID:        id,
		Title:     title,
		Model:     model,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (s *MongoStore) DeleteConversation(ctx context.Context, id int64) (bool, error) {
	res, err := s.conversations.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete conversation: %w", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}

	if _, err := s.messages.DeleteMany(ctx, bson.M{"conversation_id": id}); err != nil {
		return false, fmt.Errorf("failed to delete messages: %w", err)
	}
	return true, nil
}

func (s *MongoStore) ListMessages(ctx context.Context, conversationID int64) ([]*Message, error) {
	cursor, err := s.messages.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*Message, 0)
	for cursor.Next(ctx) {
		var doc mongoMessage
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, &Message{
			ID:             doc.ID,
			ConversationID: doc.ConversationID,
			Role:           doc.Role,
			Content:        doc.Content,
			ResponseTime:   doc.ResponseTime,
			CreatedAt:      doc.CreatedAt,
		})
	}
	return messages, cursor.Err()
}

func (s *MongoStore) CreateMessage(ctx context.Context, conversationID int64, role, content string, responseTime *int64) (*Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	id, err := s.nextID(ctx, "messages")
	if err != nil {
		return nil, err
	}

	doc := mongoMessage{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ResponseTime:   responseTime,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &Message{
		ID:             doc.ID,
		ConversationID: doc.ConversationID,
		Role:           doc.Role,
		Content:        doc.Content,
		ResponseTime:   doc.ResponseTime,
		CreatedAt:      doc.CreatedAt,
	}, nil
}

func (s *MongoStore) ClearMessages(ctx context.Context, conversationID int64) error {
	if _, err := s.messages.DeleteMany(ctx, bson.M{"conversation_id": conversationID}); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if s.client != nil {
		return s.client.Disconnect(context.Background())
	}
	return nil
}

func conversationFromDoc(doc *mongoConversation) *Conversation {
	return &Conversation{
		ID:        doc.ID,
		Title:     doc.Title,
		Model:     doc.Model,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
