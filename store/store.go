package store

import (
	"context"
	"fmt"
	"os"

	"bloom-planner/api/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	RecordCollection = "chat_records"
	TaskCollection   = "tasks"
	EventCollection  = "special_events"
)

// Store is the Mongo-backed entity store for planner data: chat records,
// tasks, and special events. User identity lives in Postgres, not here.
type Store struct {
	client   *mongo.Client
	database string
}

func Connect(ctx context.Context) (*Store, error) {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}
	database := os.Getenv("MONGO_DATABASE")
	if database == "" {
		database = "planner"
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(mongoURI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		logger.Get().Error("failed to connect to MongoDB", zap.Error(err))
		return nil, fmt.Errorf("error connecting to MongoDB: %v", err)
	}

	logger.Get().Info("successfully connected to MongoDB",
		zap.String("database", database))
	return &Store{client: client, database: database}, nil
}

func (s *Store) Close(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Get().Error("failed to disconnect from MongoDB", zap.Error(err))
		return
	}
	logger.Get().Info("successfully disconnected from MongoDB")
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.client.Database(s.database).Collection(name)
}
