package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloom-planner/api/models"
	"bloom-planner/api/tracker"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateRecord(ctx context.Context, record *models.ChatRecord) error {
	_, err := s.collection(RecordCollection).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("error creating record: %v", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (*models.ChatRecord, error) {
	var record models.ChatRecord
	err := s.collection(RecordCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tracker.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error fetching record: %v", err)
	}
	return &record, nil
}

// UpdateRecordStatus applies the transition only while the record is still
// in one of allowedFrom. The status filter makes the write conditional, so
// concurrent owners cannot move a record backward.
func (s *Store) UpdateRecordStatus(ctx context.Context, id string, to models.RecordStatus, errMsg string, allowedFrom []models.RecordStatus) error {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": allowedFrom},
	}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"error":      errMsg,
		"updated_at": time.Now().Unix(),
	}}

	result, err := s.collection(RecordCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating record status: %v", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing record from one already past this state.
		count, err := s.collection(RecordCollection).CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("error checking record existence: %v", err)
		}
		if count == 0 {
			return tracker.ErrRecordNotFound
		}
		return tracker.ErrStatusConflict
	}
	return nil
}

func (s *Store) ListRecordsBySession(ctx context.Context, sessionKey string) ([]models.ChatRecord, error) {
	filter := bson.M{"session_key": sessionKey}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.collection(RecordCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching records: %v", err)
	}
	defer cursor.Close(ctx)

	var records []models.ChatRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding records: %v", err)
	}
	return records, nil
}

func (s *Store) ListUnsettledBefore(ctx context.Context, updatedBefore int64) ([]*models.ChatRecord, error) {
	filter := bson.M{
		"status":     bson.M{"$in": []models.RecordStatus{models.RecordStatusPending, models.RecordStatusProcessing}},
		"updated_at": bson.M{"$lte": updatedBefore},
	}

	cursor, err := s.collection(RecordCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching unsettled records: %v", err)
	}
	defer cursor.Close(ctx)

	var records []*models.ChatRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding unsettled records: %v", err)
	}
	return records, nil
}
