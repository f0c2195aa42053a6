package store

import (
	"context"
	"fmt"

	"bloom-planner/api/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	_, err := s.collection(TaskCollection).InsertOne(ctx, task)
	if err != nil {
		return fmt.Errorf("error creating task: %v", err)
	}
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, event *models.SpecialEvent) error {
	_, err := s.collection(EventCollection).InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("error creating event: %v", err)
	}
	return nil
}

func (s *Store) UpdateTaskCompleted(ctx context.Context, id string, completed bool) error {
	_, err := s.collection(TaskCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"completed": completed}})
	if err != nil {
		return fmt.Errorf("error updating task: %v", err)
	}
	return nil
}

func (s *Store) UpdateEventCompleted(ctx context.Context, id string, completed bool) error {
	_, err := s.collection(EventCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"completed": completed}})
	if err != nil {
		return fmt.Errorf("error updating event: %v", err)
	}
	return nil
}

// ListTasksDue matches on the indexed due_date field with set-membership,
// equality on created_by, and excludes completed tasks server-side. Callers
// still re-filter completion at read time.
func (s *Store) ListTasksDue(ctx context.Context, createdBy string, dates []string) ([]models.Task, error) {
	filter := bson.M{
		"created_by": createdBy,
		"due_date":   bson.M{"$in": dates},
		"completed":  false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})

	cursor, err := s.collection(TaskCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching due tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("error decoding due tasks: %v", err)
	}
	return tasks, nil
}

func (s *Store) ListEventsDue(ctx context.Context, createdBy string, dates []string) ([]models.SpecialEvent, error) {
	filter := bson.M{
		"created_by": createdBy,
		"date":       bson.M{"$in": dates},
		"completed":  false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := s.collection(EventCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching due events: %v", err)
	}
	defer cursor.Close(ctx)

	var events []models.SpecialEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding due events: %v", err)
	}
	return events, nil
}
