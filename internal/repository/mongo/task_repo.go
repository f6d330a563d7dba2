package mongo

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const taskCollectionName = "daily_tasks"

// taskFlushChunkSize bounds a single bulk write. Firestore-style stores
// cap batched writes around 500 operations; 400 leaves headroom.
const taskFlushChunkSize = 400

// mongoTaskRepository implements repository.TaskRepository.
type mongoTaskRepository struct {
	collection *mongo.Collection
}

func NewMongoTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &mongoTaskRepository{
		collection: db.Collection(taskCollectionName),
	}
}

// BulkUpsert replaces tasks by their natural
// "<userHex>_<protocolHex>_<date>" ID in chunks. A failed chunk does not undo already-flushed chunks; the whole
// job is re-runnable because every write is a replace on the same key.
func (r *mongoTaskRepository) BulkUpsert(ctx context.Context, tasks []domain.DailyTask) error {
	for start := 0; start < len(tasks); start += taskFlushChunkSize {
		end := start + taskFlushChunkSize
		if end > len(tasks) {
			end = len(tasks)
		}

		models := make([]mongo.WriteModel, 0, end-start)
		for _, task := range tasks[start:end] {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": task.ID}).
				SetReplacement(task).
				SetUpsert(true))
		}

		opts := options.BulkWrite().SetOrdered(false)
		if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
			return err
		}
	}
	return nil
}

func (r *mongoTaskRepository) GetByUserAndDate(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.DailyTask, error) {
	filter := bson.M{"userId": userID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []domain.DailyTask
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *mongoTaskRepository) UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTaskIndexes creates indexes for the daily tasks collection. The
// document _id already carries the (user, protocol, date) natural key.
func EnsureTaskIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
