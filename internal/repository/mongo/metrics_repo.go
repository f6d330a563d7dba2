package mongo

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const metricsCollectionName = "daily_calendar_metrics"

// mongoMetricsRepository implements repository.MetricsRepository.
type mongoMetricsRepository struct {
	collection *mongo.Collection
}

func NewMongoMetricsRepository(db *mongo.Database) repository.MetricsRepository {
	return &mongoMetricsRepository{
		collection: db.Collection(metricsCollectionName),
	}
}

// Upsert writes the metrics keyed (userId, date). Last writer wins: the
// fields are deterministically derived from the day's blocks, so repeated
// syncs converge.
func (r *mongoMetricsRepository) Upsert(ctx context.Context, m *domain.DailyCalendarMetrics) error {
	if m.UserID.IsZero() || m.Date == "" {
		return errors.New("user ID and date are required")
	}

	now := time.Now().UTC()
	filter := bson.M{"userId": m.UserID, "date": m.Date}
	update := bson.M{
		"$set": bson.M{
			"totalBusyHours":  m.TotalBusyHours,
			"meetingCount":    m.MeetingCount,
			"backToBackCount": m.BackToBackCount,
			"density":         m.Density,
			"load":            m.Load,
			"heavyDay":        m.HeavyDay,
			"overload":        m.Overload,
			"provider":        m.Provider,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{
			"_id":          primitive.NewObjectID(),
			"userId":       m.UserID,
			"date":         m.Date,
			"mvdActivated": false,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *mongoMetricsRepository) GetByUserAndDate(ctx context.Context, userID primitive.ObjectID, date string) (*domain.DailyCalendarMetrics, error) {
	var m domain.DailyCalendarMetrics
	filter := bson.M{"userId": userID, "date": date}

	err := r.collection.FindOne(ctx, filter).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongoMetricsRepository) GetByDate(ctx context.Context, date string) ([]domain.DailyCalendarMetrics, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"date": date})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var all []domain.DailyCalendarMetrics
	if err = cursor.All(ctx, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// MarkMVDActivated flags the day's metrics once the gate has acted on
// them, so trend views can show which days were softened.
func (r *mongoMetricsRepository) MarkMVDActivated(ctx context.Context, userID primitive.ObjectID, date string) error {
	filter := bson.M{"userId": userID, "date": date}
	update := bson.M{"$set": bson.M{"mvdActivated": true, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureMetricsIndexes creates the unique (userId, date) index that backs
// the one-document-per-user-per-day key.
func EnsureMetricsIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
