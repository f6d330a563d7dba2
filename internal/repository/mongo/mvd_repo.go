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

const mvdStateCollectionName = "mvd_states"

// mongoMVDStateRepository implements repository.MVDStateRepository.
type mongoMVDStateRepository struct {
	collection *mongo.Collection
}

func NewMongoMVDStateRepository(db *mongo.Database) repository.MVDStateRepository {
	return &mongoMVDStateRepository{
		collection: db.Collection(mvdStateCollectionName),
	}
}

// Upsert writes the user's single reduced-day document. Keyed by userId so
// concurrent resolutions for the same day land on the same row.
func (r *mongoMVDStateRepository) Upsert(ctx context.Context, state *domain.MVDState) error {
	if state.UserID.IsZero() {
		return errors.New("user ID is required")
	}

	now := time.Now().UTC()
	filter := bson.M{"userId": state.UserID}
	update := bson.M{
		"$set": bson.M{
			"active":      state.Active,
			"type":        state.Type,
			"activatedAt": state.ActivatedAt,
			"expiresAt":   state.ExpiresAt,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"_id":    primitive.NewObjectID(),
			"userId": state.UserID,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *mongoMVDStateRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.MVDState, error) {
	var state domain.MVDState
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// EnsureMVDStateIndexes creates the unique userId index for MVD states.
func EnsureMVDStateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
