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

const badgeCollectionName = "badges"

// mongoBadgeRepository implements repository.BadgeRepository.
type mongoBadgeRepository struct {
	collection *mongo.Collection
}

func NewMongoBadgeRepository(db *mongo.Database) repository.BadgeRepository {
	return &mongoBadgeRepository{
		collection: db.Collection(badgeCollectionName),
	}
}

func (r *mongoBadgeRepository) Has(ctx context.Context, userID primitive.ObjectID, badgeID string) (bool, error) {
	filter := bson.M{"userId": userID, "badgeId": badgeID}
	err := r.collection.FindOne(ctx, filter).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Award inserts the badge. The unique (userId, badgeId) index makes a
// duplicate grant a no-op rather than a second badge.
func (r *mongoBadgeRepository) Award(ctx context.Context, badge *domain.Badge) error {
	badge.ID = primitive.NewObjectID()
	if badge.AwardedAt.IsZero() {
		badge.AwardedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, badge)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}

// EnsureBadgeIndexes creates the unique (userId, badgeId) index.
func EnsureBadgeIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "badgeId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
