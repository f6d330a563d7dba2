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

const (
	moduleEnrollmentCollectionName   = "module_enrollments"
	protocolEnrollmentCollectionName = "protocol_enrollments"
)

// mongoModuleEnrollmentRepository implements repository.ModuleEnrollmentRepository.
type mongoModuleEnrollmentRepository struct {
	collection *mongo.Collection
}

func NewMongoModuleEnrollmentRepository(db *mongo.Database) repository.ModuleEnrollmentRepository {
	return &mongoModuleEnrollmentRepository{
		collection: db.Collection(moduleEnrollmentCollectionName),
	}
}

func (r *mongoModuleEnrollmentRepository) Create(ctx context.Context, enr *domain.ModuleEnrollment) (primitive.ObjectID, error) {
	if enr.UserID.IsZero() || enr.ModuleID.IsZero() {
		return primitive.NilObjectID, errors.New("user ID and module ID are required")
	}

	enr.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enr.CreatedAt = now
	enr.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, enr)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, errors.New("user is already enrolled in this module")
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoModuleEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ModuleEnrollment, error) {
	var enr domain.ModuleEnrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enr, nil
}

func (r *mongoModuleEnrollmentRepository) GetByUserAndModule(ctx context.Context, userID, moduleID primitive.ObjectID) (*domain.ModuleEnrollment, error) {
	var enr domain.ModuleEnrollment
	filter := bson.M{"userId": userID, "moduleId": moduleID}
	err := r.collection.FindOne(ctx, filter).Decode(&enr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enr, nil
}

func (r *mongoModuleEnrollmentRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ModuleEnrollment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.ModuleEnrollment
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// GetWithActiveStreaks returns every enrollment the nightly sweep has to
// look at. Enrollments already at zero have nothing to preserve or reset.
func (r *mongoModuleEnrollmentRepository) GetWithActiveStreaks(ctx context.Context) ([]domain.ModuleEnrollment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"currentStreak": bson.M{"$gt": 0}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.ModuleEnrollment
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// UpdateStreak persists the streak-owned fields of an enrollment.
func (r *mongoModuleEnrollmentRepository) UpdateStreak(ctx context.Context, enr *domain.ModuleEnrollment) error {
	update := bson.M{
		"$set": bson.M{
			"currentStreak":         enr.CurrentStreak,
			"longestStreak":         enr.LongestStreak,
			"lastActiveDate":        enr.LastActiveDate,
			"streakFreezeAvailable": enr.StreakFreezeAvailable,
			"streakFreezeUsedDate":  enr.StreakFreezeUsedDate,
			"progressPct":           enr.ProgressPct,
			"updatedAt":             time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": enr.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoModuleEnrollmentRepository) ReplenishFreezes(ctx context.Context) (int64, error) {
	update := bson.M{
		"$set": bson.M{
			"streakFreezeAvailable": true,
			"streakFreezeUsedDate":  "",
			"updatedAt":             time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateMany(ctx, bson.M{}, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// mongoProtocolEnrollmentRepository implements repository.ProtocolEnrollmentRepository.
type mongoProtocolEnrollmentRepository struct {
	collection *mongo.Collection
}

func NewMongoProtocolEnrollmentRepository(db *mongo.Database) repository.ProtocolEnrollmentRepository {
	return &mongoProtocolEnrollmentRepository{
		collection: db.Collection(protocolEnrollmentCollectionName),
	}
}

// Upsert writes an enrollment keyed by (userId, protocolId). A previous
// soft-removed row for the same pair is overwritten in place, which keeps
// the one-row-per-pair invariant without a read-modify-write cycle.
func (r *mongoProtocolEnrollmentRepository) Upsert(ctx context.Context, enr *domain.ProtocolEnrollment) error {
	if enr.UserID.IsZero() || enr.ProtocolID.IsZero() {
		return errors.New("user ID and protocol ID are required")
	}

	now := time.Now().UTC()
	filter := bson.M{"userId": enr.UserID, "protocolId": enr.ProtocolID}
	update := bson.M{
		"$set": bson.M{
			"moduleId":         enr.ModuleID,
			"defaultTimeOfDay": enr.DefaultTimeOfDay,
			"isActive":         enr.IsActive,
			"updatedAt":        now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"userId":     enr.UserID,
			"protocolId": enr.ProtocolID,
			"createdAt":  now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Deactivate soft-removes an enrollment; history is retained.
func (r *mongoProtocolEnrollmentRepository) Deactivate(ctx context.Context, userID, protocolID primitive.ObjectID) error {
	filter := bson.M{"userId": userID, "protocolId": protocolID}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoProtocolEnrollmentRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ProtocolEnrollment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID, "isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.ProtocolEnrollment
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// mongoEnrollmentQueryRepository spans both enrollment collections to
// enumerate the nightly runs' user fleet.
type mongoEnrollmentQueryRepository struct {
	moduleCollection   *mongo.Collection
	protocolCollection *mongo.Collection
}

func NewMongoEnrollmentQueryRepository(db *mongo.Database) repository.EnrollmentQueryRepository {
	return &mongoEnrollmentQueryRepository{
		moduleCollection:   db.Collection(moduleEnrollmentCollectionName),
		protocolCollection: db.Collection(protocolEnrollmentCollectionName),
	}
}

func (r *mongoEnrollmentQueryRepository) DistinctEnrolledUserIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	fromModules, err := r.moduleCollection.Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return nil, err
	}
	fromProtocols, err := r.protocolCollection.Distinct(ctx, "userId", bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, raw := range append(fromModules, fromProtocols...) {
		id, ok := raw.(primitive.ObjectID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// EnsureModuleEnrollmentIndexes creates indexes for the module enrollments
// collection. Call once during application startup.
func EnsureModuleEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "moduleId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "currentStreak", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

// EnsureProtocolEnrollmentIndexes creates the unique (userId, protocolId)
// index that backs the single-row-per-pair invariant.
func EnsureProtocolEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "protocolId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
