package mongo

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	protocolCollectionName = "protocols"
	moduleCollectionName   = "modules"
)

// mongoProtocolRepository implements repository.ProtocolRepository over
// the protocol and module reference collections. Reference data is owned
// by the content pipeline; this repository only reads it.
type mongoProtocolRepository struct {
	protocols *mongo.Collection
	modules   *mongo.Collection
}

func NewMongoProtocolRepository(db *mongo.Database) repository.ProtocolRepository {
	return &mongoProtocolRepository{
		protocols: db.Collection(protocolCollectionName),
		modules:   db.Collection(moduleCollectionName),
	}
}

func (r *mongoProtocolRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Protocol, error) {
	var p domain.Protocol
	err := r.protocols.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *mongoProtocolRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Protocol, error) {
	if len(ids) == 0 {
		return []domain.Protocol{}, nil
	}

	cursor, err := r.protocols.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var protocols []domain.Protocol
	if err = cursor.All(ctx, &protocols); err != nil {
		return nil, err
	}
	return protocols, nil
}

func (r *mongoProtocolRepository) GetModuleByID(ctx context.Context, id primitive.ObjectID) (*domain.Module, error) {
	var m domain.Module
	err := r.modules.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
