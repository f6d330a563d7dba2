package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category classifies a protocol by the role it plays in a user's day.
type Category string

const (
	CategoryFoundation   Category = "foundation"
	CategoryPerformance  Category = "performance"
	CategoryRecovery     Category = "recovery"
	CategoryOptimization Category = "optimization"
	CategoryMeta         Category = "meta"
)

// Protocol is a single trackable habit (e.g. "Morning Light Exposure").
// Reference data owned by the content pipeline; this service only reads it.
type Protocol struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Category        Category           `bson:"category" json:"category"`
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// Module is a themed bundle of protocols (e.g. "Sleep").
type Module struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	ProtocolIDs []primitive.ObjectID `bson:"protocolIds,omitempty" json:"protocolIds,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}
