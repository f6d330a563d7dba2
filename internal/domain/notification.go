package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationKind distinguishes the streak events this service emits.
type NotificationKind string

const (
	NotifyStreakPreserved NotificationKind = "streak_preserved"
	NotifyLapseRecovery   NotificationKind = "lapse_recovery"
)

// Notification is a queued push event: title, body and recipient only.
// Platform payload formatting belongs to the dispatcher that drains these.
type Notification struct {
	ID        string             `bson:"_id" json:"id"` // uuid
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Kind      NotificationKind   `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	SentAt    *time.Time         `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
}
