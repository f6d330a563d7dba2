package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModuleEnrollment is a user's opt-in to a module. It owns the streak
// state for that module: the counter, the freeze token, and the date of
// the most recent counted activity.
type ModuleEnrollment struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                primitive.ObjectID `bson:"userId" json:"userId"`
	ModuleID              primitive.ObjectID `bson:"moduleId" json:"moduleId"`
	IsPrimary             bool               `bson:"isPrimary" json:"isPrimary"`
	CurrentStreak         int                `bson:"currentStreak" json:"currentStreak"`
	LongestStreak         int                `bson:"longestStreak" json:"longestStreak"`
	LastActiveDate        string             `bson:"lastActiveDate,omitempty" json:"lastActiveDate,omitempty"` // YYYY-MM-DD, empty until first completion
	StreakFreezeAvailable bool               `bson:"streakFreezeAvailable" json:"streakFreezeAvailable"`
	StreakFreezeUsedDate  string             `bson:"streakFreezeUsedDate,omitempty" json:"streakFreezeUsedDate,omitempty"`
	ProgressPct           float64            `bson:"progressPct" json:"progressPct"` // 0..1
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProtocolEnrollment is a user's opt-in to an individual protocol,
// possibly in the context of a module. At most one row exists per
// (user, protocol); deactivation keeps the row so history survives, and
// re-enrolling overwrites it in place.
type ProtocolEnrollment struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID  `bson:"userId" json:"userId"`
	ProtocolID       primitive.ObjectID  `bson:"protocolId" json:"protocolId"`
	ModuleID         *primitive.ObjectID `bson:"moduleId,omitempty" json:"moduleId,omitempty"`
	DefaultTimeOfDay string              `bson:"defaultTimeOfDay" json:"defaultTimeOfDay"` // HH:MM, UTC
	IsActive         bool                `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}
