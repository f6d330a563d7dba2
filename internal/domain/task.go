package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus tracks the lifecycle of a scheduled daily task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskSkipped   TaskStatus = "skipped"
)

// DailyTask is one protocol scheduled for one user on one calendar date.
// Its document ID is the natural key "<userHex>_<protocolHex>_<date>",
// which is the sole duplication guard: rerunning the scheduler for the
// same date replaces the document instead of inserting a second one. The
// user component keeps rows apart in the shared collection; per user the
// guard is still (protocol, date).
type DailyTask struct {
	ID              string              `bson:"_id" json:"id"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	ProtocolID      primitive.ObjectID  `bson:"protocolId" json:"protocolId"`
	ModuleID        *primitive.ObjectID `bson:"moduleId,omitempty" json:"moduleId,omitempty"`
	Date            string              `bson:"date" json:"date"` // YYYY-MM-DD
	ScheduledAt     time.Time           `bson:"scheduledAt" json:"scheduledAt"`
	DurationMinutes int                 `bson:"durationMinutes" json:"durationMinutes"`
	Status          TaskStatus          `bson:"status" json:"status"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// DailyTaskID derives the natural document key for a user's protocol on
// a date.
func DailyTaskID(userID, protocolID primitive.ObjectID, date string) string {
	return fmt.Sprintf("%s_%s_%s", userID.Hex(), protocolID.Hex(), date)
}
