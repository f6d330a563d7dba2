package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StreakMilestones are the streak lengths that earn a badge.
var StreakMilestones = []int{7, 30, 100}

// Badge records a milestone grant. BadgeID is stable per milestone
// ("streak_7" etc.) so membership checks stay cheap and idempotent.
type Badge struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	BadgeID   string             `bson:"badgeId" json:"badgeId"`
	ModuleID  primitive.ObjectID `bson:"moduleId" json:"moduleId"`
	AwardedAt time.Time          `bson:"awardedAt" json:"awardedAt"`
}

// StreakBadgeID returns the badge identifier for a milestone length.
func StreakBadgeID(days int) string {
	switch days {
	case 7:
		return "streak_7"
	case 30:
		return "streak_30"
	case 100:
		return "streak_100"
	}
	return ""
}
