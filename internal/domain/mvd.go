package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MVDType names the trigger behind a Minimum Viable Day. Only
// MVDHeavyCalendar is derived inside this service; the rest are asserted
// by external collaborators and consumed as-is.
type MVDType string

const (
	MVDManual          MVDType = "manual"
	MVDLowRecovery     MVDType = "low_recovery"
	MVDTravel          MVDType = "travel"
	MVDHeavyCalendar   MVDType = "heavy_calendar"
	MVDConsistencyDrop MVDType = "consistency_drop"
)

// KnownMVDTypes enumerates every recognized trigger. Adding a type means
// extending this set and the gate's allow-list table together.
var KnownMVDTypes = map[MVDType]bool{
	MVDManual:          true,
	MVDLowRecovery:     true,
	MVDTravel:          true,
	MVDHeavyCalendar:   true,
	MVDConsistencyDrop: true,
}

// MVDState is the current reduced-day verdict for a user. One logical
// document per user, upserted so repeat resolutions for the same day
// converge on the same answer.
type MVDState struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Active      bool               `bson:"active" json:"active"`
	Type        MVDType            `bson:"type,omitempty" json:"type,omitempty"`
	ActivatedAt time.Time          `bson:"activatedAt,omitempty" json:"activatedAt,omitempty"`
	ExpiresAt   time.Time          `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EffectiveAt reports whether the state is active at the given instant,
// treating a zero ExpiresAt as non-expiring.
func (s *MVDState) EffectiveAt(t time.Time) bool {
	if s == nil || !s.Active {
		return false
	}
	if !s.ExpiresAt.IsZero() && !t.Before(s.ExpiresAt) {
		return false
	}
	return true
}
