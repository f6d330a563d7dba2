package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BusyBlock is a calendar occupancy interval. Start and end only: titles,
// attendees and locations must never reach this service.
type BusyBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayLoad is the severity tier derived from total busy hours.
type DayLoad string

const (
	LoadLight    DayLoad = "light"
	LoadModerate DayLoad = "moderate"
	LoadHeavy    DayLoad = "heavy"
	LoadOverload DayLoad = "overload"
)

// DailyCalendarMetrics is the classifier's verdict for one user on one
// date. Upserted by the calendar sync, read by the MVD gate and the
// analytics export.
type DailyCalendarMetrics struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Date            string             `bson:"date" json:"date"` // YYYY-MM-DD
	TotalBusyHours  float64            `bson:"totalBusyHours" json:"totalBusyHours"`
	MeetingCount    int                `bson:"meetingCount" json:"meetingCount"`
	BackToBackCount int                `bson:"backToBackCount" json:"backToBackCount"`
	Density         float64            `bson:"density" json:"density"`
	Load            DayLoad            `bson:"load" json:"load"`
	HeavyDay        bool               `bson:"heavyDay" json:"heavyDay"`
	Overload        bool               `bson:"overload" json:"overload"`
	MVDActivated    bool               `bson:"mvdActivated" json:"mvdActivated"`
	Provider        string             `bson:"provider,omitempty" json:"provider,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DateLayout is the calendar-date format used for every day-keyed record.
const DateLayout = "2006-01-02"

// DateOf truncates an instant to its UTC calendar date string.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
