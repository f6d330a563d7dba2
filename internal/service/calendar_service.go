package service

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD format")
	ErrMissingUserID = errors.New("user ID is required")
)

// Classification thresholds. The tiers are monotone in total busy hours:
// light < 2h <= moderate < 4h <= heavy < 6h <= overload.
const (
	moderateThresholdHours = 2.0
	heavyDayThresholdHours = 4.0
	overloadThresholdHours = 6.0

	// Adjacent blocks closer than this count as back-to-back.
	backToBackGap = 15 * time.Minute

	// Density is meeting count over a nominal 9-hour workday.
	nominalWorkdayHours = 9.0
)

// ClassifyBusyBlocks turns a day's busy blocks into calendar metrics.
// Pure: no clock, no storage. Blocks with zero or inverted timestamps are
// skipped rather than failing the day, and an empty day yields the
// canonical all-zero metrics.
func ClassifyBusyBlocks(userID primitive.ObjectID, date string, blocks []domain.BusyBlock, provider string) domain.DailyCalendarMetrics {
	valid := make([]domain.BusyBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Start.IsZero() || b.End.IsZero() {
			continue
		}
		if !b.End.After(b.Start) {
			continue
		}
		valid = append(valid, b)
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Start.Before(valid[j].Start) })

	var totalHours float64
	for _, b := range valid {
		totalHours += b.End.Sub(b.Start).Hours()
	}

	backToBack := 0
	for i := 1; i < len(valid); i++ {
		if valid[i].Start.Sub(valid[i-1].End) < backToBackGap {
			backToBack++
		}
	}

	m := domain.DailyCalendarMetrics{
		UserID:          userID,
		Date:            date,
		TotalBusyHours:  totalHours,
		MeetingCount:    len(valid),
		BackToBackCount: backToBack,
		Density:         float64(len(valid)) / nominalWorkdayHours,
		Load:            loadTier(totalHours),
		HeavyDay:        totalHours >= heavyDayThresholdHours,
		Overload:        totalHours >= overloadThresholdHours,
		Provider:        provider,
	}
	return m
}

func loadTier(totalHours float64) domain.DayLoad {
	switch {
	case totalHours < moderateThresholdHours:
		return domain.LoadLight
	case totalHours < heavyDayThresholdHours:
		return domain.LoadModerate
	case totalHours < overloadThresholdHours:
		return domain.LoadHeavy
	default:
		return domain.LoadOverload
	}
}

// --- Service Interface ---

// CalendarService classifies a user's day and persists the verdict.
type CalendarService interface {
	// SyncDay classifies the blocks and upserts the metrics for
	// (user, date). Re-syncing the same day overwrites the previous row.
	SyncDay(ctx context.Context, userID primitive.ObjectID, date string, blocks []domain.BusyBlock, provider string) (*domain.DailyCalendarMetrics, error)
	GetMetrics(ctx context.Context, userID primitive.ObjectID, date string) (*domain.DailyCalendarMetrics, error)
}

// --- Service Implementation ---

type calendarService struct {
	metricsRepo repository.MetricsRepository
}

func NewCalendarService(metricsRepo repository.MetricsRepository) CalendarService {
	return &calendarService{metricsRepo: metricsRepo}
}

func (s *calendarService) SyncDay(ctx context.Context, userID primitive.ObjectID, date string, blocks []domain.BusyBlock, provider string) (*domain.DailyCalendarMetrics, error) {
	if userID.IsZero() {
		return nil, ErrMissingUserID
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}

	metrics := ClassifyBusyBlocks(userID, date, blocks, provider)
	if err := s.metricsRepo.Upsert(ctx, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (s *calendarService) GetMetrics(ctx context.Context, userID primitive.ObjectID, date string) (*domain.DailyCalendarMetrics, error) {
	return s.metricsRepo.GetByUserAndDate(ctx, userID, date)
}
