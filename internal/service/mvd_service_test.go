package service

import (
	"alcyxob/wellness-app/internal/domain"
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fixedMVDService(mvdRepo *memMVDRepo, metricsRepo *memMetricsRepo, now time.Time) *mvdService {
	return &mvdService{
		mvdRepo:     mvdRepo,
		metricsRepo: metricsRepo,
		now:         func() time.Time { return now },
	}
}

// TestResolveHeavyDayActivates ensures a heavy calendar day turns into a
// persisted heavy_calendar MVD that expires with the day.
func TestResolveHeavyDayActivates(t *testing.T) {
	mvdRepo := newMemMVDRepo()
	metricsRepo := newMemMetricsRepo()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	now := time.Date(2025, 6, 10, 0, 5, 0, 0, time.UTC)
	svc := fixedMVDService(mvdRepo, metricsRepo, now)

	_ = metricsRepo.Upsert(ctx, &domain.DailyCalendarMetrics{
		UserID: userID, Date: "2025-06-10", TotalBusyHours: 5, HeavyDay: true,
	})

	state, err := svc.Resolve(ctx, userID, "2025-06-10")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !state.Active || state.Type != domain.MVDHeavyCalendar {
		t.Fatalf("expected active heavy_calendar, got %+v", state)
	}
	want := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	if !state.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, state.ExpiresAt)
	}

	stored, err := mvdRepo.GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("state was not persisted: %v", err)
	}
	if stored.Type != domain.MVDHeavyCalendar {
		t.Fatalf("persisted state has wrong type: %+v", stored)
	}

	m, _ := metricsRepo.GetByUserAndDate(ctx, userID, "2025-06-10")
	if !m.MVDActivated {
		t.Fatalf("metrics row should be flagged mvdActivated")
	}
}

// TestResolveIsStableForTheDay ensures a second resolution returns the
// already-persisted verdict instead of re-deriving it.
func TestResolveIsStableForTheDay(t *testing.T) {
	mvdRepo := newMemMVDRepo()
	metricsRepo := newMemMetricsRepo()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	now := time.Date(2025, 6, 10, 0, 5, 0, 0, time.UTC)
	svc := fixedMVDService(mvdRepo, metricsRepo, now)

	_ = metricsRepo.Upsert(ctx, &domain.DailyCalendarMetrics{
		UserID: userID, Date: "2025-06-10", TotalBusyHours: 5, HeavyDay: true,
	})

	if _, err := svc.Resolve(ctx, userID, "2025-06-10"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// A mid-day re-sync flips the metrics light; the verdict must not flip.
	_ = metricsRepo.Upsert(ctx, &domain.DailyCalendarMetrics{
		UserID: userID, Date: "2025-06-10", TotalBusyHours: 1,
	})

	state, err := svc.Resolve(ctx, userID, "2025-06-10")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !state.Active || state.Type != domain.MVDHeavyCalendar {
		t.Fatalf("verdict flipped mid-day: %+v", state)
	}
	if mvdRepo.upserts != 1 {
		t.Fatalf("expected exactly 1 state write, got %d", mvdRepo.upserts)
	}
}

// TestResolveExternalTriggerWins ensures an externally-asserted trigger
// is not overwritten by the heavy-calendar derivation.
func TestResolveExternalTriggerWins(t *testing.T) {
	mvdRepo := newMemMVDRepo()
	metricsRepo := newMemMetricsRepo()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	svc := fixedMVDService(mvdRepo, metricsRepo, now)

	if _, err := svc.AssertTrigger(ctx, userID, domain.MVDTravel, now.Add(48*time.Hour)); err != nil {
		t.Fatalf("AssertTrigger returned error: %v", err)
	}
	_ = metricsRepo.Upsert(ctx, &domain.DailyCalendarMetrics{
		UserID: userID, Date: "2025-06-10", TotalBusyHours: 7, HeavyDay: true, Overload: true,
	})

	state, err := svc.Resolve(ctx, userID, "2025-06-10")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if state.Type != domain.MVDTravel {
		t.Fatalf("external trigger should win, got %s", state.Type)
	}
}

// TestResolveNoMetricsInactive covers the no-calendar-connected case.
func TestResolveNoMetricsInactive(t *testing.T) {
	svc := fixedMVDService(newMemMVDRepo(), newMemMetricsRepo(), time.Now().UTC())

	state, err := svc.Resolve(context.Background(), primitive.NewObjectID(), "2025-06-10")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if state.Active {
		t.Fatalf("no metrics should mean no MVD: %+v", state)
	}
}

// TestAssertTriggerValidation rejects unknown and internal-only types.
func TestAssertTriggerValidation(t *testing.T) {
	svc := fixedMVDService(newMemMVDRepo(), newMemMetricsRepo(), time.Now().UTC())
	userID := primitive.NewObjectID()
	ctx := context.Background()

	if _, err := svc.AssertTrigger(ctx, userID, "vacation", time.Time{}); err != ErrUnknownMVDType {
		t.Fatalf("expected ErrUnknownMVDType, got %v", err)
	}
	if _, err := svc.AssertTrigger(ctx, userID, domain.MVDHeavyCalendar, time.Time{}); err != ErrInternalTrigger {
		t.Fatalf("expected ErrInternalTrigger, got %v", err)
	}
}

// TestMVDAllows exercises the static allow-list.
func TestMVDAllows(t *testing.T) {
	protocolID := primitive.NewObjectID()

	tests := []struct {
		name     string
		trigger  domain.MVDType
		category domain.Category
		want     bool
	}{
		{"heavy calendar keeps foundation", domain.MVDHeavyCalendar, domain.CategoryFoundation, true},
		{"heavy calendar drops performance", domain.MVDHeavyCalendar, domain.CategoryPerformance, false},
		{"heavy calendar drops optimization", domain.MVDHeavyCalendar, domain.CategoryOptimization, false},
		{"low recovery keeps recovery", domain.MVDLowRecovery, domain.CategoryRecovery, true},
		{"low recovery drops performance", domain.MVDLowRecovery, domain.CategoryPerformance, false},
		{"travel keeps foundation", domain.MVDTravel, domain.CategoryFoundation, true},
		{"manual drops meta", domain.MVDManual, domain.CategoryMeta, false},
		{"unknown type falls back to foundation", domain.MVDType("future"), domain.CategoryFoundation, true},
		{"unknown type drops recovery", domain.MVDType("future"), domain.CategoryRecovery, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MVDAllows(tc.trigger, protocolID, tc.category); got != tc.want {
				t.Fatalf("MVDAllows(%s, %s) = %v, want %v", tc.trigger, tc.category, got, tc.want)
			}
		})
	}
}
