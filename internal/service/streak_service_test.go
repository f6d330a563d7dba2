package service

import (
	"alcyxob/wellness-app/internal/domain"
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type streakFixture struct {
	svc              StreakService
	moduleEnrRepo    *memModuleEnrRepo
	protocolRepo     *memProtocolRepo
	taskRepo         *memTaskRepo
	badgeRepo        *memBadgeRepo
	notificationRepo *memNotificationRepo
}

func newStreakFixture() *streakFixture {
	f := &streakFixture{
		moduleEnrRepo:    newMemModuleEnrRepo(),
		protocolRepo:     newMemProtocolRepo(),
		taskRepo:         newMemTaskRepo(),
		badgeRepo:        newMemBadgeRepo(),
		notificationRepo: newMemNotificationRepo(),
	}
	f.svc = NewStreakService(f.moduleEnrRepo, f.protocolRepo, f.taskRepo, f.badgeRepo, f.notificationRepo)
	return f
}

func at(date string) time.Time {
	t, _ := domain.ParseDate(date)
	return t.Add(9 * time.Hour)
}

// TestLogCompletionBootstrap: the first completion starts the streak at 1.
func TestLogCompletionBootstrap(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	f.moduleEnrRepo.add(domain.ModuleEnrollment{UserID: userID, ModuleID: module.ID})

	enr, err := f.svc.LogCompletion(context.Background(), userID, primitive.NewObjectID(), module.ID, at("2025-06-10"))
	if err != nil {
		t.Fatalf("LogCompletion returned error: %v", err)
	}
	if enr.CurrentStreak != 1 || enr.LongestStreak != 1 {
		t.Fatalf("expected streak 1/1, got %d/%d", enr.CurrentStreak, enr.LongestStreak)
	}
	if enr.LastActiveDate != "2025-06-10" {
		t.Fatalf("expected last active 2025-06-10, got %s", enr.LastActiveDate)
	}
}

// TestLogCompletionSameDayIdempotent: re-logging the same day changes
// nothing.
func TestLogCompletionSameDayIdempotent(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	protocolID := primitive.NewObjectID()
	f.moduleEnrRepo.add(domain.ModuleEnrollment{UserID: userID, ModuleID: module.ID})
	ctx := context.Background()

	if _, err := f.svc.LogCompletion(ctx, userID, protocolID, module.ID, at("2025-06-10")); err != nil {
		t.Fatalf("first log: %v", err)
	}
	enr, err := f.svc.LogCompletion(ctx, userID, protocolID, module.ID, at("2025-06-10"))
	if err != nil {
		t.Fatalf("second log: %v", err)
	}
	if enr.CurrentStreak != 1 {
		t.Fatalf("same-day re-log changed streak to %d", enr.CurrentStreak)
	}
}

// TestLogCompletionNextDayIncrements and tracks the longest streak.
func TestLogCompletionNextDayIncrements(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 4, LongestStreak: 9, LastActiveDate: "2025-06-09",
	})

	enr, err := f.svc.LogCompletion(context.Background(), userID, primitive.NewObjectID(), module.ID, at("2025-06-10"))
	if err != nil {
		t.Fatalf("LogCompletion returned error: %v", err)
	}
	if enr.CurrentStreak != 5 {
		t.Fatalf("expected streak 5, got %d", enr.CurrentStreak)
	}
	if enr.LongestStreak != 9 {
		t.Fatalf("longest should stay 9, got %d", enr.LongestStreak)
	}
}

// TestLogCompletionOutOfOrderIgnored: an event older than the stored
// active date is a no-op rather than a rejection.
func TestLogCompletionOutOfOrderIgnored(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 3, LongestStreak: 3, LastActiveDate: "2025-06-10",
	})

	enr, err := f.svc.LogCompletion(context.Background(), userID, primitive.NewObjectID(), module.ID, at("2025-06-08"))
	if err != nil {
		t.Fatalf("LogCompletion returned error: %v", err)
	}
	if enr.CurrentStreak != 3 || enr.LastActiveDate != "2025-06-10" {
		t.Fatalf("stale event mutated state: %+v", enr)
	}
}

// TestLogCompletionAwardsMilestoneBadgeOnce: reaching 7 awards the badge,
// and a later identical milestone check does not duplicate it.
func TestLogCompletionAwardsMilestoneBadgeOnce(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 6, LongestStreak: 6, LastActiveDate: "2025-06-09",
	})
	ctx := context.Background()

	if _, err := f.svc.LogCompletion(ctx, userID, primitive.NewObjectID(), module.ID, at("2025-06-10")); err != nil {
		t.Fatalf("LogCompletion returned error: %v", err)
	}
	held, _ := f.badgeRepo.Has(ctx, userID, "streak_7")
	if !held {
		t.Fatalf("expected streak_7 badge to be awarded")
	}
}

// TestLogCompletionMarksTask: the matching daily task flips to completed.
func TestLogCompletionMarksTask(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	protocolID := primitive.NewObjectID()
	f.moduleEnrRepo.add(domain.ModuleEnrollment{UserID: userID, ModuleID: module.ID})
	ctx := context.Background()

	taskID := domain.DailyTaskID(userID, protocolID, "2025-06-10")
	_ = f.taskRepo.BulkUpsert(ctx, []domain.DailyTask{{
		ID: taskID, UserID: userID, ProtocolID: protocolID,
		Date: "2025-06-10", Status: domain.TaskPending,
	}})

	if _, err := f.svc.LogCompletion(ctx, userID, protocolID, module.ID, at("2025-06-10")); err != nil {
		t.Fatalf("LogCompletion returned error: %v", err)
	}

	tasks, _ := f.taskRepo.GetByUserAndDate(ctx, userID, "2025-06-10")
	if tasks[0].Status != domain.TaskCompleted {
		t.Fatalf("task status = %s, want completed", tasks[0].Status)
	}
}

// TestLogCompletionRejectsMissingIDs covers the invariant-violation path.
func TestLogCompletionRejectsMissingIDs(t *testing.T) {
	f := newStreakFixture()
	_, err := f.svc.LogCompletion(context.Background(), primitive.NilObjectID, primitive.NewObjectID(), primitive.NewObjectID(), time.Now())
	if err != ErrInvalidCompletion {
		t.Fatalf("expected ErrInvalidCompletion, got %v", err)
	}
}

// TestSweepConsumesFreeze: a missed day with the token in hand preserves
// the counter, burns the token, and emits one preserved event.
func TestSweepConsumesFreeze(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	enr := f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 12, LongestStreak: 12,
		LastActiveDate: "2025-06-08", StreakFreezeAvailable: true,
	})

	summary, err := f.svc.RunNightlySweep(context.Background(), "2025-06-10")
	if err != nil {
		t.Fatalf("RunNightlySweep returned error: %v", err)
	}
	if summary.Preserved != 1 || summary.Reset != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	stored, _ := f.moduleEnrRepo.GetByID(context.Background(), enr.ID)
	if stored.CurrentStreak != 12 {
		t.Fatalf("freeze should preserve the streak, got %d", stored.CurrentStreak)
	}
	if stored.StreakFreezeAvailable {
		t.Fatalf("freeze token should be consumed")
	}
	if stored.StreakFreezeUsedDate != "2025-06-10" {
		t.Fatalf("freeze used date = %s, want 2025-06-10", stored.StreakFreezeUsedDate)
	}
	if stored.LastActiveDate != "2025-06-09" {
		t.Fatalf("last active should advance to yesterday only, got %s", stored.LastActiveDate)
	}

	events := f.notificationRepo.ofKind(domain.NotifyStreakPreserved)
	if len(events) != 1 {
		t.Fatalf("expected exactly one preserved event, got %d", len(events))
	}
}

// TestSweepResetsWithoutFreeze: no token means the counter goes to zero
// and a lapse-recovery event is emitted.
func TestSweepResetsWithoutFreeze(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	enr := f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 12, LongestStreak: 12,
		LastActiveDate: "2025-06-08", StreakFreezeAvailable: false,
	})

	summary, err := f.svc.RunNightlySweep(context.Background(), "2025-06-10")
	if err != nil {
		t.Fatalf("RunNightlySweep returned error: %v", err)
	}
	if summary.Reset != 1 || summary.Preserved != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	stored, _ := f.moduleEnrRepo.GetByID(context.Background(), enr.ID)
	if stored.CurrentStreak != 0 {
		t.Fatalf("expected reset to 0, got %d", stored.CurrentStreak)
	}
	if stored.LongestStreak != 12 {
		t.Fatalf("longest streak must survive a reset, got %d", stored.LongestStreak)
	}

	events := f.notificationRepo.ofKind(domain.NotifyLapseRecovery)
	if len(events) != 1 {
		t.Fatalf("expected exactly one lapse event, got %d", len(events))
	}
}

// TestSweepLeavesIntactStreaks: activity yesterday needs no action.
func TestSweepLeavesIntactStreaks(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	enr := f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 5, LongestStreak: 5,
		LastActiveDate: "2025-06-09", StreakFreezeAvailable: true,
	})

	summary, err := f.svc.RunNightlySweep(context.Background(), "2025-06-10")
	if err != nil {
		t.Fatalf("RunNightlySweep returned error: %v", err)
	}
	if summary.Preserved != 0 || summary.Reset != 0 {
		t.Fatalf("intact streak was touched: %+v", summary)
	}

	stored, _ := f.moduleEnrRepo.GetByID(context.Background(), enr.ID)
	if stored.CurrentStreak != 5 || !stored.StreakFreezeAvailable {
		t.Fatalf("intact streak mutated: %+v", stored)
	}
	if f.notificationRepo.creates != 0 {
		t.Fatalf("no events expected, got %d", f.notificationRepo.creates)
	}
}

// TestSweepRetryEmitsOnce: a rerun for the same date collapses onto the
// same deterministic event ID.
func TestSweepRetryEmitsOnce(t *testing.T) {
	f := newStreakFixture()
	userID := primitive.NewObjectID()
	module := f.protocolRepo.addModule("Sleep")
	f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: userID, ModuleID: module.ID,
		CurrentStreak: 12, LongestStreak: 12,
		LastActiveDate: "2025-06-08", StreakFreezeAvailable: false,
	})
	ctx := context.Background()

	if _, err := f.svc.RunNightlySweep(ctx, "2025-06-10"); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	// The enrollment is now at zero, so the rerun scans nothing new; even
	// if the same decision were re-made, the event ID would match.
	if _, err := f.svc.RunNightlySweep(ctx, "2025-06-10"); err != nil {
		t.Fatalf("second sweep: %v", err)
	}

	events := f.notificationRepo.ofKind(domain.NotifyLapseRecovery)
	if len(events) != 1 {
		t.Fatalf("expected one lapse event after retry, got %d", len(events))
	}
}

// TestReplenishFreezes restores every token unconditionally.
func TestReplenishFreezes(t *testing.T) {
	f := newStreakFixture()
	module := f.protocolRepo.addModule("Sleep")
	a := f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: primitive.NewObjectID(), ModuleID: module.ID,
		StreakFreezeAvailable: false, StreakFreezeUsedDate: "2025-06-03",
	})
	b := f.moduleEnrRepo.add(domain.ModuleEnrollment{
		UserID: primitive.NewObjectID(), ModuleID: module.ID,
		StreakFreezeAvailable: true,
	})

	n, err := f.svc.ReplenishFreezes(context.Background())
	if err != nil {
		t.Fatalf("ReplenishFreezes returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows touched, got %d", n)
	}

	for _, id := range []primitive.ObjectID{a.ID, b.ID} {
		stored, _ := f.moduleEnrRepo.GetByID(context.Background(), id)
		if !stored.StreakFreezeAvailable || stored.StreakFreezeUsedDate != "" {
			t.Fatalf("enrollment %s not replenished: %+v", id.Hex(), stored)
		}
	}
}
