package service

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEnrollmentNotFound = errors.New("module enrollment not found")
	ErrInvalidCompletion  = errors.New("completion event is missing user or module identifiers")
)

// SweepSummary reports what a nightly streak sweep did.
type SweepSummary struct {
	Scanned   int
	Preserved int
	Reset     int
	Failed    int
}

// --- Service Interface ---

// StreakService owns the streak state machine: the per-completion hook,
// the nightly sweep, and the weekly freeze replenishment.
type StreakService interface {
	// LogCompletion advances the streak for a completion event. The hook
	// is monotone: it never decreases a streak, re-logging the same day
	// is a no-op, and resets are left to the nightly sweep so that
	// out-of-order event delivery is never punished.
	LogCompletion(ctx context.Context, userID, protocolID, moduleID primitive.ObjectID, loggedAt time.Time) (*domain.ModuleEnrollment, error)

	// RunNightlySweep walks every enrollment with a live streak and
	// decides, once for the run date, whether a broken cadence is
	// forgiven (freeze consumed) or reset. Per-enrollment failures are
	// isolated; the sweep always finishes the batch.
	RunNightlySweep(ctx context.Context, runDate string) (SweepSummary, error)

	// ReplenishFreezes unconditionally restores every enrollment's freeze
	// token. Scheduled weekly.
	ReplenishFreezes(ctx context.Context) (int64, error)
}

// --- Service Implementation ---

type streakService struct {
	moduleEnrRepo    repository.ModuleEnrollmentRepository
	protocolRepo     repository.ProtocolRepository
	taskRepo         repository.TaskRepository
	badgeRepo        repository.BadgeRepository
	notificationRepo repository.NotificationRepository
}

func NewStreakService(
	moduleEnrRepo repository.ModuleEnrollmentRepository,
	protocolRepo repository.ProtocolRepository,
	taskRepo repository.TaskRepository,
	badgeRepo repository.BadgeRepository,
	notificationRepo repository.NotificationRepository,
) StreakService {
	return &streakService{
		moduleEnrRepo:    moduleEnrRepo,
		protocolRepo:     protocolRepo,
		taskRepo:         taskRepo,
		badgeRepo:        badgeRepo,
		notificationRepo: notificationRepo,
	}
}

func (s *streakService) LogCompletion(ctx context.Context, userID, protocolID, moduleID primitive.ObjectID, loggedAt time.Time) (*domain.ModuleEnrollment, error) {
	if userID.IsZero() || moduleID.IsZero() {
		return nil, ErrInvalidCompletion
	}

	enr, err := s.moduleEnrRepo.GetByUserAndModule(ctx, userID, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}

	logDate := domain.DateOf(loggedAt)

	// Mark the matching daily task done. The task may be absent (the
	// event can arrive before the nightly build, or for an ad hoc
	// completion); that is not an error.
	if !protocolID.IsZero() {
		taskID := domain.DailyTaskID(userID, protocolID, logDate)
		if err := s.taskRepo.UpdateStatus(ctx, taskID, domain.TaskCompleted); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	next, changed := nextStreak(enr.CurrentStreak, enr.LastActiveDate, logDate)
	if !changed {
		return enr, nil
	}

	enr.CurrentStreak = next
	if next > enr.LongestStreak {
		enr.LongestStreak = next
	}
	if logDate > enr.LastActiveDate {
		enr.LastActiveDate = logDate
	}
	enr.ProgressPct = s.moduleProgress(ctx, enr, logDate)

	if err := s.moduleEnrRepo.UpdateStreak(ctx, enr); err != nil {
		return nil, err
	}

	s.maybeAwardBadge(ctx, enr, next)
	return enr, nil
}

// nextStreak computes the hook's monotone transition. Gap-day logs still
// advance the counter; whether the gap was a real lapse is the sweep's
// call, made once per day with the freeze token in hand.
func nextStreak(current int, lastActive, logDate string) (next int, changed bool) {
	if lastActive == "" {
		return current + 1, true
	}
	if logDate <= lastActive {
		// Same-day re-log, or an event older than what we already
		// counted. Idempotent no-op either way.
		return current, false
	}
	return current + 1, true
}

// moduleProgress is completed tasks for the module today over the
// module's protocol count, clamped to 1. Best effort: a read failure
// keeps the previous value rather than failing the completion.
func (s *streakService) moduleProgress(ctx context.Context, enr *domain.ModuleEnrollment, date string) float64 {
	module, err := s.protocolRepo.GetModuleByID(ctx, enr.ModuleID)
	if err != nil || len(module.ProtocolIDs) == 0 {
		return enr.ProgressPct
	}

	tasks, err := s.taskRepo.GetByUserAndDate(ctx, enr.UserID, date)
	if err != nil {
		return enr.ProgressPct
	}

	inModule := make(map[primitive.ObjectID]bool, len(module.ProtocolIDs))
	for _, id := range module.ProtocolIDs {
		inModule[id] = true
	}

	completed := 0
	for _, task := range tasks {
		if task.Status == domain.TaskCompleted && inModule[task.ProtocolID] {
			completed++
		}
	}

	pct := float64(completed) / float64(len(module.ProtocolIDs))
	if pct > 1 {
		pct = 1
	}
	return pct
}

func (s *streakService) maybeAwardBadge(ctx context.Context, enr *domain.ModuleEnrollment, streak int) {
	badgeID := domain.StreakBadgeID(streak)
	if badgeID == "" {
		return
	}

	held, err := s.badgeRepo.Has(ctx, enr.UserID, badgeID)
	if err != nil {
		log.Printf("ERROR: badge lookup for user %s: %v", enr.UserID.Hex(), err)
		return
	}
	if held {
		return
	}

	badge := &domain.Badge{
		UserID:    enr.UserID,
		BadgeID:   badgeID,
		ModuleID:  enr.ModuleID,
		AwardedAt: time.Now().UTC(),
	}
	if err := s.badgeRepo.Award(ctx, badge); err != nil {
		log.Printf("ERROR: badge award %s for user %s: %v", badgeID, enr.UserID.Hex(), err)
	}
}

func (s *streakService) RunNightlySweep(ctx context.Context, runDate string) (SweepSummary, error) {
	var summary SweepSummary

	runDay, err := domain.ParseDate(runDate)
	if err != nil {
		return summary, ErrInvalidDate
	}

	enrollments, err := s.moduleEnrRepo.GetWithActiveStreaks(ctx)
	if err != nil {
		return summary, fmt.Errorf("load enrollments for sweep: %w", err)
	}

	for i := range enrollments {
		summary.Scanned++
		outcome, err := s.sweepEnrollment(ctx, &enrollments[i], runDay, runDate)
		if err != nil {
			// Isolate and continue; the rest of the fleet still gets swept.
			summary.Failed++
			log.Printf("ERROR: streak sweep for enrollment %s: %v", enrollments[i].ID.Hex(), err)
			continue
		}
		switch outcome {
		case sweepPreserved:
			summary.Preserved++
		case sweepReset:
			summary.Reset++
		}
	}
	return summary, nil
}

type sweepOutcome int

const (
	sweepIntact sweepOutcome = iota
	sweepPreserved
	sweepReset
)

func (s *streakService) sweepEnrollment(ctx context.Context, enr *domain.ModuleEnrollment, runDay time.Time, runDate string) (sweepOutcome, error) {
	if enr.LastActiveDate == "" {
		// A live counter with no activity date is corrupt; leave it alone.
		return sweepIntact, fmt.Errorf("enrollment %s has streak %d but no last active date", enr.ID.Hex(), enr.CurrentStreak)
	}

	lastActive, err := domain.ParseDate(enr.LastActiveDate)
	if err != nil {
		return sweepIntact, fmt.Errorf("bad last active date %q: %w", enr.LastActiveDate, err)
	}

	elapsed := int(runDay.Sub(lastActive).Hours() / 24)
	if elapsed <= 1 {
		// Active today or yesterday: intact.
		return sweepIntact, nil
	}

	moduleName := s.moduleName(ctx, enr.ModuleID)

	if enr.StreakFreezeAvailable {
		// Consume the freeze: the counter survives, the token does not.
		// Last active advances only to yesterday, never further.
		enr.StreakFreezeAvailable = false
		enr.StreakFreezeUsedDate = runDate
		enr.LastActiveDate = domain.DateOf(runDay.AddDate(0, 0, -1))

		if err := s.moduleEnrRepo.UpdateStreak(ctx, enr); err != nil {
			return sweepIntact, err
		}

		s.emit(ctx, enr, runDate, domain.NotifyStreakPreserved,
			"Streak preserved",
			fmt.Sprintf("Your streak freeze kept your %d-day %s streak alive.", enr.CurrentStreak, moduleName))
		return sweepPreserved, nil
	}

	enr.CurrentStreak = 0
	if err := s.moduleEnrRepo.UpdateStreak(ctx, enr); err != nil {
		return sweepIntact, err
	}

	s.emit(ctx, enr, runDate, domain.NotifyLapseRecovery,
		"Pick it back up",
		fmt.Sprintf("Your %s streak reset. One session today starts a new one.", moduleName))
	return sweepReset, nil
}

func (s *streakService) moduleName(ctx context.Context, moduleID primitive.ObjectID) string {
	module, err := s.protocolRepo.GetModuleByID(ctx, moduleID)
	if err != nil {
		return "module"
	}
	return module.Name
}

// emit queues a notification with an ID derived from (enrollment, date,
// kind), so a retried sweep produces the same event exactly once.
func (s *streakService) emit(ctx context.Context, enr *domain.ModuleEnrollment, runDate string, kind domain.NotificationKind, title, body string) {
	seed := fmt.Sprintf("%s:%s:%s", enr.ID.Hex(), runDate, kind)
	n := &domain.Notification{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String(),
		UserID:    enr.UserID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("ERROR: queue %s notification for user %s: %v", kind, enr.UserID.Hex(), err)
	}
}

func (s *streakService) ReplenishFreezes(ctx context.Context) (int64, error) {
	return s.moduleEnrRepo.ReplenishFreezes(ctx)
}
