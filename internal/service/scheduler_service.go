package service

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Module-derived protocols get a slot from a fixed heuristic; protocol
// enrollments carry their own preferred time.
const (
	slotMorning = "08:00"
	slotMidday  = "12:00"
	slotEvening = "20:00"
)

// --- Service Interface ---

// SchedulerService builds one user's task list for one date.
type SchedulerService interface {
	// BuildDayForUser merges the user's protocol- and module-level
	// enrollments into a deduplicated task list for the date, applies the
	// MVD filter, and upserts every task under its natural key. Rerunning
	// for the same date overwrites, never duplicates. Returns the number
	// of tasks written.
	BuildDayForUser(ctx context.Context, userID primitive.ObjectID, date string) (int, error)

	GetSchedule(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.DailyTask, error)
}

// --- Service Implementation ---

type schedulerService struct {
	protocolEnrRepo repository.ProtocolEnrollmentRepository
	moduleEnrRepo   repository.ModuleEnrollmentRepository
	protocolRepo    repository.ProtocolRepository
	taskRepo        repository.TaskRepository
	mvdService      MVDService
}

func NewSchedulerService(
	protocolEnrRepo repository.ProtocolEnrollmentRepository,
	moduleEnrRepo repository.ModuleEnrollmentRepository,
	protocolRepo repository.ProtocolRepository,
	taskRepo repository.TaskRepository,
	mvdService MVDService,
) SchedulerService {
	return &schedulerService{
		protocolEnrRepo: protocolEnrRepo,
		moduleEnrRepo:   moduleEnrRepo,
		protocolRepo:    protocolRepo,
		taskRepo:        taskRepo,
		mvdService:      mvdService,
	}
}

func (s *schedulerService) BuildDayForUser(ctx context.Context, userID primitive.ObjectID, date string) (int, error) {
	if userID.IsZero() {
		return 0, ErrMissingUserID
	}
	dayStart, err := domain.ParseDate(date)
	if err != nil {
		return 0, ErrInvalidDate
	}

	// MVD resolution comes first; the passes below read its verdict.
	mvd, err := s.mvdService.Resolve(ctx, userID, date)
	if err != nil {
		return 0, fmt.Errorf("resolve MVD state: %w", err)
	}

	var tasks []domain.DailyTask
	seen := make(map[primitive.ObjectID]bool)
	now := time.Now().UTC()

	// First pass: protocol-level enrollments. These carry their own time
	// and take priority over module-derived entries for the same protocol.
	protocolEnrollments, err := s.protocolEnrRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load protocol enrollments: %w", err)
	}

	refs, err := s.protocolRefs(ctx, protocolEnrollments)
	if err != nil {
		return 0, err
	}

	for _, enr := range protocolEnrollments {
		protocol, ok := refs[enr.ProtocolID]
		if !ok {
			// Missing reference data is a per-item skip, not a batch failure.
			log.Printf("WARN: protocol %s enrolled by user %s has no reference data, skipping", enr.ProtocolID.Hex(), userID.Hex())
			continue
		}
		if mvd.Active && !MVDAllows(mvd.Type, protocol.ID, protocol.Category) {
			continue
		}

		tasks = append(tasks, domain.DailyTask{
			ID:              domain.DailyTaskID(userID, protocol.ID, date),
			UserID:          userID,
			ProtocolID:      protocol.ID,
			ModuleID:        enr.ModuleID,
			Date:            date,
			ScheduledAt:     slotInstant(dayStart, enr.DefaultTimeOfDay),
			DurationMinutes: protocol.DurationMinutes,
			Status:          domain.TaskPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		seen[protocol.ID] = true
	}

	// Second pass: expand module enrollments, skipping anything already
	// scheduled directly. First seen wins.
	moduleEnrollments, err := s.moduleEnrRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load module enrollments: %w", err)
	}

	for _, enr := range moduleEnrollments {
		module, err := s.protocolRepo.GetModuleByID(ctx, enr.ModuleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("WARN: module %s enrolled by user %s has no reference data, skipping", enr.ModuleID.Hex(), userID.Hex())
				continue
			}
			return 0, fmt.Errorf("load module %s: %w", enr.ModuleID.Hex(), err)
		}

		protocols, err := s.protocolRepo.GetByIDs(ctx, module.ProtocolIDs)
		if err != nil {
			return 0, fmt.Errorf("load protocols for module %s: %w", module.ID.Hex(), err)
		}

		moduleID := enr.ModuleID
		for _, protocol := range protocols {
			if seen[protocol.ID] {
				continue
			}
			if mvd.Active && !MVDAllows(mvd.Type, protocol.ID, protocol.Category) {
				continue
			}

			tasks = append(tasks, domain.DailyTask{
				ID:              domain.DailyTaskID(userID, protocol.ID, date),
				UserID:          userID,
				ProtocolID:      protocol.ID,
				ModuleID:        &moduleID,
				Date:            date,
				ScheduledAt:     slotInstant(dayStart, moduleSlot(&protocol)),
				DurationMinutes: protocol.DurationMinutes,
				Status:          domain.TaskPending,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			seen[protocol.ID] = true
		}
	}

	if len(tasks) == 0 {
		return 0, nil
	}
	if err := s.taskRepo.BulkUpsert(ctx, tasks); err != nil {
		return 0, fmt.Errorf("write tasks: %w", err)
	}
	return len(tasks), nil
}

func (s *schedulerService) GetSchedule(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.DailyTask, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, ErrInvalidDate
	}
	return s.taskRepo.GetByUserAndDate(ctx, userID, date)
}

// protocolRefs resolves the reference data for a set of enrollments in
// one query.
func (s *schedulerService) protocolRefs(ctx context.Context, enrollments []domain.ProtocolEnrollment) (map[primitive.ObjectID]*domain.Protocol, error) {
	ids := make([]primitive.ObjectID, 0, len(enrollments))
	for _, enr := range enrollments {
		ids = append(ids, enr.ProtocolID)
	}

	protocols, err := s.protocolRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load protocol reference data: %w", err)
	}

	refs := make(map[primitive.ObjectID]*domain.Protocol, len(protocols))
	for i := range protocols {
		refs[protocols[i].ID] = &protocols[i]
	}
	return refs, nil
}

// moduleSlot picks the heuristic time for a module-derived protocol:
// foundation work and anything "morning" at 08:00, wind-down protocols at
// 20:00, everything else midday.
func moduleSlot(p *domain.Protocol) string {
	name := strings.ToLower(p.Name)
	if p.Category == domain.CategoryFoundation || strings.Contains(name, "morning") {
		return slotMorning
	}
	if strings.Contains(name, "evening") || strings.Contains(name, "sleep") {
		return slotEvening
	}
	return slotMidday
}

// slotInstant anchors an HH:MM slot on the run date. A malformed slot
// falls back to midday rather than dropping the task.
func slotInstant(dayStart time.Time, slot string) time.Time {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		t, _ = time.Parse("15:04", slotMidday)
	}
	return dayStart.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}
