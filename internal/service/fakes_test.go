package service

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes backing the service tests. They implement
// the same natural-key semantics as the Mongo implementations.

type memMetricsRepo struct {
	byKey       map[string]*domain.DailyCalendarMetrics
	activations map[string]int
}

func newMemMetricsRepo() *memMetricsRepo {
	return &memMetricsRepo{
		byKey:       make(map[string]*domain.DailyCalendarMetrics),
		activations: make(map[string]int),
	}
}

func metricsKey(userID primitive.ObjectID, date string) string {
	return userID.Hex() + "_" + date
}

func (r *memMetricsRepo) Upsert(_ context.Context, m *domain.DailyCalendarMetrics) error {
	cp := *m
	r.byKey[metricsKey(m.UserID, m.Date)] = &cp
	return nil
}

func (r *memMetricsRepo) GetByUserAndDate(_ context.Context, userID primitive.ObjectID, date string) (*domain.DailyCalendarMetrics, error) {
	m, ok := r.byKey[metricsKey(userID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMetricsRepo) GetByDate(_ context.Context, date string) ([]domain.DailyCalendarMetrics, error) {
	var out []domain.DailyCalendarMetrics
	for _, m := range r.byKey {
		if m.Date == date {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMetricsRepo) MarkMVDActivated(_ context.Context, userID primitive.ObjectID, date string) error {
	m, ok := r.byKey[metricsKey(userID, date)]
	if !ok {
		return repository.ErrNotFound
	}
	m.MVDActivated = true
	r.activations[metricsKey(userID, date)]++
	return nil
}

type memMVDRepo struct {
	byUser  map[primitive.ObjectID]*domain.MVDState
	upserts int
}

func newMemMVDRepo() *memMVDRepo {
	return &memMVDRepo{byUser: make(map[primitive.ObjectID]*domain.MVDState)}
}

func (r *memMVDRepo) Upsert(_ context.Context, state *domain.MVDState) error {
	cp := *state
	r.byUser[state.UserID] = &cp
	r.upserts++
	return nil
}

func (r *memMVDRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.MVDState, error) {
	s, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type memModuleEnrRepo struct {
	byID map[primitive.ObjectID]*domain.ModuleEnrollment
}

func newMemModuleEnrRepo() *memModuleEnrRepo {
	return &memModuleEnrRepo{byID: make(map[primitive.ObjectID]*domain.ModuleEnrollment)}
}

func (r *memModuleEnrRepo) add(enr domain.ModuleEnrollment) *domain.ModuleEnrollment {
	if enr.ID.IsZero() {
		enr.ID = primitive.NewObjectID()
	}
	r.byID[enr.ID] = &enr
	return &enr
}

func (r *memModuleEnrRepo) Create(_ context.Context, enr *domain.ModuleEnrollment) (primitive.ObjectID, error) {
	enr.ID = primitive.NewObjectID()
	cp := *enr
	r.byID[enr.ID] = &cp
	return enr.ID, nil
}

func (r *memModuleEnrRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ModuleEnrollment, error) {
	enr, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *enr
	return &cp, nil
}

func (r *memModuleEnrRepo) GetByUserAndModule(_ context.Context, userID, moduleID primitive.ObjectID) (*domain.ModuleEnrollment, error) {
	for _, enr := range r.byID {
		if enr.UserID == userID && enr.ModuleID == moduleID {
			cp := *enr
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memModuleEnrRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.ModuleEnrollment, error) {
	var out []domain.ModuleEnrollment
	for _, enr := range r.byID {
		if enr.UserID == userID {
			out = append(out, *enr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *memModuleEnrRepo) GetWithActiveStreaks(_ context.Context) ([]domain.ModuleEnrollment, error) {
	var out []domain.ModuleEnrollment
	for _, enr := range r.byID {
		if enr.CurrentStreak > 0 {
			out = append(out, *enr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *memModuleEnrRepo) UpdateStreak(_ context.Context, enr *domain.ModuleEnrollment) error {
	stored, ok := r.byID[enr.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.CurrentStreak = enr.CurrentStreak
	stored.LongestStreak = enr.LongestStreak
	stored.LastActiveDate = enr.LastActiveDate
	stored.StreakFreezeAvailable = enr.StreakFreezeAvailable
	stored.StreakFreezeUsedDate = enr.StreakFreezeUsedDate
	stored.ProgressPct = enr.ProgressPct
	return nil
}

func (r *memModuleEnrRepo) ReplenishFreezes(_ context.Context) (int64, error) {
	var n int64
	for _, enr := range r.byID {
		enr.StreakFreezeAvailable = true
		enr.StreakFreezeUsedDate = ""
		n++
	}
	return n, nil
}

type memProtocolEnrRepo struct {
	rows map[string]*domain.ProtocolEnrollment
}

func newMemProtocolEnrRepo() *memProtocolEnrRepo {
	return &memProtocolEnrRepo{rows: make(map[string]*domain.ProtocolEnrollment)}
}

func protocolEnrKey(userID, protocolID primitive.ObjectID) string {
	return userID.Hex() + "_" + protocolID.Hex()
}

func (r *memProtocolEnrRepo) Upsert(_ context.Context, enr *domain.ProtocolEnrollment) error {
	key := protocolEnrKey(enr.UserID, enr.ProtocolID)
	if existing, ok := r.rows[key]; ok {
		existing.ModuleID = enr.ModuleID
		existing.DefaultTimeOfDay = enr.DefaultTimeOfDay
		existing.IsActive = enr.IsActive
		return nil
	}
	cp := *enr
	cp.ID = primitive.NewObjectID()
	r.rows[key] = &cp
	return nil
}

func (r *memProtocolEnrRepo) Deactivate(_ context.Context, userID, protocolID primitive.ObjectID) error {
	enr, ok := r.rows[protocolEnrKey(userID, protocolID)]
	if !ok {
		return repository.ErrNotFound
	}
	enr.IsActive = false
	return nil
}

func (r *memProtocolEnrRepo) GetActiveByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.ProtocolEnrollment, error) {
	var out []domain.ProtocolEnrollment
	for _, enr := range r.rows {
		if enr.UserID == userID && enr.IsActive {
			out = append(out, *enr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProtocolID.Hex() < out[j].ProtocolID.Hex() })
	return out, nil
}

type memProtocolRepo struct {
	protocols map[primitive.ObjectID]*domain.Protocol
	modules   map[primitive.ObjectID]*domain.Module
}

func newMemProtocolRepo() *memProtocolRepo {
	return &memProtocolRepo{
		protocols: make(map[primitive.ObjectID]*domain.Protocol),
		modules:   make(map[primitive.ObjectID]*domain.Module),
	}
}

func (r *memProtocolRepo) addProtocol(name string, category domain.Category, minutes int) *domain.Protocol {
	p := &domain.Protocol{ID: primitive.NewObjectID(), Name: name, Category: category, DurationMinutes: minutes}
	r.protocols[p.ID] = p
	return p
}

func (r *memProtocolRepo) addModule(name string, protocolIDs ...primitive.ObjectID) *domain.Module {
	m := &domain.Module{ID: primitive.NewObjectID(), Name: name, ProtocolIDs: protocolIDs}
	r.modules[m.ID] = m
	return m
}

func (r *memProtocolRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Protocol, error) {
	p, ok := r.protocols[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *memProtocolRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Protocol, error) {
	var out []domain.Protocol
	for _, id := range ids {
		if p, ok := r.protocols[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProtocolRepo) GetModuleByID(_ context.Context, id primitive.ObjectID) (*domain.Module, error) {
	m, ok := r.modules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

type memTaskRepo struct {
	byID map[string]domain.DailyTask
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{byID: make(map[string]domain.DailyTask)}
}

func (r *memTaskRepo) BulkUpsert(_ context.Context, tasks []domain.DailyTask) error {
	for _, task := range tasks {
		r.byID[task.ID] = task
	}
	return nil
}

func (r *memTaskRepo) GetByUserAndDate(_ context.Context, userID primitive.ObjectID, date string) ([]domain.DailyTask, error) {
	var out []domain.DailyTask
	for _, task := range r.byID {
		if task.UserID == userID && task.Date == date {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *memTaskRepo) UpdateStatus(_ context.Context, taskID string, status domain.TaskStatus) error {
	task, ok := r.byID[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	task.Status = status
	r.byID[taskID] = task
	return nil
}

type memBadgeRepo struct {
	held map[string]bool
}

func newMemBadgeRepo() *memBadgeRepo {
	return &memBadgeRepo{held: make(map[string]bool)}
}

func (r *memBadgeRepo) Has(_ context.Context, userID primitive.ObjectID, badgeID string) (bool, error) {
	return r.held[userID.Hex()+"_"+badgeID], nil
}

func (r *memBadgeRepo) Award(_ context.Context, badge *domain.Badge) error {
	r.held[badge.UserID.Hex()+"_"+badge.BadgeID] = true
	return nil
}

type memNotificationRepo struct {
	byID    map[string]domain.Notification
	creates int
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{byID: make(map[string]domain.Notification)}
}

func (r *memNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	// Duplicate IDs collapse, matching the Mongo duplicate-key no-op.
	r.creates++
	r.byID[n.ID] = *n
	return nil
}

func (r *memNotificationRepo) ofKind(kind domain.NotificationKind) []domain.Notification {
	var out []domain.Notification
	for _, n := range r.byID {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
