package repository

import (
	"alcyxob/wellness-app/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ModuleEnrollmentRepository manages user x module enrollments and the
// streak state they carry.
type ModuleEnrollmentRepository interface {
	Create(ctx context.Context, enr *domain.ModuleEnrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ModuleEnrollment, error)
	GetByUserAndModule(ctx context.Context, userID, moduleID primitive.ObjectID) (*domain.ModuleEnrollment, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ModuleEnrollment, error)
	// GetWithActiveStreaks returns every enrollment with currentStreak > 0,
	// the nightly sweep's working set.
	GetWithActiveStreaks(ctx context.Context) ([]domain.ModuleEnrollment, error)
	UpdateStreak(ctx context.Context, enr *domain.ModuleEnrollment) error
	// ReplenishFreezes flips streakFreezeAvailable back on for every
	// enrollment and clears the consumption date. Returns rows touched.
	ReplenishFreezes(ctx context.Context) (int64, error)
}

// ProtocolEnrollmentRepository manages user x protocol enrollments.
// Upsert enforces the at-most-one-row-per-(user,protocol) invariant:
// re-enrolling overwrites the soft-removed row in place.
type ProtocolEnrollmentRepository interface {
	Upsert(ctx context.Context, enr *domain.ProtocolEnrollment) error
	Deactivate(ctx context.Context, userID, protocolID primitive.ObjectID) error
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ProtocolEnrollment, error)
}

// EnrollmentQueryRepository answers the batch runners' fleet questions.
type EnrollmentQueryRepository interface {
	// DistinctEnrolledUserIDs returns every user with at least one module
	// enrollment or active protocol enrollment.
	DistinctEnrolledUserIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// ProtocolRepository reads protocol and module reference data.
type ProtocolRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Protocol, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Protocol, error)
	GetModuleByID(ctx context.Context, id primitive.ObjectID) (*domain.Module, error)
}

// TaskRepository persists the scheduler's output.
type TaskRepository interface {
	// BulkUpsert writes tasks keyed by their natural document ID,
	// replacing any existing document for the same (protocol, date).
	BulkUpsert(ctx context.Context, tasks []domain.DailyTask) error
	GetByUserAndDate(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.DailyTask, error)
	UpdateStatus(ctx context.Context, taskID string, status domain.TaskStatus) error
}

// MetricsRepository persists daily calendar metrics keyed (user, date).
type MetricsRepository interface {
	Upsert(ctx context.Context, m *domain.DailyCalendarMetrics) error
	GetByUserAndDate(ctx context.Context, userID primitive.ObjectID, date string) (*domain.DailyCalendarMetrics, error)
	GetByDate(ctx context.Context, date string) ([]domain.DailyCalendarMetrics, error)
	MarkMVDActivated(ctx context.Context, userID primitive.ObjectID, date string) error
}

// MVDStateRepository holds one logical reduced-day document per user.
type MVDStateRepository interface {
	Upsert(ctx context.Context, state *domain.MVDState) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.MVDState, error)
}

// BadgeRepository appends to a user's badge set.
type BadgeRepository interface {
	Has(ctx context.Context, userID primitive.ObjectID, badgeID string) (bool, error)
	Award(ctx context.Context, badge *domain.Badge) error
}

// NotificationRepository queues push events for the dispatcher.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
}
