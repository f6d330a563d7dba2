package service

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrProtocolNotFound = errors.New("protocol not found")
	ErrBadTimeOfDay     = errors.New("default time of day must be HH:MM")
)

// --- Service Interface ---

// EnrollmentService manages a user's opt-ins. Protocol enrollment is an
// upsert: re-enrolling a soft-removed protocol revives the existing row.
type EnrollmentService interface {
	EnrollInProtocol(ctx context.Context, userID, protocolID primitive.ObjectID, moduleID *primitive.ObjectID, timeOfDay string) error
	RemoveProtocol(ctx context.Context, userID, protocolID primitive.ObjectID) error
	EnrollInModule(ctx context.Context, userID, moduleID primitive.ObjectID, isPrimary bool) (*domain.ModuleEnrollment, error)
}

// --- Service Implementation ---

type enrollmentService struct {
	protocolEnrRepo repository.ProtocolEnrollmentRepository
	moduleEnrRepo   repository.ModuleEnrollmentRepository
	protocolRepo    repository.ProtocolRepository
}

func NewEnrollmentService(
	protocolEnrRepo repository.ProtocolEnrollmentRepository,
	moduleEnrRepo repository.ModuleEnrollmentRepository,
	protocolRepo repository.ProtocolRepository,
) EnrollmentService {
	return &enrollmentService{
		protocolEnrRepo: protocolEnrRepo,
		moduleEnrRepo:   moduleEnrRepo,
		protocolRepo:    protocolRepo,
	}
}

func (s *enrollmentService) EnrollInProtocol(ctx context.Context, userID, protocolID primitive.ObjectID, moduleID *primitive.ObjectID, timeOfDay string) error {
	if userID.IsZero() {
		return ErrMissingUserID
	}

	protocol, err := s.protocolRepo.GetByID(ctx, protocolID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProtocolNotFound
		}
		return err
	}

	if timeOfDay == "" {
		timeOfDay = moduleSlot(protocol)
	}
	if !validTimeOfDay(timeOfDay) {
		return ErrBadTimeOfDay
	}

	return s.protocolEnrRepo.Upsert(ctx, &domain.ProtocolEnrollment{
		UserID:           userID,
		ProtocolID:       protocolID,
		ModuleID:         moduleID,
		DefaultTimeOfDay: timeOfDay,
		IsActive:         true,
	})
}

func (s *enrollmentService) RemoveProtocol(ctx context.Context, userID, protocolID primitive.ObjectID) error {
	return s.protocolEnrRepo.Deactivate(ctx, userID, protocolID)
}

func (s *enrollmentService) EnrollInModule(ctx context.Context, userID, moduleID primitive.ObjectID, isPrimary bool) (*domain.ModuleEnrollment, error) {
	if userID.IsZero() {
		return nil, ErrMissingUserID
	}
	if _, err := s.protocolRepo.GetModuleByID(ctx, moduleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProtocolNotFound
		}
		return nil, err
	}

	// New enrollments start with the freeze token in hand.
	enr := &domain.ModuleEnrollment{
		UserID:                userID,
		ModuleID:              moduleID,
		IsPrimary:             isPrimary,
		StreakFreezeAvailable: true,
	}
	id, err := s.moduleEnrRepo.Create(ctx, enr)
	if err != nil {
		return nil, err
	}
	enr.ID = id
	return enr, nil
}

func validTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	h := (s[0]-'0')*10 + (s[1] - '0')
	m := (s[3]-'0')*10 + (s[4] - '0')
	return h < 24 && m < 60
}
