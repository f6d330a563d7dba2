package service

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUnknownMVDType  = errors.New("unknown MVD trigger type")
	ErrInternalTrigger = errors.New("heavy_calendar is derived internally and cannot be asserted")
)

// mvdAllowList is the static pass/fail table: which protocol categories
// survive under each trigger type, plus explicitly whitelisted protocol
// IDs (hex) that survive regardless of category. Configuration, not
// inference — extend it together with domain.KnownMVDTypes.
var mvdAllowList = map[domain.MVDType]struct {
	categories map[domain.Category]bool
	protocols  map[string]bool
}{
	domain.MVDHeavyCalendar: {
		categories: map[domain.Category]bool{domain.CategoryFoundation: true},
		protocols:  map[string]bool{},
	},
	domain.MVDManual: {
		categories: map[domain.Category]bool{domain.CategoryFoundation: true},
		protocols:  map[string]bool{},
	},
	domain.MVDConsistencyDrop: {
		categories: map[domain.Category]bool{domain.CategoryFoundation: true},
		protocols:  map[string]bool{},
	},
	domain.MVDLowRecovery: {
		categories: map[domain.Category]bool{
			domain.CategoryFoundation: true,
			domain.CategoryRecovery:   true,
		},
		protocols: map[string]bool{},
	},
	domain.MVDTravel: {
		categories: map[domain.Category]bool{
			domain.CategoryFoundation: true,
			domain.CategoryRecovery:   true,
		},
		protocols: map[string]bool{},
	},
}

// MVDAllows reports whether a protocol survives under an active trigger.
// An unrecognized type admits foundation only, the safest reduction.
func MVDAllows(t domain.MVDType, protocolID primitive.ObjectID, category domain.Category) bool {
	entry, ok := mvdAllowList[t]
	if !ok {
		return category == domain.CategoryFoundation
	}
	if entry.protocols[protocolID.Hex()] {
		return true
	}
	return entry.categories[category]
}

// --- Service Interface ---

// MVDService answers "is this user's day reduced, and what survives?".
type MVDService interface {
	// Resolve returns the effective MVD state for the user on the given
	// date. If the day's metrics say heavy and no externally-asserted
	// trigger is already active, the heavy_calendar activation is decided
	// here and persisted so the verdict holds for the rest of the day.
	Resolve(ctx context.Context, userID primitive.ObjectID, date string) (*domain.MVDState, error)

	// AssertTrigger records an externally-decided trigger (manual, low
	// recovery, travel, consistency drop) for the user.
	AssertTrigger(ctx context.Context, userID primitive.ObjectID, trigger domain.MVDType, expiresAt time.Time) (*domain.MVDState, error)
}

// --- Service Implementation ---

type mvdService struct {
	mvdRepo     repository.MVDStateRepository
	metricsRepo repository.MetricsRepository
	now         func() time.Time
}

func NewMVDService(mvdRepo repository.MVDStateRepository, metricsRepo repository.MetricsRepository) MVDService {
	return &mvdService{
		mvdRepo:     mvdRepo,
		metricsRepo: metricsRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *mvdService) Resolve(ctx context.Context, userID primitive.ObjectID, date string) (*domain.MVDState, error) {
	if userID.IsZero() {
		return nil, ErrMissingUserID
	}
	dayStart, err := domain.ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	now := s.now()

	// An already-active trigger wins; do not re-derive and flip mid-day.
	existing, err := s.mvdRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing.EffectiveAt(now) {
		return existing, nil
	}

	metrics, err := s.metricsRepo.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No calendar data: not a reduced day.
			return &domain.MVDState{UserID: userID, Active: false}, nil
		}
		return nil, err
	}

	if !metrics.HeavyDay {
		return &domain.MVDState{UserID: userID, Active: false}, nil
	}

	state := &domain.MVDState{
		UserID:      userID,
		Active:      true,
		Type:        domain.MVDHeavyCalendar,
		ActivatedAt: now,
		ExpiresAt:   dayStart.Add(24 * time.Hour), // dies with the day
	}
	if err := s.mvdRepo.Upsert(ctx, state); err != nil {
		return nil, err
	}
	if err := s.metricsRepo.MarkMVDActivated(ctx, userID, date); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return state, nil
}

func (s *mvdService) AssertTrigger(ctx context.Context, userID primitive.ObjectID, trigger domain.MVDType, expiresAt time.Time) (*domain.MVDState, error) {
	if userID.IsZero() {
		return nil, ErrMissingUserID
	}
	if !domain.KnownMVDTypes[trigger] {
		return nil, ErrUnknownMVDType
	}
	if trigger == domain.MVDHeavyCalendar {
		return nil, ErrInternalTrigger
	}

	state := &domain.MVDState{
		UserID:      userID,
		Active:      true,
		Type:        trigger,
		ActivatedAt: s.now(),
		ExpiresAt:   expiresAt,
	}
	if err := s.mvdRepo.Upsert(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
