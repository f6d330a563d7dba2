// Package jobs hosts the nightly batch sweeps. Each run is a single pass
// triggered by an external scheduler; per-user work is independent, so a
// bounded worker pool fans it out and collects failures without aborting
// the batch.
package jobs

import (
	"alcyxob/wellness-app/internal/repository"
	"alcyxob/wellness-app/internal/service"
	"alcyxob/wellness-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// UserFailure records one user whose scheduling pass failed. The run
// itself still succeeds; the external scheduler retries wholesale and
// idempotent keys absorb the overlap.
type UserFailure struct {
	UserID primitive.ObjectID
	Err    error
}

// ScheduleSummary reports a nightly schedule run.
type ScheduleSummary struct {
	Users    int
	Tasks    int
	Failures []UserFailure
}

// Runner drives the nightly jobs.
type Runner struct {
	queryRepo   repository.EnrollmentQueryRepository
	metricsRepo repository.MetricsRepository
	scheduler   service.SchedulerService
	streaks     service.StreakService
	exporter    storage.MetricsExporter
	concurrency int
}

func NewRunner(
	queryRepo repository.EnrollmentQueryRepository,
	metricsRepo repository.MetricsRepository,
	scheduler service.SchedulerService,
	streaks service.StreakService,
	exporter storage.MetricsExporter,
	concurrency int,
) *Runner {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Runner{
		queryRepo:   queryRepo,
		metricsRepo: metricsRepo,
		scheduler:   scheduler,
		streaks:     streaks,
		exporter:    exporter,
		concurrency: concurrency,
	}
}

// RunSchedule builds the daily task list for every enrolled user. One
// user's failure never cascades: it is recorded and the pool moves on.
func (r *Runner) RunSchedule(ctx context.Context, date string) (ScheduleSummary, error) {
	summary := ScheduleSummary{}

	userIDs, err := r.queryRepo.DistinctEnrolledUserIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("enumerate enrolled users: %w", err)
	}
	summary.Users = len(userIDs)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			wrote, err := r.scheduler.BuildDayForUser(gctx, userID, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failures = append(summary.Failures, UserFailure{UserID: userID, Err: err})
				log.Printf("ERROR: schedule build for user %s on %s: %v", userID.Hex(), date, err)
				return nil // isolate, do not abort the pool
			}
			summary.Tasks += wrote
			return nil
		})
	}

	// Workers isolate their own failures and return nil; a non-nil error
	// here means that contract broke.
	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("schedule worker pool: %w", err)
	}

	log.Printf("Schedule run %s: %d users, %d tasks, %d failures", date, summary.Users, summary.Tasks, len(summary.Failures))
	return summary, nil
}

// RunStreakSweep runs the nightly lapse sweep.
func (r *Runner) RunStreakSweep(ctx context.Context, date string) (service.SweepSummary, error) {
	summary, err := r.streaks.RunNightlySweep(ctx, date)
	if err != nil {
		return summary, err
	}
	log.Printf("Streak sweep %s: %d scanned, %d preserved, %d reset, %d failed",
		date, summary.Scanned, summary.Preserved, summary.Reset, summary.Failed)
	return summary, nil
}

// RunFreezeReplenish restores every enrollment's freeze token.
func (r *Runner) RunFreezeReplenish(ctx context.Context) (int64, error) {
	n, err := r.streaks.ReplenishFreezes(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("Freeze replenish: %d enrollments restored", n)
	return n, nil
}

// RunMetricsExport snapshots the day's calendar metrics to object
// storage for the analytics consumers.
func (r *Runner) RunMetricsExport(ctx context.Context, date string) (string, error) {
	if r.exporter == nil {
		return "", errors.New("metrics export is not configured")
	}

	metrics, err := r.metricsRepo.GetByDate(ctx, date)
	if err != nil {
		return "", fmt.Errorf("load metrics for %s: %w", date, err)
	}

	key, err := r.exporter.ExportMetrics(ctx, date, metrics)
	if err != nil {
		return "", err
	}
	log.Printf("Metrics export %s: %d rows -> %s", date, len(metrics), key)
	return key, nil
}
