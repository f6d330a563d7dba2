// Command nightly is the batch entrypoint the external scheduler invokes.
// It runs one job per invocation and exits; retries and timeouts are the
// scheduler's responsibility, idempotent keys make reruns safe.
package main

import (
	"alcyxob/wellness-app/internal/config"
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/jobs"
	"alcyxob/wellness-app/internal/repository/mongo"
	"alcyxob/wellness-app/internal/service"
	"alcyxob/wellness-app/internal/storage"
	"context"
	"flag"
	"log"
	"time"
)

func main() {
	jobName := flag.String("job", "schedule", "job to run: schedule | streaks | replenish | export")
	date := flag.String("date", "", "run date as YYYY-MM-DD (default: today UTC)")
	flag.Parse()

	runDate := *date
	if runDate == "" {
		runDate = domain.DateOf(time.Now())
	}
	if _, err := domain.ParseDate(runDate); err != nil {
		log.Fatalf("FATAL: invalid -date %q: %v", runDate, err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	moduleEnrRepo := mongo.NewMongoModuleEnrollmentRepository(appDB)
	protocolEnrRepo := mongo.NewMongoProtocolEnrollmentRepository(appDB)
	queryRepo := mongo.NewMongoEnrollmentQueryRepository(appDB)
	protocolRepo := mongo.NewMongoProtocolRepository(appDB)
	taskRepo := mongo.NewMongoTaskRepository(appDB)
	metricsRepo := mongo.NewMongoMetricsRepository(appDB)
	mvdRepo := mongo.NewMongoMVDStateRepository(appDB)
	badgeRepo := mongo.NewMongoBadgeRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)

	mvdService := service.NewMVDService(mvdRepo, metricsRepo)
	schedulerService := service.NewSchedulerService(protocolEnrRepo, moduleEnrRepo, protocolRepo, taskRepo, mvdService)
	streakService := service.NewStreakService(moduleEnrRepo, protocolRepo, taskRepo, badgeRepo, notificationRepo)

	var exporter storage.MetricsExporter
	if cfg.Export.Enabled {
		exporter, err = storage.NewS3Exporter(cfg.S3, cfg.Export.Prefix)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 exporter: %v", err)
		}
	}

	runner := jobs.NewRunner(queryRepo, metricsRepo, schedulerService, streakService, exporter, cfg.Jobs.Concurrency)

	ctx := context.Background()

	switch *jobName {
	case "schedule":
		if _, err := runner.RunSchedule(ctx, runDate); err != nil {
			log.Fatalf("FATAL: schedule run failed: %v", err)
		}
	case "streaks":
		if _, err := runner.RunStreakSweep(ctx, runDate); err != nil {
			log.Fatalf("FATAL: streak sweep failed: %v", err)
		}
	case "replenish":
		if _, err := runner.RunFreezeReplenish(ctx); err != nil {
			log.Fatalf("FATAL: freeze replenish failed: %v", err)
		}
	case "export":
		if _, err := runner.RunMetricsExport(ctx, runDate); err != nil {
			log.Fatalf("FATAL: metrics export failed: %v", err)
		}
	default:
		log.Fatalf("FATAL: unknown job %q", *jobName)
	}
}
