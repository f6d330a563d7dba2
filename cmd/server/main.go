package main

import (
	"alcyxob/wellness-app/internal/api"
	"alcyxob/wellness-app/internal/config"
	"alcyxob/wellness-app/internal/repository/mongo"
	"alcyxob/wellness-app/internal/service"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Wellness App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureModuleEnrollmentIndexes(ctx, appDB.Collection("module_enrollments"))
		mongo.EnsureProtocolEnrollmentIndexes(ctx, appDB.Collection("protocol_enrollments"))
		mongo.EnsureTaskIndexes(ctx, appDB.Collection("daily_tasks"))
		mongo.EnsureMetricsIndexes(ctx, appDB.Collection("daily_calendar_metrics"))
		mongo.EnsureMVDStateIndexes(ctx, appDB.Collection("mvd_states"))
		mongo.EnsureBadgeIndexes(ctx, appDB.Collection("badges"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	moduleEnrRepo := mongo.NewMongoModuleEnrollmentRepository(appDB)
	protocolEnrRepo := mongo.NewMongoProtocolEnrollmentRepository(appDB)
	protocolRepo := mongo.NewMongoProtocolRepository(appDB)
	taskRepo := mongo.NewMongoTaskRepository(appDB)
	metricsRepo := mongo.NewMongoMetricsRepository(appDB)
	mvdRepo := mongo.NewMongoMVDStateRepository(appDB)
	badgeRepo := mongo.NewMongoBadgeRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	calendarService := service.NewCalendarService(metricsRepo)
	mvdService := service.NewMVDService(mvdRepo, metricsRepo)
	schedulerService := service.NewSchedulerService(protocolEnrRepo, moduleEnrRepo, protocolRepo, taskRepo, mvdService)
	streakService := service.NewStreakService(moduleEnrRepo, protocolRepo, taskRepo, badgeRepo, notificationRepo)
	enrollmentService := service.NewEnrollmentService(protocolEnrRepo, moduleEnrRepo, protocolRepo)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.JWT.Leeway,
		calendarService, schedulerService, streakService, mvdService, enrollmentService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
