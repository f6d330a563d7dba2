package api

import (
	"alcyxob/wellness-app/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the API routes on the Gin engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	jwtLeeway time.Duration,
	calendarService service.CalendarService,
	schedulerService service.SchedulerService,
	streakService service.StreakService,
	mvdService service.MVDService,
	enrollmentService service.EnrollmentService,
) {
	calendarHandler := NewCalendarHandler(calendarService)
	scheduleHandler := NewScheduleHandler(schedulerService, streakService)
	mvdHandler := NewMVDHandler(mvdService)
	enrollmentHandler := NewEnrollmentHandler(enrollmentService)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(jwtSecret, jwtLeeway))
	{
		calendar := v1.Group("/calendar")
		{
			calendar.POST("/sync", calendarHandler.SyncDay)
			calendar.GET("/metrics/:date", calendarHandler.GetMetrics)
		}

		schedule := v1.Group("/schedule")
		{
			schedule.GET("/:date", scheduleHandler.GetSchedule)
			schedule.POST("/complete", scheduleHandler.LogCompletion)
		}

		mvd := v1.Group("/mvd")
		{
			mvd.GET("", mvdHandler.GetState)
			mvd.POST("/trigger", mvdHandler.AssertTrigger)
		}

		enrollments := v1.Group("/enrollments")
		{
			enrollments.POST("/protocol", enrollmentHandler.EnrollProtocol)
			enrollments.DELETE("/protocol/:protocolId", enrollmentHandler.RemoveProtocol)
			enrollments.POST("/module", enrollmentHandler.EnrollModule)
		}
	}
}
