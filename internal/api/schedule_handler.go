package api

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ScheduleHandler struct {
	schedulerService service.SchedulerService
	streakService    service.StreakService
}

func NewScheduleHandler(schedulerService service.SchedulerService, streakService service.StreakService) *ScheduleHandler {
	return &ScheduleHandler{
		schedulerService: schedulerService,
		streakService:    streakService,
	}
}

// --- DTOs ---

type completionRequest struct {
	ProtocolID string `json:"protocolId" binding:"required"`
	ModuleID   string `json:"moduleId" binding:"required"`
	LoggedAt   string `json:"loggedAt"` // RFC3339, defaults to now
}

type completionResponse struct {
	CurrentStreak  int     `json:"currentStreak"`
	LongestStreak  int     `json:"longestStreak"`
	LastActiveDate string  `json:"lastActiveDate"`
	ProgressPct    float64 `json:"progressPct"`
}

// GetSchedule handles GET /schedule/:date.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	tasks, err := h.schedulerService.GetSchedule(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load schedule.")
		return
	}
	if tasks == nil {
		tasks = []domain.DailyTask{}
	}

	c.JSON(http.StatusOK, tasks)
}

// LogCompletion handles POST /schedule/complete: records a completion
// event, flips the matching task, and advances the streak.
func (h *ScheduleHandler) LogCompletion(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	protocolID, err := primitive.ObjectIDFromHex(req.ProtocolID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid protocol ID format.")
		return
	}
	moduleID, err := primitive.ObjectIDFromHex(req.ModuleID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid module ID format.")
		return
	}

	loggedAt := time.Now().UTC()
	if req.LoggedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.LoggedAt)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "loggedAt must be RFC3339.")
			return
		}
		loggedAt = parsed
	}

	enr, err := h.streakService.LogCompletion(c.Request.Context(), userID, protocolID, moduleID, loggedAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			abortWithError(c, http.StatusNotFound, "No enrollment for that module.")
		case errors.Is(err, service.ErrInvalidCompletion):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to log completion.")
		}
		return
	}

	c.JSON(http.StatusOK, completionResponse{
		CurrentStreak:  enr.CurrentStreak,
		LongestStreak:  enr.LongestStreak,
		LastActiveDate: enr.LastActiveDate,
		ProgressPct:    enr.ProgressPct,
	})
}
