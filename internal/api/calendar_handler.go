package api

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"alcyxob/wellness-app/internal/service"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendarService service.CalendarService
}

func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// --- DTOs ---

// busyBlockRequest carries one interval. Start/end only: event titles and
// attendees must be stripped before they reach this API.
type busyBlockRequest struct {
	Start string `json:"start" binding:"required"` // RFC3339
	End   string `json:"end" binding:"required"`
}

type syncDayRequest struct {
	Date     string             `json:"date" binding:"required"` // YYYY-MM-DD
	Provider string             `json:"provider"`
	Blocks   []busyBlockRequest `json:"blocks"`
}

// SyncDay handles POST /calendar/sync: classifies the reported busy
// blocks and upserts the day's metrics. Blocks that fail to parse are
// dropped individually; the sync itself proceeds.
func (h *CalendarHandler) SyncDay(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req syncDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	blocks := make([]domain.BusyBlock, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		start, errStart := time.Parse(time.RFC3339, b.Start)
		end, errEnd := time.Parse(time.RFC3339, b.End)
		if errStart != nil || errEnd != nil {
			log.Printf("WARN: dropping unparsable busy block for user %s on %s", userID.Hex(), req.Date)
			continue
		}
		blocks = append(blocks, domain.BusyBlock{Start: start, End: end})
	}

	metrics, err := h.calendarService.SyncDay(c.Request.Context(), userID, req.Date, blocks, req.Provider)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to sync calendar day.")
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// GetMetrics handles GET /calendar/metrics/:date.
func (h *CalendarHandler) GetMetrics(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	date := c.Param("date")
	metrics, err := h.calendarService.GetMetrics(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No metrics for that date.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load metrics.")
		return
	}

	c.JSON(http.StatusOK, metrics)
}
