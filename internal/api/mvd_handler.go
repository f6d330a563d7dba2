package api

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type MVDHandler struct {
	mvdService service.MVDService
}

func NewMVDHandler(mvdService service.MVDService) *MVDHandler {
	return &MVDHandler{mvdService: mvdService}
}

// --- DTOs ---

type assertTriggerRequest struct {
	Type      string `json:"type" binding:"required"`
	ExpiresAt string `json:"expiresAt"` // RFC3339, defaults to end of today UTC
}

// GetState handles GET /mvd: the effective verdict for today.
func (h *MVDHandler) GetState(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	state, err := h.mvdService.Resolve(c.Request.Context(), userID, domain.DateOf(time.Now()))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve MVD state.")
		return
	}

	c.JSON(http.StatusOK, state)
}

// AssertTrigger handles POST /mvd/trigger: an externally-decided trigger
// (manual toggle, low recovery, travel, consistency drop). The
// heavy_calendar type is derived internally and rejected here.
func (h *MVDHandler) AssertTrigger(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req assertTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	expiresAt := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "expiresAt must be RFC3339.")
			return
		}
		expiresAt = parsed
	}

	state, err := h.mvdService.AssertTrigger(c.Request.Context(), userID, domain.MVDType(req.Type), expiresAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownMVDType), errors.Is(err, service.ErrInternalTrigger):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record MVD trigger.")
		}
		return
	}

	c.JSON(http.StatusOK, state)
}
