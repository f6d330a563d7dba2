package api

import (
	"alcyxob/wellness-app/internal/repository"
	"alcyxob/wellness-app/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// --- DTOs ---

type enrollProtocolRequest struct {
	ProtocolID string `json:"protocolId" binding:"required"`
	ModuleID   string `json:"moduleId"`
	TimeOfDay  string `json:"timeOfDay"` // HH:MM UTC, optional
}

type enrollModuleRequest struct {
	ModuleID  string `json:"moduleId" binding:"required"`
	IsPrimary bool   `json:"isPrimary"`
}

// EnrollProtocol handles POST /enrollments/protocol. Re-enrolling a
// previously removed protocol revives the same row.
func (h *EnrollmentHandler) EnrollProtocol(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req enrollProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	protocolID, err := primitive.ObjectIDFromHex(req.ProtocolID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid protocol ID format.")
		return
	}

	var moduleID *primitive.ObjectID
	if req.ModuleID != "" {
		id, err := primitive.ObjectIDFromHex(req.ModuleID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid module ID format.")
			return
		}
		moduleID = &id
	}

	err = h.enrollmentService.EnrollInProtocol(c.Request.Context(), userID, protocolID, moduleID, req.TimeOfDay)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProtocolNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBadTimeOfDay):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to enroll.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveProtocol handles DELETE /enrollments/protocol/:protocolId.
// Soft removal: history is retained.
func (h *EnrollmentHandler) RemoveProtocol(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	protocolID, err := primitive.ObjectIDFromHex(c.Param("protocolId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid protocol ID format.")
		return
	}

	if err := h.enrollmentService.RemoveProtocol(c.Request.Context(), userID, protocolID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No enrollment for that protocol.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to remove enrollment.")
		return
	}

	c.Status(http.StatusNoContent)
}

// EnrollModule handles POST /enrollments/module.
func (h *EnrollmentHandler) EnrollModule(c *gin.Context) {
	userID, err := userIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req enrollModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	moduleID, err := primitive.ObjectIDFromHex(req.ModuleID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid module ID format.")
		return
	}

	enr, err := h.enrollmentService.EnrollInModule(c.Request.Context(), userID, moduleID, req.IsPrimary)
	if err != nil {
		if errors.Is(err, service.ErrProtocolNotFound) {
			abortWithError(c, http.StatusNotFound, "Module not found.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to enroll in module.")
		return
	}

	c.JSON(http.StatusCreated, enr)
}
