package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ensayolab/ensayo-backend/internal/middleware"
	"github.com/ensayolab/ensayo-backend/internal/model"
	"github.com/ensayolab/ensayo-backend/internal/response"
	"github.com/ensayolab/ensayo-backend/internal/service"
)

// AttemptHandler serves attempt history and result review.
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// ListAttempts godoc
// GET /api/v1/attempts
// Returns the learner's attempts, newest first.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if attempts == nil {
		attempts = []model.Attempt{}
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetResult godoc
// GET /api/v1/attempts/:attempt_id/result
// Returns the graded counts, scaled score and answer trail of a completed
// attempt, for the result review page.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAttemptNotFinished):
			response.Fail(c, http.StatusConflict, response.ErrAttemptNotFinished)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}
