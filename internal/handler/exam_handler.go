package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ensayolab/ensayo-backend/internal/middleware"
	"github.com/ensayolab/ensayo-backend/internal/response"
	"github.com/ensayolab/ensayo-backend/internal/service"
	"github.com/ensayolab/ensayo-backend/internal/session"
)

// ExamHandler serves the read-only exam catalog.
type ExamHandler struct {
	catalog *service.CatalogService
	manager *service.SessionManager
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(catalog *service.CatalogService, manager *service.SessionManager) *ExamHandler {
	return &ExamHandler{catalog: catalog, manager: manager}
}

// ListExams godoc
// GET /api/v1/exams
// Returns all exams with question counts for the lobby page.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.catalog.ListExams(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.catalog.GetExam(c.Request.Context(), examID)
	if errors.Is(err, session.ErrExamNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// GetExamPaper godoc
// GET /api/v1/exams/:exam_id/paper
// Returns the full learner-facing paper (no answer keys) from the cache.
// Requires a running session on this exam — the paper is not downloadable
// outside an attempt.
func (h *ExamHandler) GetExamPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	active, ok := h.manager.ActiveForUser(claims.UserID)
	if !ok || active.ExamID() != examID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	payload, err := h.catalog.GetExamPayload(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}

	response.Success(c, http.StatusOK, payload)
}
