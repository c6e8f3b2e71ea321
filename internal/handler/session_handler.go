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
	"github.com/ensayolab/ensayo-backend/internal/session"
	"github.com/ensayolab/ensayo-backend/internal/validator"
)

// SessionHandler exposes the exam session engine over REST: start, state,
// answer, navigation and finish. The WebSocket stream covers the same
// intents for clients that keep a connection open.
type SessionHandler struct {
	manager *service.SessionManager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *service.SessionManager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// StartExam godoc
// POST /api/v1/exams/:exam_id/start
// Creates the attempt, loads the question set and arms the countdown.
func (h *SessionHandler) StartExam(c *gin.Context) {
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

	sess, err := h.manager.StartExam(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		var perr *session.PersistError
		switch {
		case errors.Is(err, session.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		case errors.Is(err, session.ErrEmptyExam):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrExamEmpty)
		case errors.Is(err, session.ErrDataIntegrity):
			response.Fail(c, http.StatusInternalServerError, response.ErrDataIntegrity)
		case errors.Is(err, service.ErrAttemptInProgress):
			response.Fail(c, http.StatusConflict, response.ErrAttemptInProgress)
		case errors.As(err, &perr):
			response.Fail(c, http.StatusBadGateway, response.ErrPersistence)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, sess.View())
}

// GetActiveSession godoc
// GET /api/v1/session
// Returns the learner's running session so a reloaded page can resume.
func (h *SessionHandler) GetActiveSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sess, ok := h.manager.ActiveForUser(claims.UserID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}

	response.Success(c, http.StatusOK, sess.View())
}

// GetState godoc
// GET /api/v1/attempts/:attempt_id/state
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, sess.View())
}

// SelectAnswer godoc
// POST /api/v1/attempts/:attempt_id/answer
// Upserts the learner's selection for a question. Buffered in memory until
// finalize; nothing is persisted here.
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.SelectAnswer(req.QuestionID, req.SelectedOption); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuestion)
		return
	}

	response.Success(c, http.StatusOK, sess.View())
}

// Navigate godoc
// POST /api/v1/attempts/:attempt_id/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	switch {
	case req.Index != nil:
		sess.Seek(*req.Index)
	case req.Direction == "next":
		sess.Next()
	case req.Direction == "prev":
		sess.Prev()
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	response.Success(c, http.StatusOK, sess.View())
}

// Finish godoc
// POST /api/v1/attempts/:attempt_id/finish
// Grades the attempt. The result is always returned; "saved" is false when
// the completion write failed and the result may not be durable.
func (h *SessionHandler) Finish(c *gin.Context) {
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

	res, err := h.manager.Finish(c.Request.Context(), attemptID, claims.UserID)
	if err != nil && res == nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrNotSessionOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result": res,
		"saved":  err == nil,
	})
}

// lookup resolves the attempt id and ownership, failing the request itself
// when the session cannot be used.
func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	sess, err := h.manager.Get(attemptID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotSessionOwner) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		} else {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		}
		return nil, false
	}
	return sess, true
}
