package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ensayolab/ensayo-backend/internal/model"
	"github.com/ensayolab/ensayo-backend/internal/repository"
)

// Attempt review errors.
var (
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptNotFinished = errors.New("attempt is not completed yet")
)

// ResultView is the graded attempt with its answer trail, shaped for the
// result page.
type ResultView struct {
	Attempt    model.Attempt        `json:"attempt"`
	Percentage int                  `json:"percentage"`
	Answers    []model.AnswerReview `json:"answers"`
}

// AttemptService serves attempt history and result review.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attemptRepo *repository.AttemptRepository, answerRepo *repository.AnswerRepository) *AttemptService {
	return &AttemptService{attemptRepo: attemptRepo, answerRepo: answerRepo}
}

// ListByUser returns the learner's attempts, newest first.
func (s *AttemptService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Attempt, error) {
	return s.attemptRepo.ListByUser(ctx, userID)
}

// GetResult returns the graded counts, scaled score and answer trail for a
// completed attempt owned by the learner.
func (s *AttemptService) GetResult(ctx context.Context, attemptID, userID uuid.UUID) (*ResultView, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != userID {
		// Hide other learners' attempts rather than confirming they exist.
		return nil, ErrAttemptNotFound
	}
	if attempt.Status != model.AttemptStatusCompleted {
		return nil, ErrAttemptNotFinished
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	view := &ResultView{
		Attempt: *attempt,
		Answers: answers,
	}
	if attempt.CorrectCount != nil {
		total := *attempt.CorrectCount + *attempt.IncorrectCount + *attempt.OmittedCount
		if total > 0 {
			view.Percentage = int(math.Round(float64(*attempt.CorrectCount) / float64(total) * 100))
		}
	}
	return view, nil
}
