package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ensayolab/ensayo-backend/internal/config"
	"github.com/ensayolab/ensayo-backend/internal/model"
	"github.com/ensayolab/ensayo-backend/internal/repository"
	"github.com/ensayolab/ensayo-backend/internal/session"
)

// attemptStore implements session.AttemptStore. Attempt rows go straight to
// PostgreSQL; the per-question answer trail is enqueued to Redis and drained
// by the AnswerTrailWorker, so a slow disk never stalls finalize.
type attemptStore struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
}

// NewAttemptStore builds the session engine's persistence collaborator.
func NewAttemptStore(attemptRepo *repository.AttemptRepository, rdb *redis.Client) session.AttemptStore {
	return &attemptStore{attemptRepo: attemptRepo, rdb: rdb}
}

func (s *attemptStore) CreateAttempt(ctx context.Context, userID, examID uuid.UUID) (*model.Attempt, error) {
	return s.attemptRepo.Create(ctx, userID, examID)
}

func (s *attemptStore) InsertAnswer(ctx context.Context, a model.Answer) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.AnswerTrailQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue answer: %w", err)
	}
	return nil
}

func (s *attemptStore) CompleteAttempt(ctx context.Context, attemptID uuid.UUID, res session.Result, finishedAt time.Time) error {
	return s.attemptRepo.Complete(ctx, attemptID, res.Correct, res.Incorrect, res.Omitted, res.Score, finishedAt)
}
