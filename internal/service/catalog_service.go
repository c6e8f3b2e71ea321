package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ensayolab/ensayo-backend/internal/config"
	"github.com/ensayolab/ensayo-backend/internal/model"
	"github.com/ensayolab/ensayo-backend/internal/repository"
	"github.com/ensayolab/ensayo-backend/internal/session"
)

// CatalogService serves read-only exam catalog data and implements
// session.Catalog for the session engine. Learner-facing payloads are cached
// in Redis with a PostgreSQL fallback that self-heals the cache.
type CatalogService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "catalog_service").Logger(),
	}
}

// ListExams returns all exams with question counts for the lobby.
func (s *CatalogService) ListExams(ctx context.Context) ([]model.ExamSummary, error) {
	return s.examRepo.List(ctx)
}

// GetExam retrieves exam metadata. Maps a missing row to the session
// engine's not-found sentinel.
func (s *CatalogService) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// GetQuestionIDs returns the exam's ordered question identifiers, cache
// first with DB fallback and self-heal.
func (s *CatalogService) GetQuestionIDs(ctx context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	key := config.CacheKey.ExamQuestionIDsKey(examID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var ids []uuid.UUID
		if err := json.Unmarshal([]byte(raw), &ids); err == nil {
			return ids, nil
		}
		// Corrupt cache entry: fall through to the DB and rewrite it.
		s.log.Warn().Str("exam_id", examID.String()).Msg("invalid question id cache entry")
	} else if !errors.Is(err, redis.Nil) {
		// Real Redis error. The catalog still works, just slower.
		s.log.Warn().Err(err).Msg("redis get failed, falling back to db")
	}

	ids, err := s.examRepo.GetQuestionIDs(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}

	if raw, err := json.Marshal(ids); err == nil {
		_ = s.rdb.Set(ctx, key, raw, 0).Err()
	}
	return ids, nil
}

// GetQuestions loads full question records (answer keys included — these
// never leave the server).
func (s *CatalogService) GetQuestions(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.GetByIDs(ctx, ids)
}

// GetExamPayload returns the learner-facing paper (no answer keys), cache
// first with DB fallback and self-heal.
func (s *CatalogService) GetExamPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	key := config.CacheKey.ExamPayloadKey(examID.String())

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.ExamPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err == nil {
			return payload, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("invalid payload cache entry")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("redis get failed, falling back to db")
	}

	payload, err := s.buildPayload(ctx, examID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(payload); err == nil {
		_ = s.rdb.Set(ctx, key, raw, 0).Err()
	}
	return payload, nil
}

// PrewarmAllCaches loads every exam's payload and question ids into Redis.
// Called at boot so first requests never race the lazy fill.
func (s *CatalogService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	for _, e := range exams {
		if _, err := s.GetQuestionIDs(ctx, e.ID); err != nil {
			s.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("prewarm question ids failed")
			continue
		}
		if _, err := s.GetExamPayload(ctx, e.ID); err != nil {
			s.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("prewarm payload failed")
		}
	}

	s.log.Info().Int("exams", len(exams)).Msg("Catalog caches prewarmed")
	return nil
}

func (s *CatalogService) buildPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	ids, err := s.examRepo.GetQuestionIDs(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load question ids: %w", err)
	}

	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	payload := &model.ExamPayload{
		ExamID:    exam.ID,
		Title:     exam.Title,
		Duration:  exam.DurationMinutes,
		Questions: make([]model.QuestionForLearner, 0, len(ids)),
	}
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			payload.Questions = append(payload.Questions, q.ForLearner())
		}
	}
	return payload, nil
}
