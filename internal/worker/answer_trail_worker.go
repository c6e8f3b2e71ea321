package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ensayolab/ensayo-backend/internal/config"
	"github.com/ensayolab/ensayo-backend/internal/model"
	"github.com/ensayolab/ensayo-backend/internal/repository"
)

// AnswerTrailWorker consumes the answer-trail queue and inserts the
// immutable answer records into PostgreSQL. Finalize enqueues and moves on;
// this worker absorbs storage latency and outages.
type AnswerTrailWorker struct {
	answerRepo *repository.AnswerRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewAnswerTrailWorker creates a new AnswerTrailWorker.
func NewAnswerTrailWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AnswerTrailWorker {
	return &AnswerTrailWorker{
		answerRepo: repository.NewAnswerRepository(pool),
		rdb:        rdb,
		log:        log.With().Str("component", "answer_trail_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *AnswerTrailWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AnswerTrailWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.AnswerTrailQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var a model.Answer
	if err := json.Unmarshal([]byte(result[1]), &a); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.answerRepo.Insert(ctx, &a); err != nil {
		w.log.Error().Err(err).
			Str("attempt_id", a.AttemptID.String()).
			Str("question_id", a.QuestionID.String()).
			Msg("Persist error, requeueing and backing off")
		// Push back to queue for retry. The insert is idempotent, so a
		// payload that half-succeeded cannot duplicate rows.
		w.rdb.RPush(ctx, config.WorkerKey.AnswerTrailQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *AnswerTrailWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.AnswerTrailQueue).Result()
		if err != nil {
			break
		}

		var a model.Answer
		if err := json.Unmarshal([]byte(result), &a); err != nil {
			continue
		}
		if err := w.answerRepo.Insert(ctx, &a); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error, item dropped")
			continue
		}
		drained++
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained queue")
	}
}
