package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ensayolab/ensayo-backend/internal/session"
)

// Registry errors.
var (
	// ErrSessionNotFound: no live session for the given attempt id.
	ErrSessionNotFound = errors.New("no active session for this attempt")

	// ErrAttemptInProgress: the learner already has a running session and
	// must finish (or let the clock finish) before starting another.
	ErrAttemptInProgress = errors.New("an attempt is already in progress")

	// ErrNotSessionOwner: the session belongs to a different learner.
	ErrNotSessionOwner = errors.New("session owned by another user")
)

// terminalRetention is how long a finished session stays addressable so the
// learner can still fetch its state before the registry lets it go. The
// graded result itself lives in PostgreSQL.
const terminalRetention = 5 * time.Minute

type sessionEntry struct {
	sess *session.Session
	stop chan struct{}
}

// SessionManager owns the registry of live exam sessions and the clock that
// drives them: one goroutine per session delivers exactly one Tick per
// elapsed second and stops the moment the session goes terminal. A session
// becomes visible to intents only after Start has fully completed, so no
// answer or navigation can ever race initialization.
type SessionManager struct {
	catalog session.Catalog
	store   session.AttemptStore
	log     zerolog.Logger

	mu        sync.Mutex
	byAttempt map[uuid.UUID]*sessionEntry
	byUser    map[uuid.UUID]uuid.UUID
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(catalog session.Catalog, store session.AttemptStore, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		catalog:   catalog,
		store:     store,
		log:       log.With().Str("component", "session_manager").Logger(),
		byAttempt: make(map[uuid.UUID]*sessionEntry),
		byUser:    make(map[uuid.UUID]uuid.UUID),
	}
}

// StartExam initializes a session for the learner and arms its clock. One
// active session per learner; a second start while one runs is rejected.
//
// The learner's slot is reserved under the lock before initialization begins,
// so two simultaneous starts (a second tab) cannot both pass the check and
// create two attempts with two running clocks.
func (m *SessionManager) StartExam(ctx context.Context, examID, userID uuid.UUID) (*session.Session, error) {
	m.mu.Lock()
	if attemptID, ok := m.byUser[userID]; ok {
		if attemptID == uuid.Nil {
			// Another start for this learner is mid-initialization.
			m.mu.Unlock()
			return nil, ErrAttemptInProgress
		}
		if e, live := m.byAttempt[attemptID]; live && !e.sess.Finished() {
			m.mu.Unlock()
			return nil, ErrAttemptInProgress
		}
	}
	// Reserve the slot; uuid.Nil marks a start in flight.
	m.byUser[userID] = uuid.Nil
	m.mu.Unlock()

	sess, err := session.Start(ctx, m.catalog, m.store, examID, userID, m.log)
	if err != nil {
		m.mu.Lock()
		if m.byUser[userID] == uuid.Nil {
			delete(m.byUser, userID)
		}
		m.mu.Unlock()
		return nil, err
	}

	e := &sessionEntry{sess: sess, stop: make(chan struct{})}

	m.mu.Lock()
	m.byAttempt[sess.AttemptID()] = e
	m.byUser[userID] = sess.AttemptID()
	m.mu.Unlock()

	go m.runClock(e)

	m.log.Info().
		Str("attempt_id", sess.AttemptID().String()).
		Str("exam_id", examID.String()).
		Str("user_id", userID.String()).
		Msg("Session started")

	return sess, nil
}

// runClock delivers one Tick per second until the session finishes or the
// manager shuts down. The zero-crossing finalize happens inside Tick; the
// clock only observes it and retires.
func (m *SessionManager) runClock(e *sessionEntry) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if _, finished := e.sess.Tick(context.Background()); finished {
				m.log.Info().
					Str("attempt_id", e.sess.AttemptID().String()).
					Msg("Session finished by timeout")
				m.retire(e)
				return
			}
			if e.sess.Finished() {
				// Finished explicitly between ticks.
				m.retire(e)
				return
			}
		}
	}
}

// Get returns the live session for an attempt, checking ownership.
func (m *SessionManager) Get(attemptID, userID uuid.UUID) (*session.Session, error) {
	m.mu.Lock()
	e, ok := m.byAttempt[attemptID]
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.sess.UserID() != userID {
		return nil, ErrNotSessionOwner
	}
	return e.sess, nil
}

// ActiveForUser returns the learner's running session, if any. Lets a
// reloaded frontend pick the countdown back up.
func (m *SessionManager) ActiveForUser(userID uuid.UUID) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	attemptID, ok := m.byUser[userID]
	if !ok {
		return nil, false
	}
	e, ok := m.byAttempt[attemptID]
	if !ok || e.sess.Finished() {
		return nil, false
	}
	return e.sess, true
}

// Finish finalizes a session on explicit learner intent. The result is
// always returned when the session exists; a non-nil error alongside it
// means the completion write failed and the caller should warn that the
// result may not be saved.
func (m *SessionManager) Finish(ctx context.Context, attemptID, userID uuid.UUID) (*session.Result, error) {
	sess, err := m.Get(attemptID, userID)
	if err != nil {
		return nil, err
	}

	res, ferr := sess.Finish(ctx)

	m.mu.Lock()
	if e, ok := m.byAttempt[attemptID]; ok {
		m.retireLocked(e)
	}
	m.mu.Unlock()

	return res, ferr
}

// retire stops the clock, frees the learner to start a new attempt, and
// schedules removal of the terminal session from the registry.
func (m *SessionManager) retire(e *sessionEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retireLocked(e)
}

func (m *SessionManager) retireLocked(e *sessionEntry) {
	select {
	case <-e.stop:
		// Already retired.
		return
	default:
		close(e.stop)
	}

	userID := e.sess.UserID()
	if m.byUser[userID] == e.sess.AttemptID() {
		delete(m.byUser, userID)
	}

	attemptID := e.sess.AttemptID()
	time.AfterFunc(terminalRetention, func() {
		m.mu.Lock()
		delete(m.byAttempt, attemptID)
		m.mu.Unlock()
	})
}

// Shutdown stops every session clock. In-progress attempts stay in_progress
// in the store; there is no finalize-on-shutdown.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.byAttempt {
		select {
		case <-e.stop:
		default:
			close(e.stop)
		}
	}
}
