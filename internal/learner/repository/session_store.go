package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/storage"
)

// SessionStore owns the single current-session envelope of one client
// storage. Reads fail open: anything unreadable is "no session".
type SessionStore struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time

	// OnExpired, when set, is called after an expired envelope is evicted.
	OnExpired func()
}

func NewSessionStore(store storage.Store, log *zap.Logger, now func() time.Time) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{store: store, log: log, now: now}
}

// Save overwrites any existing envelope.
func (s *SessionStore) Save(ctx context.Context, profile *models.UserProfile, expiresAt time.Time) (*models.Session, error) {
	session := models.NewSession(profile, expiresAt)
	encoded, err := encodeOpaque(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(ctx, SessionKey, encoded); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}
	return session, nil
}

// Current returns the stored session if it is readable and unexpired. An
// expired envelope is deleted by the read that detects it.
func (s *SessionStore) Current(ctx context.Context) (*models.Session, bool) {
	raw, ok, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		s.log.Debug("session read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var session models.Session
	if err := decodeOpaque(raw, &session); err != nil {
		s.log.Debug("session envelope unreadable", zap.Error(err))
		return nil, false
	}
	if session.Expiry == 0 || session.Profile.Email == "" {
		s.log.Debug("session envelope malformed")
		return nil, false
	}

	if !session.Valid(s.now()) {
		if err := s.store.Delete(ctx, SessionKey); err != nil {
			s.log.Warn("failed to evict expired session", zap.Error(err))
		}
		if s.OnExpired != nil {
			s.OnExpired()
		}
		return nil, false
	}
	if session.Profile.History == nil {
		session.Profile.History = []models.QuizResult{}
	}
	return &session, true
}

// Clear deletes the envelope unconditionally.
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, SessionKey)
}
