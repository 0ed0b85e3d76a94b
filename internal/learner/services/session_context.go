package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/learner/repository"
	"github.com/jgirmay/radlearn/internal/storage"
)

// SessionContext bundles the stores of one client storage scope. It is built
// per request and passed explicitly; nothing holds a process-wide "current
// session".
type SessionContext struct {
	Sessions *repository.SessionStore
	Profiles *repository.ProfileRegistry
	Activity *repository.ActivityLog
}

// NewSessionContext binds the three stores to store. now may be nil.
func NewSessionContext(store storage.Store, log *zap.Logger, now func() time.Time) *SessionContext {
	return &SessionContext{
		Sessions: repository.NewSessionStore(store, log, now),
		Profiles: repository.NewProfileRegistry(store, log, now),
		Activity: repository.NewActivityLog(store, log, now),
	}
}
