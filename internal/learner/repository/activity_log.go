package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/storage"
)

// ActivityLog is a capped newest-first list of authentication events. It is
// never consulted for authorization.
type ActivityLog struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewActivityLog(store storage.Store, log *zap.Logger, now func() time.Time) *ActivityLog {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ActivityLog{store: store, log: log, now: now}
}

// Record prepends an entry for profile and truncates to ActivityLogLimit.
func (a *ActivityLog) Record(ctx context.Context, profile *models.UserProfile, action models.ActivityAction, client string) (models.ActivityLogEntry, error) {
	entry := models.ActivityLogEntry{
		ID:        uuid.NewString(),
		UserID:    profile.ID,
		UserName:  profile.Name,
		Email:     profile.Email,
		Action:    action,
		Timestamp: a.now().UTC(),
		Client:    client,
	}

	entries := append([]models.ActivityLogEntry{entry}, a.List(ctx, 0)...)
	if len(entries) > models.ActivityLogLimit {
		entries = entries[:models.ActivityLogLimit]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return entry, fmt.Errorf("encode activity log: %w", err)
	}
	if err := a.store.Set(ctx, ActivityLogKey, string(raw)); err != nil {
		return entry, fmt.Errorf("write activity log: %w", err)
	}
	return entry, nil
}

// List returns entries newest first, at most limit when limit > 0. Missing
// or unreadable storage yields an empty list.
func (a *ActivityLog) List(ctx context.Context, limit int) []models.ActivityLogEntry {
	raw, ok, err := a.store.Get(ctx, ActivityLogKey)
	if err != nil {
		a.log.Debug("activity log read failed", zap.Error(err))
		return []models.ActivityLogEntry{}
	}
	if !ok {
		return []models.ActivityLogEntry{}
	}
	var entries []models.ActivityLogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		a.log.Debug("activity log unreadable", zap.Error(err))
		return []models.ActivityLogEntry{}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []models.ActivityLogEntry{}
	}
	return entries
}
