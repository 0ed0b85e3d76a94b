package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/storage"
)

type registryRecord struct {
	LookupKeyHash    string `json:"lookupKeyHash"`
	EncryptedProfile string `json:"encryptedProfile"`
}

// Identity is what a login supplies to the registry.
type Identity struct {
	Email  string
	Name   string
	Role   models.Role
	Fields models.RoleFields
}

// ProfileRegistry maps identities to durable profiles. Entries are keyed by
// LookupKey(email) and the key is never reversed.
type ProfileRegistry struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewProfileRegistry(store storage.Store, log *zap.Logger, now func() time.Time) *ProfileRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ProfileRegistry{
		store: store,
		log:   log,
		now:   now,
		newID: func() string { return uuid.NewString() },
	}
}

// FindOrCreate returns the stored profile for id.Email with its role and
// role fields replaced by the supplied ones, or a fresh default profile. The
// bool is true when the profile was created. A corrupt entry is treated as
// missing and replaced.
func (r *ProfileRegistry) FindOrCreate(ctx context.Context, id Identity) (*models.UserProfile, bool, error) {
	key := LookupKey(id.Email)
	records := r.load(ctx)

	idx := indexOf(records, key)
	if idx >= 0 {
		var profile models.UserProfile
		err := decodeOpaque(records[idx].EncryptedProfile, &profile)
		if err == nil {
			profile.Role = id.Role
			profile.RoleFields = id.Fields
			if profile.History == nil {
				profile.History = []models.QuizResult{}
			}
			if err := r.put(ctx, records, idx, key, &profile); err != nil {
				return nil, false, err
			}
			return &profile, false, nil
		}
		r.log.Debug("registry entry unreadable, recreating", zap.String("lookup", key[:12]), zap.Error(err))
	}

	profile := models.NewProfile(r.newID(), strings.TrimSpace(id.Email), id.Name, id.Role, id.Fields, r.now())
	if err := r.put(ctx, records, idx, key, profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

// Lookup returns the stored profile for email, if any and readable.
func (r *ProfileRegistry) Lookup(ctx context.Context, email string) (*models.UserProfile, bool) {
	records := r.load(ctx)
	idx := indexOf(records, LookupKey(email))
	if idx < 0 {
		return nil, false
	}
	var profile models.UserProfile
	if err := decodeOpaque(records[idx].EncryptedProfile, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

// Save re-persists profile under its email's lookup key, inserting if absent.
func (r *ProfileRegistry) Save(ctx context.Context, profile *models.UserProfile) error {
	key := LookupKey(profile.Email)
	records := r.load(ctx)
	return r.put(ctx, records, indexOf(records, key), key, profile)
}

func (r *ProfileRegistry) load(ctx context.Context) []registryRecord {
	raw, ok, err := r.store.Get(ctx, UserDBKey)
	if err != nil {
		r.log.Debug("registry read failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var records []registryRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		r.log.Debug("registry unreadable, starting empty", zap.Error(err))
		return nil
	}
	return records
}

func (r *ProfileRegistry) put(ctx context.Context, records []registryRecord, idx int, key string, profile *models.UserProfile) error {
	encoded, err := encodeOpaque(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	rec := registryRecord{LookupKeyHash: key, EncryptedProfile: encoded}
	if idx >= 0 {
		records[idx] = rec
	} else {
		records = append(records, rec)
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := r.store.Set(ctx, UserDBKey, string(raw)); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

func indexOf(records []registryRecord, key string) int {
	for i, rec := range records {
		if rec.LookupKeyHash == key {
			return i
		}
	}
	return -1
}
