package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func testProfile(email string) *models.UserProfile {
	return models.NewProfile("id-"+email, email, "Learner", models.RoleStudent, models.RoleFields{}, time.Now())
}

// ========== SESSION STORE ==========

func TestSessionStore_SaveAndCurrent(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewSessionStore(storage.NewMemoryStore(), nil, clock.Now)

	_, ok := s.Current(ctx)
	assert.False(t, ok)

	_, err := s.Save(ctx, testProfile("a@rad.io"), clock.Now().Add(time.Hour))
	require.NoError(t, err)

	session, ok := s.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@rad.io", session.Profile.Email)
	assert.Equal(t, clock.Now().Add(time.Hour).UnixMilli(), session.Expiry)
}

func TestSessionStore_ExpiredIsDeletedOnRead(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	mem := storage.NewMemoryStore()
	s := NewSessionStore(mem, nil, clock.Now)
	evictions := 0
	s.OnExpired = func() { evictions++ }

	_, err := s.Save(ctx, testProfile("a@rad.io"), clock.Now().Add(time.Minute))
	require.NoError(t, err)

	// expiry == now counts as expired
	clock.Advance(time.Minute)
	_, ok := s.Current(ctx)
	assert.False(t, ok)

	_, present, err := mem.Get(ctx, SessionKey)
	require.NoError(t, err)
	assert.False(t, present)

	_, ok = s.Current(ctx)
	assert.False(t, ok)
	assert.Equal(t, 1, evictions)
}

func TestSessionStore_CorruptEnvelopeIsAbsent(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	s := NewSessionStore(mem, nil, nil)

	for _, raw := range []string{"%%%not-base64", "bm90IGpzb24=", "e30="} {
		require.NoError(t, mem.Set(ctx, SessionKey, raw))
		_, ok := s.Current(ctx)
		assert.False(t, ok, raw)
	}
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewSessionStore(storage.NewMemoryStore(), nil, clock.Now)

	_, err := s.Save(ctx, testProfile("a@rad.io"), clock.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Save(ctx, testProfile("b@rad.io"), clock.Now().Add(time.Hour))
	require.NoError(t, err)

	session, ok := s.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "b@rad.io", session.Profile.Email)

	require.NoError(t, s.Clear(ctx))
	_, ok = s.Current(ctx)
	assert.False(t, ok)
}

// ========== PROFILE REGISTRY ==========

func TestProfileRegistry_CreateThenFind(t *testing.T) {
	ctx := context.Background()
	r := NewProfileRegistry(storage.NewMemoryStore(), nil, nil)

	p, created, err := r.FindOrCreate(ctx, Identity{Email: "x@rad.io", Name: "X", Role: models.RoleStudent,
		Fields: models.RoleFields{RegistrationNumber: "R-123", Institution: "KCL"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.CurrentXP)
	assert.Equal(t, 100, p.NextLevelXP)
	assert.True(t, p.IsPro)
	assert.Empty(t, p.History)

	p.TotalXP = 420
	p.Level = 3
	require.NoError(t, r.Save(ctx, p))

	again, created, err := r.FindOrCreate(ctx, Identity{Email: "X@Rad.io ", Name: "ignored", Role: models.RoleOfficer,
		Fields: models.RoleFields{LicenseID: "LIC-9"}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, models.RoleOfficer, again.Role)
	assert.Equal(t, "LIC-9", again.LicenseID)
	assert.Empty(t, again.RegistrationNumber)
	assert.Equal(t, 420, again.TotalXP)
	assert.Equal(t, 3, again.Level)
	assert.Equal(t, "X", again.Name)
}

func TestProfileRegistry_KeysAreOpaque(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	r := NewProfileRegistry(mem, nil, nil)

	_, _, err := r.FindOrCreate(ctx, Identity{Email: "secret@rad.io", Role: models.RolePublic})
	require.NoError(t, err)

	raw, ok, err := mem.Get(ctx, UserDBKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "secret@rad.io")

	var records []registryRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 1)
	assert.Equal(t, LookupKey("secret@rad.io"), records[0].LookupKeyHash)
	assert.Len(t, records[0].LookupKeyHash, 64)
}

func TestProfileRegistry_CorruptEntryRecreated(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	r := NewProfileRegistry(mem, nil, nil)

	bad, _ := json.Marshal([]registryRecord{{LookupKeyHash: LookupKey("c@rad.io"), EncryptedProfile: "!!!"}})
	require.NoError(t, mem.Set(ctx, UserDBKey, string(bad)))

	_, ok := r.Lookup(ctx, "c@rad.io")
	assert.False(t, ok)

	p, created, err := r.FindOrCreate(ctx, Identity{Email: "c@rad.io", Role: models.RolePatient})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RolePatient, p.Role)

	raw, _, _ := mem.Get(ctx, UserDBKey)
	var records []registryRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	assert.Len(t, records, 1)
}

func TestProfileRegistry_CorruptCollectionStartsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, UserDBKey, "{not an array"))
	r := NewProfileRegistry(mem, nil, nil)

	_, created, err := r.FindOrCreate(ctx, Identity{Email: "d@rad.io", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.True(t, created)
}

// ========== ACTIVITY LOG ==========

func TestActivityLog_NewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	log := NewActivityLog(storage.NewMemoryStore(), nil, clock.Now)

	assert.Empty(t, log.List(ctx, 0))

	total := models.ActivityLogLimit + 25
	for i := 0; i < total; i++ {
		p := testProfile(fmt.Sprintf("u%d@rad.io", i))
		_, err := log.Record(ctx, p, models.ActionLogin, "test-agent")
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	entries := log.List(ctx, 0)
	require.Len(t, entries, models.ActivityLogLimit)
	assert.Equal(t, fmt.Sprintf("u%d@rad.io", total-1), entries[0].Email)
	// the 25 oldest were dropped
	assert.Equal(t, "u25@rad.io", entries[len(entries)-1].Email)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))

	assert.Len(t, log.List(ctx, 10), 10)
}

func TestActivityLog_UnreadableIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, ActivityLogKey, "garbage"))
	log := NewActivityLog(mem, nil, nil)

	assert.Empty(t, log.List(ctx, 0))

	entry, err := log.Record(ctx, testProfile("e@rad.io"), models.ActionRegister, "cli")
	require.NoError(t, err)
	assert.Equal(t, models.ActionRegister, entry.Action)
	assert.Len(t, log.List(ctx, 0), 1)
}

func TestEncodeOpaqueRoundTrip(t *testing.T) {
	p := testProfile("f@rad.io")
	encoded, err := encodeOpaque(p)
	require.NoError(t, err)
	assert.False(t, strings.Contains(encoded, "f@rad.io"))

	var decoded models.UserProfile
	require.NoError(t, decodeOpaque(encoded, &decoded))
	assert.Equal(t, p.Email, decoded.Email)
}
