package models

import (
	"strings"
	"time"
)

// ========== ROLES & DIFFICULTY ==========

// Role is the kind of user a profile currently acts as.
type Role string

const (
	RoleStudent Role = "student"
	RolePatient Role = "patient"
	RolePublic  Role = "public"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleStudent, RolePatient, RolePublic, RoleOfficer, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole normalises case and surrounding whitespace.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Difficulty of a quiz attempt.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

var difficultyMultipliers = map[Difficulty]float64{
	DifficultyBeginner:     1.0,
	DifficultyIntermediate: 1.5,
	DifficultyAdvanced:     2.5,
}

// Multiplier returns the XP multiplier and whether the difficulty is known.
func (d Difficulty) Multiplier() (float64, bool) {
	m, ok := difficultyMultipliers[d]
	return m, ok
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyMultipliers[d]
	return ok
}

// ========== PROFILE ==========

const (
	StartingLevel       = 1
	StartingNextLevelXP = 100
	// HistoryLimit bounds UserProfile.History; older results fall off the tail.
	HistoryLimit = 50
	// MaxQuizQuestions caps the question count of one recorded quiz.
	MaxQuizQuestions = 500
)

// RoleFields are the role-specific verification values kept on a profile.
// The admin access code is checked but never stored.
type RoleFields struct {
	RegistrationNumber string `json:"regNumber,omitempty"`
	Institution        string `json:"institution,omitempty"`
	LicenseID          string `json:"licenseId,omitempty"`
}

// UserProfile is one learner's durable state.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	IsPro bool   `json:"isPro"`
	RoleFields

	Level        int          `json:"level"`
	CurrentXP    int          `json:"currentXp"`
	TotalXP      int          `json:"totalXp"`
	NextLevelXP  int          `json:"nextLevelXp"`
	QuizzesTaken int          `json:"quizzesTaken"`
	History      []QuizResult `json:"history"`
	JoinedAt     time.Time    `json:"joinedAt"`
}

// NewProfile returns the defaults for a first-time identity: level 1, no XP,
// empty history, pro entitlement granted.
func NewProfile(id, email, name string, role Role, fields RoleFields, now time.Time) *UserProfile {
	return &UserProfile{
		ID:          id,
		Email:       email,
		Name:        name,
		Role:        role,
		IsPro:       true,
		RoleFields:  fields,
		Level:       StartingLevel,
		NextLevelXP: StartingNextLevelXP,
		History:     []QuizResult{},
		JoinedAt:    now.UTC(),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing History.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.History = append([]QuizResult(nil), p.History...)
	if cp.History == nil {
		cp.History = []QuizResult{}
	}
	return &cp
}

// XPToNextLevel is the XP still missing before the next level-up.
func (p *UserProfile) XPToNextLevel() int {
	if remaining := p.NextLevelXP - p.CurrentXP; remaining > 0 {
		return remaining
	}
	return 0
}

// QuizResult is an immutable record of one completed attempt.
type QuizResult struct {
	ID         string     `json:"id"`
	Date       time.Time  `json:"date"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	XPEarned   int        `json:"xpEarned"`
}

// ========== SESSION ==========

// Session is the persisted envelope: a profile snapshot and an absolute
// expiry in epoch milliseconds.
type Session struct {
	Profile UserProfile `json:"profile"`
	Expiry  int64       `json:"expiry"`
}

func NewSession(profile *UserProfile, expiresAt time.Time) *Session {
	return &Session{Profile: *profile.Clone(), Expiry: expiresAt.UnixMilli()}
}

func (s *Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.Expiry).UTC()
}

// Valid reports whether now is strictly before the expiry.
func (s *Session) Valid(now time.Time) bool {
	return now.UnixMilli() < s.Expiry
}

// ========== ACTIVITY LOG ==========

type ActivityAction string

const (
	ActionLogin    ActivityAction = "LOGIN"
	ActionLogout   ActivityAction = "LOGOUT"
	ActionRegister ActivityAction = "REGISTER"
)

// ActivityLogLimit caps the stored log; oldest entries are dropped first.
const ActivityLogLimit = 200

// ActivityLogEntry is an append-only audit record, display only.
type ActivityLogEntry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName"`
	Email     string         `json:"email"`
	Action    ActivityAction `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Client    string         `json:"client"`
}
