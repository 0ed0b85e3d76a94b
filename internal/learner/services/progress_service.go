package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/validation"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/learner/progression"
	"github.com/jgirmay/radlearn/internal/metrics"
)

// QuizSubmission is a finished quiz reported by the client.
type QuizSubmission struct {
	Score          int               `json:"score" validate:"min=0,ltefield=TotalQuestions"`
	TotalQuestions int               `json:"totalQuestions" validate:"min=1,max=500"` // models.MaxQuizQuestions
	Category       string            `json:"category" validate:"required,max=80"`
	Difficulty     models.Difficulty `json:"difficulty" validate:"required,oneof=Beginner Intermediate Advanced"`
}

// QuizOutcome is the result of recording a quiz.
type QuizOutcome struct {
	progression.Outcome
	Profile *models.UserProfile `json:"profile"`
}

// ProgressSummary is the dashboard view of a profile.
type ProgressSummary struct {
	Level         int     `json:"level"`
	CurrentXP     int     `json:"currentXp"`
	NextLevelXP   int     `json:"nextLevelXp"`
	XPToNextLevel int     `json:"xpToNextLevel"`
	TotalXP       int     `json:"totalXp"`
	QuizzesTaken  int     `json:"quizzesTaken"`
	Accuracy      float64 `json:"accuracy"` // percent over retained history
}

type ProgressService struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

func NewProgressService(log *zap.Logger, m *metrics.Metrics, now func() time.Time) *ProgressService {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if now == nil {
		now = time.Now
	}
	return &ProgressService{log: log, metrics: m, now: now, newID: uuid.NewString}
}

// RecordQuiz applies sub to the current session's profile and persists the
// result into the registry, then the session. The session keeps its
// original expiry. A failed registry write leaves both untouched.
func (s *ProgressService) RecordQuiz(ctx context.Context, sc *SessionContext, sub QuizSubmission) (*QuizOutcome, error) {
	sub.Category = strings.TrimSpace(sub.Category)
	if errs := validation.Validate(sub); len(errs) > 0 {
		return nil, errors.Validation("invalid quiz result", validation.Summary(errs))
	}

	session, ok := sc.Sessions.Current(ctx)
	if !ok {
		return nil, errors.Unauthorized("no active session")
	}
	profile := session.Profile.Clone()

	out := progression.Apply(profile, progression.Attempt{
		ID:             s.newID(),
		Score:          sub.Score,
		TotalQuestions: sub.TotalQuestions,
		Category:       sub.Category,
		Difficulty:     sub.Difficulty,
		CompletedAt:    s.now(),
	})

	if err := sc.Profiles.Save(ctx, profile); err != nil {
		return nil, errors.Internal("failed to update profile", err.Error())
	}
	if _, err := sc.Sessions.Save(ctx, profile, session.ExpiresAt()); err != nil {
		return nil, errors.Internal("failed to update session", err.Error())
	}

	if out.XPGained >= 0 {
		s.metrics.XPAwarded.Add(float64(out.XPGained))
		s.metrics.QuizXP.Observe(float64(out.XPGained))
	}
	if out.LevelsGained > 0 {
		s.metrics.LevelUps.Add(float64(out.LevelsGained))
		s.log.Info("learner leveled up",
			zap.String("profile_id", profile.ID),
			zap.Int("level", profile.Level),
			zap.Int("levels_gained", out.LevelsGained),
		)
	}

	return &QuizOutcome{Outcome: out, Profile: profile}, nil
}

// Summary returns the progress figures of the current session.
func (s *ProgressService) Summary(ctx context.Context, sc *SessionContext) (*ProgressSummary, error) {
	session, ok := sc.Sessions.Current(ctx)
	if !ok {
		return nil, errors.Unauthorized("no active session")
	}
	p := &session.Profile

	correct, asked := 0, 0
	for _, r := range p.History {
		correct += r.Score
		asked += r.Total
	}
	accuracy := 0.0
	if asked > 0 {
		accuracy = float64(correct) / float64(asked) * 100
	}

	return &ProgressSummary{
		Level:         p.Level,
		CurrentXP:     p.CurrentXP,
		NextLevelXP:   p.NextLevelXP,
		XPToNextLevel: p.XPToNextLevel(),
		TotalXP:       p.TotalXP,
		QuizzesTaken:  p.QuizzesTaken,
		Accuracy:      accuracy,
	}, nil
}

// History returns up to limit results, newest first. limit <= 0 means all.
func (s *ProgressService) History(ctx context.Context, sc *SessionContext, limit int) ([]models.QuizResult, error) {
	session, ok := sc.Sessions.Current(ctx)
	if !ok {
		return nil, errors.Unauthorized("no active session")
	}
	history := session.Profile.History
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}
