// Package progression turns quiz outcomes into XP and resolves level-ups.
// It performs no I/O; callers persist the mutated profile.
package progression

import (
	"math"
	"time"

	"github.com/jgirmay/radlearn/internal/learner/models"
)

const (
	// BaseXPPerPoint is awarded per correct answer before multipliers.
	BaseXPPerPoint = 10
	// GrowthFactor scales the next level threshold on every level-up.
	GrowthFactor = 1.6
)

// Attempt is one completed quiz. Apply clamps TotalQuestions to
// [1, MaxQuizQuestions] and Score to [0, TotalQuestions].
type Attempt struct {
	ID             string
	Score          int
	TotalQuestions int
	Category       string
	Difficulty     models.Difficulty
	CompletedAt    time.Time
}

// Outcome reports what Apply did.
type Outcome struct {
	XPGained     int               `json:"xpGained"`
	LeveledUp    bool              `json:"leveledUp"`
	LevelsGained int               `json:"levelsGained"`
	Result       models.QuizResult `json:"result"`
}

// CountMultiplier rewards longer quizzes. Thresholds are checked highest
// first and do not stack.
func CountMultiplier(totalQuestions int) float64 {
	switch {
	case totalQuestions >= 50:
		return 10
	case totalQuestions >= 25:
		return 5
	case totalQuestions >= 10:
		return 2
	default:
		return 1
	}
}

// XPFor computes round(score × 10 × difficulty × count). Unknown
// difficulties are scored as Beginner. Inputs are clamped first, so the
// award is never negative and never exceeds the award for a perfect
// MaxQuizQuestions Advanced quiz.
func XPFor(score, totalQuestions int, difficulty models.Difficulty) int {
	score, totalQuestions = clampAttempt(score, totalQuestions)
	mult, ok := difficulty.Multiplier()
	if !ok {
		mult = 1.0
	}
	return int(math.Round(float64(score) * BaseXPPerPoint * mult * CountMultiplier(totalQuestions)))
}

// clampAttempt bounds totalQuestions to [1, MaxQuizQuestions] and score to
// [0, totalQuestions].
func clampAttempt(score, totalQuestions int) (int, int) {
	totalQuestions = min(max(totalQuestions, 1), models.MaxQuizQuestions)
	score = min(max(score, 0), totalQuestions)
	return score, totalQuestions
}

// NextThreshold is round(threshold × 1.6), saturating at math.MaxInt.
func NextThreshold(threshold int) int {
	next := math.Round(float64(threshold) * GrowthFactor)
	if next >= math.MaxInt {
		return math.MaxInt
	}
	return int(next)
}

// addSaturating adds a non-negative delta without wrapping past math.MaxInt.
func addSaturating(v, delta int) int {
	if v > math.MaxInt-delta {
		return math.MaxInt
	}
	return v + delta
}

// Apply awards XP for a, records the result at the head of the history and
// resolves any number of level-ups. Afterwards 0 <= CurrentXP < NextLevelXP.
func Apply(p *models.UserProfile, a Attempt) Outcome {
	score, total := clampAttempt(a.Score, a.TotalQuestions)
	xp := XPFor(score, total, a.Difficulty)

	if p.Level < models.StartingLevel {
		p.Level = models.StartingLevel
	}
	if p.NextLevelXP <= 0 {
		p.NextLevelXP = models.StartingNextLevelXP
	}
	if p.CurrentXP < 0 {
		p.CurrentXP = 0
	}

	p.CurrentXP = addSaturating(p.CurrentXP, xp)
	p.TotalXP = addSaturating(p.TotalXP, xp)
	p.QuizzesTaken++

	result := models.QuizResult{
		ID:         a.ID,
		Date:       a.CompletedAt.UTC(),
		Category:   a.Category,
		Difficulty: a.Difficulty,
		Score:      score,
		Total:      total,
		XPEarned:   xp,
	}
	history := make([]models.QuizResult, 0, len(p.History)+1)
	history = append(history, result)
	history = append(history, p.History...)
	if len(history) > models.HistoryLimit {
		history = history[:models.HistoryLimit]
	}
	p.History = history

	levels := 0
	for p.CurrentXP >= p.NextLevelXP {
		p.CurrentXP -= p.NextLevelXP
		p.Level++
		p.NextLevelXP = NextThreshold(p.NextLevelXP)
		levels++
	}

	return Outcome{
		XPGained:     xp,
		LeveledUp:    levels > 0,
		LevelsGained: levels,
		Result:       result,
	}
}
