// Package quiz holds the built-in quiz bank and grades submissions.
package quiz

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/learner/models"
)

//go:embed bank.yaml
var defaultBank []byte

type Question struct {
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []string `yaml:"options" json:"options"`
	Answer      int      `yaml:"answer" json:"-"`
	Explanation string   `yaml:"explanation" json:"-"`
}

type Quiz struct {
	ID         string            `yaml:"id" json:"id"`
	Title      string            `yaml:"title" json:"title"`
	Category   string            `yaml:"category" json:"category"`
	Difficulty models.Difficulty `yaml:"difficulty" json:"difficulty"`
	Questions  []Question        `yaml:"questions" json:"questions"`
}

// Summary is the list view of a quiz.
type Summary struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Category      string            `json:"category"`
	Difficulty    models.Difficulty `json:"difficulty"`
	QuestionCount int               `json:"questionCount"`
}

// Review explains one graded question.
type Review struct {
	Prompt      string `json:"prompt"`
	Chosen      int    `json:"chosen"`
	Correct     int    `json:"correct"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

// Grade is the outcome of a submission, ready for progress recording.
type Grade struct {
	QuizID     string            `json:"quizId"`
	Score      int               `json:"score"`
	Total      int               `json:"total"`
	Category   string            `json:"category"`
	Difficulty models.Difficulty `json:"difficulty"`
	Review     []Review          `json:"review"`
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Category   string
	Difficulty models.Difficulty
}

type Bank struct {
	quizzes []Quiz
	byID    map[string]int
}

// Load parses and checks a YAML quiz bank.
func Load(data []byte) (*Bank, error) {
	var doc struct {
		Quizzes []Quiz `yaml:"quizzes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse quiz bank: %w", err)
	}

	b := &Bank{quizzes: doc.Quizzes, byID: make(map[string]int, len(doc.Quizzes))}
	for i, q := range doc.Quizzes {
		if q.ID == "" {
			return nil, fmt.Errorf("quiz %d: missing id", i)
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("quiz %s: duplicate id", q.ID)
		}
		if !q.Difficulty.Valid() {
			return nil, fmt.Errorf("quiz %s: unknown difficulty %q", q.ID, q.Difficulty)
		}
		if len(q.Questions) == 0 {
			return nil, fmt.Errorf("quiz %s: no questions", q.ID)
		}
		for j, question := range q.Questions {
			if question.Answer < 0 || question.Answer >= len(question.Options) {
				return nil, fmt.Errorf("quiz %s question %d: answer out of range", q.ID, j)
			}
		}
		b.byID[q.ID] = i
	}
	return b, nil
}

// Default returns the bank shipped with the binary.
func Default() (*Bank, error) {
	return Load(defaultBank)
}

func (b *Bank) List(f Filter) []Summary {
	out := make([]Summary, 0, len(b.quizzes))
	for _, q := range b.quizzes {
		if f.Category != "" && !strings.EqualFold(f.Category, q.Category) {
			continue
		}
		if f.Difficulty != "" && f.Difficulty != q.Difficulty {
			continue
		}
		out = append(out, Summary{
			ID:            q.ID,
			Title:         q.Title,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			QuestionCount: len(q.Questions),
		})
	}
	return out
}

// Get returns the quiz; answers and explanations are not serialised.
func (b *Bank) Get(id string) (*Quiz, error) {
	i, ok := b.byID[id]
	if !ok {
		return nil, errors.NotFound("quiz")
	}
	q := b.quizzes[i]
	return &q, nil
}

// Grade scores answers against quiz id. answers[i] is the chosen option
// index for question i; -1 marks an unanswered question.
func (b *Bank) Grade(id string, answers []int) (*Grade, error) {
	q, err := b.Get(id)
	if err != nil {
		return nil, err
	}
	if len(answers) != len(q.Questions) {
		return nil, errors.Validation("answer count mismatch",
			fmt.Sprintf("expected %d answers, got %d", len(q.Questions), len(answers)))
	}

	g := &Grade{
		QuizID:     q.ID,
		Total:      len(q.Questions),
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Review:     make([]Review, 0, len(q.Questions)),
	}
	for i, question := range q.Questions {
		ok := answers[i] == question.Answer
		if ok {
			g.Score++
		}
		g.Review = append(g.Review, Review{
			Prompt:      question.Prompt,
			Chosen:      answers[i],
			Correct:     question.Answer,
			IsCorrect:   ok,
			Explanation: question.Explanation,
		})
	}
	return g, nil
}
