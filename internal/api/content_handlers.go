package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/radlearn/internal/assistant"
	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/middleware"
	"github.com/jgirmay/radlearn/internal/common/validation"
	"github.com/jgirmay/radlearn/internal/dosecalc"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/learner/services"
	"github.com/jgirmay/radlearn/internal/quiz"
)

type CalculateRequest struct {
	Kind   dosecalc.Kind   `json:"kind"`
	Params json.RawMessage `json:"params"`
}

type CalculateResponse struct {
	dosecalc.Result
	Formula string `json:"formula"`
}

// GET /api/v1/calculators
func (h *Handlers) ListCalculators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": dosecalc.Kinds})
}

// POST /api/v1/calculators
func (h *Handlers) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.BadRequest("malformed calculator request"))
		return
	}

	calc, err := dosecalc.Decode(req.Kind, req.Params)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	res, err := calc.Compute()
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	h.metrics.Calculations.WithLabelValues(string(calc.Kind())).Inc()
	c.JSON(http.StatusOK, CalculateResponse{Result: res, Formula: dosecalc.Formula(calc)})
}

// GET /api/v1/quizzes?category=&difficulty=
func (h *Handlers) ListQuizzes(c *gin.Context) {
	quizzes := h.quizzes.List(quiz.Filter{
		Category:   c.Query("category"),
		Difficulty: models.Difficulty(c.Query("difficulty")),
	})
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes, "count": len(quizzes)})
}

// GET /api/v1/quizzes/:id
func (h *Handlers) GetQuiz(c *gin.Context) {
	q, err := h.quizzes.Get(c.Param("id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type SubmitQuizRequest struct {
	Answers []int `json:"answers"`
}

type SubmitQuizResponse struct {
	Grade   *quiz.Grade           `json:"grade"`
	Outcome *services.QuizOutcome `json:"outcome"`
}

// SubmitQuiz grades a bank quiz and records it against the session profile.
// POST /api/v1/quizzes/:id/submit
func (h *Handlers) SubmitQuiz(c *gin.Context) {
	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.BadRequest("malformed submission"))
		return
	}

	grade, err := h.quizzes.Grade(c.Param("id"), req.Answers)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	out, err := h.progress.RecordQuiz(c.Request.Context(), scopeFrom(c), services.QuizSubmission{
		Score:          grade.Score,
		TotalQuestions: grade.Total,
		Category:       grade.Category,
		Difficulty:     grade.Difficulty,
	})
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, SubmitQuizResponse{Grade: grade, Outcome: out})
}

type AskRequest struct {
	Question string           `json:"question" validate:"required,max=2000"`
	Context  string           `json:"context" validate:"max=4000"`
	History  []assistant.Turn `json:"history" validate:"dive"`
}

// Ask always answers 200; model failures come back as the fallback text.
// POST /api/v1/assistant/ask
func (h *Handlers) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.BadRequest("malformed question"))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if errs := validation.Validate(req); len(errs) > 0 {
		middleware.JSONErrorResponse(c, errors.Validation("invalid question", validation.Summary(errs)))
		return
	}

	answer := h.tutor.Ask(c.Request.Context(), req.Question, req.Context, req.History)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

type ImageRequest struct {
	Prompt string `json:"prompt" validate:"required,max=1000"`
	Size   string `json:"size"`
}

// POST /api/v1/assistant/image
func (h *Handlers) GenerateImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.BadRequest("malformed image request"))
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if errs := validation.Validate(req); len(errs) > 0 {
		middleware.JSONErrorResponse(c, errors.Validation("invalid image request", validation.Summary(errs)))
		return
	}
	size, ok := assistant.ParseSizeTier(req.Size)
	if !ok {
		middleware.JSONErrorResponse(c, errors.Validation("invalid image request", "size must be 1K, 2K or 4K"))
		return
	}

	uri, err := h.tutor.GenerateImage(c.Request.Context(), profileFrom(c), req.Prompt, size)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": uri})
}
