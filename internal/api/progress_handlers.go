package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/middleware"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/learner/services"
)

// RecordQuiz applies a client-graded quiz to the session profile.
// POST /api/v1/progress/quiz
func (h *Handlers) RecordQuiz(c *gin.Context) {
	var sub services.QuizSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		middleware.JSONErrorResponse(c, errors.BadRequest("malformed quiz result"))
		return
	}

	out, err := h.progress.RecordQuiz(c.Request.Context(), scopeFrom(c), sub)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/v1/progress
func (h *Handlers) ProgressSummary(c *gin.Context) {
	summary, err := h.progress.Summary(c.Request.Context(), scopeFrom(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/v1/progress/history?limit=N
func (h *Handlers) ProgressHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit", models.HistoryLimit)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	history, err := h.progress.History(c.Request.Context(), scopeFrom(c), limit)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}
