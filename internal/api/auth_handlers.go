package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/access"
	"github.com/jgirmay/radlearn/internal/assistant"
	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/middleware"
	"github.com/jgirmay/radlearn/internal/learner/models"
	"github.com/jgirmay/radlearn/internal/learner/services"
	"github.com/jgirmay/radlearn/internal/metrics"
	"github.com/jgirmay/radlearn/internal/quiz"
)

// Handlers serves the /api/v1 routes.
type Handlers struct {
	auth     *services.AuthService
	progress *services.ProgressService
	quizzes  *quiz.Bank
	tutor    *assistant.Tutor
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Profile        models.UserProfile `json:"profile"`
	ExpiresAt      time.Time          `json:"expiresAt"`
	Features       []access.Feature   `json:"features"`
	StatusMessages []string           `json:"statusMessages,omitempty"`
}

func newSessionResponse(s *models.Session) SessionResponse {
	return SessionResponse{
		Profile:   s.Profile,
		ExpiresAt: s.ExpiresAt(),
		Features:  access.Capabilities(s.Profile.Role).List(),
	}
}

// Login authenticates and installs a new session for the client.
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req services.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.BadRequest("malformed login request"))
		return
	}
	req.Client = c.Request.UserAgent()

	session, err := h.auth.Authenticate(c.Request.Context(), scopeFrom(c), req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	resp := newSessionResponse(session)
	resp.StatusMessages = services.StatusMessages
	c.JSON(http.StatusOK, resp)
}

// CurrentSession returns the live session or 401.
// GET /api/v1/auth/session
func (h *Handlers) CurrentSession(c *gin.Context) {
	session, ok := h.auth.CurrentSession(c.Request.Context(), scopeFrom(c))
	if !ok {
		middleware.JSONErrorResponse(c, errors.Unauthorized("no active session"))
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), scopeFrom(c), c.Request.UserAgent()); err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Navigation lists the destinations the caller may open. It works without a
// session.
// GET /api/v1/navigation
func (h *Handlers) Navigation(c *gin.Context) {
	var profile *models.UserProfile
	if session, ok := h.auth.CurrentSession(c.Request.Context(), scopeFrom(c)); ok {
		profile = &session.Profile
	}
	c.JSON(http.StatusOK, gin.H{"destinations": access.Navigation(profile)})
}

// Activity returns the newest activity log entries of this client storage.
// GET /api/v1/activity?limit=N
func (h *Handlers) Activity(c *gin.Context) {
	limit, err := queryInt(c, "limit", models.ActivityLogLimit)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	entries := scopeFrom(c).Activity.List(c.Request.Context(), limit)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Validation("invalid query parameter", key+" must be a non-negative integer")
	}
	return n, nil
}
