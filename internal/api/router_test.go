package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/radlearn/internal/access"
	"github.com/jgirmay/radlearn/internal/assistant"
	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/middleware"
	"github.com/jgirmay/radlearn/internal/learner/services"
	"github.com/jgirmay/radlearn/internal/metrics"
	"github.com/jgirmay/radlearn/internal/quiz"
	"github.com/jgirmay/radlearn/internal/storage"
)

const adminCode = "RAD-ADMIN-2026"

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.New()
	cfg := services.DefaultAuthConfig()
	cfg.Delay = 0
	cfg.AdminAccessCode = adminCode

	bank, err := quiz.Default()
	require.NoError(t, err)

	return NewRouter(Deps{
		Store:    storage.NewMemoryStore(),
		Auth:     services.NewAuthService(cfg, nil, m, nil),
		Progress: services.NewProgressService(nil, m, nil),
		Quizzes:  bank,
		Tutor:    assistant.NewTutor(nil, nil, nil, m),
		Metrics:  m,
		Version:  "test",
	})
}

func do(t *testing.T, r *gin.Engine, client, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "radlearn-test")
	if client != "" {
		req.Header.Set(middleware.ClientHeader, client)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func login(t *testing.T, r *gin.Engine, client string, body gin.H) SessionResponse {
	t.Helper()
	w := do(t, r, client, http.MethodPost, "/api/v1/auth/login", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp SessionResponse
	decode(t, w, &resp)
	return resp
}

func studentBody(email string) gin.H {
	return gin.H{"email": email, "name": "Sam", "role": "student", "regNumber": "RT-2031", "institution": "St Mary's"}
}

func TestLoginSessionLogout(t *testing.T) {
	r := setupTestRouter(t)
	const client = "client-alpha"

	w := do(t, r, client, http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	resp := login(t, r, client, studentBody("sam@example.org"))
	assert.Equal(t, "sam@example.org", resp.Profile.Email)
	assert.Equal(t, 1, resp.Profile.Level)
	assert.Equal(t, services.StatusMessages, resp.StatusMessages)
	assert.Contains(t, resp.Features, access.FeatureQuiz)

	w = do(t, r, client, http.MethodGet, "/api/v1/auth/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Another client storage does not see the session.
	w = do(t, r, "client-bravo", http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, client, http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, client, http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginValidation(t *testing.T) {
	r := setupTestRouter(t)

	w := do(t, r, "client-alpha", http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "sam@example.org", "role": "student", "regNumber": "R1", "institution": "St Mary's"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var appErr errors.AppError
	decode(t, w, &appErr)
	assert.Equal(t, errors.CodeValidation, appErr.Code)

	w = do(t, r, "client-alpha", http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "root@example.org", "role": "admin", "accessCode": "guess"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, "client-alpha", http.MethodGet, "/api/v1/auth/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuizFlow(t *testing.T) {
	r := setupTestRouter(t)
	const client = "client-alpha"

	w := do(t, r, client, http.MethodGet, "/api/v1/quizzes", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login(t, r, client, studentBody("sam@example.org"))

	w = do(t, r, client, http.MethodGet, "/api/v1/quizzes?difficulty=Beginner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Quizzes []quiz.Summary `json:"quizzes"`
	}
	decode(t, w, &list)
	require.Len(t, list.Quizzes, 1)

	w = do(t, r, client, http.MethodGet, "/api/v1/quizzes/physics-basics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "explanation")

	w = do(t, r, client, http.MethodPost, "/api/v1/quizzes/physics-basics/submit",
		gin.H{"answers": []int{1, 1, 0, 2, 1}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sub SubmitQuizResponse
	decode(t, w, &sub)
	assert.Equal(t, 5, sub.Grade.Score)
	assert.Equal(t, 50, sub.Outcome.XPGained)
	assert.Equal(t, 50, sub.Outcome.Profile.CurrentXP)

	w = do(t, r, client, http.MethodGet, "/api/v1/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary services.ProgressSummary
	decode(t, w, &summary)
	assert.Equal(t, 1, summary.QuizzesTaken)
	assert.Equal(t, 50, summary.XPToNextLevel)
	assert.InDelta(t, 100.0, summary.Accuracy, 0.001)

	w = do(t, r, client, http.MethodGet, "/api/v1/quizzes/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordQuizLevelsUp(t *testing.T) {
	r := setupTestRouter(t)
	const client = "client-alpha"
	login(t, r, client, studentBody("sam@example.org"))

	w := do(t, r, client, http.MethodPost, "/api/v1/progress/quiz",
		gin.H{"score": 10, "totalQuestions": 10, "category": "Physics", "difficulty": "Advanced"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out services.QuizOutcome
	decode(t, w, &out)
	assert.Equal(t, 500, out.XPGained)
	assert.True(t, out.LeveledUp)

	w = do(t, r, client, http.MethodGet, "/api/v1/progress/history?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(t, r, client, http.MethodPost, "/api/v1/progress/quiz",
		gin.H{"score": 11, "totalQuestions": 10, "category": "Physics", "difficulty": "Advanced"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordQuizRejectsOversizedQuiz(t *testing.T) {
	r := setupTestRouter(t)
	const client = "client-big"
	login(t, r, client, studentBody("max@example.org"))

	w := do(t, r, client, http.MethodPost, "/api/v1/progress/quiz",
		gin.H{"score": 100000000000000000, "totalQuestions": 100000000000000000, "category": "Physics", "difficulty": "Advanced"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(t, r, client, http.MethodGet, "/api/v1/progress/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary services.ProgressSummary
	decode(t, w, &summary)
	assert.Equal(t, 0, summary.TotalXP)
	assert.Equal(t, 0, summary.QuizzesTaken)
}

func TestRoleGating(t *testing.T) {
	r := setupTestRouter(t)

	login(t, r, "client-patient", gin.H{"email": "pat@example.org", "role": "patient"})
	w := do(t, r, "client-patient", http.MethodPost, "/api/v1/calculators",
		gin.H{"kind": "mas", "params": gin.H{"milliAmperes": 200, "seconds": 0.05}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, "client-patient", http.MethodGet, "/api/v1/activity", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	login(t, r, "client-admin", gin.H{"email": "root@example.org", "role": "admin", "accessCode": adminCode})
	w = do(t, r, "client-admin", http.MethodGet, "/api/v1/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"action":"REGISTER"`)

	w = do(t, r, "client-admin", http.MethodPost, "/api/v1/calculators",
		gin.H{"kind": "mas", "params": gin.H{"milliAmperes": 200, "seconds": 0.05}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var calc CalculateResponse
	decode(t, w, &calc)
	assert.InDelta(t, 10.0, calc.Value, 1e-9)
	assert.Equal(t, "mAs = mA × s", calc.Formula)

	w = do(t, r, "client-admin", http.MethodPost, "/api/v1/calculators",
		gin.H{"kind": "exposure_time", "params": gin.H{"mAs": 1e308, "milliAmperes": 1e-300}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestNavigation(t *testing.T) {
	r := setupTestRouter(t)

	var nav struct {
		Destinations []access.Destination `json:"destinations"`
	}
	w := do(t, r, "client-alpha", http.MethodGet, "/api/v1/navigation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &nav)
	assert.Equal(t, access.Navigation(nil), nav.Destinations)

	login(t, r, "client-alpha", gin.H{"email": "off@example.org", "role": "officer", "licenseId": "LIC-7781"})
	w = do(t, r, "client-alpha", http.MethodGet, "/api/v1/navigation", nil)
	decode(t, w, &nav)
	var features []access.Feature
	for _, d := range nav.Destinations {
		features = append(features, d.Feature)
	}
	assert.Contains(t, features, access.FeatureDoseRegistry)
	assert.NotContains(t, features, access.FeatureAdminConsole)
}

func TestAssistantFallbacks(t *testing.T) {
	r := setupTestRouter(t)

	w := do(t, r, "client-alpha", http.MethodPost, "/api/v1/assistant/ask", gin.H{"question": "What is ALARA?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sorry")

	w = do(t, r, "client-alpha", http.MethodPost, "/api/v1/assistant/ask", gin.H{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, "client-alpha", http.MethodPost, "/api/v1/assistant/image", gin.H{"prompt": "hand x-ray"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login(t, r, "client-alpha", studentBody("sam@example.org"))
	w = do(t, r, "client-alpha", http.MethodPost, "/api/v1/assistant/image", gin.H{"prompt": "hand x-ray", "size": "2K"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "data:image/svg+xml;base64,")

	w = do(t, r, "client-alpha", http.MethodPost, "/api/v1/assistant/image", gin.H{"prompt": "hand x-ray", "size": "8K"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupTestRouter(t)
	login(t, r, "client-alpha", studentBody("sam@example.org"))

	w := do(t, r, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, "", http.MethodGet, "/health/readiness", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, "", http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "radlearn_auth_events_total")
}
