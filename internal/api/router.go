// Package api exposes the learner services over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/radlearn/internal/access"
	"github.com/jgirmay/radlearn/internal/assistant"
	commonHandlers "github.com/jgirmay/radlearn/internal/common/handlers"
	"github.com/jgirmay/radlearn/internal/common/health"
	"github.com/jgirmay/radlearn/internal/common/middleware"
	"github.com/jgirmay/radlearn/internal/learner/services"
	"github.com/jgirmay/radlearn/internal/metrics"
	"github.com/jgirmay/radlearn/internal/quiz"
	"github.com/jgirmay/radlearn/internal/storage"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Store    storage.Store
	Auth     *services.AuthService
	Progress *services.ProgressService
	Quizzes  *quiz.Bank
	Tutor    *assistant.Tutor
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Version  string
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(middleware.ErrorHandler(d.Logger))

	healthHandler := commonHandlers.NewHealthHandler(health.NewHealthChecker(d.Store, d.Version))
	healthHandler.Register(router)
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	h := &Handlers{
		auth:     d.Auth,
		progress: d.Progress,
		quizzes:  d.Quizzes,
		tutor:    d.Tutor,
		metrics:  d.Metrics,
		log:      d.Logger,
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.ClientID(), ClientScope(d.Store, d.Auth))
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/login", h.Login)
		authGroup.GET("/session", h.CurrentSession)
		authGroup.POST("/logout", h.Logout)

		v1.GET("/navigation", h.Navigation)

		progressGroup := v1.Group("/progress", RequireSession(d.Auth))
		progressGroup.GET("", h.ProgressSummary)
		progressGroup.GET("/history", h.ProgressHistory)
		progressGroup.POST("/quiz", RequireFeature(access.FeatureQuiz), h.RecordQuiz)

		v1.GET("/activity", RequireSession(d.Auth), RequireFeature(access.FeatureActivityLog), h.Activity)

		calcGroup := v1.Group("/calculators", RequireFeature(access.FeatureCalculators))
		calcGroup.GET("", h.ListCalculators)
		calcGroup.POST("", h.Calculate)

		quizGroup := v1.Group("/quizzes", RequireFeature(access.FeatureQuiz))
		quizGroup.GET("", h.ListQuizzes)
		quizGroup.GET("/:id", h.GetQuiz)
		quizGroup.POST("/:id/submit", RequireSession(d.Auth), h.SubmitQuiz)

		assistantGroup := v1.Group("/assistant")
		assistantGroup.POST("/ask", RequireFeature(access.FeatureAITutor), h.Ask)
		assistantGroup.POST("/image", RequireSession(d.Auth), RequireFeature(access.FeatureImageStudio), h.GenerateImage)
	}

	return router
}
