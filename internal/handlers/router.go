package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/BrightPath-Learning/course-progress-service/internal/events"
	"github.com/BrightPath-Learning/course-progress-service/internal/progress"
	"github.com/BrightPath-Learning/course-progress-service/internal/quiz"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	progressHandler *ProgressHandler
}

func NewHandlerManager(
	manager *quiz.Manager,
	store *progress.Store,
	publisher events.EventPublisher,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:     NewQuizHandler(manager, publisher, logger),
		progressHandler: NewProgressHandler(store, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Quiz session routes
		v1.POST("/modules/:module_id/quiz/session", hm.quizHandler.StartSession)

		sessions := v1.Group("/quiz/sessions/:session_id")
		{
			sessions.GET("", hm.quizHandler.GetSession)
			sessions.POST("/select-option", hm.quizHandler.SelectOption)
			sessions.POST("/select-bool", hm.quizHandler.SelectBool)
			sessions.POST("/match", hm.quizHandler.MatchPair)
			sessions.POST("/select-source", hm.quizHandler.SelectSource)
			sessions.POST("/assign-target", hm.quizHandler.AssignTarget)
			sessions.POST("/unmatch", hm.quizHandler.UnmatchSource)
			sessions.POST("/check", hm.quizHandler.CheckAnswer)
			sessions.POST("/next", hm.quizHandler.NextQuestion)
			sessions.POST("/retry", hm.quizHandler.Retry)
			sessions.DELETE("", hm.quizHandler.EndSession)
		}

		// Progress routes
		progressRoutes := v1.Group("/progress")
		{
			progressRoutes.GET("", hm.progressHandler.GetDocument)
			progressRoutes.GET("/overall", hm.progressHandler.GetOverall)
			progressRoutes.POST("/reset", hm.progressHandler.ResetAll)
			progressRoutes.GET("/modules/:module_id", hm.progressHandler.GetModule)
			progressRoutes.POST("/modules/:module_id/sections/:section_id/complete", hm.progressHandler.MarkSectionComplete)
			progressRoutes.POST("/modules/:module_id/quiz-score", hm.progressHandler.SaveQuizScore)
			progressRoutes.POST("/modules/:module_id/reset", hm.progressHandler.ResetModule)
		}
	}
}
