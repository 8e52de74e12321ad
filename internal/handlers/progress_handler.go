package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
	"github.com/BrightPath-Learning/course-progress-service/internal/progress"
)

// ProgressHandler exposes the progress store: per-module and overall
// percentages, section completion events from the reading UI, and resets.
type ProgressHandler struct {
	store  *progress.Store
	logger *slog.Logger
}

func NewProgressHandler(store *progress.Store, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		store:  store,
		logger: logger,
	}
}

type SaveQuizScoreRequest struct {
	ScorePercent *int `json:"score_percent" binding:"required"`
}

type ModuleProgressView struct {
	ModuleID string                 `json:"module_id"`
	Percent  int                    `json:"percent"`
	Record   *models.ModuleProgress `json:"record"`
}

// GetDocument returns the whole progress document
// GET /api/v1/progress
func (h *ProgressHandler) GetDocument(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Document())
}

// GetOverall returns the overall progress percentage
// GET /api/v1/progress/overall
func (h *ProgressHandler) GetOverall(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"overall_progress": h.store.OverallProgress()})
}

// GetModule returns one module's record and weighted percentage
// GET /api/v1/progress/modules/:module_id
func (h *ProgressHandler) GetModule(c *gin.Context) {
	moduleID := ParseStringIDParam(c, "module_id")
	if moduleID == "" {
		return
	}

	record, err := h.store.Module(moduleID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	percent, err := h.store.ModuleProgress(moduleID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ModuleProgressView{
		ModuleID: moduleID,
		Percent:  percent,
		Record:   record,
	})
}

// MarkSectionComplete records a section as read
// POST /api/v1/progress/modules/:module_id/sections/:section_id/complete
func (h *ProgressHandler) MarkSectionComplete(c *gin.Context) {
	moduleID := ParseStringIDParam(c, "module_id")
	if moduleID == "" {
		return
	}
	sectionID := ParseStringIDParam(c, "section_id")
	if sectionID == "" {
		return
	}

	if err := h.store.MarkSectionComplete(c.Request.Context(), moduleID, sectionID); err != nil {
		HandleServiceError(c, err)
		return
	}
	h.GetModule(c)
}

// SaveQuizScore overwrites a module's latest quiz score
// POST /api/v1/progress/modules/:module_id/quiz-score
func (h *ProgressHandler) SaveQuizScore(c *gin.Context) {
	moduleID := ParseStringIDParam(c, "module_id")
	if moduleID == "" {
		return
	}

	var req SaveQuizScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.store.SaveQuizScore(c.Request.Context(), moduleID, *req.ScorePercent); err != nil {
		HandleServiceError(c, err)
		return
	}
	h.GetModule(c)
}

// ResetModule restores one module to defaults
// POST /api/v1/progress/modules/:module_id/reset
func (h *ProgressHandler) ResetModule(c *gin.Context) {
	moduleID := ParseStringIDParam(c, "module_id")
	if moduleID == "" {
		return
	}

	if err := h.store.ResetModule(c.Request.Context(), moduleID); err != nil {
		HandleServiceError(c, err)
		return
	}
	h.GetModule(c)
}

// ResetAll restores every module to defaults
// POST /api/v1/progress/reset
func (h *ProgressHandler) ResetAll(c *gin.Context) {
	if err := h.store.ResetAll(c.Request.Context()); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Document())
}
