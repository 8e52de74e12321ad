package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BrightPath-Learning/course-progress-service/internal/events"
	"github.com/BrightPath-Learning/course-progress-service/internal/models"
	"github.com/BrightPath-Learning/course-progress-service/internal/quiz"
)

// QuizHandler exposes quiz sessions over HTTP. The session state machine
// stays transport-agnostic; this layer only translates requests and builds
// views that never leak answer keys before checking.
type QuizHandler struct {
	manager   *quiz.Manager
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewQuizHandler(manager *quiz.Manager, publisher events.EventPublisher, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{
		manager:   manager,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== REQUEST STRUCTURES =====

type SelectOptionRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}

type SelectBoolRequest struct {
	Value *bool `json:"value" binding:"required"`
}

type MatchPairRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
}

type SelectSourceRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

type AssignTargetRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

type UnmatchSourceRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// ===== VIEW STRUCTURES =====

type QuestionView struct {
	ID     string              `json:"id"`
	Kind   models.QuestionKind `json:"kind"`
	Prompt string              `json:"prompt"`

	Options []models.Option    `json:"options,omitempty"`
	Sources []models.MatchItem `json:"sources,omitempty"`
	Targets []models.MatchItem `json:"targets,omitempty"`

	SelectedOption string            `json:"selected_option,omitempty"`
	SelectedBool   *bool             `json:"selected_bool,omitempty"`
	MatchedPairs   map[string]string `json:"matched_pairs,omitempty"`
	PendingSource  string            `json:"pending_source,omitempty"`

	// Populated only once the question has been checked.
	Correct     *bool  `json:"correct,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type ResultsView struct {
	ScorePercent int  `json:"score_percent"`
	CorrectCount int  `json:"correct_count"`
	Total        int  `json:"total"`
	Passed       bool `json:"passed"`
}

type SessionView struct {
	SessionID string        `json:"session_id"`
	ModuleID  string        `json:"module_id"`
	Title     string        `json:"title"`
	State     quiz.State    `json:"state"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	CanCheck  bool          `json:"can_check"`
	Question  *QuestionView `json:"question,omitempty"`
	Results   *ResultsView  `json:"results,omitempty"`
}

// ===== HANDLERS =====

// StartSession creates a quiz session for a module
// POST /api/v1/modules/:module_id/quiz/session
func (h *QuizHandler) StartSession(c *gin.Context) {
	moduleID := ParseStringIDParam(c, "module_id")
	if moduleID == "" {
		return
	}

	session, err := h.manager.Start(c.Request.Context(), moduleID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	var view SessionView
	if err := h.manager.With(session.ID, func(s *quiz.Session) {
		view = buildSessionView(s)
	}); err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession returns the current session state
// GET /api/v1/quiz/sessions/:session_id
func (h *QuizHandler) GetSession(c *gin.Context) {
	h.withSessionView(c, func(*quiz.Session) {})
}

// SelectOption records a tentative multiple-choice selection
// POST /api/v1/quiz/sessions/:session_id/select-option
func (h *QuizHandler) SelectOption(c *gin.Context) {
	var req SelectOptionRequest
	if !bindJSON(c, &req) {
		return
	}
	h.withSessionView(c, func(s *quiz.Session) {
		s.SelectOption(req.OptionID)
	})
}

// SelectBool records a tentative true/false selection
// POST /api/v1/quiz/sessions/:session_id/select-bool
func (h *QuizHandler) SelectBool(c *gin.Context) {
	var req SelectBoolRequest
	if !bindJSON(c, &req) {
		return
	}
	h.withSessionView(c, func(s *quiz.Session) {
		s.SelectBool(*req.Value)
	})
}

// MatchPair records one drag-and-drop pairing
// POST /api/v1/quiz/sessions/:session_id/match
func (h *QuizHandler) MatchPair(c *gin.Context) {
	var req MatchPairRequest
	if !bindJSON(c, &req) {
		return
	}
	h.withSessionView(c, func(s *quiz.Session) {
		s.MatchPair(req.SourceID, req.TargetID)
	})
}

// SelectSource marks a source as pending (click-to-match)
// POST /api/v1/quiz/sessions/:session_id/select-source
func (h *QuizHandler) SelectSource(c *gin.Context) {
	var req SelectSourceRequest
	if !bindJSON(c, &req) {
		return
	}
	h.withSessionView(c, func(s *quiz.Session) {
		s.SelectSource(req.SourceID)
	})
}

// AssignTarget pairs the pending source with a target (click-to-match)
// POST /api/v1/quiz/sessions/:session_id/assign-target
func (h *QuizHandler) AssignTarget(c *gin.Context) {
	var req AssignTargetRequest
	if !bindJSON(c, &req) {
		return
	}
	h.withSessionView(c, func(s *quiz.Session) {
		s.AssignTarget(req.TargetID)
	})
}

// UnmatchSource removes one pairing
// POST /api/v1/quiz/sessions/:session_id/unmatch
func (h *QuizHandler) UnmatchSource(c *gin.Context) {
	var req UnmatchSourceRequest
	if !bindJSON(c, &req) {
		return
	}
	h.withSessionView(c, func(s *quiz.Session) {
		s.UnmatchSource(req.SourceID)
	})
}

// CheckAnswer validates the current selection
// POST /api/v1/quiz/sessions/:session_id/check
func (h *QuizHandler) CheckAnswer(c *gin.Context) {
	h.withSessionView(c, func(s *quiz.Session) {
		s.CheckAnswer()
	})
}

// NextQuestion advances past a checked question
// POST /api/v1/quiz/sessions/:session_id/next
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	h.withSessionView(c, func(s *quiz.Session) {
		wasResults := s.State() == quiz.StateResults
		s.NextQuestion(c.Request.Context())
		if !wasResults && s.State() == quiz.StateResults {
			h.publishQuizScored(s)
		}
	})
}

// Retry clears the session and restarts from the first question
// POST /api/v1/quiz/sessions/:session_id/retry
func (h *QuizHandler) Retry(c *gin.Context) {
	h.withSessionView(c, func(s *quiz.Session) {
		s.Retry()
	})
}

// EndSession discards a session
// DELETE /api/v1/quiz/sessions/:session_id
func (h *QuizHandler) EndSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}
	h.manager.End(sessionID)
	c.JSON(http.StatusOK, SuccessResponse{Message: "session ended"})
}

// ===== HELPERS =====

func (h *QuizHandler) withSessionView(c *gin.Context, mutate func(*quiz.Session)) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	var view SessionView
	err := h.manager.With(sessionID, func(s *quiz.Session) {
		mutate(s)
		view = buildSessionView(s)
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *QuizHandler) publishQuizScored(s *quiz.Session) {
	if h.publisher == nil {
		return
	}

	event := &events.ProgressEvent{
		ID:        uuid.NewString(),
		Type:      events.EventQuizScored,
		Timestamp: time.Now().UTC(),
		Source:    "course-progress-service",
		Version:   "1.0",
		Data: events.QuizScoredEvent{
			ModuleID:     s.ModuleID(),
			ScorePercent: s.ScorePercent(),
			Passed:       s.Passed(),
		},
	}
	if err := h.publisher.PublishProgressEvent(context.Background(), event); err != nil {
		h.logger.Warn("Failed to publish quiz scored event",
			"module_id", s.ModuleID(),
			"error", err)
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return false
	}
	return true
}

func buildSessionView(s *quiz.Session) SessionView {
	view := SessionView{
		SessionID: s.ID,
		ModuleID:  s.ModuleID(),
		Title:     s.Title(),
		State:     s.State(),
		Index:     s.CurrentIndex(),
		Total:     s.TotalQuestions(),
		CanCheck:  s.CanCheck(),
	}

	if s.State() == quiz.StateResults {
		view.Results = &ResultsView{
			ScorePercent: s.ScorePercent(),
			CorrectCount: s.CorrectCount(),
			Total:        s.TotalQuestions(),
			Passed:       s.Passed(),
		}
		return view
	}

	question := s.Question()
	if question == nil {
		return view
	}

	questionView := &QuestionView{
		ID:             question.ID,
		Kind:           question.Kind,
		Prompt:         question.Prompt,
		SelectedOption: s.SelectedOption(),
		SelectedBool:   s.SelectedBool(),
		PendingSource:  s.PendingSource(),
	}

	switch question.Kind {
	case models.MultipleChoice:
		if content, err := question.MultipleChoice(); err == nil {
			questionView.Options = content.Options
		}
	case models.DragMatch:
		if content, err := question.DragMatch(); err == nil {
			questionView.Sources = s.ShuffledSources()
			questionView.Targets = content.Targets
		}
		questionView.MatchedPairs = s.MatchedPairs()
	}

	if s.State() == quiz.StateChecked {
		if answer := s.Answers()[s.CurrentIndex()]; answer != nil {
			correct := answer.Correct
			questionView.Correct = &correct
			questionView.Explanation = question.Explanation
		}
	}

	view.Question = questionView
	return view
}
