package quiz

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/BrightPath-Learning/course-progress-service/internal/bank"
	"github.com/BrightPath-Learning/course-progress-service/internal/models"
)

type State string

const (
	StatePresenting State = "presenting"
	StateChecked    State = "checked"
	StateResults    State = "results"
)

// Animator is the render/animation collaborator the engine pokes at question
// transitions and result reveal. Implementations only affect visual timing;
// a no-op animator leaves every session outcome unchanged.
type Animator interface {
	AnimateIn(element string)
	AnimateOut(element string)
}

// NoopAnimator satisfies Animator without doing anything.
type NoopAnimator struct{}

func (NoopAnimator) AnimateIn(string)  {}
func (NoopAnimator) AnimateOut(string) {}

// ScoreReporter receives the final score once per completed pass through all
// questions. progress.Store implements it.
type ScoreReporter interface {
	SaveQuizScore(ctx context.Context, moduleID string, scorePercent int) error
}

// Engine builds quiz sessions from the question bank.
type Engine struct {
	bank     *bank.Bank
	reporter ScoreReporter
	animator Animator
	logger   *slog.Logger
}

func NewEngine(questionBank *bank.Bank, reporter ScoreReporter, animator Animator, logger *slog.Logger) *Engine {
	if animator == nil {
		animator = NoopAnimator{}
	}
	return &Engine{
		bank:     questionBank,
		reporter: reporter,
		animator: animator,
		logger:   logger,
	}
}

// Load starts a session for a module. Fails with bank.ErrModuleNotFound when
// the module has no question set; bank load/parse failures have already
// surfaced as bank.ErrBankCorrupt at startup.
func (e *Engine) Load(ctx context.Context, moduleID string) (*Session, error) {
	set, err := e.bank.Get(moduleID)
	if err != nil {
		e.logger.Warn("Failed to load question set", "module_id", moduleID, "error", err)
		return nil, err
	}

	session := &Session{
		ID:       uuid.NewString(),
		set:      set,
		state:    StatePresenting,
		answers:  make([]*models.Answer, len(set.Questions)),
		reporter: e.reporter,
		animator: e.animator,
		logger:   e.logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	session.resetQuestionState()

	e.logger.Info("Quiz session started",
		"session_id", session.ID,
		"module_id", moduleID,
		"questions", len(set.Questions))

	session.animator.AnimateIn("question")
	return session, nil
}

// Session is one attempt at a module's quiz: a single-question-at-a-time
// state machine. All methods are no-ops when called in the wrong state, so
// stray UI events can never corrupt the session.
type Session struct {
	ID string

	set   *models.QuestionSet
	state State
	index int

	answers      []*models.Answer
	correctCount int

	// per-question transient state, cleared on every advance
	selectedOption string
	selectedBool   *bool
	matchedPairs   map[string]string
	pendingSource  string

	reported bool

	reporter ScoreReporter
	animator Animator
	logger   *slog.Logger
	rng      *rand.Rand
}

// ===== ACCESSORS =====

func (s *Session) State() State { return s.state }

func (s *Session) ModuleID() string { return s.set.ModuleID }

func (s *Session) Title() string { return s.set.Title }

func (s *Session) CurrentIndex() int { return s.index }

func (s *Session) TotalQuestions() int { return len(s.set.Questions) }

// Question returns the question currently presented, or nil in results state.
func (s *Session) Question() *models.Question {
	if s.state == StateResults {
		return nil
	}
	return &s.set.Questions[s.index]
}

// Answers returns a copy of the recorded answers; unanswered slots are nil.
func (s *Session) Answers() []*models.Answer {
	out := make([]*models.Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// SelectedOption returns the tentative multiple-choice selection.
func (s *Session) SelectedOption() string { return s.selectedOption }

// SelectedBool returns the tentative true/false selection.
func (s *Session) SelectedBool() *bool { return s.selectedBool }

// MatchedPairs returns a copy of the current source-to-target pairing.
func (s *Session) MatchedPairs() map[string]string {
	out := make(map[string]string, len(s.matchedPairs))
	for source, target := range s.matchedPairs {
		out[source] = target
	}
	return out
}

// PendingSource returns the source selected but not yet paired in
// click-to-match mode.
func (s *Session) PendingSource() string { return s.pendingSource }

// ShuffledSources returns the drag-match sources in a fresh uniform random
// order; targets keep their authored order. Returns nil for other kinds.
func (s *Session) ShuffledSources() []models.MatchItem {
	question := s.Question()
	if question == nil || question.Kind != models.DragMatch {
		return nil
	}
	content, err := question.DragMatch()
	if err != nil {
		return nil
	}
	return shuffleItems(s.rng, content.Sources)
}

// ===== SELECTION =====

// SelectOption records a tentative multiple-choice selection. No-op unless
// presenting a multiple-choice question that has not been checked yet.
func (s *Session) SelectOption(optionID string) {
	question := s.presentingQuestion(models.MultipleChoice)
	if question == nil {
		return
	}
	content, err := question.MultipleChoice()
	if err != nil {
		return
	}
	for _, option := range content.Options {
		if option.ID == optionID {
			s.selectedOption = optionID
			return
		}
	}
}

// SelectBool records a tentative true/false selection.
func (s *Session) SelectBool(value bool) {
	if s.presentingQuestion(models.TrueFalse) == nil {
		return
	}
	s.selectedBool = &value
}

// SelectSource marks a drag-match source as pending (click-to-match mode).
// Clicking a different source before committing replaces the pending one.
func (s *Session) SelectSource(sourceID string) {
	question := s.presentingQuestion(models.DragMatch)
	if question == nil {
		return
	}
	content, err := question.DragMatch()
	if err != nil {
		return
	}
	for _, source := range content.Sources {
		if source.ID == sourceID {
			s.pendingSource = sourceID
			return
		}
	}
}

// AssignTarget commits the pending source to a target (click-to-match mode).
func (s *Session) AssignTarget(targetID string) {
	if s.pendingSource == "" {
		return
	}
	source := s.pendingSource
	s.pendingSource = ""
	s.MatchPair(source, targetID)
}

// MatchPair records one source-target pairing directly (pointer-drag mode).
// Both interaction modes converge on the same pairing structure, so
// CheckAnswer treats them identically.
func (s *Session) MatchPair(sourceID, targetID string) {
	question := s.presentingQuestion(models.DragMatch)
	if question == nil {
		return
	}
	content, err := question.DragMatch()
	if err != nil {
		return
	}

	if !hasItem(content.Sources, sourceID) || !hasItem(content.Targets, targetID) {
		return
	}

	// A target holds at most one source: re-dropping steals it.
	for source, target := range s.matchedPairs {
		if target == targetID && source != sourceID {
			delete(s.matchedPairs, source)
		}
	}
	s.matchedPairs[sourceID] = targetID
}

// UnmatchSource removes one pairing (dragging a source back out).
func (s *Session) UnmatchSource(sourceID string) {
	if s.presentingQuestion(models.DragMatch) == nil {
		return
	}
	delete(s.matchedPairs, sourceID)
}

// ===== CHECK / ADVANCE =====

// CanCheck reports whether the current question has a complete selection.
func (s *Session) CanCheck() bool {
	question := s.Question()
	if s.state != StatePresenting || question == nil {
		return false
	}

	switch question.Kind {
	case models.MultipleChoice:
		return s.selectedOption != ""
	case models.TrueFalse:
		return s.selectedBool != nil
	case models.DragMatch:
		content, err := question.DragMatch()
		if err != nil {
			return false
		}
		return len(s.matchedPairs) == len(content.Sources)
	}
	return false
}

// CheckAnswer validates the current selection, records the immutable answer,
// updates the score and freezes the question. No-op without a complete
// selection; returns whether the check happened and, if so, whether the
// answer was correct.
func (s *Session) CheckAnswer() (checked, correct bool) {
	if !s.CanCheck() {
		return false, false
	}

	question := s.Question()
	answer := &models.Answer{Kind: question.Kind}

	switch question.Kind {
	case models.MultipleChoice:
		content, err := question.MultipleChoice()
		if err != nil {
			return false, false
		}
		answer.OptionID = s.selectedOption
		answer.Correct = s.selectedOption == content.CorrectOption

	case models.TrueFalse:
		content, err := question.TrueFalse()
		if err != nil {
			return false, false
		}
		value := *s.selectedBool
		answer.Bool = &value
		answer.Correct = value == content.CorrectAnswer

	case models.DragMatch:
		content, err := question.DragMatch()
		if err != nil {
			return false, false
		}
		answer.Pairs = s.MatchedPairs()
		answer.Correct = pairsMatch(answer.Pairs, content.CorrectPairs)
	}

	s.answers[s.index] = answer
	if answer.Correct {
		s.correctCount++
	}
	s.state = StateChecked

	s.logger.Debug("Answer checked",
		"session_id", s.ID,
		"question", s.index,
		"correct", answer.Correct)

	return true, answer.Correct
}

// NextQuestion advances past a checked question. On the last question it
// transitions to results and reports the score to the progress store exactly
// once for this pass.
func (s *Session) NextQuestion(ctx context.Context) {
	if s.state != StateChecked {
		return
	}

	s.animator.AnimateOut("question")

	if s.index+1 < len(s.set.Questions) {
		s.index++
		s.resetQuestionState()
		s.state = StatePresenting
		s.animator.AnimateIn("question")
		return
	}

	s.state = StateResults
	s.animator.AnimateIn("results")
	s.reportScore(ctx)
}

// Retry clears every answer and returns to the first question. Valid only in
// results state.
func (s *Session) Retry() {
	if s.state != StateResults {
		return
	}

	s.answers = make([]*models.Answer, len(s.set.Questions))
	s.correctCount = 0
	s.index = 0
	s.reported = false
	s.resetQuestionState()
	s.state = StatePresenting

	s.logger.Info("Quiz session retried", "session_id", s.ID, "module_id", s.set.ModuleID)

	s.animator.AnimateOut("results")
	s.animator.AnimateIn("question")
}

// ScorePercent returns the running score as a rounded percentage.
func (s *Session) ScorePercent() int {
	if len(s.set.Questions) == 0 {
		return 0
	}
	return int(math.Round(float64(s.correctCount) / float64(len(s.set.Questions)) * 100))
}

// CorrectCount returns how many questions have been answered correctly.
func (s *Session) CorrectCount() int { return s.correctCount }

// Passed reports whether the current score meets the module's threshold.
func (s *Session) Passed() bool {
	return s.set.Passing(s.ScorePercent())
}

// ===== INTERNALS =====

// presentingQuestion gates selection mutations: only while presenting, only
// before checking, only for the matching kind.
func (s *Session) presentingQuestion(kind models.QuestionKind) *models.Question {
	if s.state != StatePresenting {
		return nil
	}
	question := &s.set.Questions[s.index]
	if question.Kind != kind {
		return nil
	}
	return question
}

func (s *Session) resetQuestionState() {
	s.selectedOption = ""
	s.selectedBool = nil
	s.matchedPairs = make(map[string]string)
	s.pendingSource = ""
}

func (s *Session) reportScore(ctx context.Context) {
	if s.reported || s.reporter == nil {
		return
	}
	s.reported = true

	percent := s.ScorePercent()
	s.logger.Info("Quiz completed",
		"session_id", s.ID,
		"module_id", s.set.ModuleID,
		"score", percent,
		"passed", s.Passed())

	if err := s.reporter.SaveQuizScore(ctx, s.set.ModuleID, percent); err != nil {
		// Persistence failure must not corrupt the finished session.
		s.logger.Warn("Failed to persist quiz score",
			"session_id", s.ID,
			"module_id", s.set.ModuleID,
			"error", err)
	}
}

// pairsMatch is all-or-nothing: every source must be matched to its
// designated correct target. Partial credit is not supported.
func pairsMatch(pairs, correct map[string]string) bool {
	if len(pairs) != len(correct) {
		return false
	}
	for source, target := range correct {
		if pairs[source] != target {
			return false
		}
	}
	return true
}

func hasItem(items []models.MatchItem, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}
