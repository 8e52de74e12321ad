package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrightPath-Learning/course-progress-service/internal/bank"
	"github.com/BrightPath-Learning/course-progress-service/internal/models"
	"github.com/BrightPath-Learning/course-progress-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeReporter records every score handed to it.
type fakeReporter struct {
	calls []reportedScore
	err   error
}

type reportedScore struct {
	moduleID string
	percent  int
}

func (r *fakeReporter) SaveQuizScore(_ context.Context, moduleID string, scorePercent int) error {
	r.calls = append(r.calls, reportedScore{moduleID: moduleID, percent: scorePercent})
	return r.err
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func multipleChoiceQuestion(t *testing.T, id, correct string) models.Question {
	t.Helper()
	return models.Question{
		ID:     id,
		Kind:   models.MultipleChoice,
		Prompt: "Pick one",
		Content: mustJSON(t, models.MultipleChoiceContent{
			Options: []models.Option{
				{ID: "a", Text: "Alpha"},
				{ID: "b", Text: "Beta"},
				{ID: "c", Text: "Gamma"},
				{ID: "d", Text: "Delta"},
			},
			CorrectOption: correct,
		}),
	}
}

func trueFalseQuestion(t *testing.T, id string, correct bool) models.Question {
	t.Helper()
	return models.Question{
		ID:      id,
		Kind:    models.TrueFalse,
		Prompt:  "True or false",
		Content: mustJSON(t, models.TrueFalseContent{CorrectAnswer: correct}),
	}
}

func dragMatchQuestion(t *testing.T, id string) models.Question {
	t.Helper()
	return models.Question{
		ID:     id,
		Kind:   models.DragMatch,
		Prompt: "Match them",
		Content: mustJSON(t, models.DragMatchContent{
			Sources: []models.MatchItem{
				{ID: "s1", Text: "var"},
				{ID: "s2", Text: "const"},
				{ID: "s3", Text: "func"},
			},
			Targets: []models.MatchItem{
				{ID: "t1", Text: "variable declaration"},
				{ID: "t2", Text: "constant declaration"},
				{ID: "t3", Text: "function declaration"},
			},
			CorrectPairs: map[string]string{"s1": "t1", "s2": "t2", "s3": "t3"},
		}),
	}
}

func newTestEngine(t *testing.T, reporter ScoreReporter, questions ...models.Question) *Engine {
	t.Helper()
	sets := []models.QuestionSet{{
		ModuleID:  "module1",
		Title:     "Foundations Quiz",
		Questions: questions,
	}}
	questionBank, err := bank.FromSets(sets, validator.New(), testLogger())
	require.NoError(t, err)
	return NewEngine(questionBank, reporter, nil, testLogger())
}

func checkAndAdvance(t *testing.T, session *Session) bool {
	t.Helper()
	checked, correct := session.CheckAnswer()
	require.True(t, checked)
	session.NextQuestion(context.Background())
	return correct
}

func TestLoadUnknownModule(t *testing.T) {
	engine := newTestEngine(t, nil, multipleChoiceQuestion(t, "q1", "a"))

	_, err := engine.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, bank.ErrModuleNotFound)
}

func TestMultipleChoiceScoring(t *testing.T) {
	reporter := &fakeReporter{}
	engine := newTestEngine(t, reporter,
		multipleChoiceQuestion(t, "q1", "a"),
		multipleChoiceQuestion(t, "q2", "b"),
	)

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)
	assert.Equal(t, StatePresenting, session.State())
	assert.Equal(t, 2, session.TotalQuestions())

	// Correct answer on the first question.
	session.SelectOption("a")
	require.True(t, session.CanCheck())
	assert.True(t, checkAndAdvance(t, session))
	assert.Equal(t, StatePresenting, session.State())
	assert.Equal(t, 1, session.CurrentIndex())

	// Wrong answer on the second.
	session.SelectOption("c")
	assert.False(t, checkAndAdvance(t, session))

	assert.Equal(t, StateResults, session.State())
	assert.Equal(t, 50, session.ScorePercent())
	assert.False(t, session.Passed())
	assert.Nil(t, session.Question())

	require.Len(t, reporter.calls, 1)
	assert.Equal(t, reportedScore{moduleID: "module1", percent: 50}, reporter.calls[0])
}

func TestTrueFalseScoring(t *testing.T) {
	reporter := &fakeReporter{}
	engine := newTestEngine(t, reporter, trueFalseQuestion(t, "q1", true))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.SelectBool(true)
	assert.True(t, checkAndAdvance(t, session))

	assert.Equal(t, 100, session.ScorePercent())
	assert.True(t, session.Passed())
}

func TestDragMatchAllOrNothing(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	// Two right, one swapped pair: the whole question counts as wrong.
	session.MatchPair("s1", "t1")
	session.MatchPair("s2", "t3")
	session.MatchPair("s3", "t2")
	require.True(t, session.CanCheck())

	checked, correct := session.CheckAnswer()
	assert.True(t, checked)
	assert.False(t, correct)
	assert.Equal(t, 0, session.CorrectCount())
}

func TestDragMatchCorrect(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.MatchPair("s1", "t1")
	session.MatchPair("s2", "t2")
	session.MatchPair("s3", "t3")

	checked, correct := session.CheckAnswer()
	assert.True(t, checked)
	assert.True(t, correct)
}

func TestDragMatchIncompleteCannotCheck(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.MatchPair("s1", "t1")
	assert.False(t, session.CanCheck())

	checked, _ := session.CheckAnswer()
	assert.False(t, checked)
	assert.Equal(t, StatePresenting, session.State())
}

func TestDragMatchTargetSteal(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.MatchPair("s1", "t1")
	session.MatchPair("s2", "t1")

	pairs := session.MatchedPairs()
	assert.Equal(t, map[string]string{"s2": "t1"}, pairs)
}

func TestClickToMatchConverges(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	// Click-to-match builds the same pairing structure as direct drags.
	session.SelectSource("s1")
	assert.Equal(t, "s1", session.PendingSource())
	session.SelectSource("s2") // replaces the pending source
	assert.Equal(t, "s2", session.PendingSource())
	session.AssignTarget("t2")
	assert.Empty(t, session.PendingSource())

	session.SelectSource("s1")
	session.AssignTarget("t1")
	session.MatchPair("s3", "t3")

	checked, correct := session.CheckAnswer()
	assert.True(t, checked)
	assert.True(t, correct)
}

func TestUnmatchSource(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.MatchPair("s1", "t1")
	session.UnmatchSource("s1")
	assert.Empty(t, session.MatchedPairs())
}

func TestSelectionGuards(t *testing.T) {
	engine := newTestEngine(t, nil, multipleChoiceQuestion(t, "q1", "a"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	// Wrong kind and unknown option are ignored.
	session.SelectBool(true)
	session.MatchPair("s1", "t1")
	session.SelectOption("zzz")
	assert.Empty(t, session.SelectedOption())
	assert.Nil(t, session.SelectedBool())
	assert.False(t, session.CanCheck())

	// Selections freeze after checking.
	session.SelectOption("a")
	checked, _ := session.CheckAnswer()
	require.True(t, checked)
	session.SelectOption("b")
	assert.Equal(t, "a", session.SelectedOption())

	// Checking twice records nothing new.
	checked, _ = session.CheckAnswer()
	assert.False(t, checked)
	assert.Equal(t, 1, session.CorrectCount())
}

func TestNextQuestionRequiresChecked(t *testing.T) {
	engine := newTestEngine(t, nil,
		multipleChoiceQuestion(t, "q1", "a"),
		multipleChoiceQuestion(t, "q2", "a"),
	)

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.NextQuestion(context.Background())
	assert.Equal(t, 0, session.CurrentIndex())
	assert.Equal(t, StatePresenting, session.State())
}

func TestRetryResetsAndReportsAgain(t *testing.T) {
	ctx := context.Background()
	reporter := &fakeReporter{}
	engine := newTestEngine(t, reporter, trueFalseQuestion(t, "q1", true))

	session, err := engine.Load(ctx, "module1")
	require.NoError(t, err)

	// Retry before results is a no-op.
	session.Retry()
	assert.Equal(t, StatePresenting, session.State())

	session.SelectBool(false)
	checkAndAdvance(t, session)
	require.Equal(t, StateResults, session.State())
	assert.Equal(t, 0, session.ScorePercent())

	session.Retry()
	assert.Equal(t, StatePresenting, session.State())
	assert.Equal(t, 0, session.CurrentIndex())
	assert.Nil(t, session.SelectedBool())
	assert.Equal(t, 0, session.CorrectCount())
	assert.Equal(t, []*models.Answer{nil}, session.Answers())

	session.SelectBool(true)
	checkAndAdvance(t, session)

	// Each completed pass reports exactly once.
	require.Len(t, reporter.calls, 2)
	assert.Equal(t, 0, reporter.calls[0].percent)
	assert.Equal(t, 100, reporter.calls[1].percent)
}

func TestReportFailureDoesNotBreakResults(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("storage down")}
	engine := newTestEngine(t, reporter, trueFalseQuestion(t, "q1", true))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	session.SelectBool(true)
	checkAndAdvance(t, session)

	assert.Equal(t, StateResults, session.State())
	assert.Equal(t, 100, session.ScorePercent())
	require.Len(t, reporter.calls, 1)
}

func TestPassingScoreRounding(t *testing.T) {
	// 2 of 3 correct is 66.67 percent, rounded to 67: below the default 70.
	reporter := &fakeReporter{}
	engine := newTestEngine(t, reporter,
		trueFalseQuestion(t, "q1", true),
		trueFalseQuestion(t, "q2", true),
		trueFalseQuestion(t, "q3", true),
	)

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	for _, answer := range []bool{true, true, false} {
		session.SelectBool(answer)
		checkAndAdvance(t, session)
	}

	assert.Equal(t, 67, session.ScorePercent())
	assert.False(t, session.Passed())
	require.Len(t, reporter.calls, 1)
	assert.Equal(t, 67, reporter.calls[0].percent)
}

func TestShuffledSourcesPreserveItems(t *testing.T) {
	engine := newTestEngine(t, nil, dragMatchQuestion(t, "q1"))

	session, err := engine.Load(context.Background(), "module1")
	require.NoError(t, err)

	shuffled := session.ShuffledSources()
	require.Len(t, shuffled, 3)

	ids := map[string]bool{}
	for _, item := range shuffled {
		ids[item.ID] = true
	}
	assert.Equal(t, map[string]bool{"s1": true, "s2": true, "s3": true}, ids)
}
