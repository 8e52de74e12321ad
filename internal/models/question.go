package models

import (
	"encoding/json"
	"fmt"
)

type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple-choice"
	TrueFalse      QuestionKind = "true-false"
	DragMatch      QuestionKind = "drag-match"
)

// DefaultPassingScore is used when a question set does not declare its own
// passing threshold.
const DefaultPassingScore = 70

// QuestionSet is one module's quiz as authored in the question bank.
type QuestionSet struct {
	ModuleID     string     `json:"module_id" validate:"required"`
	Title        string     `json:"title" validate:"required,max=200"`
	PassingScore int        `json:"passing_score" validate:"min=0,max=100"`
	Questions    []Question `json:"questions" validate:"required,min=1,dive"`
}

// Question is a tagged variant: Kind selects which content payload is stored
// in Content. Use the typed accessors to decode it.
type Question struct {
	ID          string          `json:"id" validate:"required"`
	Kind        QuestionKind    `json:"kind" validate:"required,question_kind"`
	Prompt      string          `json:"prompt" validate:"required"`
	Explanation string          `json:"explanation"`
	Content     json.RawMessage `json:"content" validate:"required"`
}

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MultipleChoiceContent struct {
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correct_option"`
}

type TrueFalseContent struct {
	CorrectAnswer bool `json:"correct_answer"`
}

type DragMatchContent struct {
	Sources []MatchItem `json:"sources"`
	Targets []MatchItem `json:"targets"`
	// CorrectPairs maps source id -> target id and must be a total bijection.
	CorrectPairs map[string]string `json:"correct_pairs"`
}

func (q *Question) MultipleChoice() (*MultipleChoiceContent, error) {
	if q.Kind != MultipleChoice {
		return nil, fmt.Errorf("question %s is %s, not %s", q.ID, q.Kind, MultipleChoice)
	}
	var content MultipleChoiceContent
	if err := json.Unmarshal(q.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid multiple choice content: %w", err)
	}
	return &content, nil
}

func (q *Question) TrueFalse() (*TrueFalseContent, error) {
	if q.Kind != TrueFalse {
		return nil, fmt.Errorf("question %s is %s, not %s", q.ID, q.Kind, TrueFalse)
	}
	var content TrueFalseContent
	if err := json.Unmarshal(q.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid true/false content: %w", err)
	}
	return &content, nil
}

func (q *Question) DragMatch() (*DragMatchContent, error) {
	if q.Kind != DragMatch {
		return nil, fmt.Errorf("question %s is %s, not %s", q.ID, q.Kind, DragMatch)
	}
	var content DragMatchContent
	if err := json.Unmarshal(q.Content, &content); err != nil {
		return nil, fmt.Errorf("invalid drag match content: %w", err)
	}
	return &content, nil
}

// Passing reports whether a score percentage meets the set's threshold.
func (qs *QuestionSet) Passing(scorePercent int) bool {
	threshold := qs.PassingScore
	if threshold == 0 {
		threshold = DefaultPassingScore
	}
	return scorePercent >= threshold
}
