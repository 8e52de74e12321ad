package validator

import (
	"encoding/json"
	"fmt"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateSet validates every question in a set and collects the failures.
func (v *QuestionValidator) ValidateSet(set *models.QuestionSet) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool, len(set.Questions))
	for i, question := range set.Questions {
		if seen[question.ID] {
			errs = append(errs, *NewValidationError(
				fmt.Sprintf("questions[%d].id", i),
				"duplicate question id",
				question.ID,
			))
			continue
		}
		seen[question.ID] = true

		if err := v.ValidateContent(question.Kind, question.Content); err != nil {
			errs = append(errs, *NewValidationError(
				fmt.Sprintf("questions[%d].content", i),
				err.Error(),
				question.ID,
			))
		}
	}

	return errs
}

// ValidateContent validates question content based on question kind
func (v *QuestionValidator) ValidateContent(kind models.QuestionKind, content json.RawMessage) error {
	if len(content) == 0 {
		return fmt.Errorf("content cannot be empty")
	}

	switch kind {
	case models.MultipleChoice:
		return v.validateMultipleChoiceContent(content)
	case models.TrueFalse:
		return v.validateTrueFalseContent(content)
	case models.DragMatch:
		return v.validateDragMatchContent(content)
	default:
		return fmt.Errorf("unsupported question kind: %s", kind)
	}
}

func (v *QuestionValidator) validateMultipleChoiceContent(contentBytes []byte) error {
	var content models.MultipleChoiceContent
	if err := json.Unmarshal(contentBytes, &content); err != nil {
		return fmt.Errorf("invalid multiple choice content: %w", err)
	}

	if len(content.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}

	optionIDs := make(map[string]bool, len(content.Options))
	for _, option := range content.Options {
		if option.ID == "" || option.Text == "" {
			return fmt.Errorf("option id and text cannot be empty")
		}
		if optionIDs[option.ID] {
			return fmt.Errorf("duplicate option id: %s", option.ID)
		}
		optionIDs[option.ID] = true
	}

	if content.CorrectOption == "" {
		return fmt.Errorf("correct option is required")
	}
	if !optionIDs[content.CorrectOption] {
		return fmt.Errorf("correct option %s is not one of the options", content.CorrectOption)
	}

	return nil
}

func (v *QuestionValidator) validateTrueFalseContent(contentBytes []byte) error {
	var content models.TrueFalseContent
	if err := json.Unmarshal(contentBytes, &content); err != nil {
		return fmt.Errorf("invalid true/false content: %w", err)
	}
	return nil
}

// validateDragMatchContent enforces that the correct mapping is a total
// bijection: every source maps to exactly one existing target and no two
// sources share a target.
func (v *QuestionValidator) validateDragMatchContent(contentBytes []byte) error {
	var content models.DragMatchContent
	if err := json.Unmarshal(contentBytes, &content); err != nil {
		return fmt.Errorf("invalid drag match content: %w", err)
	}

	if len(content.Sources) < 2 {
		return fmt.Errorf("must have at least 2 sources")
	}
	if len(content.Targets) != len(content.Sources) {
		return fmt.Errorf("source and target counts must match, got %d sources and %d targets",
			len(content.Sources), len(content.Targets))
	}

	sourceIDs := make(map[string]bool, len(content.Sources))
	for _, source := range content.Sources {
		if source.ID == "" || source.Text == "" {
			return fmt.Errorf("source id and text cannot be empty")
		}
		if sourceIDs[source.ID] {
			return fmt.Errorf("duplicate source id: %s", source.ID)
		}
		sourceIDs[source.ID] = true
	}

	targetIDs := make(map[string]bool, len(content.Targets))
	for _, target := range content.Targets {
		if target.ID == "" || target.Text == "" {
			return fmt.Errorf("target id and text cannot be empty")
		}
		if targetIDs[target.ID] {
			return fmt.Errorf("duplicate target id: %s", target.ID)
		}
		targetIDs[target.ID] = true
	}

	if len(content.CorrectPairs) != len(content.Sources) {
		return fmt.Errorf("correct mapping must cover every source exactly once")
	}

	usedTargets := make(map[string]bool, len(content.CorrectPairs))
	for sourceID, targetID := range content.CorrectPairs {
		if !sourceIDs[sourceID] {
			return fmt.Errorf("mapping references unknown source: %s", sourceID)
		}
		if !targetIDs[targetID] {
			return fmt.Errorf("mapping references unknown target: %s", targetID)
		}
		if usedTargets[targetID] {
			return fmt.Errorf("target %s is mapped by more than one source", targetID)
		}
		usedTargets[targetID] = true
	}

	return nil
}
