package models

// Answer is the record written for a question once it has been checked.
// Exactly one payload field is set, matching the question kind. Immutable
// after recording; a session retry drops all answers.
type Answer struct {
	Kind     QuestionKind      `json:"kind"`
	OptionID string            `json:"option_id,omitempty"`
	Bool     *bool             `json:"bool,omitempty"`
	Pairs    map[string]string `json:"pairs,omitempty"` // source id -> target id
	Correct  bool              `json:"correct"`
}
