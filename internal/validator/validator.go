package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
	documentValidator *DocumentValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
		documentValidator: NewDocumentValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs complete validation: struct tags first, then the
// kind-specific content rules when the value is a question set.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	if set, ok := s.(*models.QuestionSet); ok {
		if errs := v.questionValidator.ValidateSet(set); len(errs) > 0 {
			return errs
		}
	}

	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// Document returns the progress document validator
func (v *Validator) Document() *DocumentValidator {
	return v.documentValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	// Question kind validation
	validate.RegisterValidation("question_kind", validateQuestionKind)

	// Module status validation
	validate.RegisterValidation("module_status", validateModuleStatus)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateQuestionKind(fl validator.FieldLevel) bool {
	validKinds := []models.QuestionKind{
		models.MultipleChoice,
		models.TrueFalse,
		models.DragMatch,
	}

	value := fl.Field().String()
	for _, validKind := range validKinds {
		if string(validKind) == value {
			return true
		}
	}
	return false
}

func validateModuleStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.ModuleStatus{
		models.StatusNotStarted,
		models.StatusInProgress,
		models.StatusCompleted,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}
