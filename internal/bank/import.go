package bank

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
	"github.com/BrightPath-Learning/course-progress-service/internal/validator"
)

// RowError records why one spreadsheet row was rejected during import.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult summarizes an xlsx import run.
type ImportResult struct {
	TotalRows    int        `json:"total_rows"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors,omitempty"`
}

// Expected header columns for the question sheet. The content column holds
// the kind-specific JSON payload verbatim.
var importColumns = []string{
	"module_id", "module_title", "passing_score",
	"question_id", "kind", "prompt", "explanation", "content",
}

// ImportXLSX reads module question sets from a spreadsheet: one row per
// question, grouped into sets by module_id. Rows that fail to parse are
// collected in the result; valid rows still import.
func ImportXLSX(path string, v *validator.Validator) ([]models.QuestionSet, *ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("Excel must have a header row and at least one data row")
	}

	headerMap := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, column := range importColumns {
		if _, ok := headerMap[column]; !ok && column != "explanation" && column != "passing_score" {
			return nil, nil, fmt.Errorf("missing required column: %s", column)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	setsByModule := make(map[string]*models.QuestionSet)
	titleByModule := make(map[string]string)

	for rowIndex, row := range rows[1:] {
		rowNumber := rowIndex + 2

		question, moduleID, moduleTitle, passingScore, rowErrs := parseQuestionRow(row, headerMap, rowNumber)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.ErrorCount++
			continue
		}

		set, ok := setsByModule[moduleID]
		if !ok {
			set = &models.QuestionSet{
				ModuleID:     moduleID,
				Title:        moduleTitle,
				PassingScore: passingScore,
			}
			setsByModule[moduleID] = set
			titleByModule[moduleID] = moduleTitle
		}
		set.Questions = append(set.Questions, *question)
		result.SuccessCount++
	}

	moduleIDs := make([]string, 0, len(setsByModule))
	for id := range setsByModule {
		moduleIDs = append(moduleIDs, id)
	}
	sort.Strings(moduleIDs)

	sets := make([]models.QuestionSet, 0, len(setsByModule))
	for _, id := range moduleIDs {
		set := setsByModule[id]
		if set.PassingScore == 0 {
			set.PassingScore = models.DefaultPassingScore
		}
		if err := v.Validate(set); err != nil {
			result.Errors = append(result.Errors, RowError{
				Field:   "module " + id,
				Message: err.Error(),
			})
			result.ErrorCount++
			continue
		}
		sets = append(sets, *set)
	}

	return sets, result, nil
}

// WriteBank writes imported question sets out as the JSON bank document.
func WriteBank(path string, sets []models.QuestionSet) error {
	data, err := json.MarshalIndent(bankDocument{Modules: sets}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bank document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write bank document: %w", err)
	}
	return nil
}

func parseQuestionRow(row []string, headerMap map[string]int, rowNumber int) (*models.Question, string, string, int, []RowError) {
	var errs []RowError

	cell := func(column string) string {
		index, ok := headerMap[column]
		if !ok || index >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[index])
	}

	moduleID := cell("module_id")
	if moduleID == "" {
		errs = append(errs, RowError{Row: rowNumber, Field: "module_id", Message: "is required"})
	}

	kind := models.QuestionKind(cell("kind"))
	switch kind {
	case models.MultipleChoice, models.TrueFalse, models.DragMatch:
	default:
		errs = append(errs, RowError{Row: rowNumber, Field: "kind", Message: "must be a valid question kind"})
	}

	questionID := cell("question_id")
	if questionID == "" {
		errs = append(errs, RowError{Row: rowNumber, Field: "question_id", Message: "is required"})
	}

	prompt := cell("prompt")
	if prompt == "" {
		errs = append(errs, RowError{Row: rowNumber, Field: "prompt", Message: "is required"})
	}

	content := cell("content")
	if content == "" || !json.Valid([]byte(content)) {
		errs = append(errs, RowError{Row: rowNumber, Field: "content", Message: "must be valid JSON"})
	}

	passingScore := 0
	if raw := cell("passing_score"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 100 {
			errs = append(errs, RowError{Row: rowNumber, Field: "passing_score", Message: "must be between 0 and 100"})
		} else {
			passingScore = parsed
		}
	}

	if len(errs) > 0 {
		return nil, "", "", 0, errs
	}

	question := &models.Question{
		ID:          questionID,
		Kind:        kind,
		Prompt:      prompt,
		Explanation: cell("explanation"),
		Content:     json.RawMessage(content),
	}
	return question, moduleID, cell("module_title"), passingScore, nil
}
