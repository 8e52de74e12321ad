package bank

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/BrightPath-Learning/course-progress-service/internal/validator"
)

func writeImportSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "questions.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func importHeader() []interface{} {
	return []interface{}{
		"module_id", "module_title", "passing_score",
		"question_id", "kind", "prompt", "explanation", "content",
	}
}

func TestImportXLSX(t *testing.T) {
	mcContent := `{"options":[{"id":"a","text":"Alpha"},{"id":"b","text":"Beta"}],"correct_option":"a"}`
	tfContent := `{"correct_answer":true}`

	path := writeImportSheet(t, [][]interface{}{
		importHeader(),
		{"module1", "Foundations Quiz", "80", "q1", "multiple-choice", "Pick one", "Because.", mcContent},
		{"module1", "Foundations Quiz", "80", "q2", "true-false", "True or false", "", tfContent},
		{"module2", "Structures Quiz", "", "q1", "true-false", "Also true or false", "", tfContent},
	})

	sets, result, err := ImportXLSX(path, validator.New())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Zero(t, result.ErrorCount)

	require.Len(t, sets, 2)
	assert.Equal(t, "module1", sets[0].ModuleID)
	assert.Equal(t, 80, sets[0].PassingScore)
	assert.Len(t, sets[0].Questions, 2)
	assert.Equal(t, "Because.", sets[0].Questions[0].Explanation)

	// Missing passing_score falls back to the default.
	assert.Equal(t, "module2", sets[1].ModuleID)
	assert.Equal(t, 70, sets[1].PassingScore)
}

func TestImportXLSXCollectsRowErrors(t *testing.T) {
	tfContent := `{"correct_answer":true}`

	path := writeImportSheet(t, [][]interface{}{
		importHeader(),
		{"module1", "Quiz", "", "q1", "true-false", "Fine", "", tfContent},
		{"", "Quiz", "", "q2", "true-false", "No module", "", tfContent},
		{"module1", "Quiz", "", "q3", "essay", "Bad kind", "", tfContent},
		{"module1", "Quiz", "", "q4", "true-false", "Bad content", "", "{broken"},
		{"module1", "Quiz", "250", "q5", "true-false", "Bad score", "", tfContent},
	})

	sets, result, err := ImportXLSX(path, validator.New())
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 4, result.ErrorCount)
	require.Len(t, sets, 1)
	assert.Len(t, sets[0].Questions, 1)

	fields := make([]string, 0, len(result.Errors))
	for _, rowErr := range result.Errors {
		fields = append(fields, rowErr.Field)
	}
	assert.Contains(t, fields, "module_id")
	assert.Contains(t, fields, "kind")
	assert.Contains(t, fields, "content")
	assert.Contains(t, fields, "passing_score")
}

func TestImportXLSXRejectsInvalidSet(t *testing.T) {
	// Rows parse fine but the assembled set fails validation, so the whole
	// module is dropped with a recorded error.
	badContent := `{"options":[{"id":"a","text":"A"}],"correct_option":"a"}`

	path := writeImportSheet(t, [][]interface{}{
		importHeader(),
		{"module1", "Quiz", "", "q1", "multiple-choice", "Only one option", "", badContent},
	})

	sets, result, err := ImportXLSX(path, validator.New())
	require.NoError(t, err)

	assert.Empty(t, sets)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestImportXLSXMissingColumn(t *testing.T) {
	path := writeImportSheet(t, [][]interface{}{
		{"module_id", "question_id", "kind", "prompt"},
		{"module1", "q1", "true-false", "?"},
	})

	_, _, err := ImportXLSX(path, validator.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestImportThenWriteBankRoundTrip(t *testing.T) {
	tfContent := `{"correct_answer":false}`

	sheetPath := writeImportSheet(t, [][]interface{}{
		importHeader(),
		{"module1", "Foundations Quiz", "75", "q1", "true-false", "True or false", "", tfContent},
	})

	sets, result, err := ImportXLSX(sheetPath, validator.New())
	require.NoError(t, err)
	require.Zero(t, result.ErrorCount)

	bankPath := filepath.Join(t.TempDir(), "question-bank.json")
	require.NoError(t, WriteBank(bankPath, sets))

	b, err := Load(context.Background(), bankPath, validator.New(), testLogger())
	require.NoError(t, err)

	set, err := b.Get("module1")
	require.NoError(t, err)
	assert.Equal(t, 75, set.PassingScore)
	require.Len(t, set.Questions, 1)

	content, err := set.Questions[0].TrueFalse()
	require.NoError(t, err)
	assert.False(t, content.CorrectAnswer)
}

func TestImportXLSXLargeSheet(t *testing.T) {
	rows := [][]interface{}{importHeader()}
	for i := 0; i < 25; i++ {
		rows = append(rows, []interface{}{
			"module1", "Big Quiz", "",
			fmt.Sprintf("q%d", i+1), "true-false", fmt.Sprintf("Question %d", i+1), "",
			`{"correct_answer":true}`,
		})
	}

	sets, result, err := ImportXLSX(writeImportSheet(t, rows), validator.New())
	require.NoError(t, err)
	assert.Equal(t, 25, result.SuccessCount)
	require.Len(t, sets, 1)
	assert.Len(t, sets[0].Questions, 25)
}
