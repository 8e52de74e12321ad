package validator

import (
	"sort"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
)

// DocumentValidator checks a loaded progress document against the schema the
// rest of the service expects. Version mismatch is fatal for the whole
// document; everything below the version tag is repaired field by field.
type DocumentValidator struct{}

// NewDocumentValidator creates a new progress document validator
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

// VersionMatches reports whether the stored document carries the schema
// version this build writes. A mismatch means the document must be discarded
// and recreated, never migrated in place.
func (v *DocumentValidator) VersionMatches(doc *models.ProgressDocument) bool {
	return doc != nil && doc.SchemaVersion == models.SchemaVersion
}

// Repair fixes a version-matched document in place so every known module has
// a well-formed record. Returns the number of repairs applied.
func (v *DocumentValidator) Repair(doc *models.ProgressDocument, catalog []models.ModuleSpec) int {
	repaired := 0

	if doc.Modules == nil {
		doc.Modules = make(map[string]*models.ModuleProgress, len(catalog))
		repaired++
	}

	for _, spec := range catalog {
		record, ok := doc.Modules[spec.ID]
		if !ok || record == nil {
			// Forward-compatibility gap: a module added after this document
			// was first written.
			doc.Modules[spec.ID] = models.NewModuleProgress()
			repaired++
			continue
		}
		repaired += v.repairRecord(record)
	}

	return repaired
}

func (v *DocumentValidator) repairRecord(record *models.ModuleProgress) int {
	repaired := 0

	if record.SectionsCompleted == nil {
		record.SectionsCompleted = []string{}
		repaired++
	} else if fixed, changed := normalizeSections(record.SectionsCompleted); changed {
		record.SectionsCompleted = fixed
		repaired++
	}

	if record.QuizScore != nil && (*record.QuizScore < 0 || *record.QuizScore > 100) {
		record.QuizScore = nil
		repaired++
	}
	if record.QuizAttempts < 0 {
		record.QuizAttempts = 0
		repaired++
	}

	// Status is derived last so it never reflects a value repaired above.
	switch record.Status {
	case models.StatusNotStarted, models.StatusInProgress, models.StatusCompleted:
	default:
		record.Status = deriveStatus(record)
		repaired++
	}

	return repaired
}

// normalizeSections enforces set semantics on the stored slice: no
// duplicates, no empty ids, sorted order.
func normalizeSections(sections []string) ([]string, bool) {
	seen := make(map[string]bool, len(sections))
	fixed := make([]string, 0, len(sections))
	for _, id := range sections {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		fixed = append(fixed, id)
	}
	sort.Strings(fixed)

	if len(fixed) != len(sections) {
		return fixed, true
	}
	for i := range fixed {
		if fixed[i] != sections[i] {
			return fixed, true
		}
	}
	return sections, false
}

func deriveStatus(record *models.ModuleProgress) models.ModuleStatus {
	if record.QuizScore != nil && *record.QuizScore >= models.DefaultPassingScore {
		return models.StatusCompleted
	}
	if len(record.SectionsCompleted) > 0 || record.QuizScore != nil || record.QuizAttempts > 0 {
		return models.StatusInProgress
	}
	return models.StatusNotStarted
}
