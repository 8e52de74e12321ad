package models

import (
	"sort"
	"time"
)

type ModuleStatus string

const (
	StatusNotStarted ModuleStatus = "not-started"
	StatusInProgress ModuleStatus = "in-progress"
	StatusCompleted  ModuleStatus = "completed"
)

// SchemaVersion tags the persisted progress document. A stored document with
// any other version is discarded and recreated with defaults; there is no
// partial migration path.
const SchemaVersion = "2.0"

// ModuleSpec describes one course module as declared by the course catalog:
// its stable id and how many trackable sections it contains.
type ModuleSpec struct {
	ID            string `json:"id" validate:"required"`
	Title         string `json:"title"`
	TotalSections int    `json:"total_sections" validate:"min=0"`
}

// ModuleProgress is the per-module persisted record.
type ModuleProgress struct {
	Status            ModuleStatus `json:"status" validate:"omitempty,module_status"`
	SectionsCompleted []string     `json:"sections_completed"`
	QuizScore         *int         `json:"quiz_score"`
	QuizAttempts      int          `json:"quiz_attempts"`
}

// NewModuleProgress returns the default record for a module nobody has
// touched yet.
func NewModuleProgress() *ModuleProgress {
	return &ModuleProgress{
		Status:            StatusNotStarted,
		SectionsCompleted: []string{},
	}
}

// HasSection reports whether the section is already recorded as complete.
func (mp *ModuleProgress) HasSection(sectionID string) bool {
	for _, id := range mp.SectionsCompleted {
		if id == sectionID {
			return true
		}
	}
	return false
}

// AddSection records a completed section. Set semantics: duplicates are
// rejected and the stored order is normalized, so insertion order never
// affects equality of two records.
func (mp *ModuleProgress) AddSection(sectionID string) bool {
	if mp.HasSection(sectionID) {
		return false
	}
	mp.SectionsCompleted = append(mp.SectionsCompleted, sectionID)
	sort.Strings(mp.SectionsCompleted)
	return true
}

// ProgressDocument is the persisted root: one versioned JSON blob under a
// single well-known storage key.
type ProgressDocument struct {
	SchemaVersion   string                     `json:"schema_version"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
	Modules         map[string]*ModuleProgress `json:"modules"`
	OverallProgress int                        `json:"overall_progress"`
}

// NewProgressDocument creates the default document with one untouched record
// per known module.
func NewProgressDocument(catalog []ModuleSpec) *ProgressDocument {
	now := time.Now().UTC()
	doc := &ProgressDocument{
		SchemaVersion: SchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
		Modules:       make(map[string]*ModuleProgress, len(catalog)),
	}
	for _, spec := range catalog {
		doc.Modules[spec.ID] = NewModuleProgress()
	}
	return doc
}
