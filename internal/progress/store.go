package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
	"github.com/BrightPath-Learning/course-progress-service/internal/storage"
	"github.com/BrightPath-Learning/course-progress-service/internal/validator"
)

// AllModules is the module id carried by notifications that affect every
// module at once (a full reset).
const AllModules = "all"

// Weight of the section-completion component in a module's progress
// percentage; the quiz component gets the remainder.
const sectionWeight = 0.7

// ChangeNotification is delivered to observers after every store write.
type ChangeNotification struct {
	ModuleID        string `json:"module_id"`
	OverallProgress int    `json:"overall_progress"`
	ModuleProgress  *int   `json:"module_progress,omitempty"`
}

// Observer receives change notifications. Delivery is synchronous and
// best-effort: observers run on the mutating call's goroutine, after the
// underlying write has completed. Observers must not call back into the
// store.
type Observer interface {
	ProgressChanged(notification ChangeNotification)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(notification ChangeNotification)

func (f ObserverFunc) ProgressChanged(notification ChangeNotification) {
	f(notification)
}

// Store owns the versioned progress document: one record per course module,
// persisted to durable storage after every mutation. It is constructed
// explicitly and passed by reference; there is no ambient global instance.
type Store struct {
	mu        sync.Mutex
	storage   storage.DocumentStore
	key       string
	catalog   []models.ModuleSpec
	specs     map[string]models.ModuleSpec
	validator *validator.Validator
	logger    *slog.Logger

	doc       *models.ProgressDocument
	observers []Observer
}

// NewStore loads (or initializes) the progress document and returns the
// ready store. An absent, unparseable or version-mismatched document is
// replaced by a fresh default one; a matching document with gaps is repaired
// in place. Loading never fails on bad stored data, only on a misconfigured
// catalog.
func NewStore(ctx context.Context, store storage.DocumentStore, key string, catalog []models.ModuleSpec, v *validator.Validator, logger *slog.Logger) (*Store, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("progress store requires a non-empty module catalog")
	}

	specs := make(map[string]models.ModuleSpec, len(catalog))
	for _, spec := range catalog {
		specs[spec.ID] = spec
	}

	s := &Store{
		storage:   store,
		key:       key,
		catalog:   catalog,
		specs:     specs,
		validator: v,
		logger:    logger,
	}
	s.doc = s.load(ctx)
	s.recompute()

	return s, nil
}

// load reads the persisted document and applies the reset/repair rules.
func (s *Store) load(ctx context.Context) *models.ProgressDocument {
	data, err := s.storage.Read(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to read progress document, starting fresh", "error", err)
		}
		return models.NewProgressDocument(s.catalog)
	}

	var doc models.ProgressDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("Progress document is unparseable, recreating defaults", "error", err)
		return models.NewProgressDocument(s.catalog)
	}

	docValidator := s.validator.Document()
	if !docValidator.VersionMatches(&doc) {
		s.logger.Warn("Progress document schema version mismatch, recreating defaults",
			"stored_version", doc.SchemaVersion,
			"expected_version", models.SchemaVersion)
		return models.NewProgressDocument(s.catalog)
	}

	if repaired := docValidator.Repair(&doc, s.catalog); repaired > 0 {
		s.logger.Info("Repaired progress document", "repairs", repaired)
	}
	return &doc
}

// Subscribe registers an observer for change notifications.
func (s *Store) Subscribe(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// MarkSectionComplete records a section as read. Idempotent: marking the
// same section twice leaves the record unchanged. Always persists and
// notifies, and promotes a not-started module to in-progress.
func (s *Store) MarkSectionComplete(ctx context.Context, moduleID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.record(moduleID)
	if err != nil {
		return err
	}

	record.AddSection(sectionID)
	if record.Status == models.StatusNotStarted {
		record.Status = models.StatusInProgress
	}
	s.evaluateCompletion(moduleID, record)

	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info("Section marked complete",
		"module_id", moduleID,
		"section_id", sectionID,
		"sections_completed", len(record.SectionsCompleted))

	s.notify(moduleID)
	return nil
}

// SaveQuizScore overwrites the module's latest score and bumps the attempt
// count. A passing score forces the module to completed regardless of
// section state; a failing one still promotes not-started to in-progress.
func (s *Store) SaveQuizScore(ctx context.Context, moduleID string, scorePercent int) error {
	if scorePercent < 0 || scorePercent > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidScore, scorePercent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.record(moduleID)
	if err != nil {
		return err
	}

	record.QuizScore = &scorePercent
	record.QuizAttempts++

	if scorePercent >= models.DefaultPassingScore {
		record.Status = models.StatusCompleted
	} else if record.Status == models.StatusNotStarted {
		record.Status = models.StatusInProgress
	}
	// Both mutation paths check the joint condition, so quiz-first and
	// sections-first call orders converge on the same status.
	s.evaluateCompletion(moduleID, record)

	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info("Quiz score saved",
		"module_id", moduleID,
		"score", scorePercent,
		"attempts", record.QuizAttempts,
		"status", record.Status)

	s.notify(moduleID)
	return nil
}

// ResetModule restores one module to its default record.
func (s *Store) ResetModule(ctx context.Context, moduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.record(moduleID); err != nil {
		return err
	}
	s.doc.Modules[moduleID] = models.NewModuleProgress()

	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info("Module progress reset", "module_id", moduleID)
	s.notify(moduleID)
	return nil
}

// ResetAll restores every module to its default record.
func (s *Store) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, spec := range s.catalog {
		s.doc.Modules[spec.ID] = models.NewModuleProgress()
	}

	if err := s.persist(ctx); err != nil {
		return err
	}

	s.logger.Info("All module progress reset")
	s.notify(AllModules)
	return nil
}

// ModuleProgress returns the weighted completion percentage for one module:
// sections are worth 70%, the quiz the remaining 30%.
func (s *Store) ModuleProgress(moduleID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.record(moduleID)
	if err != nil {
		return 0, err
	}
	return s.moduleProgressLocked(moduleID, record), nil
}

// OverallProgress returns the rounded mean of every module's progress.
func (s *Store) OverallProgress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overallLocked()
}

// Module returns a copy of one module's record.
func (s *Store) Module(moduleID string) (*models.ModuleProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.record(moduleID)
	if err != nil {
		return nil, err
	}
	return copyRecord(record), nil
}

// Document returns a deep copy of the whole progress document.
func (s *Store) Document() *models.ProgressDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &models.ProgressDocument{
		SchemaVersion:   s.doc.SchemaVersion,
		CreatedAt:       s.doc.CreatedAt,
		UpdatedAt:       s.doc.UpdatedAt,
		OverallProgress: s.doc.OverallProgress,
		Modules:         make(map[string]*models.ModuleProgress, len(s.doc.Modules)),
	}
	for id, record := range s.doc.Modules {
		doc.Modules[id] = copyRecord(record)
	}
	return doc
}

// Catalog returns the module specs this store tracks.
func (s *Store) Catalog() []models.ModuleSpec {
	return s.catalog
}

// ===== INTERNALS =====

func (s *Store) record(moduleID string) (*models.ModuleProgress, error) {
	record, ok := s.doc.Modules[moduleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotTracked, moduleID)
	}
	return record, nil
}

// evaluateCompletion applies the auto-completion rule: all declared sections
// read and a passing quiz score force completed, whatever order the two
// conditions were met in.
func (s *Store) evaluateCompletion(moduleID string, record *models.ModuleProgress) {
	if record.Status == models.StatusCompleted {
		return
	}

	spec := s.specs[moduleID]
	sectionsDone := spec.TotalSections > 0 && len(record.SectionsCompleted) >= spec.TotalSections
	quizPassed := record.QuizScore != nil && *record.QuizScore >= models.DefaultPassingScore

	if sectionsDone && quizPassed {
		record.Status = models.StatusCompleted
	}
}

func (s *Store) moduleProgressLocked(moduleID string, record *models.ModuleProgress) int {
	spec := s.specs[moduleID]

	sectionComponent := 1.0
	if spec.TotalSections > 0 {
		sectionComponent = math.Min(float64(len(record.SectionsCompleted))/float64(spec.TotalSections), 1)
	}

	quizComponent := 0.0
	if record.QuizScore != nil {
		if *record.QuizScore >= models.DefaultPassingScore {
			quizComponent = 1
		} else {
			quizComponent = float64(*record.QuizScore) / 100
		}
	}

	percent := sectionWeight*sectionComponent*100 + (1-sectionWeight)*quizComponent*100
	return int(math.Round(percent))
}

func (s *Store) overallLocked() int {
	if len(s.catalog) == 0 {
		return 0
	}

	total := 0
	for _, spec := range s.catalog {
		total += s.moduleProgressLocked(spec.ID, s.doc.Modules[spec.ID])
	}
	return int(math.Round(float64(total) / float64(len(s.catalog))))
}

// persist recomputes the derived fields and flushes the document before the
// mutating call returns.
func (s *Store) persist(ctx context.Context) error {
	s.doc.UpdatedAt = time.Now().UTC()
	s.recomputeLocked()

	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to marshal progress document: %w", err)
	}
	if err := s.storage.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to persist progress document: %w", err)
	}
	return nil
}

func (s *Store) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *Store) recomputeLocked() {
	s.doc.OverallProgress = s.overallLocked()
}

func (s *Store) notify(moduleID string) {
	notification := ChangeNotification{
		ModuleID:        moduleID,
		OverallProgress: s.doc.OverallProgress,
	}
	if moduleID != AllModules {
		if record, ok := s.doc.Modules[moduleID]; ok {
			moduleProgress := s.moduleProgressLocked(moduleID, record)
			notification.ModuleProgress = &moduleProgress
		}
	}

	for _, observer := range s.observers {
		observer.ProgressChanged(notification)
	}
}

func copyRecord(record *models.ModuleProgress) *models.ModuleProgress {
	copied := &models.ModuleProgress{
		Status:            record.Status,
		SectionsCompleted: append([]string{}, record.SectionsCompleted...),
		QuizAttempts:      record.QuizAttempts,
	}
	if record.QuizScore != nil {
		score := *record.QuizScore
		copied.QuizScore = &score
	}
	return copied
}
