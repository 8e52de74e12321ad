package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/BrightPath-Learning/course-progress-service/internal/models"
	"github.com/BrightPath-Learning/course-progress-service/internal/validator"
)

var (
	// ErrModuleNotFound means the requested module id has no question set in
	// the bank.
	ErrModuleNotFound = errors.New("question set not found in bank")

	// ErrBankCorrupt means the bank document could not be fetched, parsed or
	// validated. There is no recovery short of fixing the document.
	ErrBankCorrupt = errors.New("question bank is corrupt")
)

// bankDocument is the on-disk shape of the question bank resource.
type bankDocument struct {
	Modules []models.QuestionSet `json:"modules"`
}

// Bank holds the validated question sets for every course module. It is
// loaded once and read-only afterwards.
type Bank struct {
	sets   map[string]*models.QuestionSet
	logger *slog.Logger
}

// Load fetches the question bank from a file path or an http(s) URL,
// validates it and returns the read-only bank. Parse and validation
// failures are wrapped in ErrBankCorrupt.
func Load(ctx context.Context, source string, v *validator.Validator, logger *slog.Logger) (*Bank, error) {
	logger.Info("Loading question bank", "source", source)

	data, err := fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBankCorrupt, err)
	}

	var document bankDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBankCorrupt, err)
	}

	b, err := FromSets(document.Modules, v, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Question bank loaded", "modules", len(b.sets))
	return b, nil
}

// FromSets builds a bank from already-decoded question sets, validating each
// one and normalizing missing passing scores to the default.
func FromSets(sets []models.QuestionSet, v *validator.Validator, logger *slog.Logger) (*Bank, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: bank has no modules", ErrBankCorrupt)
	}

	byModule := make(map[string]*models.QuestionSet, len(sets))
	for i := range sets {
		set := &sets[i]
		if set.PassingScore == 0 {
			set.PassingScore = models.DefaultPassingScore
		}
		if err := v.Validate(set); err != nil {
			return nil, fmt.Errorf("%w: module %s: %v", ErrBankCorrupt, set.ModuleID, err)
		}
		if _, exists := byModule[set.ModuleID]; exists {
			return nil, fmt.Errorf("%w: duplicate module id %s", ErrBankCorrupt, set.ModuleID)
		}
		byModule[set.ModuleID] = set
	}

	return &Bank{sets: byModule, logger: logger}, nil
}

// Get returns the question set for a module.
func (b *Bank) Get(moduleID string) (*models.QuestionSet, error) {
	set, ok := b.sets[moduleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	}
	return set, nil
}

// ModuleIDs lists the modules present in the bank, sorted.
func (b *Bank) ModuleIDs() []string {
	ids := make([]string, 0, len(b.sets))
	for id := range b.sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadCatalog reads the course catalog (module ids, titles, section counts)
// from a JSON file.
func LoadCatalog(path string, v *validator.Validator) ([]models.ModuleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog struct {
		Modules []models.ModuleSpec `json:"modules"`
	}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(catalog.Modules) == 0 {
		return nil, fmt.Errorf("catalog has no modules")
	}
	for i := range catalog.Modules {
		if err := v.ValidateStruct(&catalog.Modules[i]); err != nil {
			return nil, fmt.Errorf("invalid catalog entry %d: %w", i, err)
		}
	}

	return catalog.Modules, nil
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching bank", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	return os.ReadFile(source)
}
