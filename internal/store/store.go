// Package store persists review state as one JSON file per comparison
// under the git common dir, so worktrees of the same repository share
// review progress. Files are human-readable and safe to inspect or delete.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hunkreview/hunkreview/internal/domain"
)

const (
	stateDirName   = "hunkreview"
	reviewsDirName = "reviews"
	currentName    = "current"
)

// Service manages review state files for a single repository.
type Service struct {
	commonDir string
	cache     map[string]*domain.ReviewState
	now       func() time.Time
}

// NewService creates a store rooted at the repository's git common dir.
func NewService(gitCommonDir string) *Service {
	return &Service{
		commonDir: gitCommonDir,
		cache:     map[string]*domain.ReviewState{},
		now:       time.Now,
	}
}

func (s *Service) nowISO() string {
	return s.now().UTC().Format(time.RFC3339)
}

// StateDir returns the directory holding per-comparison review files.
func (s *Service) StateDir() string {
	return filepath.Join(s.commonDir, stateDirName, reviewsDirName)
}

func (s *Service) currentFile() string {
	return filepath.Join(s.commonDir, stateDirName, currentName)
}

// FilePath returns the JSON file backing a comparison key.
func (s *Service) FilePath(comparisonKey string) string {
	return filepath.Join(s.StateDir(), domain.SanitizeKey(comparisonKey)+".json")
}

func (s *Service) ensureDir() error {
	return os.MkdirAll(s.StateDir(), 0o755)
}

// Load returns the state for a comparison key. Missing or corrupt files
// yield a fresh empty state rather than an error so a damaged file never
// blocks the review flow.
func (s *Service) Load(comparisonKey string) (*domain.ReviewState, error) {
	if state, ok := s.cache[comparisonKey]; ok {
		return state, nil
	}

	data, err := os.ReadFile(s.FilePath(comparisonKey))
	if err == nil {
		if state, merr := migrateState(data, comparisonKey, s.nowISO()); merr == nil {
			s.cache[comparisonKey] = state
			return state, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read review state: %w", err)
	}

	comparison, err := domain.ParseComparisonKey(comparisonKey)
	if err != nil {
		return nil, err
	}
	return domain.NewReviewState(comparison, s.nowISO()), nil
}

// Save writes the state atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (s *Service) Save(state *domain.ReviewState) error {
	state.UpdatedAt = s.nowISO()
	s.cache[state.Comparison.Key] = state

	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal review state: %w", err)
	}
	data = append(data, '\n')

	target := s.FilePath(state.Comparison.Key)
	tmp, err := os.CreateTemp(s.StateDir(), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write review state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write review state: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save review state: %w", err)
	}
	return nil
}

// Clear deletes the state for a comparison key.
func (s *Service) Clear(comparisonKey string) error {
	delete(s.cache, comparisonKey)
	err := os.Remove(s.FilePath(comparisonKey))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear review state: %w", err)
	}
	return nil
}

// List returns the states of every stored review, sorted by comparison key.
// Unreadable files are skipped.
func (s *Service) List() ([]*domain.ReviewState, error) {
	entries, err := os.ReadDir(s.StateDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	var states []*domain.ReviewState
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.StateDir(), entry.Name()))
		if err != nil {
			continue
		}
		key := keyFromPayload(data, strings.TrimSuffix(entry.Name(), ".json"))
		state, err := migrateState(data, key, s.nowISO())
		if err != nil {
			continue
		}
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Comparison.Key < states[j].Comparison.Key
	})
	return states, nil
}

// keyFromPayload recovers the comparison key from file content, falling
// back to the sanitized filename stem when the payload has none.
func keyFromPayload(data []byte, fallback string) string {
	var probe struct {
		Comparison struct {
			Key string `json:"key"`
		} `json:"comparison"`
		ComparisonKey string `json:"comparisonKey"`
	}
	if err := json.Unmarshal(data, &probe); err == nil {
		if probe.Comparison.Key != "" {
			return probe.Comparison.Key
		}
		if probe.ComparisonKey != "" {
			return probe.ComparisonKey
		}
	}
	return fallback
}

// Current returns the active comparison key, or "" when none is set.
func (s *Service) Current() (string, error) {
	data, err := os.ReadFile(s.currentFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read current comparison: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetCurrent records the active comparison key.
func (s *Service) SetCurrent(comparisonKey string) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.currentFile(), []byte(comparisonKey+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to set current comparison: %w", err)
	}
	return nil
}

// ClearCurrent removes the active comparison pointer.
func (s *Service) ClearCurrent() error {
	err := os.Remove(s.currentFile())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear current comparison: %w", err)
	}
	return nil
}

// Approve marks a hunk as reviewed. Idempotent: an already-approved hunk
// keeps its original count and the file is not rewritten.
func (s *Service) Approve(comparisonKey, hunkKey string, count int) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	hunk := state.Hunk(hunkKey)
	if hunk.ApprovedVia != nil {
		return nil
	}
	via := domain.ApprovedViaReview
	hunk.ApprovedVia = &via
	hunk.Count = &count
	return s.Save(state)
}

// Unapprove removes explicit approval from a hunk. No-op when the hunk is
// unknown or not approved.
func (s *Service) Unapprove(comparisonKey, hunkKey string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	hunk, ok := state.Hunks[hunkKey]
	if !ok || hunk.ApprovedVia == nil {
		return nil
	}
	hunk.ApprovedVia = nil
	return s.Save(state)
}

// SetClassification records the trust labels and reasoning for a hunk.
func (s *Service) SetClassification(comparisonKey, hunkKey string, label []string, reasoning string, count *int) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	applyClassification(state.Hunk(hunkKey), label, reasoning, count)
	return s.Save(state)
}

// Classification pairs trust labels with free-form reasoning.
type Classification struct {
	Label     []string `json:"label"`
	Reasoning string   `json:"reasoning"`
}

// SetClassifications records many classifications in a single write.
func (s *Service) SetClassifications(comparisonKey string, classifications map[string]Classification) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	for hunkKey, c := range classifications {
		applyClassification(state.Hunk(hunkKey), c.Label, c.Reasoning, nil)
	}
	return s.Save(state)
}

func applyClassification(hunk *domain.HunkState, label []string, reasoning string, count *int) {
	if label == nil {
		label = []string{}
	}
	hunk.Label = label
	hunk.Reasoning = &reasoning
	if count != nil {
		hunk.Count = count
	}
}

// SetReasoning sets only the reasoning text for a hunk, leaving labels alone.
func (s *Service) SetReasoning(comparisonKey, hunkKey, reasoning string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	state.Hunk(hunkKey).Reasoning = &reasoning
	return s.Save(state)
}

// SetReasonings sets reasoning text for many hunks in a single write.
func (s *Service) SetReasonings(comparisonKey string, reasonings map[string]string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	for hunkKey, reasoning := range reasonings {
		r := reasoning
		state.Hunk(hunkKey).Reasoning = &r
	}
	return s.Save(state)
}

// ClearClassifications wipes labels and reasoning for every hunk while
// preserving explicit approvals.
func (s *Service) ClearClassifications(comparisonKey string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	for _, hunk := range state.Hunks {
		hunk.Label = []string{}
		hunk.Reasoning = nil
	}
	return s.Save(state)
}

// AddTrustLabel appends a pattern to the review-level trust list.
func (s *Service) AddTrustLabel(comparisonKey, pattern string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	for _, existing := range state.TrustLabel {
		if existing == pattern {
			return nil
		}
	}
	state.TrustLabel = append(state.TrustLabel, pattern)
	return s.Save(state)
}

// RemoveTrustLabel removes a pattern from the review-level trust list,
// reporting whether it was present.
func (s *Service) RemoveTrustLabel(comparisonKey, pattern string) (bool, error) {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return false, err
	}
	for i, existing := range state.TrustLabel {
		if existing == pattern {
			state.TrustLabel = append(state.TrustLabel[:i], state.TrustLabel[i+1:]...)
			return true, s.Save(state)
		}
	}
	return false, nil
}

// UpdateNotes replaces the notes for a comparison.
func (s *Service) UpdateNotes(comparisonKey, notes string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	state.Notes = notes
	return s.Save(state)
}

// AppendNotes adds a paragraph to the notes for a comparison.
func (s *Service) AppendNotes(comparisonKey, text string) error {
	state, err := s.Load(comparisonKey)
	if err != nil {
		return err
	}
	if state.Notes != "" {
		state.Notes = strings.TrimRight(state.Notes, " \t\n") + "\n\n" + text
	} else {
		state.Notes = text
	}
	return s.Save(state)
}
