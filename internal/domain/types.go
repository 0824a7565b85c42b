// Package domain holds the core types for hunk-level review tracking:
// comparisons, changed files, diff hunks and their persisted review state.
package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// File statuses as reported by the diff source.
const (
	FileStatusAdded     = "added"
	FileStatusModified  = "modified"
	FileStatusDeleted   = "deleted"
	FileStatusRenamed   = "renamed"
	FileStatusUntracked = "untracked"
)

// ApprovedViaReview marks a hunk approved by explicit human review.
// Trust-based approval is never stored; it is recomputed on every query.
const ApprovedViaReview = "review"

const workingTreeSuffix = "+working-tree"

// Comparison identifies what is being reviewed: a base ref, a compare ref,
// and whether uncommitted changes are included.
type Comparison struct {
	Old         string `json:"old"`
	New         string `json:"new"`
	WorkingTree bool   `json:"working_tree"`
	Key         string `json:"key"`
}

// NewComparison builds a Comparison with its canonical key.
func NewComparison(old, new string, workingTree bool) Comparison {
	key := old + ".." + new
	if workingTree {
		key += workingTreeSuffix
	}
	return Comparison{Old: old, New: new, WorkingTree: workingTree, Key: key}
}

// ParseComparisonKey reconstructs a Comparison from its canonical key.
func ParseComparisonKey(key string) (Comparison, error) {
	rest := key
	workingTree := false
	if strings.HasSuffix(rest, workingTreeSuffix) {
		workingTree = true
		rest = strings.TrimSuffix(rest, workingTreeSuffix)
	}
	old, new, ok := strings.Cut(rest, "..")
	if !ok {
		return Comparison{}, fmt.Errorf("invalid comparison key: %q", key)
	}
	return Comparison{Old: old, New: new, WorkingTree: workingTree, Key: key}, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeKey converts a comparison key to a filesystem-safe filename stem.
func SanitizeKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

// DiffHunk is one contiguous change block from a zero-context diff.
type DiffHunk struct {
	FilePath  string `json:"file_path"`
	Hash      string `json:"hash"`
	Header    string `json:"header"`
	Content   string `json:"content"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// ChangedFile is a file touched in the diff, with its ordered hunks.
// Recomputed on every invocation; never persisted.
type ChangedFile struct {
	Path    string     `json:"path"`
	Status  string     `json:"status"`
	OldPath string     `json:"old_path,omitempty"`
	Hunks   []DiffHunk `json:"hunks"`
}

// HunkKey returns the stable identity used for persistence: "path:hash".
func HunkKey(filePath, hash string) string {
	return filePath + ":" + hash
}

// ParseHunkKey splits a hunk key into (path, hash). Paths may themselves
// contain colons, so the split is on the last colon.
func ParseHunkKey(key string) (filePath, hash string, err error) {
	idx := strings.LastIndex(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("invalid hunk key: %q", key)
	}
	return key[:idx], key[idx+1:], nil
}

// HunkState is the persisted review record for a single hunk key.
type HunkState struct {
	// Trust patterns recognized in this hunk. Empty means no trustable
	// pattern was recognized, which always needs human attention.
	Label []string `json:"label"`

	// Free-form explanation of what the change does. Nil until classified.
	Reasoning *string `json:"reasoning"`

	// ApprovedVia is "review" once a human approved the hunk, else nil.
	ApprovedVia *string `json:"approved_via"`

	// Count records how many hunks shared this key when it was acted on.
	// Informational only; used for drift warnings.
	Count *int `json:"count"`
}

// NewHunkState returns an empty state with a non-nil label list.
func NewHunkState() *HunkState {
	return &HunkState{Label: []string{}}
}

// Reviewed reports whether the hunk was approved by explicit review.
func (h *HunkState) Reviewed() bool {
	return h != nil && h.ApprovedVia != nil && *h.ApprovedVia == ApprovedViaReview
}

// Labeled reports whether the hunk has been classified.
func (h *HunkState) Labeled() bool {
	return h != nil && h.Reasoning != nil
}

// ReviewState is the persisted state for one comparison.
type ReviewState struct {
	Comparison Comparison            `json:"comparison"`
	Hunks      map[string]*HunkState `json:"hunks"`
	TrustLabel []string              `json:"trust_label"`
	Notes      string                `json:"notes"`
	CreatedAt  string                `json:"created_at"`
	UpdatedAt  string                `json:"updated_at"`
}

// NewReviewState constructs an empty state for a comparison.
func NewReviewState(comparison Comparison, now string) *ReviewState {
	return &ReviewState{
		Comparison: comparison,
		Hunks:      map[string]*HunkState{},
		TrustLabel: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Hunk returns the state for a hunk key, creating an empty record if absent.
func (s *ReviewState) Hunk(key string) *HunkState {
	h, ok := s.Hunks[key]
	if !ok {
		h = NewHunkState()
		s.Hunks[key] = h
	}
	return h
}
