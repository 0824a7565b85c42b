// Package review combines parsed diff hunks with persisted state: status
// aggregation, hunk filtering, pagination, hunk spec resolution and patch
// building for the staging flow.
package review

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hunkreview/hunkreview/internal/diff"
	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/trust"
)

// NoLabelGroup is the display bucket for approved hunks without reasoning.
const NoLabelGroup = "(no label)"

// DiffSource supplies the raw material the aggregator consumes. The git
// adapter satisfies this.
type DiffSource interface {
	// Diff returns zero-context unified diff text. An empty compare ref
	// means diff against the working tree.
	Diff(base, compare string) (string, error)

	// DiffNameStatus returns the name-status listing for the same range.
	DiffNameStatus(base, compare string) (string, error)

	// UntrackedFiles lists paths not yet tracked by version control.
	UntrackedFiles() ([]string, error)
}

// LoadChangedFiles builds the changed-file list for a comparison. Working
// tree comparisons additionally surface untracked files as synthetic hunks.
func LoadChangedFiles(source DiffSource, repoRoot, base, compare string, workingTree bool) ([]domain.ChangedFile, error) {
	diffCompare := compare
	if workingTree {
		diffCompare = ""
	}

	nameStatus, err := source.DiffNameStatus(base, diffCompare)
	if err != nil {
		return nil, err
	}
	statuses := diff.ParseNameStatus(nameStatus)

	diffText, err := source.Diff(base, diffCompare)
	if err != nil {
		return nil, err
	}
	files := diff.Parse(diffText, statuses)

	if workingTree {
		untracked, err := source.UntrackedFiles()
		if err != nil {
			return nil, err
		}
		for _, relPath := range untracked {
			content := ""
			if data, err := os.ReadFile(filepath.Join(repoRoot, relPath)); err == nil {
				content = string(data)
			}
			files = append(files, domain.ChangedFile{
				Path:   relPath,
				Status: domain.FileStatusUntracked,
				Hunks:  []domain.DiffHunk{diff.NewUntrackedHunk(relPath, content)},
			})
		}
	}

	return files, nil
}

// LabelCount pairs a grouping label with how many hunks carry it.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FileStatusCount summarizes one git file status within the diff scope.
type FileStatusCount struct {
	Files int `json:"files"`
	Hunks int `json:"hunks"`
}

// Status is the computed review summary for a comparison.
type Status struct {
	ComparisonKey  string                     `json:"comparison"`
	TotalFiles     int                        `json:"total_files"`
	TotalHunks     int                        `json:"total_hunks"`
	ApprovedHunks  int                        `json:"approved_hunks"`
	UnlabeledCount int                        `json:"unlabeled"`
	ByFileStatus   map[string]FileStatusCount `json:"by_file_status"`

	// Buckets of hunks grouped by reasoning text, sorted by count
	// descending. Unreviewed holds labeled-but-unapproved hunks; Trusted
	// holds dynamically trusted ones; Reviewed holds manual approvals.
	Unreviewed []LabelCount `json:"unreviewed"`
	Trusted    []LabelCount `json:"trusted"`
	Reviewed   []LabelCount `json:"reviewed"`
}

// ProgressPercent is the approved share of all hunks, rounded.
func (s Status) ProgressPercent() int {
	if s.TotalHunks == 0 {
		return 0
	}
	return int(math.Round(float64(s.ApprovedHunks) / float64(s.TotalHunks) * 100))
}

// RemainingHunks counts hunks not yet approved.
func (s Status) RemainingHunks() int {
	return s.TotalHunks - s.ApprovedHunks
}

// UnreviewedTotal sums the unreviewed bucket.
func (s Status) UnreviewedTotal() int { return sumCounts(s.Unreviewed) }

// TrustedTotal sums the trusted bucket.
func (s Status) TrustedTotal() int { return sumCounts(s.Trusted) }

// ReviewedTotal sums the reviewed bucket.
func (s Status) ReviewedTotal() int { return sumCounts(s.Reviewed) }

func sumCounts(counts []LabelCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

// ComputeStatus aggregates review progress. Trust is recomputed from the
// effective trust list on every call; nothing here writes state.
func ComputeStatus(files []domain.ChangedFile, state *domain.ReviewState, comparisonKey string, effectiveTrust []string) Status {
	status := Status{
		ComparisonKey: comparisonKey,
		TotalFiles:    len(files),
		ByFileStatus:  map[string]FileStatusCount{},
	}

	unreviewed := map[string]int{}
	trusted := map[string]int{}
	reviewed := map[string]int{}

	for _, f := range files {
		counts := status.ByFileStatus[f.Status]
		counts.Files++
		counts.Hunks += len(f.Hunks)
		status.ByFileStatus[f.Status] = counts

		for _, hunk := range f.Hunks {
			status.TotalHunks++
			hunkState := state.Hunks[domain.HunkKey(hunk.FilePath, hunk.Hash)]

			group := NoLabelGroup
			if hunkState != nil && hunkState.Reasoning != nil && *hunkState.Reasoning != "" {
				group = *hunkState.Reasoning
			}

			switch {
			case hunkState.Reviewed():
				status.ApprovedHunks++
				reviewed[group]++
			case trust.IsHunkTrusted(hunkState, effectiveTrust):
				status.ApprovedHunks++
				trusted[group]++
			case hunkState.Labeled():
				unreviewed[group]++
			default:
				status.UnlabeledCount++
			}
		}
	}

	status.Unreviewed = sortedCounts(unreviewed)
	status.Trusted = sortedCounts(trusted)
	status.Reviewed = sortedCounts(reviewed)
	return status
}

// sortedCounts flattens a grouping map into count-descending order, with
// label as the tiebreaker so output is stable across calls.
func sortedCounts(groups map[string]int) []LabelCount {
	counts := make([]LabelCount, 0, len(groups))
	for label, count := range groups {
		counts = append(counts, LabelCount{Label: label, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	return counts
}

// Filters select hunks before aggregation or display. All set filters must
// pass (AND semantics).
type Filters struct {
	Path       string
	FileStatus string
	Unreviewed bool
	Unlabeled  bool
	Label      string
}

// FilterFiles narrows the file list by path prefix and file status.
func FilterFiles(files []domain.ChangedFile, filters Filters) []domain.ChangedFile {
	result := files
	if filters.Path != "" {
		var matched []domain.ChangedFile
		for _, f := range result {
			if f.Path == filters.Path || strings.HasPrefix(f.Path, filters.Path+"/") {
				matched = append(matched, f)
			}
		}
		result = matched
	}
	if filters.FileStatus != "" {
		var matched []domain.ChangedFile
		for _, f := range result {
			if f.Status == filters.FileStatus {
				matched = append(matched, f)
			}
		}
		result = matched
	}
	return result
}

// MatchHunk reports whether a hunk passes the per-hunk filters given the
// stored state and effective trust list.
func (f Filters) MatchHunk(hunkState *domain.HunkState, effectiveTrust []string) bool {
	if f.Unreviewed && trust.IsHunkApproved(hunkState, effectiveTrust) {
		return false
	}
	if f.Unlabeled && hunkState.Labeled() {
		return false
	}
	if f.Label != "" {
		if hunkState == nil {
			return false
		}
		found := false
		for _, label := range hunkState.Label {
			if label == f.Label {
				found = true
				break
			}
		}
		if !found && (hunkState.Reasoning == nil || *hunkState.Reasoning != f.Label) {
			return false
		}
	}
	return true
}

// HunkRef is a hunk paired with its owning file, the unit of pagination.
type HunkRef struct {
	File domain.ChangedFile
	Hunk domain.DiffHunk
}

// SelectHunks applies file and hunk filters, preserving diff order.
func SelectHunks(files []domain.ChangedFile, state *domain.ReviewState, filters Filters, effectiveTrust []string) []HunkRef {
	var selected []HunkRef
	for _, f := range FilterFiles(files, filters) {
		for _, hunk := range f.Hunks {
			hunkState := state.Hunks[domain.HunkKey(hunk.FilePath, hunk.Hash)]
			if filters.MatchHunk(hunkState, effectiveTrust) {
				selected = append(selected, HunkRef{File: f, Hunk: hunk})
			}
		}
	}
	return selected
}

// PageInfo describes a pagination window over a filtered hunk list.
type PageInfo struct {
	TotalMatching int  `json:"total_matching"`
	Offset        int  `json:"offset"`
	Returned      int  `json:"returned"`
	HasMore       bool `json:"has_more"`
}

// Paginate slices a hunk list. Ordering is the stable diff order from
// SelectHunks, so repeated calls with unchanged inputs page consistently.
// limit <= 0 means no limit.
func Paginate(hunks []HunkRef, offset, limit int) ([]HunkRef, PageInfo) {
	total := len(hunks)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	page := hunks[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	return page, PageInfo{
		TotalMatching: total,
		Offset:        offset,
		Returned:      len(page),
		HasMore:       total > offset+len(page),
	}
}
