package review

import (
	"strings"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/trust"
)

// FileDiffFunc returns the full unified diff for a single path, used to
// recover the file header when assembling a partial patch.
type FileDiffFunc func(path string) (string, error)

// BuildApprovedPatch assembles a unified-diff patch containing only hunks
// that satisfy the approval predicate, suitable for `git apply --cached`.
// Returns the patch text and the number of hunks included.
func BuildApprovedPatch(files []domain.ChangedFile, state *domain.ReviewState, effectiveTrust []string, fileDiff FileDiffFunc) (string, int, error) {
	var parts []string
	count := 0

	for _, f := range files {
		var approved []domain.DiffHunk
		for _, hunk := range f.Hunks {
			hunkState := state.Hunks[domain.HunkKey(hunk.FilePath, hunk.Hash)]
			if trust.IsHunkApproved(hunkState, effectiveTrust) {
				approved = append(approved, hunk)
				count++
			}
		}
		if len(approved) == 0 {
			continue
		}

		fullDiff, err := fileDiff(f.Path)
		if err != nil {
			return "", 0, err
		}
		headerEnd := strings.Index(fullDiff, "\n@@")
		if headerEnd <= 0 {
			continue
		}
		parts = append(parts, fullDiff[:headerEnd+1])
		for _, hunk := range approved {
			parts = append(parts, hunk.Content)
		}
	}

	return strings.Join(parts, "\n"), count, nil
}
