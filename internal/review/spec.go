package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hunkreview/hunkreview/internal/domain"
)

// ParseHunkSpec splits a target specification like "path", "path:hash" or
// "path:h1,h2" into a path and optional hash list. A trailing colon segment
// only counts as hashes when it looks like hash material, since paths may
// contain colons.
func ParseHunkSpec(spec string) (path string, hashes []string) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return spec, nil
	}
	hashPart := spec[idx+1:]
	if hashPart == "" || !isHashList(hashPart) {
		return spec, nil
	}
	for _, h := range strings.Split(hashPart, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			hashes = append(hashes, h)
		}
	}
	return spec[:idx], hashes
}

func isHashList(s string) bool {
	for _, r := range s {
		if r == ',' {
			continue
		}
		isAlnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isAlnum {
			return false
		}
	}
	return true
}

// IsBareHash reports whether a spec looks like a standalone content hash
// rather than a path.
func IsBareHash(spec string) bool {
	if spec == "" || len(spec) > 40 {
		return false
	}
	if strings.ContainsAny(spec, ":/\\.") {
		return false
	}
	return isHashList(spec) && !strings.Contains(spec, ",")
}

// HashMatch locates a hunk found by hash lookup.
type HashMatch struct {
	Path string
	Hash string
}

// ResolveBareHash finds hunks whose hash equals or starts with the given
// prefix. Multiple hunks sharing one hash are the same logical change and
// resolve together; a prefix matching several distinct hashes is ambiguous.
func ResolveBareHash(spec string, files []domain.ChangedFile) ([]HashMatch, error) {
	var matches []HashMatch
	distinct := map[string]struct{}{}
	for _, f := range files {
		for _, hunk := range f.Hunks {
			if hunk.Hash == spec || strings.HasPrefix(hunk.Hash, spec) {
				matches = append(matches, HashMatch{Path: f.Path, Hash: hunk.Hash})
				distinct[hunk.Hash] = struct{}{}
			}
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("hash %q not found in current diff", spec)
	}
	if len(distinct) > 1 {
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, domain.HunkKey(m.Path, m.Hash))
		}
		sort.Strings(candidates)
		return nil, fmt.Errorf("hash %q is ambiguous, matches: %s", spec, strings.Join(candidates, ", "))
	}
	return matches, nil
}

// CountHunksByKey counts how often each hunk key appears in the diff.
// Identical content in one file produces duplicate keys.
func CountHunksByKey(files []domain.ChangedFile) map[string]int {
	counts := map[string]int{}
	for _, f := range files {
		for _, hunk := range f.Hunks {
			counts[domain.HunkKey(hunk.FilePath, hunk.Hash)]++
		}
	}
	return counts
}

// ValidHunkKeys returns the set of hunk keys present in the current diff.
func ValidHunkKeys(files []domain.ChangedFile) map[string]struct{} {
	keys := map[string]struct{}{}
	for key := range CountHunksByKey(files) {
		keys[key] = struct{}{}
	}
	return keys
}

// CountWarnings reports hunk keys that occur more often now than when they
// were acted on, a sign that new identical hunks appeared after review.
func CountWarnings(files []domain.ChangedFile, state *domain.ReviewState) []string {
	current := CountHunksByKey(files)

	keys := make([]string, 0, len(current))
	for key := range current {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var warnings []string
	for _, key := range keys {
		hunkState, ok := state.Hunks[key]
		if !ok || hunkState.Count == nil {
			continue
		}
		if current[key] > *hunkState.Count {
			warnings = append(warnings, fmt.Sprintf("%s: %d hunks now vs %d when reviewed", key, current[key], *hunkState.Count))
		}
	}
	return warnings
}
