// Package trust decides whether a hunk counts as approved. A hunk is
// approved either because a human reviewed it (stored, sticky) or because
// every one of its labels matches the effective trust list (recomputed on
// every query, never stored). Adding or removing a trust glob therefore
// moves hunks between trusted and untrusted without any per-hunk write.
package trust

import (
	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/taxonomy"
)

// IsTrusted reports whether a label set is fully covered by the trust
// globs. Empty label sets are never trusted.
func IsTrusted(labels, effectiveTrust []string) bool {
	ok, _ := taxonomy.AllTrusted(labels, effectiveTrust)
	return ok
}

// IsHunkTrusted reports whether a hunk's stored labels make it dynamically
// trusted under the effective trust list.
func IsHunkTrusted(h *domain.HunkState, effectiveTrust []string) bool {
	if h == nil {
		return false
	}
	return IsTrusted(h.Label, effectiveTrust)
}

// IsHunkApproved is the approval predicate: explicit review approval wins
// regardless of trust-list changes, otherwise dynamic trust applies.
func IsHunkApproved(h *domain.HunkState, effectiveTrust []string) bool {
	return h.Reviewed() || IsHunkTrusted(h, effectiveTrust)
}

// Merge flattens the config-level and review-level trust lists into the
// single effective list the engine consumes, config first, deduplicated.
func Merge(configTrust, reviewTrust []string) []string {
	merged := make([]string, 0, len(configTrust)+len(reviewTrust))
	seen := make(map[string]struct{}, len(configTrust)+len(reviewTrust))
	for _, list := range [][]string{configTrust, reviewTrust} {
		for _, glob := range list {
			if _, ok := seen[glob]; ok {
				continue
			}
			seen[glob] = struct{}{}
			merged = append(merged, glob)
		}
	}
	return merged
}
