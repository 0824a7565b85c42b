package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/review"
	"github.com/hunkreview/hunkreview/internal/taxonomy"
	"github.com/hunkreview/hunkreview/internal/trust"
)

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[]")
}

func trustCommand(deps Dependencies) *cobra.Command {
	var base string
	var preview bool
	var configLevel bool
	var projectLevel bool
	var quiet bool

	cmd := &cobra.Command{
		Use:     "trust PATTERN",
		Short:   "Add a pattern to the review-level trust list",
		GroupID: groupTrust,
		Long: `Add a pattern to the review-level trust list.

PATTERN is a trust pattern like "imports:added" or a glob like "imports:*".
Hunks with labels matching trusted patterns are dynamically approved.

With --config the pattern is written to the persistent settings trust
list instead (user tier by default, project tier with --project).

Examples:
  hr trust imports:added
  hr trust "imports:*"        # matches all import patterns
  hr trust "formatting:*" --preview
  hr trust "generated:*" --config --project`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := args[0]
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if configLevel {
				if err := s.cfg.AddTrust(pattern, projectLevel); err != nil {
					return err
				}
				if !quiet {
					fmt.Fprintf(s.out, "%s Added %q to %s settings trust list.\n",
						s.style.success("✓"), pattern, settingsTier(projectLevel))
				}
				return nil
			}
			rc, err := s.reviewContext(cmd.Context(), base)
			if err != nil {
				return err
			}
			files, err := rc.Files()
			if err != nil {
				return err
			}
			state, err := rc.State()
			if err != nil {
				return err
			}

			keyCounts := review.CountHunksByKey(files)
			validKeys := review.ValidHunkKeys(files)
			currentTrust, err := rc.EffectiveTrust()
			if err != nil {
				return err
			}
			isGlob := isGlobPattern(pattern)

			// Find hunks that this pattern would newly trust.
			newTrust := append(append([]string{}, currentTrust...), pattern)
			var matchingKeys []string
			matchedPatterns := map[string]struct{}{}
			for hunkKey, hunkState := range state.Hunks {
				if len(hunkState.Label) == 0 {
					continue
				}
				if _, ok := validKeys[hunkKey]; !ok {
					continue
				}
				if hunkState.Reviewed() {
					continue
				}
				if trust.IsHunkTrusted(hunkState, currentTrust) {
					continue
				}
				if !trust.IsHunkTrusted(hunkState, newTrust) {
					continue
				}
				matchingKeys = append(matchingKeys, hunkKey)
				for _, labelPattern := range hunkState.Label {
					if isGlob && taxonomy.MatchesGlob(labelPattern, pattern) {
						matchedPatterns[labelPattern] = struct{}{}
					} else if labelPattern == pattern {
						matchedPatterns[labelPattern] = struct{}{}
					}
				}
			}
			sort.Strings(matchingKeys)

			totalCount := 0
			for _, k := range matchingKeys {
				totalCount += countOrOne(keyCounts, k)
			}

			if preview {
				printTrustPreview(s, state, pattern, isGlob, matchingKeys, matchedPatterns, keyCounts, totalCount)
				return nil
			}

			for _, existing := range state.TrustLabel {
				if existing == pattern {
					fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("Pattern %q is already in the trust list.", pattern)))
					return nil
				}
			}

			if err := s.store.AddTrustLabel(rc.comparison.Key, pattern); err != nil {
				return err
			}

			if !quiet {
				if totalCount > 0 {
					fmt.Fprintf(s.out, "%s Added %q to trust list — %s hunk(s) now trusted.\n",
						s.style.success("✓"), pattern, s.style.bold(fmt.Sprint(totalCount)))
				} else {
					fmt.Fprintf(s.out, "%s Added %q to trust list (no matching hunks currently).\n",
						s.style.success("✓"), pattern)
				}
				fmt.Fprintln(s.out, s.style.dim("→ Run 'hr status' to see progress"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVar(&preview, "preview", false, "Preview hunks that would become trusted")
	cmd.Flags().BoolVar(&configLevel, "config", false, "Write to the persistent settings trust list instead")
	cmd.Flags().BoolVar(&projectLevel, "project", false, "Target the project settings tier (with --config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}

func settingsTier(projectLevel bool) string {
	if projectLevel {
		return "project"
	}
	return "user"
}

func countOrOne(keyCounts map[string]int, key string) int {
	if c, ok := keyCounts[key]; ok {
		return c
	}
	return 1
}

func printTrustPreview(s *session, state *domain.ReviewState, pattern string, isGlob bool, matchingKeys []string, matchedPatterns map[string]struct{}, keyCounts map[string]int, totalCount int) {
	if isGlob {
		fmt.Fprintf(s.out, "%s %s\n", s.style.bold("Glob:"), s.style.info(pattern))
		if len(matchedPatterns) > 0 {
			fmt.Fprintf(s.out, "%s %d\n", s.style.bold("Matched label patterns:"), len(matchedPatterns))
			sorted := make([]string, 0, len(matchedPatterns))
			for p := range matchedPatterns {
				sorted = append(sorted, p)
			}
			sort.Strings(sorted)
			for _, p := range sorted {
				patternCount := 0
				for _, k := range matchingKeys {
					for _, label := range state.Hunks[k].Label {
						if label == p {
							patternCount += countOrOne(keyCounts, k)
							break
						}
					}
				}
				fmt.Fprintf(s.out, "  → %s %s %s\n", p,
					s.style.dim(taxonomy.Describe(p)),
					s.style.dim(fmt.Sprintf("(%d hunks)", patternCount)))
			}
		}
	} else {
		fmt.Fprintf(s.out, "%s %s\n", s.style.bold("Pattern:"), s.style.info(pattern))
	}
	fmt.Fprintf(s.out, "%s %d\n", s.style.bold("Hunks that would become trusted:"), totalCount)
	fmt.Fprintln(s.out)

	if len(matchingKeys) > 0 {
		samples := matchingKeys
		if len(samples) > 5 {
			samples = samples[:5]
		}
		for _, hunkKey := range samples {
			path, hash, err := domain.ParseHunkKey(hunkKey)
			if err != nil {
				continue
			}
			fmt.Fprintf(s.out, "  · %s%s%s\n", s.style.path(path), s.style.dim(":"), s.style.info(hash))
			if hs := state.Hunks[hunkKey]; hs != nil && hs.Reasoning != nil && *hs.Reasoning != "" {
				fmt.Fprintf(s.out, "    %s\n", s.style.dim(truncate(*hs.Reasoning, 60)))
			}
		}
		if len(matchingKeys) > 5 {
			fmt.Fprintf(s.out, "  %s\n", s.style.dim(fmt.Sprintf("... and %d more", len(matchingKeys)-5)))
		}
		fmt.Fprintln(s.out)
	}

	fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("Run without --preview to add %q to trust list.", pattern)))
}

func untrustCommand(deps Dependencies) *cobra.Command {
	var base string
	var configLevel bool
	var projectLevel bool
	var quiet bool

	cmd := &cobra.Command{
		Use:     "untrust PATTERN",
		Short:   "Remove a pattern from the review-level trust list",
		GroupID: groupTrust,
		Long: `Remove a pattern from the review-level trust list.

PATTERN is a trust pattern like "imports:added" or a glob like "imports:*".
Hunks with labels matching this pattern will no longer be automatically trusted.

With --config the pattern is removed from the persistent settings trust
list instead (user tier by default, project tier with --project).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := args[0]
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if configLevel {
				removed, err := s.cfg.RemoveTrust(pattern, projectLevel)
				if err != nil {
					return err
				}
				if !quiet {
					if removed {
						fmt.Fprintf(s.out, "%s Removed %q from %s settings trust list.\n",
							s.style.success("✓"), pattern, settingsTier(projectLevel))
					} else {
						fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("Pattern %q is not in the %s settings trust list.", pattern, settingsTier(projectLevel))))
					}
				}
				return nil
			}
			rc, err := s.reviewContext(cmd.Context(), base)
			if err != nil {
				return err
			}
			files, err := rc.Files()
			if err != nil {
				return err
			}
			state, err := rc.State()
			if err != nil {
				return err
			}

			inList := false
			for _, existing := range state.TrustLabel {
				if existing == pattern {
					inList = true
					break
				}
			}
			if !inList {
				if !quiet {
					fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("Pattern %q is not in the trust list.", pattern)))
				}
				return nil
			}

			validKeys := review.ValidHunkKeys(files)
			keyCounts := review.CountHunksByKey(files)
			currentTrust, err := rc.EffectiveTrust()
			if err != nil {
				return err
			}
			var newTrust []string
			for _, p := range currentTrust {
				if p != pattern {
					newTrust = append(newTrust, p)
				}
			}

			affected := 0
			for hunkKey, hunkState := range state.Hunks {
				if _, ok := validKeys[hunkKey]; !ok {
					continue
				}
				if hunkState.Reviewed() {
					continue
				}
				if trust.IsHunkTrusted(hunkState, currentTrust) && !trust.IsHunkTrusted(hunkState, newTrust) {
					affected += countOrOne(keyCounts, hunkKey)
				}
			}

			if _, err := s.store.RemoveTrustLabel(rc.comparison.Key, pattern); err != nil {
				return err
			}

			if !quiet {
				if affected > 0 {
					fmt.Fprintf(s.out, "%s Removed %q from trust list — %s hunk(s) now need review.\n",
						s.style.success("✓"), pattern, s.style.bold(fmt.Sprint(affected)))
				} else {
					fmt.Fprintf(s.out, "%s Removed %q from trust list.\n", s.style.success("✓"), pattern)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVar(&configLevel, "config", false, "Remove from the persistent settings trust list instead")
	cmd.Flags().BoolVar(&projectLevel, "project", false, "Target the project settings tier (with --config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}
