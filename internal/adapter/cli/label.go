package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/review"
	"github.com/hunkreview/hunkreview/internal/store"
)

func labelCommand(deps Dependencies) *cobra.Command {
	var base string
	var labelText string
	var fromStdin bool
	var fileStatus string
	var unlabeledOnly bool
	var listMode bool
	var asJSON bool
	var clearMode bool
	var verbose bool
	var quiet bool

	cmd := &cobra.Command{
		Use:     "label [SPEC...]",
		Short:   "Label hunks for bulk trust operations",
		GroupID: groupTrust,
		Long: `Label hunks for bulk trust operations.

Assign labels to hunks, then use 'trust' to approve all hunks
with a specific label.

SPEC can be:
  - A bare hash (abc123) - looks up and labels matching hunks
  - path:hash - labels specific hunk
  - A file path - labels all hunks in that file/directory

Examples:
  hr label src/auth.py --as "new auth logic"
  hr label src/auth.py:abc123 --as "specific hunk"
  hr label abc123 def456 --as "same change"
  hr label --status renamed --as "directory rename"
  hr label src/models/ --unlabeled --as "remaining model changes"
  echo '{"src/auth.py:abc123": "security change"}' | hr label --stdin
  hr label --list
  hr label --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rc, err := s.reviewContext(cmd.Context(), base)
			if err != nil {
				return err
			}

			if clearMode {
				if err := s.store.ClearClassifications(rc.comparison.Key); err != nil {
					return err
				}
				if !quiet {
					fmt.Fprintf(s.out, "%s Labels cleared.\n", s.style.success("✓"))
				}
				return nil
			}
			if listMode {
				return runLabelList(s, rc, asJSON)
			}
			if fromStdin {
				return runLabelStdin(s, rc, cmd.InOrStdin(), quiet)
			}
			if fileStatus != "" {
				return runLabelByStatus(s, rc, args, labelText, fileStatus, unlabeledOnly, verbose, quiet)
			}
			return runLabelSpecs(s, rc, args, labelText, unlabeledOnly, quiet)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().StringVar(&labelText, "as", "", "Label text to assign")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read JSON labels from stdin")
	cmd.Flags().StringVar(&fileStatus, "status", "", "Label all hunks in files with this git status (added, modified, deleted, renamed, untracked)")
	cmd.Flags().BoolVar(&unlabeledOnly, "unlabeled", false, "Only label hunks that don't already have a label")
	cmd.Flags().BoolVar(&listMode, "list", false, "List hunks grouped by label")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON (with --list)")
	cmd.Flags().BoolVar(&clearMode, "clear", false, "Clear all labels")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output (list affected files with --status)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}

func runLabelList(s *session, rc *reviewContext, asJSON bool) error {
	files, err := rc.Files()
	if err != nil {
		return err
	}
	state, err := rc.State()
	if err != nil {
		return err
	}

	// Only hunks still present in the diff; orphaned labels are ignored.
	keyCounts := review.CountHunksByKey(files)

	if asJSON {
		output := map[string]store.Classification{}
		for hunkKey, h := range state.Hunks {
			if h.Reasoning == nil || *h.Reasoning == "" {
				continue
			}
			if _, ok := keyCounts[hunkKey]; !ok {
				continue
			}
			output[hunkKey] = store.Classification{Label: h.Label, Reasoning: *h.Reasoning}
		}
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, string(data))
		return nil
	}

	countsByReasoning := map[string]int{}
	for hunkKey, h := range state.Hunks {
		if h.Reasoning == nil || *h.Reasoning == "" {
			continue
		}
		if count, ok := keyCounts[hunkKey]; ok {
			countsByReasoning[*h.Reasoning] += count
		}
	}

	if len(countsByReasoning) == 0 {
		fmt.Fprintln(s.out, s.style.dim("No labeled hunks."))
		return nil
	}

	total := 0
	for _, c := range countsByReasoning {
		total += c
	}
	fmt.Fprintf(s.out, "%s %s hunks in %s label(s)\n",
		s.style.bold("Labeled:"), s.style.info(fmt.Sprint(total)), s.style.info(fmt.Sprint(len(countsByReasoning))))
	fmt.Fprintln(s.out)

	type labelEntry struct {
		reasoning string
		count     int
	}
	entries := make([]labelEntry, 0, len(countsByReasoning))
	for r, c := range countsByReasoning {
		entries = append(entries, labelEntry{r, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].reasoning < entries[j].reasoning
	})
	for _, e := range entries {
		fmt.Fprintf(s.out, "  · %s %s\n", s.style.info(e.reasoning), s.style.dim(fmt.Sprintf("(%d hunks)", e.count)))
	}
	return nil
}

func runLabelStdin(s *session, rc *reviewContext, in io.Reader, quiet bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return userErrorf("invalid JSON: %v", err)
	}

	// Accept both the structured form {"key": {"label": [...], "reasoning": "..."}}
	// and the shorthand {"key": "reasoning"}.
	classifications := map[string]store.Classification{}
	for hunkKey, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			classifications[hunkKey] = store.Classification{Label: []string{}, Reasoning: text}
			continue
		}
		var entry struct {
			Label     []string `json:"label"`
			Reasoning string   `json:"reasoning"`
			Reason    string   `json:"reason"`
		}
		if err := json.Unmarshal(value, &entry); err != nil {
			return userErrorf("invalid entry for %q: expected string or object", hunkKey)
		}
		reasoning := entry.Reasoning
		if reasoning == "" {
			reasoning = entry.Reason
		}
		label := entry.Label
		if label == nil {
			label = []string{}
		}
		classifications[hunkKey] = store.Classification{Label: label, Reasoning: reasoning}
	}

	if err := s.store.SetClassifications(rc.comparison.Key, classifications); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(s.out, "%s Labeled %s hunk(s).\n", s.style.success("✓"), s.style.bold(fmt.Sprint(len(classifications))))
		fmt.Fprintln(s.out, s.style.dim("→ Run 'hr trust <label>' to approve"))
	}
	return nil
}

func runLabelByStatus(s *session, rc *reviewContext, specs []string, labelText, fileStatus string, unlabeledOnly, verbose, quiet bool) error {
	if labelText == "" {
		return userErrorf("--as is required with --status")
	}
	files, err := rc.Files()
	if err != nil {
		return err
	}
	state, err := rc.State()
	if err != nil {
		return err
	}

	var matching []domain.ChangedFile
	for _, f := range files {
		if f.Status == fileStatus {
			matching = append(matching, f)
		}
	}

	pathFilter := ""
	if len(specs) > 0 {
		pathFilter = specs[0]
	}
	if pathFilter != "" {
		prefix := strings.TrimRight(pathFilter, "/") + "/"
		var filtered []domain.ChangedFile
		for _, f := range matching {
			if f.Path == pathFilter || strings.HasPrefix(f.Path, prefix) {
				filtered = append(filtered, f)
			}
		}
		matching = filtered
	}

	if len(matching) == 0 {
		if pathFilter != "" {
			fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("No files with status %q matching %q.", fileStatus, pathFilter)))
		} else {
			fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("No files with status %q.", fileStatus)))
		}
		return nil
	}

	labels := map[string]string{}
	totalHunks := 0
	skipped := 0
	for _, f := range matching {
		for _, hunk := range f.Hunks {
			hunkKey := domain.HunkKey(hunk.FilePath, hunk.Hash)
			if unlabeledOnly && state.Hunks[hunkKey].Labeled() {
				skipped++
				continue
			}
			totalHunks++
			labels[hunkKey] = labelText
		}
	}

	if totalHunks == 0 {
		if skipped > 0 {
			fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("All %d hunk(s) already have labels.", skipped)))
		} else {
			fmt.Fprintln(s.out, s.style.dim("No hunks to label."))
		}
		return nil
	}

	if err := s.store.SetReasonings(rc.comparison.Key, labels); err != nil {
		return err
	}
	if !quiet {
		pathSuffix := ""
		if pathFilter != "" {
			pathSuffix = " in " + s.style.info(pathFilter)
		}
		skippedSuffix := ""
		if skipped > 0 {
			skippedSuffix = fmt.Sprintf(" (skipped %d already labeled)", skipped)
		}
		fmt.Fprintf(s.out, "%s Labeled %s hunk(s) in %s %s file(s)%s.%s\n",
			s.style.success("✓"), s.style.bold(fmt.Sprint(totalHunks)), s.style.bold(fmt.Sprint(len(matching))),
			fileStatus, pathSuffix, skippedSuffix)
		if verbose {
			for _, f := range matching {
				fmt.Fprintf(s.out, "  %s %s %s\n",
					s.style.dim("·"), s.style.path(f.Path), s.style.dim(fmt.Sprintf("(%d %s)", len(f.Hunks), hunkWord(len(f.Hunks)))))
			}
		}
		fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("→ Run 'hr trust %q' to approve", labelText)))
	}
	return nil
}

func runLabelSpecs(s *session, rc *reviewContext, specs []string, labelText string, unlabeledOnly, quiet bool) error {
	if len(specs) == 0 {
		return userErrorf("SPEC required (or use --stdin, --status, --list, --clear)")
	}
	if labelText == "" {
		return userErrorf("--as is required")
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

	totalLabeled := 0
	totalSkipped := 0
	for _, spec := range specs {
		switch {
		case review.IsBareHash(spec):
			matches, err := review.ResolveBareHash(spec, files)
			if err != nil {
				return userErrorf("%v", err)
			}
			pairCounts := map[review.HashMatch]int{}
			var order []review.HashMatch
			for _, m := range matches {
				if pairCounts[m] == 0 {
					order = append(order, m)
				}
				pairCounts[m]++
			}
			for _, m := range order {
				hunkKey := domain.HunkKey(m.Path, m.Hash)
				count := pairCounts[m]
				if unlabeledOnly && state.Hunks[hunkKey].Labeled() {
					totalSkipped += count
					continue
				}
				if err := s.store.SetReasoning(rc.comparison.Key, hunkKey, labelText); err != nil {
					return err
				}
				totalLabeled += count
				if !quiet {
					fmt.Fprintf(s.out, "%s %s%s%s\n", s.style.success("✓"), s.style.path(m.Path), s.style.dim(":"), s.style.info(m.Hash))
					if count > 1 {
						fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("    (%d hunks with identical content)", count)))
					}
				}
			}

		case strings.Contains(spec, ":"):
			hunkKey, err := resolveHunkKeySpec(spec, keyCounts)
			if err != nil {
				return err
			}
			count := keyCounts[hunkKey]
			if unlabeledOnly && state.Hunks[hunkKey].Labeled() {
				totalSkipped += count
				continue
			}
			if err := s.store.SetReasoning(rc.comparison.Key, hunkKey, labelText); err != nil {
				return err
			}
			totalLabeled += count
			if !quiet {
				fmt.Fprintf(s.out, "%s %s\n", s.style.success("✓"), hunkKey)
				if count > 1 {
					fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("    (%d hunks with identical content)", count)))
				}
			}

		default:
			// A plain path labels every hunk in the file or directory.
			prefix := strings.TrimRight(spec, "/") + "/"
			var matching []domain.ChangedFile
			for _, f := range files {
				if f.Path == spec || strings.HasPrefix(f.Path, prefix) {
					matching = append(matching, f)
				}
			}
			if len(matching) == 0 {
				return userErrorf("no changes found for %q", spec)
			}

			labeledKeys := map[string]struct{}{}
			for _, f := range matching {
				for _, hunk := range f.Hunks {
					hunkKey := domain.HunkKey(hunk.FilePath, hunk.Hash)
					if unlabeledOnly && state.Hunks[hunkKey].Labeled() {
						totalSkipped++
						continue
					}
					if _, done := labeledKeys[hunkKey]; !done {
						if err := s.store.SetReasoning(rc.comparison.Key, hunkKey, labelText); err != nil {
							return err
						}
						labeledKeys[hunkKey] = struct{}{}
					}
					totalLabeled++
				}
			}
		}
	}

	rc.reload()

	if totalLabeled == 0 && totalSkipped > 0 {
		fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("All %d hunk(s) already have labels.", totalSkipped)))
		return nil
	}
	if !quiet {
		skippedSuffix := ""
		if totalSkipped > 0 {
			skippedSuffix = fmt.Sprintf(" (skipped %d already labeled)", totalSkipped)
		}
		fmt.Fprintf(s.out, "Labeled %s hunk(s) as: %s%s\n",
			s.style.bold(fmt.Sprint(totalLabeled)), s.style.info(labelText), skippedSuffix)
		fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("→ Run 'hr trust %q' to approve", labelText)))
	}
	return nil
}

// resolveHunkKeySpec validates a path:hash spec against the current diff,
// resolving hash prefixes when the exact key is absent.
func resolveHunkKeySpec(spec string, keyCounts map[string]int) (string, error) {
	if _, ok := keyCounts[spec]; ok {
		return spec, nil
	}

	pathPart, hashPart, err := domain.ParseHunkKey(spec)
	if err != nil {
		return "", userErrorf("hunk %q not found in current diff", spec)
	}

	var matches []string
	for key := range keyCounts {
		keyPath, keyHash, err := domain.ParseHunkKey(key)
		if err != nil {
			continue
		}
		if keyPath == pathPart && strings.HasPrefix(keyHash, hashPart) {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", userErrorf("hunk %q not found in current diff", spec)
	default:
		sort.Strings(matches)
		hashes := make([]string, 0, len(matches))
		for _, m := range matches {
			_, h, _ := domain.ParseHunkKey(m)
			hashes = append(hashes, h)
		}
		return "", userErrorf("hash prefix %q is ambiguous, matches: %s", hashPart, strings.Join(hashes, ", "))
	}
}
