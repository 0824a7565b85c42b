package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/review"
)

// fileStatusStyles maps git file statuses to their display symbol and color.
var fileStatusStyles = map[string]struct {
	symbol string
	color  color.Attribute
}{
	domain.FileStatusAdded:     {"A", color.FgGreen},
	domain.FileStatusDeleted:   {"D", color.FgRed},
	domain.FileStatusModified:  {"M", color.FgYellow},
	domain.FileStatusRenamed:   {"R", color.FgCyan},
	domain.FileStatusUntracked: {"?", color.FgMagenta},
}

var fileStatusOrder = []string{
	domain.FileStatusAdded,
	domain.FileStatusModified,
	domain.FileStatusDeleted,
	domain.FileStatusRenamed,
	domain.FileStatusUntracked,
}

func statusCommand(deps Dependencies) *cobra.Command {
	var base string
	var asJSON bool
	var showFiles bool
	var short bool

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show review status and progress",
		GroupID: groupSession,
		Long: `Show review status and progress.

Shows diff scope (files by type) and review progress (hunks by label).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
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
			effectiveTrust, err := rc.EffectiveTrust()
			if err != nil {
				return err
			}
			rs := review.ComputeStatus(files, state, rc.comparison.Key, effectiveTrust)

			if asJSON {
				return printStatusJSON(s, rs)
			}
			for _, warning := range review.CountWarnings(files, state) {
				fmt.Fprintf(s.errOut, "%s %s\n", s.style.warning("Warning:"), warning)
			}
			if short {
				printStatusShort(s, rc, rs)
				return nil
			}
			printStatusHuman(s, rc, rs, files, state, showFiles)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showFiles, "files", false, "Show per-file breakdown")
	cmd.Flags().BoolVar(&short, "short", false, "Show condensed summary")

	return cmd
}

func printStatusJSON(s *session, rs review.Status) error {
	output := struct {
		Comparison      string                            `json:"comparison"`
		TotalFiles      int                               `json:"total_files"`
		TotalHunks      int                               `json:"total_hunks"`
		ApprovedHunks   int                               `json:"approved_hunks"`
		ProgressPercent int                               `json:"progress_percent"`
		ByFileStatus    map[string]review.FileStatusCount `json:"by_file_status"`
		Unreviewed      []review.LabelCount               `json:"unreviewed"`
		Trusted         []review.LabelCount               `json:"trusted"`
		Reviewed        []review.LabelCount               `json:"reviewed"`
		Unlabeled       int                               `json:"unlabeled"`
	}{
		Comparison:      rs.ComparisonKey,
		TotalFiles:      rs.TotalFiles,
		TotalHunks:      rs.TotalHunks,
		ApprovedHunks:   rs.ApprovedHunks,
		ProgressPercent: rs.ProgressPercent(),
		ByFileStatus:    rs.ByFileStatus,
		Unreviewed:      emptyIfNil(rs.Unreviewed),
		Trusted:         emptyIfNil(rs.Trusted),
		Reviewed:        emptyIfNil(rs.Reviewed),
		Unlabeled:       rs.UnlabeledCount,
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(data))
	return nil
}

func emptyIfNil(counts []review.LabelCount) []review.LabelCount {
	if counts == nil {
		return []review.LabelCount{}
	}
	return counts
}

// percentStyle picks a color for a progress percentage: green at 100,
// yellow at 50+, dim otherwise.
func (s *session) percentStyle(percent int) func(a ...any) string {
	switch {
	case percent == 100:
		return s.style.success
	case percent >= 50:
		return s.style.warning
	default:
		return s.style.dim
	}
}

func printStatusShort(s *session, rc *reviewContext, rs review.Status) {
	reviewType := "branch comparison"
	if rc.comparison.WorkingTree {
		reviewType = "working tree"
	}
	if rs.TotalHunks == 0 {
		fmt.Fprintf(s.out, "%s (%s) — no changes\n", s.style.info(rc.comparison.Key), reviewType)
		return
	}
	percent := rs.ProgressPercent()
	fmt.Fprintf(s.out, "%s (%s) — %s (%d/%d hunks)\n",
		s.style.info(rc.comparison.Key), reviewType,
		s.percentStyle(percent)(fmt.Sprintf("%d%%", percent)),
		rs.ApprovedHunks, rs.TotalHunks)
	if rs.RemainingHunks() > 0 {
		fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("  %d unlabeled, %d to approve", rs.UnlabeledCount, rs.UnreviewedTotal())))
	}
}

func printStatusHuman(s *session, rc *reviewContext, rs review.Status, files []domain.ChangedFile, state *domain.ReviewState, showFiles bool) {
	fmt.Fprintln(s.out)
	fmt.Fprintf(s.out, "%s %s\n", s.style.bold("Reviewing:"), s.style.info(rc.comparison.Key))

	if rs.TotalHunks == 0 {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, s.style.dim("No changes to review."))
		return
	}

	fmt.Fprintln(s.out)
	fmt.Fprintf(s.out, "%s hunks across %s files\n",
		s.style.bold(fmt.Sprint(rs.TotalHunks)), s.style.bold(fmt.Sprint(rs.TotalFiles)))
	fmt.Fprintln(s.out)

	printByFileStatus := func(status string, c review.FileStatusCount) {
		symbol, styledStatus := "·", status
		if style, ok := fileStatusStyles[status]; ok {
			sprint := color.New(style.color).SprintFunc()
			symbol, styledStatus = sprint(style.symbol), sprint(status)
		}
		filesWord := "files"
		if c.Files == 1 {
			filesWord = "file"
		}
		fmt.Fprintf(s.out, "  %s %-20s %3d %s, %3d %s\n",
			symbol, styledStatus, c.Files, filesWord, c.Hunks, hunkWord(c.Hunks))
	}
	seen := map[string]bool{}
	for _, status := range fileStatusOrder {
		if c, ok := rs.ByFileStatus[status]; ok {
			printByFileStatus(status, c)
			seen[status] = true
		}
	}
	for status, c := range rs.ByFileStatus {
		if !seen[status] {
			printByFileStatus(status, c)
		}
	}

	fmt.Fprintln(s.out)
	percent := rs.ProgressPercent()
	fmt.Fprintf(s.out, "%s %s %s %s\n",
		s.style.bold("Progress:"),
		progressBar(rs.ApprovedHunks, rs.TotalHunks, 30),
		s.percentStyle(percent)(fmt.Sprintf("%d%%", percent)),
		s.style.dim(fmt.Sprintf("(%d/%d hunks)", rs.ApprovedHunks, rs.TotalHunks)))

	printBucket := func(title func(a ...any) string, name string, total int, counts []review.LabelCount) {
		if total == 0 {
			return
		}
		fmt.Fprintln(s.out)
		fmt.Fprintf(s.out, "%s (%d %s)\n", title(name), total, hunkWord(total))
		for _, lc := range counts {
			fmt.Fprintf(s.out, "  %s %-44s %3d %s\n",
				s.style.dim("·"), truncate(lc.Label, 40), lc.Count, hunkWord(lc.Count))
		}
	}
	printBucket(s.style.warning, "Unreviewed", rs.UnreviewedTotal(), rs.Unreviewed)

	if rs.UnlabeledCount > 0 {
		fmt.Fprintln(s.out)
		fmt.Fprintf(s.out, "%s (%d %s)\n",
			s.style.dim("Unlabeled"), rs.UnlabeledCount, hunkWord(rs.UnlabeledCount))
	}

	printBucket(s.style.success, "Trusted", rs.TrustedTotal(), rs.Trusted)
	printBucket(s.style.success, "Reviewed", rs.ReviewedTotal(), rs.Reviewed)

	if showFiles {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, s.style.dim(divider(60)))
		fmt.Fprintln(s.out, s.style.bold("Per-file breakdown:"))
		for _, f := range files {
			approved := approvedHunksInFile(f, state)
			complete := approved >= len(f.Hunks)
			mark := s.style.dim("○")
			pathDisplay := s.style.path(f.Path)
			if complete {
				mark = s.style.success("✓")
				pathDisplay = s.style.dim(f.Path)
			}
			fmt.Fprintf(s.out, "  %s %-55s %d/%d\n", mark, pathDisplay, approved, len(f.Hunks))
		}
	}

	fmt.Fprintln(s.out)
}

// approvedHunksInFile counts hunks in the file with a stored approval.
// Trust-based approvals are excluded; only explicit marks count here.
func approvedHunksInFile(f domain.ChangedFile, state *domain.ReviewState) int {
	approved := 0
	for _, hunk := range f.Hunks {
		if hs, ok := state.Hunks[domain.HunkKey(hunk.FilePath, hunk.Hash)]; ok && hs.ApprovedVia != nil {
			approved++
		}
	}
	return approved
}
