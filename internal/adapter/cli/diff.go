package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/review"
	"github.com/hunkreview/hunkreview/internal/trust"
)

func diffCommand(deps Dependencies) *cobra.Command {
	var base string
	var asJSON bool
	var unreviewed bool
	var unlabeled bool
	var filterLabel string
	var fileStatus string
	var limit int
	var offset int
	var nameOnly bool

	cmd := &cobra.Command{
		Use:     "diff [PATH]",
		Short:   "Show diff with hunk hashes and review markers",
		GroupID: groupSession,
		Long: `Show diff with hunk hashes and review markers.

Optionally filter to a specific PATH.

Filtering options:
  --unreviewed    Only show hunks not yet reviewed
  --unlabeled     Only show hunks not yet labeled
  --label TEXT    Only show hunks with this label
  --status TEXT   Only show files with this git status

Output options:
  --name-only     List files only (no content)
  --limit N       Maximum number of hunks to return
  --offset N      Skip first N hunks (for pagination)`,
		Args: cobra.MaximumNArgs(1),
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

			var path string
			if len(args) > 0 {
				path = args[0]
			}
			filters := review.Filters{
				Path:       path,
				FileStatus: fileStatus,
				Unreviewed: unreviewed,
				Unlabeled:  unlabeled,
				Label:      filterLabel,
			}
			files = review.FilterFiles(files, filters)

			if nameOnly {
				return printDiffNameOnly(s, rc, files, state, filters, effectiveTrust, asJSON)
			}
			if asJSON {
				return printDiffJSON(s, rc, files, state, filters, effectiveTrust, offset, limit)
			}
			printDiffHuman(s, files, state, filters, effectiveTrust, offset, limit)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON for agents")
	cmd.Flags().BoolVar(&unreviewed, "unreviewed", false, "Only show unreviewed hunks")
	cmd.Flags().BoolVar(&unlabeled, "unlabeled", false, "Only show unlabeled hunks")
	cmd.Flags().StringVar(&filterLabel, "label", "", "Only show hunks with this label")
	cmd.Flags().StringVar(&fileStatus, "status", "", "Only show files with this git status (added, modified, deleted, renamed, untracked)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of hunks to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip first N hunks (for pagination)")
	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "List files only (no content)")

	return cmd
}

type diffFileSummary struct {
	Path     string   `json:"path"`
	Status   string   `json:"status"`
	Hunks    int      `json:"hunks"`
	Reviewed int      `json:"reviewed"`
	Labels   []string `json:"labels"`
}

func printDiffNameOnly(s *session, rc *reviewContext, files []domain.ChangedFile, state *domain.ReviewState, filters review.Filters, effectiveTrust []string, asJSON bool) error {
	var summaries []diffFileSummary
	for _, f := range files {
		reviewedCount := 0
		hasMatch := false
		labelSet := map[string]struct{}{}

		for _, hunk := range f.Hunks {
			hunkState := state.Hunks[domain.HunkKey(hunk.FilePath, hunk.Hash)]
			if hunkState != nil && hunkState.ApprovedVia != nil {
				reviewedCount++
			}
			if hunkState != nil && hunkState.Reasoning != nil {
				labelSet[*hunkState.Reasoning] = struct{}{}
			}
			if filters.MatchHunk(hunkState, effectiveTrust) {
				hasMatch = true
			}
		}
		if !hasMatch {
			continue
		}

		labels := make([]string, 0, len(labelSet))
		for label := range labelSet {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		summaries = append(summaries, diffFileSummary{
			Path:     f.Path,
			Status:   f.Status,
			Hunks:    len(f.Hunks),
			Reviewed: reviewedCount,
			Labels:   labels,
		})
	}

	if asJSON {
		output := struct {
			Comparison string            `json:"comparison"`
			Files      []diffFileSummary `json:"files"`
		}{Comparison: rc.comparison.Key, Files: summaries}
		if output.Files == nil {
			output.Files = []diffFileSummary{}
		}
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, string(data))
		return nil
	}

	filterParts := describeFilters(filters)
	if len(summaries) == 0 {
		if len(filterParts) > 0 {
			fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("No files matching: %s.", strings.Join(filterParts, ", "))))
		} else {
			fmt.Fprintln(s.out, s.style.dim("No changed files."))
		}
		return nil
	}

	filterSuffix := ""
	if len(filterParts) > 0 {
		filterSuffix = fmt.Sprintf(" [%s]", strings.Join(filterParts, ", "))
	}
	fmt.Fprintf(s.out, "\n%s%s %s\n", s.style.bold("Files"), filterSuffix, s.style.dim("("+rc.comparison.Key+")"))
	fmt.Fprintln(s.out, s.style.dim(divider(60)))
	for _, fd := range summaries {
		complete := fd.Reviewed >= fd.Hunks
		mark := s.style.dim("○")
		pathDisplay := s.style.path(fd.Path)
		hunksStr := s.style.warning(fmt.Sprintf("%d/%d hunks", fd.Reviewed, fd.Hunks))
		if complete {
			mark = s.style.success("✓")
			pathDisplay = s.style.dim(fd.Path)
			hunksStr = s.style.success(fmt.Sprintf("%d/%d hunks", fd.Reviewed, fd.Hunks))
		}
		labelStr := s.style.dim("(unlabeled)")
		if len(fd.Labels) > 0 {
			labelStr = s.style.dim("(" + strings.Join(fd.Labels, ", ") + ")")
		}
		fmt.Fprintf(s.out, "  %s %-50s %s %s\n", mark, pathDisplay, hunksStr, labelStr)
	}
	fmt.Fprintln(s.out)
	return nil
}

func describeFilters(filters review.Filters) []string {
	var parts []string
	if filters.FileStatus != "" {
		parts = append(parts, filters.FileStatus)
	}
	if filters.Label != "" {
		parts = append(parts, "label: "+filters.Label)
	}
	if filters.Unreviewed {
		parts = append(parts, "unreviewed")
	}
	if filters.Unlabeled {
		parts = append(parts, "unlabeled")
	}
	return parts
}

type diffHunkJSON struct {
	Hash      string   `json:"hash"`
	Labels    []string `json:"labels"`
	Reasoning *string  `json:"reasoning"`
	Trusted   bool     `json:"trusted"`
	Reviewed  bool     `json:"reviewed"`
	Approved  bool     `json:"approved"`
	Header    string   `json:"header"`
	Content   string   `json:"content"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
}

type diffFileJSON struct {
	Path    string         `json:"path"`
	Status  string         `json:"status"`
	OldPath string         `json:"old_path,omitempty"`
	Hunks   []diffHunkJSON `json:"hunks"`
}

func printDiffJSON(s *session, rc *reviewContext, files []domain.ChangedFile, state *domain.ReviewState, filters review.Filters, effectiveTrust []string, offset, limit int) error {
	page, info := review.Paginate(review.SelectHunks(files, state, filters, effectiveTrust), offset, limit)

	outputFiles := []diffFileJSON{}
	for _, ref := range page {
		if len(outputFiles) == 0 || outputFiles[len(outputFiles)-1].Path != ref.File.Path {
			outputFiles = append(outputFiles, diffFileJSON{
				Path:    ref.File.Path,
				Status:  ref.File.Status,
				OldPath: ref.File.OldPath,
				Hunks:   []diffHunkJSON{},
			})
		}

		hunkState := state.Hunks[domain.HunkKey(ref.Hunk.FilePath, ref.Hunk.Hash)]
		labels := []string{}
		var reasoning *string
		if hunkState != nil {
			if hunkState.Label != nil {
				labels = hunkState.Label
			}
			reasoning = hunkState.Reasoning
		}
		last := &outputFiles[len(outputFiles)-1]
		last.Hunks = append(last.Hunks, diffHunkJSON{
			Hash:      ref.Hunk.Hash,
			Labels:    labels,
			Reasoning: reasoning,
			Trusted:   trust.IsHunkTrusted(hunkState, effectiveTrust),
			Reviewed:  hunkState.Reviewed(),
			Approved:  trust.IsHunkApproved(hunkState, effectiveTrust),
			Header:    ref.Hunk.Header,
			Content:   ref.Hunk.Content,
			StartLine: ref.Hunk.StartLine,
			EndLine:   ref.Hunk.EndLine,
		})
	}

	type pagination struct {
		Offset        int  `json:"offset"`
		Limit         int  `json:"limit"`
		Returned      int  `json:"returned"`
		TotalMatching int  `json:"total_matching"`
		HasMore       bool `json:"has_more"`
	}
	output := struct {
		Comparison string         `json:"comparison"`
		TrustList  []string       `json:"trust_list"`
		Files      []diffFileJSON `json:"files"`
		Pagination pagination     `json:"pagination"`
	}{
		Comparison: rc.comparison.Key,
		TrustList:  effectiveTrust,
		Files:      outputFiles,
		Pagination: pagination{
			Offset:        info.Offset,
			Limit:         limit,
			Returned:      info.Returned,
			TotalMatching: info.TotalMatching,
			HasMore:       info.HasMore,
		},
	}
	if output.TrustList == nil {
		output.TrustList = []string{}
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(data))
	return nil
}

func printDiffHuman(s *session, files []domain.ChangedFile, state *domain.ReviewState, filters review.Filters, effectiveTrust []string, offset, limit int) {
	if len(files) == 0 {
		fmt.Fprintln(s.out, s.style.dim("No changes to show."))
		return
	}

	addLine := color.New(color.FgGreen).SprintFunc()
	delLine := color.New(color.FgRed).SprintFunc()

	page, _ := review.Paginate(review.SelectHunks(files, state, filters, effectiveTrust), offset, limit)
	if len(page) == 0 {
		fmt.Fprintln(s.out, s.style.dim("No hunks to show."))
		return
	}

	lastPath := ""
	for _, ref := range page {
		f := ref.File
		if f.Path != lastPath {
			lastPath = f.Path

			approved := approvedHunksInFile(f, state)
			complete := approved >= len(f.Hunks)

			fmt.Fprintln(s.out)
			fmt.Fprintln(s.out, s.style.dim(divider(70)))
			indicator := s.style.warning("○")
			progress := s.style.warning(fmt.Sprintf("%d/%d", approved, len(f.Hunks)))
			if complete {
				indicator = s.style.success("✓")
				progress = s.style.success(fmt.Sprintf("%d/%d", approved, len(f.Hunks)))
			}
			fmt.Fprintf(s.out, "%s %s %s %s %s\n",
				indicator, s.style.path(f.Path), s.style.dim("·"), progress, s.style.dim("hunks reviewed"))
			if f.OldPath != "" {
				fmt.Fprintf(s.out, "  %s %s\n", s.style.dim("renamed from"), s.style.dim(f.OldPath))
			}
			fmt.Fprintln(s.out)
		}

		hunkState := state.Hunks[domain.HunkKey(ref.Hunk.FilePath, ref.Hunk.Hash)]
		marker := s.style.dim("○")
		if hunkState != nil && hunkState.ApprovedVia != nil {
			marker = s.style.success("✓")
		}
		fmt.Fprintf(s.out, "  %s %s %s\n", marker, s.style.info(ref.Hunk.Hash), s.style.dim(ref.Hunk.Header))

		for _, line := range strings.Split(ref.Hunk.Content, "\n") {
			switch {
			case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
				fmt.Fprintln(s.out, addLine("    "+line))
			case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
				fmt.Fprintln(s.out, delLine("    "+line))
			case !strings.HasPrefix(line, "@@"):
				fmt.Fprintf(s.out, "    %s\n", s.style.dim(line))
			}
		}
		fmt.Fprintln(s.out)
	}
}
