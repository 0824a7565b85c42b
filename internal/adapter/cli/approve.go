package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/review"
)

func approveCommand(deps Dependencies) *cobra.Command {
	var base string
	var quiet bool

	cmd := &cobra.Command{
		Use:     "approve SPEC...",
		Short:   "Approve hunks after review",
		GroupID: groupApproval,
		Long: `Approve hunks after review.

SPEC can be:
  - A file path (approves all hunks in file)
  - path:hash (approves specific hunk)
  - path:h1,h2 (approves multiple hunks)
  - Multiple SPECs can be provided

Examples:
  hr approve src/auth.py
  hr approve src/auth.py:abc123
  hr approve abc123          # bare hash lookup
  hr approve abc123 def456   # multiple hashes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApproval(cmd, deps, base, quiet, args, true)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}

func unapproveCommand(deps Dependencies) *cobra.Command {
	var base string
	var quiet bool

	cmd := &cobra.Command{
		Use:     "unapprove SPEC...",
		Short:   "Remove approval from hunks",
		GroupID: groupApproval,
		Long: `Remove approval from hunks.

SPEC can be:
  - A file path (unapproves all hunks in file)
  - path:hash (unapproves specific hunk)
  - path:h1,h2 (unapproves multiple hunks)
  - Multiple SPECs can be provided

To unapprove all hunks with a specific label, use 'untrust' instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApproval(cmd, deps, base, quiet, args, false)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}

func runApproval(cmd *cobra.Command, deps Dependencies, base string, quiet bool, specs []string, approving bool) error {
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
	keyCounts := review.CountHunksByKey(files)

	marker := s.style.success("✓")
	if !approving {
		marker = s.style.dim("○")
	}

	apply := func(hunkKey string, count int) error {
		if approving {
			return s.store.Approve(rc.comparison.Key, hunkKey, count)
		}
		return s.store.Unapprove(rc.comparison.Key, hunkKey)
	}

	for _, spec := range specs {
		if review.IsBareHash(spec) {
			matches, err := review.ResolveBareHash(spec, files)
			if err != nil {
				return userErrorf("%v", err)
			}

			// Identical hunks share a key; act once per distinct pair.
			pairCounts := map[review.HashMatch]int{}
			var order []review.HashMatch
			for _, m := range matches {
				if pairCounts[m] == 0 {
					order = append(order, m)
				}
				pairCounts[m]++
			}
			for _, m := range order {
				count := pairCounts[m]
				if err := apply(domain.HunkKey(m.Path, m.Hash), count); err != nil {
					return err
				}
				if !quiet {
					fmt.Fprintf(s.out, "%s %s%s%s\n", marker, s.style.path(m.Path), s.style.dim(":"), s.style.info(m.Hash))
					if count > 1 {
						fmt.Fprintln(s.out, s.style.dim(fmt.Sprintf("    (%d hunks with identical content)", count)))
					}
				}
			}
			continue
		}

		path, hashes := review.ParseHunkSpec(spec)

		var matchingFiles []domain.ChangedFile
		for _, f := range files {
			if f.Path == path || strings.HasPrefix(f.Path, path+"/") {
				matchingFiles = append(matchingFiles, f)
			}
		}
		if len(matchingFiles) == 0 {
			return userErrorf("no changes found for %q", path)
		}

		wanted := map[string]bool{}
		for _, h := range hashes {
			wanted[h] = true
		}

		actedCount := 0
		found := map[string]bool{}
		for _, f := range matchingFiles {
			for _, hunk := range f.Hunks {
				if len(hashes) > 0 && !wanted[hunk.Hash] {
					continue
				}
				found[hunk.Hash] = true
				hunkKey := domain.HunkKey(hunk.FilePath, hunk.Hash)
				if err := apply(hunkKey, keyCounts[hunkKey]); err != nil {
					return err
				}
				actedCount++
				if len(hashes) > 0 && !quiet {
					fmt.Fprintf(s.out, "  %s %s%s%s\n", marker, s.style.path(f.Path), s.style.dim(":"), s.style.info(hunk.Hash))
				}
			}
		}

		if len(hashes) > 0 {
			var missing []string
			for _, h := range hashes {
				if !found[h] {
					missing = append(missing, h)
				}
			}
			sort.Strings(missing)
			for _, h := range missing {
				fmt.Fprintf(s.errOut, "%s hash %q not found in %s\n", s.style.warning("Warning:"), h, path)
			}
		} else if !quiet {
			verb := "Approved"
			if !approving {
				verb = "Unapproved"
			}
			fmt.Fprintf(s.out, "%s %s %s hunk(s) in %s\n", marker, verb, s.style.bold(fmt.Sprint(actedCount)), s.style.path(path))
		}
	}
	return nil
}
