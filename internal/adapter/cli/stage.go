package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/adapter/git"
	"github.com/hunkreview/hunkreview/internal/review"
)

func stageCommand(deps Dependencies) *cobra.Command {
	var base string
	var dryRun bool
	var quiet bool

	cmd := &cobra.Command{
		Use:     "stage",
		Short:   "Stage all approved hunks",
		GroupID: groupUtility,
		Long: `Stage all approved hunks.

Uses git apply --cached to stage only the hunks that have been
approved (via trust or individual review).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rc, err := s.reviewContext(ctx, base)
			if err != nil {
				return err
			}

			// Branch comparisons have no uncommitted changes to stage.
			if !rc.comparison.WorkingTree {
				return opErrorf("stage only works for working tree reviews")
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

			for _, warning := range review.CountWarnings(files, state) {
				fmt.Fprintf(s.errOut, "%s %s\n", s.style.warning("Warning:"), warning)
			}

			patch, count, err := review.BuildApprovedPatch(files, state, effectiveTrust, func(path string) (string, error) {
				return s.engine.FileDiff(rc.comparison.Old, path)
			})
			if err != nil {
				return err
			}

			if count == 0 {
				if !quiet {
					fmt.Fprintln(s.out, "No approved hunks to stage.")
				}
				return nil
			}

			if dryRun {
				fmt.Fprintf(s.out, "Would stage %d hunk(s):\n", count)
				fmt.Fprintln(s.out, patch)
				return nil
			}

			if err := s.engine.ApplyCached(ctx, patch); err != nil {
				var toolErr *git.ExternalToolError
				if errors.As(err, &toolErr) {
					return userErrorf("failed to apply patch: %s", toolErr.Stderr)
				}
				return err
			}

			if !quiet {
				fmt.Fprintf(s.out, "%s Staged %d approved hunk(s)\n", s.style.success("✓"), count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be staged without staging")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}
