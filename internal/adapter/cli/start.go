package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/domain"
)

func startCommand(deps Dependencies) *cobra.Command {
	var oldRef string
	var newRef string
	var workingTree bool
	var quiet bool

	cmd := &cobra.Command{
		Use:     "start",
		Short:   "Start a new review session",
		GroupID: groupSession,
		Long: `Start a new review session.

Examples:
  hr start --old main --working-tree               # uncommitted changes vs main
  hr start --old main                              # current branch vs main
  hr start --old main --new feature                # feature branch vs main
  hr start --old main --new feature --working-tree # feature + uncommitted

Use 'switch' to resume an existing review.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			currentBranch := s.currentBranchOrHead(ctx)

			// Resolve HEAD to the branch name for readability.
			old := oldRef
			if old == "" {
				old = s.engine.DefaultBranch(ctx)
			}
			if strings.EqualFold(old, "HEAD") {
				old = currentBranch
			}
			target := newRef
			if target == "" || strings.EqualFold(target, "HEAD") {
				target = currentBranch
			}

			if !s.engine.RefExists(ctx, old) {
				return userErrorf("ref %q not found", old)
			}
			if !s.engine.RefExists(ctx, target) {
				return userErrorf("ref %q not found", target)
			}

			comp := domain.NewComparison(old, target, workingTree)

			var reviewDesc string
			switch {
			case workingTree && target == currentBranch:
				reviewDesc = fmt.Sprintf("working tree vs %s", old)
			case workingTree:
				reviewDesc = fmt.Sprintf("%s + uncommitted vs %s", target, old)
			default:
				reviewDesc = fmt.Sprintf("commits on %s vs %s", target, old)
			}

			if _, err := os.Stat(s.store.FilePath(comp.Key)); err == nil {
				return userErrorWithHints(
					fmt.Sprintf("review already exists for %s", comp.Key),
					"Use 'hr switch' to resume it",
					"Use 'hr delete' to remove it first")
			}

			state, err := s.store.Load(comp.Key)
			if err != nil {
				return err
			}
			if err := s.store.Save(state); err != nil {
				return err
			}
			if err := s.store.SetCurrent(comp.Key); err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintf(s.out, "%s Review started: %s\n", s.style.success("✓"), s.style.info(comp.Key))
				fmt.Fprintf(s.out, "  Reviewing: %s\n", reviewDesc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&oldRef, "old", "", "Base ref to compare against (default: detected default branch)")
	cmd.Flags().StringVar(&newRef, "new", "", "Target ref to compare (default: current branch)")
	cmd.Flags().BoolVar(&workingTree, "working-tree", false, "Include uncommitted changes (diff against working tree instead of --new)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}

func switchCommand(deps Dependencies) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:     "switch COMPARISON",
		Short:   "Switch to an existing review",
		GroupID: groupSession,
		Long: `Switch to an existing review.

COMPARISON is the review key (e.g., 'main..feature' or 'main..HEAD+working-tree').
Use 'list' to see available reviews.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			comparison := args[0]

			if _, err := os.Stat(s.store.FilePath(comparison)); err != nil {
				return userErrorWithHints(
					fmt.Sprintf("no review found for %s", comparison),
					"Use 'hr list' to see available reviews",
					"Use 'hr start' to create a new review")
			}

			if err := s.store.SetCurrent(comparison); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(s.out, "%s Switched to review: %s\n", s.style.success("✓"), s.style.info(comparison))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}
