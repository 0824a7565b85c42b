package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hunkreview/hunkreview/internal/adapter/classify"
	"github.com/hunkreview/hunkreview/internal/store"
)

func classifyCommand(deps Dependencies) *cobra.Command {
	var base string
	var model string
	var quiet bool

	cmd := &cobra.Command{
		Use:     "classify",
		Short:   "Classify hunks using Claude",
		GroupID: groupSession,
		Long: `Classify hunks using Claude.

Sends the diff to Claude for one-shot classification. Each hunk
receives label patterns and reasoning explaining what changed.

Examples:
  hr classify
  hr classify --model claude-sonnet-4-20250514`,
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
			files, err := rc.Files()
			if err != nil {
				return err
			}
			state, err := rc.State()
			if err != nil {
				return err
			}

			targets := classify.SelectUnlabeled(files, state)
			if len(targets) == 0 {
				if !quiet {
					fmt.Fprintln(s.out, s.style.dim("All hunks are already classified."))
				}
				return nil
			}

			if !quiet {
				fmt.Fprintf(s.out, "Classifying %s unlabeled hunk(s)...\n", s.style.bold(fmt.Sprint(len(targets))))
			}

			runner := classify.NewRunner(s.repoRoot, model)
			results, err := runner.Classify(ctx, targets)
			switch {
			case errors.Is(err, classify.ErrNotInstalled):
				return userErrorf("%v", err)
			case errors.Is(err, classify.ErrTimeout):
				return userErrorf("classification timed out")
			case err != nil:
				return err
			}

			classifications := make(map[string]store.Classification, len(results))
			for hunkKey, c := range results {
				classifications[hunkKey] = store.Classification{Label: c.Label, Reasoning: c.Reasoning}
			}
			if err := s.store.SetClassifications(rc.comparison.Key, classifications); err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintf(s.out, "%s Classified %s hunk(s)\n", s.style.success("✓"), s.style.bold(fmt.Sprint(len(classifications))))
				fmt.Fprintln(s.out, s.style.dim("→ Run 'hr status' to see results"))
				fmt.Fprintln(s.out, s.style.dim("→ Run 'hr trust <pattern>' to approve matching hunks"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().StringVar(&model, "model", "", "Claude model to use (default: CLI default)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	return cmd
}
