package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func deleteCommand(deps Dependencies) *cobra.Command {
	var quiet bool
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete [COMPARISON]",
		Short:   "Delete a review",
		GroupID: groupUtility,
		Long: `Delete a review.

COMPARISON is the review key to delete. If not specified, deletes the current review.
Use 'list' to see available reviews.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			current, err := s.store.Current()
			if err != nil {
				return err
			}

			var target string
			switch {
			case len(args) > 0:
				target = args[0]
			case current != "":
				target = current
			default:
				return userErrorWithHints("no current review to delete",
					"Use 'hr list' to see available reviews")
			}

			if _, err := os.Stat(s.store.FilePath(target)); err != nil {
				return userErrorWithHints(
					fmt.Sprintf("no review found for %s", target),
					"Use 'hr list' to see available reviews")
			}

			if !yes {
				fmt.Fprintf(s.out, "Delete review %s? [y/N]: ", s.style.info(target))
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(s.out, "Aborted.")
					return nil
				}
			}

			if err := s.store.Clear(target); err != nil {
				return err
			}
			if target == current {
				if err := s.store.ClearCurrent(); err != nil {
					return err
				}
			}

			if !quiet {
				fmt.Fprintf(s.out, "%s Deleted review: %s\n", s.style.success("✓"), s.style.info(target))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")

	return cmd
}
