package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func infoCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "info",
		Short:   "Show configuration and paths",
		GroupID: groupUtility,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			fmt.Fprintln(s.out)
			fmt.Fprintf(s.out, "%s  %s\n", s.style.bold("Data directory:"), s.store.StateDir())
			fmt.Fprintf(s.out, "%s       %s\n", s.style.bold("Repo root:"), s.repoRoot)

			// Worktrees point at a shared common dir; show it when it differs.
			commonDir, err := s.engine.CommonDir(cmd.Context())
			if err == nil && commonDir != filepath.Join(s.repoRoot, ".git") {
				fmt.Fprintf(s.out, "%s %s\n", s.style.bold("Git common dir:"), commonDir)
			}

			current, err := s.store.Current()
			if err != nil {
				return err
			}
			if current != "" {
				fmt.Fprintf(s.out, "%s  %s\n", s.style.bold("Current review:"), s.style.info(current))
			} else {
				fmt.Fprintf(s.out, "%s  %s\n", s.style.bold("Current review:"), s.style.dim("(none)"))
			}
			fmt.Fprintln(s.out)
			return nil
		},
	}
	return cmd
}

func listCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List stored reviews",
		GroupID: groupUtility,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			states, err := s.store.List()
			if err != nil {
				return err
			}
			if len(states) == 0 {
				fmt.Fprintln(s.out, s.style.dim("No reviews stored."))
				return nil
			}

			current, err := s.store.Current()
			if err != nil {
				return err
			}

			// Newest first.
			sort.SliceStable(states, func(i, j int) bool {
				return states[i].UpdatedAt > states[j].UpdatedAt
			})

			fmt.Fprintf(s.out, "\n%s\n", s.style.bold("Stored Reviews"))
			fmt.Fprintln(s.out, s.style.dim(divider(50)))

			now := time.Now()
			for _, state := range states {
				key := state.Comparison.Key
				approved := 0
				for _, h := range state.Hunks {
					if h.ApprovedVia != nil {
						approved++
					}
				}

				marker := s.style.dim("○")
				name := key
				if key == current {
					marker = s.style.success("●")
					name = s.style.bold(s.style.info(key))
				}

				timeStr := ""
				if updated, err := time.Parse(time.RFC3339, state.UpdatedAt); err == nil {
					timeStr = relativeTime(now.Sub(updated))
				}

				fmt.Fprintf(s.out, "  %s %s  %s reviewed %s %s\n",
					marker, name, s.style.info(fmt.Sprintf("%d hunks", approved)),
					s.style.dim("·"), s.style.dim(timeStr))
			}
			fmt.Fprintln(s.out)
			return nil
		},
	}
	return cmd
}

// relativeTime formats a duration as "2 hours ago".
func relativeTime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day") + " ago"
	default:
		return plural(int(d.Hours()/(24*7)), "week") + " ago"
	}
}
