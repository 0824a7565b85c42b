package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func notesCommand(deps Dependencies) *cobra.Command {
	var base string
	var edit bool
	var addText string

	cmd := &cobra.Command{
		Use:     "notes",
		Short:   "View or edit review notes",
		GroupID: groupUtility,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), deps, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rc, err := s.reviewContext(cmd.Context(), base)
			if err != nil {
				return err
			}

			if addText != "" {
				if err := s.store.AppendNotes(rc.comparison.Key, addText); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "%s Notes updated.\n", s.style.success("✓"))
				return nil
			}

			state, err := rc.State()
			if err != nil {
				return err
			}

			if edit {
				return editNotes(cmd, s, rc, state.Notes)
			}

			if state.Notes != "" {
				fmt.Fprintln(s.out, state.Notes)
			} else {
				fmt.Fprintln(s.out, s.style.dim("(no notes)"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Override base ref for this command")
	cmd.Flags().BoolVar(&edit, "edit", false, "Open notes in $EDITOR")
	cmd.Flags().StringVar(&addText, "add", "", "Append text to notes")

	return cmd
}

func editNotes(cmd *cobra.Command, s *session, rc *reviewContext, current string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmp, err := os.CreateTemp("", "hr-notes-*.md")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(current); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, tmpPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", editor, err)
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return err
	}
	if err := s.store.UpdateNotes(rc.comparison.Key, string(edited)); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s Notes saved.\n", s.style.success("✓"))
	return nil
}
