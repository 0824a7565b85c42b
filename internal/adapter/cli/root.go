package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Command group IDs for help output.
const (
	groupSession  = "session"
	groupTrust    = "trust"
	groupApproval = "approval"
	groupUtility  = "utility"
)

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Out     io.Writer
	Err     io.Writer
	Version string
	WorkDir string
}

func (d Dependencies) workDir() string {
	if d.WorkDir != "" {
		return d.WorkDir
	}
	return "."
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "hr",
		Short: "Track hunk-level code review progress",
		Long: `Track hunk-level code review progress.

Run 'hr start --old <base>' to begin a review, then use
'hr status' and 'hr diff' to see progress.`,
	}
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SuggestionsMinimumDistance = 2

	outWriter := deps.Out
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Err
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddGroup(
		&cobra.Group{ID: groupSession, Title: "Review Session:"},
		&cobra.Group{ID: groupTrust, Title: "Trust:"},
		&cobra.Group{ID: groupApproval, Title: "Approval:"},
		&cobra.Group{ID: groupUtility, Title: "Utilities:"},
	)

	root.AddCommand(
		startCommand(deps),
		switchCommand(deps),
		statusCommand(deps),
		diffCommand(deps),
		classifyCommand(deps),
		labelCommand(deps),
		trustCommand(deps),
		untrustCommand(deps),
		approveCommand(deps),
		unapproveCommand(deps),
		infoCommand(deps),
		listCommand(deps),
		notesCommand(deps),
		deleteCommand(deps),
		stageCommand(deps),
		patternsCommand(deps),
	)

	var showVersion bool
	root.PersistentFlags().BoolVar(&showVersion, "version", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}
