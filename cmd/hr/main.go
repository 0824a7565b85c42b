package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/hunkreview/hunkreview/internal/adapter/cli"
	"github.com/hunkreview/hunkreview/internal/adapter/git"
	"github.com/hunkreview/hunkreview/internal/review"
	"github.com/hunkreview/hunkreview/internal/version"
)

// The git engine must satisfy the diff source the review package consumes.
var _ review.DiffSource = (*git.Engine)(nil)

func main() {
	// Cancellable context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version.Value(),
		WorkDir: workDir,
	})

	err = root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, cli.ErrVersionRequested) {
		errLabel := color.New(color.FgRed, color.Bold).Sprint("Error:")
		fmt.Fprintf(os.Stderr, "%s %v\n", errLabel, err)
	}
	os.Exit(cli.ExitCode(err))
}
