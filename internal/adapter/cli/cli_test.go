package cli_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hunkreview/hunkreview/internal/adapter/cli"
)

func TestVersionFlagEmitsVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Out:     buf,
		Err:     io.Discard,
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}

func TestVersionDefaultsWhenUnset(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{Out: buf, Err: io.Discard})

	root.SetArgs([]string{"--version"})
	if err := root.Execute(); !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v0.0.0" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}

func TestRootWithoutArgsShowsHelp(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{Out: buf, Err: io.Discard})

	root.SetArgs([]string{})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Review Session:") {
		t.Fatalf("expected grouped help output, got: %q", buf.String())
	}
}

func TestCommandsOutsideRepositoryFail(t *testing.T) {
	errBuf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Out:     io.Discard,
		Err:     errBuf,
		WorkDir: t.TempDir(),
	})

	root.SetArgs([]string{"status"})
	err := root.Execute()
	if err == nil {
		t.Fatal("expected error outside a git repository")
	}
	if cli.ExitCode(err) != cli.ExitUserError {
		t.Fatalf("expected exit code %d, got %d", cli.ExitUserError, cli.ExitCode(err))
	}
}

func TestExitCodeMapping(t *testing.T) {
	if got := cli.ExitCode(nil); got != cli.ExitSuccess {
		t.Fatalf("nil error: expected %d, got %d", cli.ExitSuccess, got)
	}
	if got := cli.ExitCode(cli.ErrVersionRequested); got != cli.ExitSuccess {
		t.Fatalf("version sentinel: expected %d, got %d", cli.ExitSuccess, got)
	}
	if got := cli.ExitCode(errors.New("boom")); got != cli.ExitUserError {
		t.Fatalf("plain error: expected %d, got %d", cli.ExitUserError, got)
	}
}
