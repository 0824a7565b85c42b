package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes follow common conventions: 0 success, 1 user input error,
// 2 operational error (wrong context, nothing to do).
const (
	ExitSuccess          = 0
	ExitUserError        = 1
	ExitOperationalError = 2
)

// exitCoder lets error types choose their process exit code.
type exitCoder interface {
	ExitCode() int
}

// userError is a bad-input failure: unknown ref, malformed spec, missing
// review. Hints suggest the next step.
type userError struct {
	msg   string
	hints []string
}

func (e *userError) Error() string {
	if len(e.hints) == 0 {
		return e.msg
	}
	var b strings.Builder
	b.WriteString(e.msg)
	for _, hint := range e.hints {
		b.WriteString("\n→ ")
		b.WriteString(hint)
	}
	return b.String()
}

func (e *userError) ExitCode() int { return ExitUserError }

func userErrorf(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

func userErrorWithHints(msg string, hints ...string) error {
	return &userError{msg: msg, hints: hints}
}

// opError is a wrong-context failure, like staging a branch comparison.
type opError struct {
	msg   string
	hints []string
}

func (e *opError) Error() string {
	if len(e.hints) == 0 {
		return e.msg
	}
	return e.msg + "\n→ " + strings.Join(e.hints, "\n→ ")
}

func (e *opError) ExitCode() int { return ExitOperationalError }

func opErrorf(format string, args ...any) error {
	return &opError{msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error from command execution to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrVersionRequested) {
		return ExitSuccess
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitUserError
}
