package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// styles holds the terminal styling functions used across commands.
// Styling is disabled when NO_COLOR is set or stdout is not a terminal.
type styles struct {
	success func(a ...any) string
	warning func(a ...any) string
	errText func(a ...any) string
	info    func(a ...any) string
	dim     func(a ...any) string
	bold    func(a ...any) string
	path    func(a ...any) string
}

func newStyles() *styles {
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
	return &styles{
		success: color.New(color.FgGreen).SprintFunc(),
		warning: color.New(color.FgYellow).SprintFunc(),
		errText: color.New(color.FgRed, color.Bold).SprintFunc(),
		info:    color.New(color.FgCyan).SprintFunc(),
		dim:     color.New(color.Faint).SprintFunc(),
		bold:    color.New(color.Bold).SprintFunc(),
		path:    color.New(color.FgBlue).SprintFunc(),
	}
}

// progressBar renders a filled/empty bar like [████······].
func progressBar(done, total, width int) string {
	if total <= 0 {
		return "[" + strings.Repeat("·", width) + "]"
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

// divider renders a horizontal rule of the given width.
func divider(width int) string {
	return strings.Repeat("─", width)
}

// hunkWord picks the singular or plural form.
func hunkWord(n int) string {
	if n == 1 {
		return "hunk"
	}
	return "hunks"
}

// truncate shortens a label for column display.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// plural formats "N word(s)" with the right suffix.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
