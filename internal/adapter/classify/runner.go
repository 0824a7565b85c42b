// Package classify shells out to the claude CLI to batch-label unlabeled
// hunks against the trust pattern taxonomy.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/taxonomy"
)

// DefaultTimeout bounds one classification call.
const DefaultTimeout = 5 * time.Minute

// ErrTimeout reports that the classification tool ran past the wall-clock
// limit.
var ErrTimeout = errors.New("classification timed out")

// ErrNotInstalled reports that the claude executable is not on PATH.
var ErrNotInstalled = errors.New("claude CLI not found, install it from https://claude.ai/code")

// Classification is one hunk's result: taxonomy labels plus free-form
// reasoning.
type Classification struct {
	Label     []string `json:"label"`
	Reasoning string   `json:"reasoning"`
}

// Target is one hunk to classify.
type Target struct {
	HunkKey    string
	FilePath   string
	FileStatus string
	Header     string
	Content    string
}

// Runner executes the external classification tool.
type Runner struct {
	Dir     string
	Model   string
	Timeout time.Duration

	// lookPath and command are swappable in tests.
	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner builds a runner operating in the given working directory.
func NewRunner(dir, model string) *Runner {
	return &Runner{
		Dir:      dir,
		Model:    model,
		Timeout:  DefaultTimeout,
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}
}

// Classify sends the targets to the tool and returns the parsed result.
// Hunks the response does not mention are simply absent from the map.
func (r *Runner) Classify(ctx context.Context, targets []Target) (map[string]Classification, error) {
	path, err := r.lookPath("claude")
	if err != nil {
		return nil, ErrNotInstalled
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--print", "-p", BuildPrompt(targets)}
	if r.Model != "" {
		args = append(args, "--model", r.Model)
	}

	cmd := r.command(ctx, path, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("claude: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("claude: %w", err)
	}

	return ParseResponse(stdout.String())
}

// BuildPrompt renders the one-shot classification prompt: the taxonomy,
// the rules and the hunk payloads keyed by hunk key.
func BuildPrompt(targets []Target) string {
	var patterns []string
	for _, p := range taxonomy.All() {
		patterns = append(patterns, fmt.Sprintf("- `%s` — %s", p.ID, p.Description))
	}

	var hunks []string
	for _, t := range targets {
		hunks = append(hunks,
			fmt.Sprintf("=== %s ===", t.HunkKey),
			fmt.Sprintf("File: %s (%s)", t.FilePath, t.FileStatus),
			t.Header,
			t.Content,
			"")
	}

	return fmt.Sprintf(`Classify each hunk in this diff. For each hunk, provide:
1. **label**: Array of trust patterns from the taxonomy (can be empty if no patterns apply)
2. **reasoning**: Brief explanation of what the change does

## Trust Patterns Taxonomy

Only use patterns from this list. Leave label empty if no patterns apply.

%s

## Rules

- Apply patterns ONLY when they FULLY describe the change
- If a hunk has mixed changes (e.g., imports + logic), leave label empty
- Multiple patterns are allowed if the hunk combines trustable changes
- Reasoning should be specific and clear (e.g., "Added import for ChoicesFieldMixin")

## Output Format

Return a JSON object mapping hunk_key to classification:

`+"```json"+`
{
  "filepath:hash": {
    "label": ["pattern:id"],
    "reasoning": "Brief explanation"
  }
}
`+"```"+`

## Diff to Classify

%s

Return ONLY the JSON object, no other text.`, strings.Join(patterns, "\n"), strings.Join(hunks, "\n"))
}

// ParseResponse extracts the classification map from tool output, which
// may wrap the JSON in markdown code fences. String values are accepted
// as reasoning-only classifications; anything else is skipped.
func ParseResponse(output string) (map[string]Classification, error) {
	payload := extractJSON(strings.TrimSpace(output))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	result := make(map[string]Classification, len(raw))
	for key, value := range raw {
		var c Classification
		if err := json.Unmarshal(value, &c); err == nil {
			c.Label = validLabels(c.Label)
			result[key] = c
			continue
		}
		var reasoning string
		if err := json.Unmarshal(value, &reasoning); err == nil {
			result[key] = Classification{Label: []string{}, Reasoning: reasoning}
		}
	}
	return result, nil
}

// validLabels drops labels the model invented outside the taxonomy.
func validLabels(labels []string) []string {
	kept := []string{}
	for _, label := range labels {
		if taxonomy.IsValid(label) {
			kept = append(kept, label)
		}
	}
	return kept
}

func extractJSON(output string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(output, fence)
		if start < 0 {
			continue
		}
		rest := output[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}
		return strings.TrimSpace(rest[:end])
	}
	return output
}

// SelectUnlabeled picks the hunks still needing classification, in diff
// order with duplicate keys collapsed.
func SelectUnlabeled(files []domain.ChangedFile, state *domain.ReviewState) []Target {
	seen := map[string]struct{}{}
	var targets []Target
	for _, f := range files {
		for _, hunk := range f.Hunks {
			key := domain.HunkKey(hunk.FilePath, hunk.Hash)
			if _, ok := seen[key]; ok {
				continue
			}
			if state.Hunks[key].Labeled() {
				continue
			}
			seen[key] = struct{}{}
			targets = append(targets, Target{
				HunkKey:    key,
				FilePath:   f.Path,
				FileStatus: f.Status,
				Header:     hunk.Header,
				Content:    hunk.Content,
			})
		}
	}
	return targets
}
