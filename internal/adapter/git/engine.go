// Package git adapts the repository's version control to the shapes the
// review core consumes: zero-context diffs, name-status listings, untracked
// files and patch staging. Ref inspection goes through go-git; diff and
// staging shell out to the git binary so output is byte-identical to what
// users see.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ExternalToolError carries a tool's own diagnostic output so commands can
// surface it verbatim.
type ExternalToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// Engine runs version-control operations for one repository directory.
type Engine struct {
	repoDir string
}

// NewEngine constructs an engine for the provided directory, which may be
// anywhere inside the repository.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

func (e *Engine) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

// Root returns the repository's top-level working tree directory.
func (e *Engine) Root(ctx context.Context) (string, error) {
	out, err := e.runGit(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CommonDir returns the git common dir, shared across worktrees. State
// stored there is ignored by git and visible to every worktree.
func (e *Engine) CommonDir(ctx context.Context) (string, error) {
	out, err := e.runGit(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) {
		root, err := e.Root(ctx)
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, dir)
	}
	return dir, nil
}

// CurrentBranch returns the checked-out branch name, or "" on detached HEAD.
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := e.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if name := head.Name(); name.IsBranch() {
		return name.Short(), nil
	}
	return "", nil
}

// RefExists reports whether a ref resolves to a commit.
func (e *Engine) RefExists(ctx context.Context, ref string) bool {
	repo, err := e.open()
	if err != nil {
		return false
	}
	return resolveRevision(repo, ref) == nil
}

// DefaultBranch returns "main" or "master", whichever exists, preferring
// main.
func (e *Engine) DefaultBranch(ctx context.Context) string {
	for _, candidate := range []string{"main", "master"} {
		if e.RefExists(ctx, candidate) {
			return candidate
		}
	}
	return "main"
}

func resolveRevision(repo *goGit.Repository, ref string) error {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}
	var lastErr error
	for _, candidate := range candidates {
		if _, err := repo.ResolveRevision(plumbing.Revision(candidate)); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Diff returns zero-context unified diff text. An empty compare ref diffs
// base against the working tree; otherwise a three-dot range is used so
// only changes since the common ancestor show up.
func (e *Engine) Diff(base, compare string) (string, error) {
	if compare == "" {
		return e.runGit(context.Background(), "diff", base, "-p", "-U0")
	}
	return e.runGit(context.Background(), "diff", base+"..."+compare, "-p", "-U0")
}

// DiffNameStatus returns the name-status listing for the same range Diff
// covers.
func (e *Engine) DiffNameStatus(base, compare string) (string, error) {
	if compare == "" {
		return e.runGit(context.Background(), "diff", base, "--name-status")
	}
	return e.runGit(context.Background(), "diff", base+"..."+compare, "--name-status")
}

// FileDiff returns the zero-context working-tree diff for a single path,
// including the file header needed to assemble partial patches.
func (e *Engine) FileDiff(base, path string) (string, error) {
	return e.runGit(context.Background(), "diff", base, "-p", "-U0", "--", path)
}

// UntrackedFiles lists paths not yet tracked, honoring ignore rules.
func (e *Engine) UntrackedFiles() ([]string, error) {
	out, err := e.runGit(context.Background(), "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// ApplyCached applies a patch to the staging area. Failures surface the
// tool's own stderr so the user sees exactly what git rejected.
func (e *Engine) ApplyCached(ctx context.Context, patch string) error {
	cmd := exec.CommandContext(ctx, "git", "-C", e.repoDir, "apply", "--cached", "--unidiff-zero", "-")
	cmd.Stdin = strings.NewReader(patch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ExternalToolError{Tool: "git apply --cached", Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}

func (e *Engine) runGit(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", e.repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}
