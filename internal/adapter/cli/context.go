package cli

import (
	"context"
	"io"

	"github.com/hunkreview/hunkreview/internal/adapter/git"
	"github.com/hunkreview/hunkreview/internal/config"
	"github.com/hunkreview/hunkreview/internal/domain"
	"github.com/hunkreview/hunkreview/internal/review"
	"github.com/hunkreview/hunkreview/internal/store"
	"github.com/hunkreview/hunkreview/internal/trust"
)

// session wires the repository-scoped collaborators every command needs.
type session struct {
	engine   *git.Engine
	store    *store.Service
	cfg      *config.Service
	repoRoot string
	out      io.Writer
	errOut   io.Writer
	style    *styles
}

func newSession(ctx context.Context, deps Dependencies, out, errOut io.Writer) (*session, error) {
	engine := git.NewEngine(deps.workDir())
	root, err := engine.Root(ctx)
	if err != nil {
		return nil, userErrorf("not a git repository: %v", err)
	}
	commonDir, err := engine.CommonDir(ctx)
	if err != nil {
		return nil, userErrorf("failed to locate git common dir: %v", err)
	}
	return &session{
		engine:   engine,
		store:    store.NewService(commonDir),
		cfg:      config.NewService(root),
		repoRoot: root,
		out:      out,
		errOut:   errOut,
		style:    newStyles(),
	}, nil
}

// currentBranchOrHead returns the checked-out branch, or HEAD when detached.
func (s *session) currentBranchOrHead(ctx context.Context) string {
	branch, err := s.engine.CurrentBranch(ctx)
	if err != nil || branch == "" {
		return "HEAD"
	}
	return branch
}

// reviewContext resolves the comparison a command operates on: an ad-hoc
// working-tree comparison when --base is given, otherwise the stored
// current review. Files and state are lazy-loaded.
type reviewContext struct {
	s          *session
	comparison domain.Comparison

	files       []domain.ChangedFile
	filesLoaded bool
	state       *domain.ReviewState
}

func (s *session) reviewContext(ctx context.Context, baseOverride string) (*reviewContext, error) {
	if baseOverride != "" {
		if !s.engine.RefExists(ctx, baseOverride) {
			return nil, userErrorf("ref %q not found", baseOverride)
		}
		comp := domain.NewComparison(baseOverride, s.currentBranchOrHead(ctx), true)
		return &reviewContext{s: s, comparison: comp}, nil
	}

	currentKey, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	if currentKey == "" {
		return nil, userErrorWithHints("no review in progress",
			"Run 'hr start --old <base>' to begin a review",
			"Run 'hr list' to see stored reviews")
	}
	state, err := s.store.Load(currentKey)
	if err != nil {
		return nil, err
	}
	return &reviewContext{s: s, comparison: state.Comparison, state: state}, nil
}

// Files loads and caches the changed files for this comparison.
func (c *reviewContext) Files() ([]domain.ChangedFile, error) {
	if !c.filesLoaded {
		files, err := review.LoadChangedFiles(c.s.engine, c.s.repoRoot, c.comparison.Old, c.comparison.New, c.comparison.WorkingTree)
		if err != nil {
			return nil, err
		}
		c.files = files
		c.filesLoaded = true
	}
	return c.files, nil
}

// State loads and caches the persisted review state.
func (c *reviewContext) State() (*domain.ReviewState, error) {
	if c.state == nil {
		state, err := c.s.store.Load(c.comparison.Key)
		if err != nil {
			return nil, err
		}
		c.state = state
	}
	return c.state, nil
}

// EffectiveTrust merges the config-level trust list with the review-level
// one; the trust engine consumes only this merged view.
func (c *reviewContext) EffectiveTrust() ([]string, error) {
	state, err := c.State()
	if err != nil {
		return nil, err
	}
	return trust.Merge(c.s.cfg.TrustList(), state.TrustLabel), nil
}

// reload drops the cached state after a store mutation.
func (c *reviewContext) reload() {
	c.state = nil
}
