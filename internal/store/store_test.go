package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunkreview/hunkreview/internal/domain"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(t.TempDir())
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func writeStateFile(t *testing.T, svc *Service, key, payload string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(svc.StateDir(), 0o755))
	require.NoError(t, os.WriteFile(svc.FilePath(key), []byte(payload), 0o644))
}

func TestLoadMissingReturnsEmptyState(t *testing.T) {
	svc := newTestService(t)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Equal(t, "main..HEAD", state.Comparison.Key)
	assert.Equal(t, "main", state.Comparison.Old)
	assert.Equal(t, "HEAD", state.Comparison.New)
	assert.Empty(t, state.Hunks)
	assert.NotEmpty(t, state.CreatedAt)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	svc := newTestService(t)

	state, err := svc.Load("main..feature")
	require.NoError(t, err)
	via := domain.ApprovedViaReview
	reasoning := "Adds retry logic"
	state.Hunks["a.py:abcd1234"] = &domain.HunkState{
		Label:       []string{"logic:new"},
		Reasoning:   &reasoning,
		ApprovedVia: &via,
	}
	require.NoError(t, svc.Save(state))

	fresh := NewService(svc.commonDir)
	loaded, err := fresh.Load("main..feature")
	require.NoError(t, err)
	require.Contains(t, loaded.Hunks, "a.py:abcd1234")
	hunk := loaded.Hunks["a.py:abcd1234"]
	assert.Equal(t, []string{"logic:new"}, hunk.Label)
	assert.True(t, hunk.Reviewed())
	assert.Equal(t, "Adds retry logic", *hunk.Reasoning)
}

func TestLoadCorruptFileFallsBackToEmpty(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", "{not json")

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Empty(t, state.Hunks)
}

func TestApproveIdempotent(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"

	require.NoError(t, svc.Approve(key, "a.py:abcd1234", 2))
	state, err := svc.Load(key)
	require.NoError(t, err)
	hunk := state.Hunks["a.py:abcd1234"]
	require.NotNil(t, hunk.Count)
	assert.Equal(t, 2, *hunk.Count)
	assert.True(t, hunk.Reviewed())

	// Second approval must not overwrite the recorded count.
	require.NoError(t, svc.Approve(key, "a.py:abcd1234", 5))
	state, err = svc.Load(key)
	require.NoError(t, err)
	assert.Equal(t, 2, *state.Hunks["a.py:abcd1234"].Count)
}

func TestUnapprove(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"

	require.NoError(t, svc.Approve(key, "a.py:abcd1234", 1))
	require.NoError(t, svc.Unapprove(key, "a.py:abcd1234"))

	state, err := svc.Load(key)
	require.NoError(t, err)
	assert.False(t, state.Hunks["a.py:abcd1234"].Reviewed())

	// Unknown hunks are a no-op.
	require.NoError(t, svc.Unapprove(key, "b.py:ffffffff"))
}

func TestSetClassificationKeepsApproval(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"
	hunkKey := "a.py:abcd1234"

	require.NoError(t, svc.Approve(key, hunkKey, 1))
	require.NoError(t, svc.SetClassification(key, hunkKey, []string{"imports:added"}, "Adds an import", nil))

	state, err := svc.Load(key)
	require.NoError(t, err)
	hunk := state.Hunks[hunkKey]
	assert.True(t, hunk.Reviewed())
	assert.Equal(t, []string{"imports:added"}, hunk.Label)
}

func TestClearClassificationsPreservesApprovals(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"

	require.NoError(t, svc.SetClassification(key, "a.py:abcd1234", []string{"imports:added"}, "import", nil))
	require.NoError(t, svc.Approve(key, "a.py:abcd1234", 1))
	require.NoError(t, svc.ClearClassifications(key))

	state, err := svc.Load(key)
	require.NoError(t, err)
	hunk := state.Hunks["a.py:abcd1234"]
	assert.Empty(t, hunk.Label)
	assert.Nil(t, hunk.Reasoning)
	assert.True(t, hunk.Reviewed())
}

func TestTrustLabels(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"

	require.NoError(t, svc.AddTrustLabel(key, "imports:*"))
	require.NoError(t, svc.AddTrustLabel(key, "imports:*")) // duplicate ignored
	require.NoError(t, svc.AddTrustLabel(key, "docs:comment-only"))

	state, err := svc.Load(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"imports:*", "docs:comment-only"}, state.TrustLabel)

	removed, err := svc.RemoveTrustLabel(key, "imports:*")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveTrustLabel(key, "imports:*")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestNotes(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"

	require.NoError(t, svc.UpdateNotes(key, "first pass done"))
	require.NoError(t, svc.AppendNotes(key, "second pass"))

	state, err := svc.Load(key)
	require.NoError(t, err)
	assert.Equal(t, "first pass done\n\nsecond pass", state.Notes)
}

func TestCurrentComparison(t *testing.T) {
	svc := newTestService(t)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Empty(t, current)

	require.NoError(t, svc.SetCurrent("main..HEAD"))
	current, err = svc.Current()
	require.NoError(t, err)
	assert.Equal(t, "main..HEAD", current)

	require.NoError(t, svc.ClearCurrent())
	current, err = svc.Current()
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestList(t *testing.T) {
	svc := newTestService(t)

	for _, key := range []string{"main..HEAD", "main..feature/x"} {
		state, err := svc.Load(key)
		require.NoError(t, err)
		require.NoError(t, svc.Save(state))
	}

	states, err := svc.List()
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "main..HEAD", states[0].Comparison.Key)
	assert.Equal(t, "main..feature/x", states[1].Comparison.Key)
}

func TestSanitizedFilenames(t *testing.T) {
	svc := newTestService(t)
	key := "main..feature/login+working-tree"

	state, err := svc.Load(key)
	require.NoError(t, err)
	require.NoError(t, svc.Save(state))

	assert.FileExists(t, filepath.Join(svc.StateDir(), "main..feature_login_working-tree.json"))
}

func TestClear(t *testing.T) {
	svc := newTestService(t)
	key := "main..HEAD"

	require.NoError(t, svc.Approve(key, "a.py:abcd1234", 1))
	require.NoError(t, svc.Clear(key))

	assert.NoFileExists(t, svc.FilePath(key))
	state, err := svc.Load(key)
	require.NoError(t, err)
	assert.Empty(t, state.Hunks)

	// Clearing again is fine.
	require.NoError(t, svc.Clear(key))
}
