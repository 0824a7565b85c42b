package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateComparisonKeyString(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "hunks": {}
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Equal(t, "main", state.Comparison.Old)
	assert.Equal(t, "HEAD", state.Comparison.New)
	assert.False(t, state.Comparison.WorkingTree)
	assert.NotEmpty(t, state.CreatedAt)
}

func TestMigrateReviewedHunksList(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "reviewedHunks": ["a.py:abcd1234", "b.py:deadbeef"]
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	require.Len(t, state.Hunks, 2)
	assert.True(t, state.Hunks["a.py:abcd1234"].Reviewed())
	assert.True(t, state.Hunks["b.py:deadbeef"].Reviewed())
}

func TestMigrateClassificationsDict(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "classifications": {
    "a.py:abcd1234": {"reason": ["imports:added"]}
  }
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	require.Contains(t, state.Hunks, "a.py:abcd1234")
	assert.Equal(t, []string{"imports:added"}, state.Hunks["a.py:abcd1234"].Label)
}

func TestMigrateScalarLabelBecomesReasoning(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparison": {"old": "main", "new": "HEAD", "working_tree": false, "key": "main..HEAD"},
  "hunks": {
    "a.py:abcd1234": {"label": "adds a helper function"}
  }
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	hunk := state.Hunks["a.py:abcd1234"]
	require.NotNil(t, hunk.Reasoning)
	assert.Equal(t, "adds a helper function", *hunk.Reasoning)
	assert.Empty(t, hunk.Label)
}

func TestMigrateTrustFieldBecomesLabel(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparison": {"old": "main", "new": "HEAD", "working_tree": false, "key": "main..HEAD"},
  "hunks": {
    "a.py:abcd1234": {"trust": ["formatting:whitespace"], "reasoning": "reindent"}
  }
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Equal(t, []string{"formatting:whitespace"}, state.Hunks["a.py:abcd1234"].Label)
}

func TestMigrateReviewedBoolAndReviewedBy(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "hunks": {
    "a.py:aaaaaaaa": {"reviewed": true},
    "b.py:bbbbbbbb": {"reviewed": false},
    "c.py:cccccccc": {"reviewed_by": "human"},
    "d.py:dddddddd": {"reviewed_by": "agent"}
  }
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.True(t, state.Hunks["a.py:aaaaaaaa"].Reviewed())
	assert.False(t, state.Hunks["b.py:bbbbbbbb"].Reviewed())
	assert.True(t, state.Hunks["c.py:cccccccc"].Reviewed())
	// Agent approvals were trust-based; trust is recomputed, never stored.
	assert.False(t, state.Hunks["d.py:dddddddd"].Reviewed())
	assert.Nil(t, state.Hunks["d.py:dddddddd"].ApprovedVia)
}

func TestMigrateApprovedViaTrustCleared(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "hunks": {
    "a.py:abcd1234": {"approved_via": "trust", "label": ["imports:added"]}
  }
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Nil(t, state.Hunks["a.py:abcd1234"].ApprovedVia)
	assert.Equal(t, []string{"imports:added"}, state.Hunks["a.py:abcd1234"].Label)
}

func TestMigrateExpectedCountAndDroppedFields(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "hunks": {
    "a.py:abcd1234": {
      "expected_count": 3,
      "suggested": true,
      "review": "looks fine",
      "trivial": true,
      "human": false
    }
  }
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	hunk := state.Hunks["a.py:abcd1234"]
	require.NotNil(t, hunk.Count)
	assert.Equal(t, 3, *hunk.Count)
	assert.Empty(t, hunk.Label)
	assert.Nil(t, hunk.ApprovedVia)
}

func TestMigrateNullCompareRef(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparison": {"old": "main", "new": null, "working_tree": false, "key": "main..HEAD"},
  "hunks": {}
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Equal(t, "HEAD", state.Comparison.New)
}

func TestMigrateInvalidApprovedViaRejected(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "hunks": {
    "a.py:abcd1234": {"approved_via": "wizard"}
  }
}`)

	// Treated as corrupt: load falls back to a fresh empty state.
	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	assert.Empty(t, state.Hunks)
}

func TestMigratedStateRewritesInCurrentSchema(t *testing.T) {
	svc := newTestService(t)
	writeStateFile(t, svc, "main..HEAD", `{
  "comparisonKey": "main..HEAD",
  "reviewedHunks": ["a.py:abcd1234"]
}`)

	state, err := svc.Load("main..HEAD")
	require.NoError(t, err)
	require.NoError(t, svc.Save(state))

	fresh := NewService(svc.commonDir)
	reloaded, err := fresh.Load("main..HEAD")
	require.NoError(t, err)
	assert.True(t, reloaded.Hunks["a.py:abcd1234"].Reviewed())
	assert.Equal(t, "main..HEAD", reloaded.Comparison.Key)
}
