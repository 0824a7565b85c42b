package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunkreview/hunkreview/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	targets := []Target{
		{
			HunkKey:    "a.py:abcd1234",
			FilePath:   "a.py",
			FileStatus: "modified",
			Header:     "@@ -10,2 +10,2 @@",
			Content:    "@@ -10,2 +10,2 @@\n-old\n+new",
		},
	}

	prompt := BuildPrompt(targets)
	assert.Contains(t, prompt, "=== a.py:abcd1234 ===")
	assert.Contains(t, prompt, "File: a.py (modified)")
	assert.Contains(t, prompt, "`imports:added`")
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestParseResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		got, err := ParseResponse(`{"a.py:abcd1234": {"label": ["imports:added"], "reasoning": "adds import"}}`)
		require.NoError(t, err)
		assert.Equal(t, Classification{Label: []string{"imports:added"}, Reasoning: "adds import"}, got["a.py:abcd1234"])
	})

	t.Run("json code fence", func(t *testing.T) {
		out := "Here are the classifications:\n```json\n{\"a.py:ab\": {\"label\": [], \"reasoning\": \"x\"}}\n```\nDone."
		got, err := ParseResponse(out)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "x", got["a.py:ab"].Reasoning)
	})

	t.Run("bare code fence", func(t *testing.T) {
		out := "```\n{\"a.py:ab\": {\"label\": [], \"reasoning\": \"x\"}}\n```"
		got, err := ParseResponse(out)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("string value becomes reasoning", func(t *testing.T) {
		got, err := ParseResponse(`{"a.py:ab": "just a string"}`)
		require.NoError(t, err)
		assert.Equal(t, Classification{Label: []string{}, Reasoning: "just a string"}, got["a.py:ab"])
	})

	t.Run("invented labels are dropped", func(t *testing.T) {
		got, err := ParseResponse(`{"a.py:ab": {"label": ["imports:added", "made:up", "custom:ours"], "reasoning": "x"}}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"imports:added", "custom:ours"}, got["a.py:ab"].Label)
	})

	t.Run("malformed entries are skipped not fatal", func(t *testing.T) {
		got, err := ParseResponse(`{"good": {"label": [], "reasoning": "ok"}, "bad": 42}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Contains(t, got, "good")
	})

	t.Run("invalid JSON errors", func(t *testing.T) {
		_, err := ParseResponse("not json at all")
		assert.Error(t, err)
	})
}

func TestSelectUnlabeled(t *testing.T) {
	reasoning := "done"
	files := []domain.ChangedFile{
		{Path: "a.py", Status: "modified", Hunks: []domain.DiffHunk{
			{FilePath: "a.py", Hash: "aaaa1111", Header: "@@ -1 +1 @@"},
			{FilePath: "a.py", Hash: "bbbb2222", Header: "@@ -5 +5 @@"},
			// Duplicate key collapses to one target.
			{FilePath: "a.py", Hash: "aaaa1111", Header: "@@ -9 +9 @@"},
		}},
	}
	state := domain.NewReviewState(domain.NewComparison("main", "HEAD", false), "2025-06-01T00:00:00Z")
	state.Hunks["a.py:bbbb2222"] = &domain.HunkState{Label: []string{}, Reasoning: &reasoning}

	targets := SelectUnlabeled(files, state)
	require.Len(t, targets, 1)
	assert.Equal(t, "a.py:aaaa1111", targets[0].HunkKey)
}
