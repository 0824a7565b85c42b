package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hunkreview/hunkreview/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestIsTrusted(t *testing.T) {
	trustList := []string{"imports:*", "docs:comment-only"}

	t.Run("all labels trusted", func(t *testing.T) {
		assert.True(t, IsTrusted([]string{"imports:added", "docs:comment-only"}, trustList))
	})

	t.Run("one untrusted label blocks", func(t *testing.T) {
		assert.False(t, IsTrusted([]string{"imports:added", "logic:new"}, trustList))
	})

	t.Run("empty labels never trusted", func(t *testing.T) {
		assert.False(t, IsTrusted(nil, trustList))
		assert.False(t, IsTrusted([]string{}, []string{"*"}))
	})
}

func TestIsHunkApproved(t *testing.T) {
	trustList := []string{"imports:*"}

	t.Run("explicit review approval survives trust changes", func(t *testing.T) {
		h := &domain.HunkState{
			Label:       []string{"logic:new"},
			ApprovedVia: strPtr(domain.ApprovedViaReview),
		}
		assert.True(t, IsHunkApproved(h, trustList))
		assert.True(t, IsHunkApproved(h, nil))
	})

	t.Run("trusted labels approve without stored approval", func(t *testing.T) {
		h := &domain.HunkState{Label: []string{"imports:added"}}
		assert.True(t, IsHunkApproved(h, trustList))
	})

	t.Run("removing the glob revokes trust", func(t *testing.T) {
		h := &domain.HunkState{Label: []string{"imports:added"}}
		assert.True(t, IsHunkApproved(h, trustList))
		assert.False(t, IsHunkApproved(h, nil))
	})

	t.Run("unlabeled unreviewed hunk is unapproved", func(t *testing.T) {
		h := &domain.HunkState{Label: []string{}}
		assert.False(t, IsHunkApproved(h, trustList))
	})

	t.Run("nil hunk state", func(t *testing.T) {
		assert.False(t, IsHunkTrusted(nil, trustList))
	})
}

func TestMerge(t *testing.T) {
	t.Run("union preserves config order first", func(t *testing.T) {
		got := Merge([]string{"imports:*", "docs:*"}, []string{"tests:added", "imports:*"})
		assert.Equal(t, []string{"imports:*", "docs:*", "tests:added"}, got)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, Merge(nil, nil))
	})

	t.Run("review-only trust", func(t *testing.T) {
		got := Merge(nil, []string{"custom:generated"})
		assert.Equal(t, []string{"custom:generated"}, got)
	})
}
