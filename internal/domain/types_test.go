package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunkreview/hunkreview/internal/domain"
)

func TestNewComparison(t *testing.T) {
	t.Run("branch comparison key", func(t *testing.T) {
		c := domain.NewComparison("main", "feature", false)
		assert.Equal(t, "main..feature", c.Key)
		assert.False(t, c.WorkingTree)
	})

	t.Run("working tree comparison key", func(t *testing.T) {
		c := domain.NewComparison("main", "HEAD", true)
		assert.Equal(t, "main..HEAD+working-tree", c.Key)
		assert.True(t, c.WorkingTree)
	})
}

func TestParseComparisonKey(t *testing.T) {
	t.Run("round-trips branch keys", func(t *testing.T) {
		orig := domain.NewComparison("origin/main", "feature", false)
		parsed, err := domain.ParseComparisonKey(orig.Key)
		require.NoError(t, err)
		assert.Equal(t, orig, parsed)
	})

	t.Run("round-trips working tree keys", func(t *testing.T) {
		orig := domain.NewComparison("main", "feature", true)
		parsed, err := domain.ParseComparisonKey(orig.Key)
		require.NoError(t, err)
		assert.Equal(t, orig, parsed)
	})

	t.Run("rejects keys without a separator", func(t *testing.T) {
		_, err := domain.ParseComparisonKey("not-a-key")
		assert.Error(t, err)
	})
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"main..feature", "main..feature"},
		{"main..HEAD+working-tree", "main..HEAD_working-tree"},
		{"origin/main..feat/x", "origin_main..feat_x"},
		{"a b..c:d", "a_b..c_d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.SanitizeKey(tt.key), tt.key)
	}
}

func TestHunkKey(t *testing.T) {
	t.Run("round-trips plain paths", func(t *testing.T) {
		key := domain.HunkKey("src/auth.py", "abc12345")
		path, hash, err := domain.ParseHunkKey(key)
		require.NoError(t, err)
		assert.Equal(t, "src/auth.py", path)
		assert.Equal(t, "abc12345", hash)
	})

	t.Run("round-trips paths containing colons", func(t *testing.T) {
		key := domain.HunkKey("odd:dir/file:name.go", "deadbeef")
		path, hash, err := domain.ParseHunkKey(key)
		require.NoError(t, err)
		assert.Equal(t, "odd:dir/file:name.go", path)
		assert.Equal(t, "deadbeef", hash)
	})

	t.Run("rejects keys with no colon", func(t *testing.T) {
		_, _, err := domain.ParseHunkKey("nocolon")
		assert.Error(t, err)
	})
}

func TestHunkStateFlags(t *testing.T) {
	via := domain.ApprovedViaReview
	reasoning := "ws only"

	var nilState *domain.HunkState
	assert.False(t, nilState.Reviewed())
	assert.False(t, nilState.Labeled())

	h := domain.NewHunkState()
	assert.False(t, h.Reviewed())
	assert.False(t, h.Labeled())

	h.Reasoning = &reasoning
	assert.True(t, h.Labeled())

	h.ApprovedVia = &via
	assert.True(t, h.Reviewed())
}
