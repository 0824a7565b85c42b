package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunkreview/hunkreview/internal/review"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[██········]", progressBar(2, 10, 10))
	assert.Equal(t, "[██████████]", progressBar(10, 10, 10))
	assert.Equal(t, "[··········]", progressBar(0, 0, 10))
	assert.Equal(t, "[█████]", progressBar(20, 10, 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	assert.Equal(t, "exactly", truncate("exactly", 7))
	assert.Equal(t, "long ...", truncate("long label text", 8))
}

func TestPluralAndHunkWord(t *testing.T) {
	assert.Equal(t, "1 minute", plural(1, "minute"))
	assert.Equal(t, "3 minutes", plural(3, "minute"))
	assert.Equal(t, "hunk", hunkWord(1))
	assert.Equal(t, "hunks", hunkWord(2))
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "just now", relativeTime(30*time.Second))
	assert.Equal(t, "5 minutes ago", relativeTime(5*time.Minute))
	assert.Equal(t, "1 hour ago", relativeTime(90*time.Minute))
	assert.Equal(t, "2 days ago", relativeTime(48*time.Hour))
	assert.Equal(t, "3 weeks ago", relativeTime(22*24*time.Hour))
}

func TestUserErrorRendersHints(t *testing.T) {
	err := userErrorWithHints("no review in progress",
		"Run 'hr start --old <base>' to begin a review",
		"Run 'hr list' to see stored reviews")
	assert.Equal(t, "no review in progress\n→ Run 'hr start --old <base>' to begin a review\n→ Run 'hr list' to see stored reviews", err.Error())
	assert.Equal(t, ExitUserError, ExitCode(err))
}

func TestOpErrorExitCode(t *testing.T) {
	err := opErrorf("stage only works for working tree reviews")
	assert.Equal(t, ExitOperationalError, ExitCode(err))
}

func TestResolveHunkKeySpec(t *testing.T) {
	keyCounts := map[string]int{
		"src/auth.py:abc12345": 1,
		"src/auth.py:abd99999": 1,
		"src/db.py:abc12345":   2,
	}

	t.Run("exact key", func(t *testing.T) {
		key, err := resolveHunkKeySpec("src/auth.py:abc12345", keyCounts)
		require.NoError(t, err)
		assert.Equal(t, "src/auth.py:abc12345", key)
	})

	t.Run("unique prefix", func(t *testing.T) {
		key, err := resolveHunkKeySpec("src/db.py:abc", keyCounts)
		require.NoError(t, err)
		assert.Equal(t, "src/db.py:abc12345", key)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := resolveHunkKeySpec("src/auth.py:ab", keyCounts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ambiguous")
		assert.Contains(t, err.Error(), "abc12345")
		assert.Contains(t, err.Error(), "abd99999")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := resolveHunkKeySpec("src/auth.py:zzz", keyCounts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestDescribeFilters(t *testing.T) {
	parts := describeFilters(review.Filters{
		FileStatus: "modified",
		Label:      "imports",
		Unreviewed: true,
	})
	assert.Equal(t, []string{"modified", "label: imports", "unreviewed"}, parts)
}
