package diff_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunkreview/hunkreview/internal/diff"
	"github.com/hunkreview/hunkreview/internal/domain"
)

const twoHunkDiff = `diff --git a/a.py b/a.py
index 1111111..2222222 100644
--- a/a.py
+++ b/a.py
@@ -10,0 +10,2 @@ def first():
+added line one
+added line two
@@ -20,1 +20,1 @@ def second():
-old line
+new line
`

func TestParse(t *testing.T) {
	t.Run("two hunks in one file", func(t *testing.T) {
		files := diff.Parse(twoHunkDiff, nil)
		require.Len(t, files, 1)
		f := files[0]
		assert.Equal(t, "a.py", f.Path)
		assert.Equal(t, domain.FileStatusModified, f.Status)
		require.Len(t, f.Hunks, 2)

		assert.Equal(t, 10, f.Hunks[0].StartLine)
		assert.Equal(t, 11, f.Hunks[0].EndLine)
		assert.Equal(t, 20, f.Hunks[1].StartLine)
		assert.Equal(t, 20, f.Hunks[1].EndLine)
		assert.NotEqual(t, f.Hunks[0].Hash, f.Hunks[1].Hash)

		for _, h := range f.Hunks {
			assert.Len(t, h.Hash, 8)
			assert.True(t, strings.HasPrefix(h.Header, "@@"))
			assert.True(t, strings.HasPrefix(h.Content, h.Header))
		}
	})

	t.Run("empty input yields no files", func(t *testing.T) {
		assert.Empty(t, diff.Parse("", nil))
		assert.Empty(t, diff.Parse("  \n ", nil))
	})

	t.Run("status map is applied with modified default", func(t *testing.T) {
		statuses := map[string]diff.FileStatus{
			"a.py": {Status: domain.FileStatusRenamed, OldPath: "old.py"},
		}
		files := diff.Parse(twoHunkDiff, statuses)
		require.Len(t, files, 1)
		assert.Equal(t, domain.FileStatusRenamed, files[0].Status)
		assert.Equal(t, "old.py", files[0].OldPath)
	})

	t.Run("uses destination path for renames", func(t *testing.T) {
		renamed := strings.ReplaceAll(twoHunkDiff, "diff --git a/a.py b/a.py", "diff --git a/old.py b/a.py")
		files := diff.Parse(renamed, nil)
		require.Len(t, files, 1)
		assert.Equal(t, "a.py", files[0].Path)
	})

	t.Run("handles mnemonic prefixes", func(t *testing.T) {
		mnemonic := strings.ReplaceAll(twoHunkDiff, "diff --git a/a.py b/a.py", "diff --git i/a.py w/a.py")
		files := diff.Parse(mnemonic, nil)
		require.Len(t, files, 1)
		assert.Equal(t, "a.py", files[0].Path)
	})

	t.Run("file without hunk headers becomes a whole-file hunk", func(t *testing.T) {
		binary := "diff --git a/img.png b/img.png\nindex 1111111..2222222 100644\nBinary files a/img.png and b/img.png differ\n"
		files := diff.Parse(binary, nil)
		require.Len(t, files, 1)
		require.Len(t, files[0].Hunks, 1)
		h := files[0].Hunks[0]
		assert.Equal(t, diff.EntireFileHeader, h.Header)
		assert.Equal(t, 1, h.StartLine)
		assert.Equal(t, 1, h.EndLine)
	})

	t.Run("malformed text degrades to nothing", func(t *testing.T) {
		assert.Empty(t, diff.Parse("this is not a diff\nat all\n", nil))
	})
}

func TestHashStability(t *testing.T) {
	t.Run("re-parsing identical text yields identical hashes", func(t *testing.T) {
		first := diff.Parse(twoHunkDiff, nil)
		second := diff.Parse(twoHunkDiff, nil)
		require.Len(t, first, 1)
		require.Len(t, second, 1)
		for i := range first[0].Hunks {
			assert.Equal(t, first[0].Hunks[i].Hash, second[0].Hunks[i].Hash)
		}
	})

	t.Run("line-number drift keeps the hash", func(t *testing.T) {
		shifted := strings.ReplaceAll(twoHunkDiff, "@@ -10,0 +10,2 @@", "@@ -52,0 +52,2 @@")
		orig := diff.Parse(twoHunkDiff, nil)
		moved := diff.Parse(shifted, nil)
		assert.Equal(t, orig[0].Hunks[0].Hash, moved[0].Hunks[0].Hash)
		assert.NotEqual(t, orig[0].Hunks[0].StartLine, moved[0].Hunks[0].StartLine)
	})

	t.Run("body change moves the hash", func(t *testing.T) {
		changed := strings.ReplaceAll(twoHunkDiff, "+added line one", "+added line 1")
		orig := diff.Parse(twoHunkDiff, nil)
		edited := diff.Parse(changed, nil)
		assert.NotEqual(t, orig[0].Hunks[0].Hash, edited[0].Hunks[0].Hash)
	})

	t.Run("identical bodies in different files share a hash", func(t *testing.T) {
		other := strings.ReplaceAll(twoHunkDiff, "a.py", "b.py")
		a := diff.Parse(twoHunkDiff, nil)
		b := diff.Parse(other, nil)
		assert.Equal(t, a[0].Hunks[0].Hash, b[0].Hunks[0].Hash)
	})
}

func TestParseNameStatus(t *testing.T) {
	out := "A\tnew.py\nM\tchanged.py\nD\tgone.py\nR100\told_name.py\tnew_name.py\nC75\tsrc.py\tcopy.py\n"
	statuses := diff.ParseNameStatus(out)

	assert.Equal(t, diff.FileStatus{Status: domain.FileStatusAdded}, statuses["new.py"])
	assert.Equal(t, diff.FileStatus{Status: domain.FileStatusModified}, statuses["changed.py"])
	assert.Equal(t, diff.FileStatus{Status: domain.FileStatusDeleted}, statuses["gone.py"])
	assert.Equal(t, diff.FileStatus{Status: domain.FileStatusRenamed, OldPath: "old_name.py"}, statuses["new_name.py"])
	assert.Equal(t, domain.FileStatusModified, statuses["copy.py"].Status)
	assert.Empty(t, diff.ParseNameStatus(""))
}

func TestNewUntrackedHunk(t *testing.T) {
	t.Run("hashes content when present", func(t *testing.T) {
		h := diff.NewUntrackedHunk("notes.txt", "hello\n")
		assert.Equal(t, diff.HashContent("hello\n"), h.Hash)
		assert.Equal(t, diff.UntrackedHeader, h.Header)
	})

	t.Run("empty files fall back to a path-derived hash", func(t *testing.T) {
		a := diff.NewUntrackedHunk("a.txt", "")
		b := diff.NewUntrackedHunk("b.txt", "")
		assert.NotEqual(t, a.Hash, b.Hash)
	})
}
