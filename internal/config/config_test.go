package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(t.TempDir())
	svc.userPath = filepath.Join(t.TempDir(), "settings.json")
	return svc
}

func TestLoadFileMissing(t *testing.T) {
	s := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Empty(t, s.Trust)
	assert.Empty(t, s.Patterns)
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	s := LoadFile(path)
	assert.Empty(t, s.Trust)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.json")
	in := Settings{
		Trust:    []string{"imports:*"},
		Patterns: map[string]string{"custom:generated-proto": "Generated protobuf code"},
	}
	require.NoError(t, SaveFile(path, in))

	out := LoadFile(path)
	assert.Equal(t, in.Trust, out.Trust)
	assert.Equal(t, in.Patterns, out.Patterns)
}

func TestMerge(t *testing.T) {
	user := Settings{
		Trust:    []string{"imports:*", "docs:*"},
		Patterns: map[string]string{"custom:a": "user a", "custom:b": "user b"},
	}

	t.Run("project trust replaces user trust entirely", func(t *testing.T) {
		project := Settings{Trust: []string{"tests:added"}}
		merged := Merge(user, project)
		assert.Equal(t, []string{"tests:added"}, merged.Trust)
	})

	t.Run("empty project trust keeps user trust", func(t *testing.T) {
		merged := Merge(user, NewSettings())
		assert.Equal(t, []string{"imports:*", "docs:*"}, merged.Trust)
	})

	t.Run("project patterns override per key", func(t *testing.T) {
		project := Settings{Patterns: map[string]string{"custom:b": "project b", "custom:c": "project c"}}
		merged := Merge(user, project)
		assert.Equal(t, "user a", merged.Patterns["custom:a"])
		assert.Equal(t, "project b", merged.Patterns["custom:b"])
		assert.Equal(t, "project c", merged.Patterns["custom:c"])
	})
}

func TestServiceAddRemoveTrust(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.AddTrust("imports:*", false))
	require.NoError(t, svc.AddTrust("imports:*", false)) // duplicate ignored
	assert.Equal(t, []string{"imports:*"}, svc.TrustList())

	removed, err := svc.RemoveTrust("imports:*", false)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, svc.TrustList())

	removed, err = svc.RemoveTrust("imports:*", false)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestServiceProjectTier(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.AddTrust("imports:*", false))
	require.NoError(t, svc.AddTrust("tests:added", true))

	// Project tier has its own trust list, which wins in the merge.
	assert.Equal(t, []string{"tests:added"}, svc.TrustList())

	removed, err := svc.RemoveTrust("tests:added", true)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"imports:*"}, svc.TrustList())
}

func TestServiceAddCustomPattern(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.AddCustomPattern("generated-proto", "Generated protobuf code", true))
	require.NoError(t, svc.AddCustomPattern("custom:vendored", "Vendored dependency update", true))

	patterns := svc.CustomPatterns()
	assert.Equal(t, "Generated protobuf code", patterns["custom:generated-proto"])
	assert.Equal(t, "Vendored dependency update", patterns["custom:vendored"])
}

func TestServiceWithoutRepoRoot(t *testing.T) {
	svc := NewService("")
	svc.userPath = filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, svc.AddTrust("imports:*", false))
	assert.Error(t, svc.AddTrust("tests:added", true))
}
