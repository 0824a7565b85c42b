// Package taxonomy defines the fixed registry of trust patterns: named
// categories of mechanical, patterned change that can be blanket-approved
// by glob. The registry is built once at startup and never mutated; custom
// patterns (custom:*) are valid identifiers without being registered.
package taxonomy

import (
	"path"
	"strings"
)

// Pattern is a registry entry for one recognized kind of mechanical change.
type Pattern struct {
	ID          string
	Description string
}

// CustomPrefix is the namespace reserved for user-defined patterns.
const CustomPrefix = "custom:"

var patterns = []Pattern{
	{"imports:added", "Import statements added"},
	{"imports:removed", "Import statements removed"},
	{"imports:reordered", "Imports reordered/reorganized"},

	{"formatting:whitespace", "Whitespace changes (spaces, tabs, blank lines)"},
	{"formatting:line-length", "Line wrapping/length changes"},
	{"formatting:style", "Code style (quotes, trailing commas, etc.)"},

	{"comments:added", "Comments added"},
	{"comments:removed", "Comments removed"},
	{"comments:modified", "Comments changed"},

	{"types:added", "Type annotations added (no logic change)"},
	{"types:removed", "Type annotations removed"},
	{"types:modified", "Type annotations changed"},

	{"file:deleted", "File deleted entirely"},
	{"file:renamed", "File renamed (content unchanged)"},
	{"file:moved", "File moved to different directory"},

	{"code:relocated", "Code relocated with no behavior change (reordering, not new class/scope)"},
	{"rename:variable", "Variable/constant renamed"},
	{"rename:function", "Function renamed"},
	{"rename:class", "Class renamed"},
	{"rename:parameter", "Parameter renamed"},

	{"generated:lockfile", "Package lock file (package-lock.json, go.sum, etc.)"},
	{"generated:config", "Auto-generated configuration"},
	{"generated:migration", "Database migration files"},
	{"version:bumped", "Version number changed"},

	{"remove:deprecated", "Deprecated code removed"},
}

var byID = func() map[string]Pattern {
	m := make(map[string]Pattern, len(patterns))
	for _, p := range patterns {
		m[p.ID] = p
	}
	return m
}()

// All returns every registered pattern in declaration order.
func All() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// IsValid reports whether id is registered or lives in the custom namespace.
func IsValid(id string) bool {
	if _, ok := byID[id]; ok {
		return true
	}
	return strings.HasPrefix(id, CustomPrefix)
}

// Category returns the part of a pattern id before the colon.
func Category(id string) string {
	cat, _, ok := strings.Cut(id, ":")
	if !ok {
		return id
	}
	return cat
}

// Describe returns a human-readable description for any valid pattern id.
func Describe(id string) string {
	if p, ok := byID[id]; ok {
		return p.Description
	}
	if strings.HasPrefix(id, CustomPrefix) {
		return "Custom pattern: " + strings.TrimPrefix(id, CustomPrefix)
	}
	return id
}

// MatchesGlob applies shell-glob semantics (*, ?, [...]) to a pattern id.
// Pattern ids never contain path separators, so path.Match is an exact
// fnmatch. A malformed glob matches nothing.
func MatchesGlob(id, glob string) bool {
	ok, err := path.Match(glob, id)
	return err == nil && ok
}

// AllTrusted reports whether every id in labels matches at least one glob
// in trustGlobs, along with the ids that matched none. An empty label list
// is never trusted: absence of classification always needs human attention.
func AllTrusted(labels, trustGlobs []string) (bool, []string) {
	if len(labels) == 0 {
		return false, []string{}
	}
	untrusted := []string{}
	for _, label := range labels {
		matched := false
		for _, glob := range trustGlobs {
			if MatchesGlob(label, glob) {
				matched = true
				break
			}
		}
		if !matched {
			untrusted = append(untrusted, label)
		}
	}
	return len(untrusted) == 0, untrusted
}
