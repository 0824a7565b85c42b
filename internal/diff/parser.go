// Package diff parses zero-context unified diff text into changed files
// and hunks, assigning each hunk a stable content-derived hash.
package diff

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/hunkreview/hunkreview/internal/domain"
)

// EntireFileHeader is the synthetic header used when a file's diff text has
// no hunk headers (binary files, mode-only changes).
const EntireFileHeader = "(entire file)"

// UntrackedHeader is the synthetic header used for untracked files.
const UntrackedHeader = "@@ -0,0 +1 @@ (new file)"

// git can use prefixes other than a/b (c/w, i/w) depending on config.
var filePattern = regexp.MustCompile(`(?m)^diff --git \w/(.+?) \w/(.+)$`)

var hunkPattern = regexp.MustCompile(`(?m)^@@\s+-(\d+)(?:,\d+)?\s+\+(\d+)(?:,(\d+))?\s+@@.*$`)

// HashContent fingerprints hunk content as the first 8 hex characters of
// its MD5. Identical bodies hash identically across files; that is
// intentional and treated as the same logical change.
func HashContent(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}

// FileStatus is an entry from a name-status listing.
type FileStatus struct {
	Status  string
	OldPath string
}

// ParseNameStatus parses `git diff --name-status` output into a map from
// destination path to status.
func ParseNameStatus(output string) map[string]FileStatus {
	result := map[string]FileStatus{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		code := parts[0]
		// Renames and copies list both paths: "R100\told\tnew".
		if (strings.HasPrefix(code, "R") || strings.HasPrefix(code, "C")) && len(parts) >= 3 {
			result[parts[2]] = FileStatus{Status: mapStatusCode(code), OldPath: parts[1]}
			continue
		}
		if len(parts) >= 2 {
			result[parts[1]] = FileStatus{Status: mapStatusCode(code)}
		}
	}
	return result
}

func mapStatusCode(code string) string {
	if code == "" {
		return domain.FileStatusModified
	}
	switch code[0] {
	case 'A':
		return domain.FileStatusAdded
	case 'D':
		return domain.FileStatusDeleted
	case 'R':
		return domain.FileStatusRenamed
	default:
		return domain.FileStatusModified
	}
}

// Parse splits raw unified diff output into ChangedFiles with hashed hunks.
// statuses may be nil; files absent from it default to "modified".
// Malformed sections are skipped rather than reported: this parser never
// fails on well-formed git output and does not validate provenance.
func Parse(diffOutput string, statuses map[string]FileStatus) []domain.ChangedFile {
	var files []domain.ChangedFile
	if strings.TrimSpace(diffOutput) == "" {
		return files
	}

	headers := filePattern.FindAllStringSubmatchIndex(diffOutput, -1)
	for i, m := range headers {
		// Destination (b/) path is the canonical identity; it is correct
		// for renames where the source path differs.
		bPath := diffOutput[m[4]:m[5]]

		contentStart := m[1]
		contentEnd := len(diffOutput)
		if i+1 < len(headers) {
			contentEnd = headers[i+1][0]
		}
		content := diffOutput[contentStart:contentEnd]

		hunks := parseHunks(bPath, content)
		if len(hunks) == 0 {
			continue
		}

		status := domain.FileStatusModified
		oldPath := ""
		if fs, ok := statuses[bPath]; ok {
			status = fs.Status
			oldPath = fs.OldPath
		}

		files = append(files, domain.ChangedFile{
			Path:    bPath,
			Status:  status,
			OldPath: oldPath,
			Hunks:   hunks,
		})
	}
	return files
}

func parseHunks(filePath, content string) []domain.DiffHunk {
	var hunks []domain.DiffHunk

	headers := hunkPattern.FindAllStringSubmatchIndex(content, -1)
	for i, m := range headers {
		header := content[m[0]:m[1]]
		startLine := mustAtoi(content[m[4]:m[5]])
		lineCount := 1
		if m[6] >= 0 {
			lineCount = mustAtoi(content[m[6]:m[7]])
		}

		end := len(content)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		// The hash covers only the body lines, not the @@ header, so a
		// hunk keeps its identity when unrelated earlier edits shift its
		// line numbers.
		body := strings.TrimSpace(content[m[1]:end])

		hunks = append(hunks, domain.DiffHunk{
			FilePath:  filePath,
			Hash:      HashContent(body),
			Header:    header,
			Content:   strings.TrimSpace(content[m[0]:end]),
			StartLine: startLine,
			EndLine:   startLine + lineCount - 1,
		})
	}

	// No hunk headers but non-empty content: binary file or mode-only
	// change. Represent it as a single whole-file hunk.
	if len(hunks) == 0 && strings.TrimSpace(content) != "" {
		hunks = append(hunks, domain.DiffHunk{
			FilePath:  filePath,
			Hash:      HashContent(content),
			Header:    EntireFileHeader,
			Content:   strings.TrimSpace(content),
			StartLine: 1,
			EndLine:   1,
		})
	}

	return hunks
}

// NewUntrackedHunk synthesizes the single hunk for an untracked file. When
// the content is unreadable or empty the hash falls back to a path-derived
// string so two different empty files never share an identity.
func NewUntrackedHunk(filePath, content string) domain.DiffHunk {
	hashInput := content
	if hashInput == "" {
		hashInput = "untracked:" + filePath
	}
	return domain.DiffHunk{
		FilePath:  filePath,
		Hash:      HashContent(hashInput),
		Header:    UntrackedHeader,
		Content:   "(untracked file)",
		StartLine: 1,
		EndLine:   1,
	}
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
