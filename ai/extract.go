// extract.go digs structured payloads out of model replies, which wrap
// them in markdown fences and prose no matter how firmly told not to.
package ai

import (
	"regexp"
	"strings"
)

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// ExtractJSON returns the JSON object embedded in a reply: a fenced
// block when present, otherwise the outermost brace pair. Returns ""
// when no object can be found.
func ExtractJSON(reply string) string {
	if i := strings.Index(reply, "```"); i >= 0 {
		rest := reply[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if j := strings.Index(rest, "```"); j >= 0 {
			if candidate := strings.TrimSpace(rest[:j]); strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(reply[start : end+1])
	}
	return ""
}

// CleanSQL normalizes a generated statement: fences and comments are
// stripped, whitespace is collapsed to single spaces, and any trailing
// semicolon is dropped. Returns "" when nothing statement-like is left.
func CleanSQL(reply string) string {
	s := reply

	// Take the fenced block when the reply wraps one in prose.
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "sql")
		rest = strings.TrimPrefix(rest, "SQL")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		} else {
			s = rest
		}
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	s = strings.Join(lines, "\n")

	s = blockCommentRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}
