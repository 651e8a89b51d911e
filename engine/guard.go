// guard.go screens generated SQL before it reaches a backend.
//
// The analysis pipeline only ever reads data, so any mutating statement is
// rejected up front. Violations are KindSyntax: the corrector can usually
// rewrite its way out of them.
package engine

import (
	"regexp"
	"strings"
)

var forbiddenStatements = []string{"DROP", "TRUNCATE", "INSERT", "DELETE", "UPDATE", "ALTER", "GRANT"}

// analyticalKeywords must appear in statements sent to the warehouse
// engine: unbounded row-by-row scans are exactly what a distributed
// backend is worst at serving interactively.
var analyticalKeywords = []string{"COUNT", "SUM", "AVG", "MIN", "MAX", "GROUP BY", "LIMIT"}

var wordPattern = map[string]*regexp.Regexp{}

func init() {
	for _, w := range forbiddenStatements {
		wordPattern[w] = regexp.MustCompile(`(?i)\b` + w + `\b`)
	}
	for _, w := range analyticalKeywords {
		wordPattern[w] = regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(w, " ", `\s+`) + `\b`)
	}
}

// CheckStatement rejects SQL containing a mutating keyword. Matching is on
// word boundaries so column names like updated_at pass.
func CheckStatement(engineName, sql string) *Error {
	for _, w := range forbiddenStatements {
		if wordPattern[w].MatchString(sql) {
			return NewError(KindSyntax, engineName, "forbidden statement keyword "+w+" (read-only analysis)")
		}
	}
	return nil
}

// CheckAnalytical requires an aggregation or LIMIT clause. Applied only by
// engines whose full scans are expensive enough to guard against.
func CheckAnalytical(engineName, sql string) *Error {
	for _, w := range analyticalKeywords {
		if wordPattern[w].MatchString(sql) {
			return nil
		}
	}
	return NewError(KindSyntax, engineName, "statement needs an aggregation or LIMIT clause")
}
