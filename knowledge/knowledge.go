// Package knowledge maintains the agent's error/pattern knowledge base:
// known failure cases with their fixes, reusable SQL patterns, and
// free-form domain notes, persisted as JSON under ~/.sqlsage.
//
// Design decisions:
//   - Case lookup ranks by normalized Levenshtein similarity with a
//     substring shortcut, cut off at 0.3. Error text varies too much
//     for exact matching and too little for anything heavier.
//   - Every successful correction is recorded back, so the base grows
//     with use.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Case is one known failure with its fix.
type Case struct {
	Error     string `json:"error"`
	FailedSQL string `json:"failed_sql,omitempty"`
	Fix       string `json:"fix"`
	Note      string `json:"note,omitempty"`
}

// Pattern is a reusable SQL shape for a class of questions.
type Pattern struct {
	Kind     string `json:"kind"`
	Template string `json:"template"`
}

type document struct {
	CommonErrors []Case            `json:"common_errors"`
	SQLPatterns  []Pattern         `json:"sql_patterns"`
	DomainNotes  []string          `json:"domain_notes"`
	SchemaDocs   map[string]string `json:"schema_docs"`
}

// Base is the loaded knowledge base bound to its file.
type Base struct {
	path string

	mu  sync.RWMutex
	doc document
}

const minSimilarity = 0.3

// Load reads the knowledge file, seeding a starter base when the file
// does not exist yet.
func Load(path string) (*Base, error) {
	b := &Base{path: path, doc: seedDocument()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}
	if doc.SchemaDocs == nil {
		doc.SchemaDocs = map[string]string{}
	}
	b.doc = doc
	return b, nil
}

// seedDocument is the starter content for a fresh install.
func seedDocument() document {
	return document{
		CommonErrors: []Case{
			{
				Error: "no such table",
				Fix:   "Check the schema listing for the exact table name; engines do not share namespaces.",
			},
			{
				Error: "no such column",
				Fix:   "Use only columns from the schema listing; aliases defined in SELECT cannot be used in WHERE.",
			},
			{
				Error: "syntax error near LIMIT",
				Fix:   "LIMIT takes a bare integer and comes last: SELECT ... ORDER BY x LIMIT 10.",
			},
			{
				Error: "aggregate functions are not allowed in WHERE",
				Fix:   "Move aggregate conditions into HAVING after GROUP BY.",
			},
		},
		SQLPatterns: []Pattern{
			{Kind: "top_n", Template: "SELECT {col}, COUNT(*) AS n FROM {table} GROUP BY {col} ORDER BY n DESC LIMIT {n}"},
			{Kind: "time_series", Template: "SELECT {date_col}, SUM({val_col}) FROM {table} GROUP BY {date_col} ORDER BY {date_col}"},
			{Kind: "distribution", Template: "SELECT {col}, COUNT(*) FROM {table} GROUP BY {col} ORDER BY COUNT(*) DESC"},
		},
		DomainNotes: nil,
		SchemaDocs:  map[string]string{},
	}
}

// Search returns up to k cases whose error text resembles query,
// best match first.
func (b *Base) Search(query string, k int) []Case {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || k <= 0 {
		return nil
	}

	type scored struct {
		c   Case
		sim float64
	}
	var matches []scored
	for _, c := range b.doc.CommonErrors {
		target := strings.ToLower(c.Error)
		if target == "" {
			continue
		}
		sim := similarity(q, target)
		if sim >= minSimilarity {
			matches = append(matches, scored{c: c, sim: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].sim > matches[j].sim
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	out := make([]Case, len(matches))
	for i, m := range matches {
		out[i] = m.c
	}
	return out
}

// similarity scores two lowercased strings in [0,1]. Containment short-
// circuits high: a short query inside a long stored error is a strong
// match that edit distance alone would punish.
func similarity(a, bs string) float64 {
	if a == bs {
		return 1
	}
	if strings.Contains(a, bs) || strings.Contains(bs, a) {
		return 0.9
	}
	dist := fuzzy.LevenshteinDistance(a, bs)
	longest := len([]rune(a))
	if l := len([]rune(bs)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// RecordSolution stores a fix that worked and saves the base. Duplicate
// error/fix pairs are dropped.
func (b *Base) RecordSolution(errText, failedSQL, fix string) error {
	errText = strings.TrimSpace(errText)
	fix = strings.TrimSpace(fix)
	if errText == "" || fix == "" {
		return nil
	}

	b.mu.Lock()
	for _, c := range b.doc.CommonErrors {
		if strings.EqualFold(c.Error, errText) && c.Fix == fix {
			b.mu.Unlock()
			return nil
		}
	}
	b.doc.CommonErrors = append(b.doc.CommonErrors, Case{
		Error:     errText,
		FailedSQL: failedSQL,
		Fix:       fix,
		Note:      "recorded from a successful correction",
	})
	b.mu.Unlock()

	return b.Save()
}

// AddNote appends a domain note and saves.
func (b *Base) AddNote(note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	b.mu.Lock()
	b.doc.DomainNotes = append(b.doc.DomainNotes, note)
	b.mu.Unlock()
	return b.Save()
}

// Cases returns a copy of all known cases.
func (b *Base) Cases() []Case {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Case, len(b.doc.CommonErrors))
	copy(out, b.doc.CommonErrors)
	return out
}

// Patterns returns templates matching kind, or all templates when kind
// is empty.
func (b *Base) Patterns(kind string) []Pattern {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Pattern
	for _, p := range b.doc.SQLPatterns {
		if kind == "" || strings.EqualFold(p.Kind, kind) {
			out = append(out, p)
		}
	}
	return out
}

// Notes returns a copy of the domain notes.
func (b *Base) Notes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.doc.DomainNotes))
	copy(out, b.doc.DomainNotes)
	return out
}

// Save writes the base back to its file.
func (b *Base) Save() error {
	b.mu.RLock()
	data, err := json.MarshalIndent(b.doc, "", "  ")
	b.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0600)
}
