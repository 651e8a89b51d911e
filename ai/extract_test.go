package ai

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"goal": "count orders"}`,
			want:  `{"goal": "count orders"}`,
		},
		{
			name:  "fenced json block",
			input: "Here is the plan:\n```json\n{\"goal\": \"x\"}\n```\ndone",
			want:  `{"goal": "x"}`,
		},
		{
			name:  "fenced without language tag",
			input: "```\n{\"goal\": \"y\"}\n```",
			want:  `{"goal": "y"}`,
		},
		{
			name:  "object embedded in prose",
			input: `Sure! The plan is {"goal": "z", "steps": []} as requested.`,
			want:  `{"goal": "z", "steps": []}`,
		},
		{
			name:  "nested braces",
			input: `prefix {"a": {"b": 1}} suffix`,
			want:  `{"a": {"b": 1}}`,
		},
		{
			name:  "no json at all",
			input: "I cannot answer that.",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain statement",
			input: "SELECT count(*) FROM orders",
			want:  "SELECT count(*) FROM orders",
		},
		{
			name:  "fenced sql block",
			input: "Here you go:\n```sql\nSELECT 1\n```",
			want:  "SELECT 1",
		},
		{
			name:  "fenced without tag",
			input: "```\nSELECT 2\n```",
			want:  "SELECT 2",
		},
		{
			name:  "strips line comments",
			input: "-- count them\nSELECT count(*) FROM t -- trailing",
			want:  "SELECT count(*) FROM t",
		},
		{
			name:  "strips block comments",
			input: "SELECT /* inline note */ count(*) FROM t",
			want:  "SELECT count(*) FROM t",
		},
		{
			name:  "collapses whitespace",
			input: "SELECT\n\tid,\n\tname\nFROM users\nLIMIT 5",
			want:  "SELECT id, name FROM users LIMIT 5",
		},
		{
			name:  "trailing semicolon removed",
			input: "SELECT 1;",
			want:  "SELECT 1",
		},
		{
			name:  "empty reply",
			input: "",
			want:  "",
		},
		{
			name:  "comment only",
			input: "-- nothing here",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanSQL(tt.input)
			if got != tt.want {
				t.Errorf("CleanSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
