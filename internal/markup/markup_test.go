package markup

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestToHTML
// ---------------------------------------------------------------------------

func TestToHTML(t *testing.T) {
	t.Parallel()

	c := New()

	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			src:      "Draw **three** apples",
			contains: []string{"<strong>three</strong>"},
		},
		{
			name:     "hard wraps",
			src:      "line one\nline two",
			contains: []string{"<br />"},
		},
		{
			name:     "raw html dropped",
			src:      "<script>alert(1)</script>hello",
			excludes: []string{"<script>"},
		},
		{
			name:     "task list",
			src:      "- [x] done\n- [ ] todo",
			contains: []string{`type="checkbox"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.ToHTML(tt.src)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML(%q) = %q, missing %q", tt.src, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("ToHTML(%q) = %q, must not contain %q", tt.src, got, bad)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestToPlain
// ---------------------------------------------------------------------------

func TestToPlain(t *testing.T) {
	t.Parallel()

	c := New()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain passthrough", "Hello world", "Hello world"},
		{"emphasis stripped", "Draw **three** _red_ apples", "Draw three red apples"},
		{"soft break becomes space", "one\ntwo", "one two"},
		{"paragraphs", "first\n\nsecond", "first\nsecond"},
		{"heading", "# Title\n\nbody", "Title\nbody"},
		{"bullets", "- a\n- b", Bullet + "a\n" + Bullet + "b"},
		{"link text kept", "see [docs](http://x.y)", "see docs"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := c.ToPlain(tt.src); got != tt.want {
				t.Errorf("ToPlain(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}
