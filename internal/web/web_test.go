package web

import (
	"testing"
)

func TestGradeClass(t *testing.T) {
	cases := map[string]string{
		"A - Excellent":         "grade-a",
		"F - Unsatisfactory":    "grade-f",
		"D - Needs Improvement": "grade-d",
		"":                      "grade-none",
	}
	for in, want := range cases {
		if got := GradeClass(in); got != want {
			t.Fatalf("GradeClass(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("  one\n two   three ", 100); got != "one two three" {
		t.Fatalf("unexpected excerpt %q", got)
	}
	if got := Excerpt("abcdef", 3); got != "abc…" {
		t.Fatalf("unexpected truncated excerpt %q", got)
	}
}

func TestEngineLoadsTemplates(t *testing.T) {
	if err := Engine().Load(); err != nil {
		t.Fatalf("templates failed to parse: %v", err)
	}
}
