package services

import (
	"strings"
	"testing"
)

func TestFormatReferenceContext(t *testing.T) {
	if got := FormatReferenceContext(nil); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}

	got := FormatReferenceContext([]SearchResult{
		{DocType: DocTypeResumeRubric, Score: 0.91, Text: "  Use bullet points.  "},
		{DocType: DocTypeJobDescription, Score: 0.5, Text: "Go backend role"},
	})

	want := "--- Reference 1 [resume_rubric] (score 0.91) ---\nUse bullet points.\n\n" +
		"--- Reference 2 [job_description] (score 0.50) ---\nGo backend role"
	if got != want {
		t.Fatalf("unexpected context:\n%s\nwant:\n%s", got, want)
	}
}

func TestValidDocType(t *testing.T) {
	for _, d := range DocTypes {
		if !ValidDocType(d) {
			t.Fatalf("expected %q to be valid", d)
		}
	}
	for _, d := range []string{"", "resume", strings.ToUpper(DocTypeSampleAnswer)} {
		if ValidDocType(d) {
			t.Fatalf("expected %q to be invalid", d)
		}
	}
}

func TestNewKnowledgeBaseRejectsBadURL(t *testing.T) {
	for _, u := range []string{"::bad", "localhost"} {
		if _, err := NewKnowledgeBase(u, "", "refs", nil, nil); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}
