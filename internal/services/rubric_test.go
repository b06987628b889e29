package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"alfredoptarigan/skill-evaluator/internal/models"
)

func TestGradeLevel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, "A - Excellent"},
		{90, "A - Excellent"},
		{89.9, "B - Good"},
		{80, "B - Good"},
		{70, "C - Satisfactory"},
		{60, "D - Needs Improvement"},
		{59.9, "F - Unsatisfactory"},
		{0, "F - Unsatisfactory"},
		{150, "A - Excellent"},
		{-5, "F - Unsatisfactory"},
	}

	for _, tc := range cases {
		if got := GradeLevel(tc.score); got != tc.want {
			t.Fatalf("GradeLevel(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestCategoryAssessment(t *testing.T) {
	cases := []struct {
		name       string
		score, max float64
		want       string
	}{
		{"Professional Tone", 18, 20, "Excellent Professional Tone (Score: 18/20, 90.0%)"},
		{"Content Relevance", 24, 30, "Good Content Relevance (Score: 24/30, 80.0%)"},
		{"Clarity & Communication", 7, 10, "Satisfactory Clarity & Communication (Score: 7/10, 70.0%)"},
		{"Technical Accuracy", 6.5, 10, "Needs improvement in Technical Accuracy (Score: 6.5/10, 65.0%)"},
		{"Keywords & Skills Match", 5, 25, "Unsatisfactory Keywords & Skills Match (Score: 5/25, 20.0%)"},
		{"Formatting & Presentation", 30, 25, "Excellent Formatting & Presentation (Score: 25/25, 100.0%)"},
		{"Broken", 5, 0, "N/A Broken"},
	}

	for _, tc := range cases {
		if got := CategoryAssessment(tc.name, tc.score, tc.max); got != tc.want {
			t.Fatalf("CategoryAssessment(%q, %v, %v) = %q, want %q", tc.name, tc.score, tc.max, got, tc.want)
		}
	}
}

func TestCategoryFeedbackBands(t *testing.T) {
	high := CategoryFeedbackFor(models.ModeResume, "formatting", 24, 25)
	if len(high.Strengths) != 2 || len(high.Improvements) != 0 {
		t.Fatalf("unexpected high band feedback: %+v", high)
	}

	for _, score := range []float64{8.5, 5, 0} {
		fb := CategoryFeedbackFor(models.ModeInterview, "clarity", score, 10)
		if len(fb.Strengths) == 0 || len(fb.Improvements) == 0 {
			t.Fatalf("expected strengths and improvements below 90%%, got %+v", fb)
		}
	}

	generic := CategoryFeedbackFor(models.ModeResume, "mystery", 3, 10)
	if generic.Strengths[0] != "Attempted to address mystery." || len(generic.Improvements) != 1 {
		t.Fatalf("unexpected generic feedback: %+v", generic)
	}
}

func TestFormatEvaluationResume(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	raw := &RawEvaluation{
		Scores: map[string]float64{"formatting": 20, "content": 24, "keywords": 30, "tone": -3},
		Engine: EngineHeuristic,
	}

	result, err := FormatEvaluation(models.ModeResume, raw, now)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if result.TotalScore != 69 {
		t.Fatalf("expected total 69 after clamping, got %v", result.TotalScore)
	}
	if result.LetterGrade != "D - Needs Improvement" {
		t.Fatalf("unexpected grade %q", result.LetterGrade)
	}
	if len(result.Categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(result.Categories))
	}
	if kw, _ := result.Category("keywords"); kw.Score != 25 || kw.Percent != 100 {
		t.Fatalf("keywords not clamped: %+v", kw)
	}
	if tone, _ := result.Category("tone"); tone.Score != 0 || len(tone.Improvements) == 0 {
		t.Fatalf("tone not clamped or missing improvements: %+v", tone)
	}
	want := "The strongest aspect is Keywords & Skills Match while Professional Tone needs the most attention."
	if !strings.HasSuffix(result.Summary, want) {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
	if result.ModeDisplayName != "Resume/CV Evaluator" || !result.EvaluatedAt.Equal(now) {
		t.Fatalf("unexpected metadata: %+v", result)
	}
}

func TestFormatEvaluationInterviewOverall(t *testing.T) {
	raw := &RawEvaluation{
		Scores:       map[string]float64{"clarity": 8, "relevance": 7, "accuracy": 9, "confidence": 6},
		Strengths:    []string{"Clear"},
		Improvements: []string{"Be bolder"},
		Summary:      "Solid answer.",
	}

	result, err := FormatEvaluation(models.ModeInterview, raw, time.Now())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if result.TotalScore != 75 {
		t.Fatalf("expected 30/40 -> 75, got %v", result.TotalScore)
	}
	if result.LetterGrade != "C - Satisfactory" {
		t.Fatalf("unexpected grade %q", result.LetterGrade)
	}
	if result.Summary != "Solid answer." {
		t.Fatalf("expected AI summary to be kept, got %q", result.Summary)
	}
	if !reflect.DeepEqual(result.Strengths, []string{"Clear"}) {
		t.Fatalf("unexpected strengths %v", result.Strengths)
	}
}

func TestFormatEvaluationPrefersAIFeedback(t *testing.T) {
	raw := &RawEvaluation{
		Scores: map[string]float64{"formatting": 10, "content": 10, "keywords": 10, "tone": 10},
		Feedback: map[string]CategoryFeedback{
			"content": {Strengths: []string{"Clear impact statements"}, Improvements: []string{"Add metrics"}},
		},
	}

	result, err := FormatEvaluation(models.ModeResume, raw, time.Now())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	content, _ := result.Category("content")
	if content.Strengths[0] != "Clear impact statements" {
		t.Fatalf("AI feedback ignored: %+v", content)
	}
	formatting, _ := result.Category("formatting")
	if formatting.Strengths[0] != "Basic contact info present." {
		t.Fatalf("expected canned feedback, got %+v", formatting)
	}
}

func TestFormatEvaluationErrors(t *testing.T) {
	if _, err := FormatEvaluation(models.ModeResume, &RawEvaluation{}, time.Now()); !errors.Is(err, ErrMissingScores) {
		t.Fatalf("expected missing scores, got %v", err)
	}
	if _, err := FormatEvaluation(models.ModeResume, nil, time.Now()); !errors.Is(err, ErrMissingScores) {
		t.Fatalf("expected missing scores for nil, got %v", err)
	}
	raw := &RawEvaluation{Scores: map[string]float64{"x": 1}}
	if _, err := FormatEvaluation("essay", raw, time.Now()); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected unknown mode, got %v", err)
	}
}

func TestFormatEvaluationIsDeterministic(t *testing.T) {
	now := time.Now()
	raw := &RawEvaluation{Scores: map[string]float64{"clarity": 5.55, "relevance": 3, "accuracy": 10, "confidence": 2}}

	a, err := FormatEvaluation(models.ModeInterview, raw, now)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	b, _ := FormatEvaluation(models.ModeInterview, raw, now)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("format is not deterministic")
	}
}

func TestOverallSummaryTiesPickFirstCategory(t *testing.T) {
	cfg, _ := GetModeConfig(models.ModeInterview)
	scores := map[string]float64{"clarity": 5, "relevance": 5, "accuracy": 5, "confidence": 5}

	got := OverallSummary(cfg, scores, 50)
	want := "This interview answer has significant issues that need addressing (F - Unsatisfactory). " +
		"The strongest aspect is Clarity & Communication while Clarity & Communication needs the most attention."
	if got != want {
		t.Fatalf("unexpected summary:\n%s\nwant:\n%s", got, want)
	}
}

func TestModes(t *testing.T) {
	modes := Modes()
	if len(modes) != 2 || modes[0].Mode != models.ModeResume || modes[1].Mode != models.ModeInterview {
		t.Fatalf("unexpected modes %+v", modes)
	}

	var sum float64
	for _, c := range modes[0].Categories {
		sum += c.MaxScore
	}
	if sum != 100 {
		t.Fatalf("resume maxima should sum to 100, got %v", sum)
	}
	if !reflect.DeepEqual(modes[1].QuestionCounts, []int{1, 3, 5, 10}) {
		t.Fatalf("unexpected question counts %v", modes[1].QuestionCounts)
	}
}
