package services

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"alfredoptarigan/skill-evaluator/internal/models"
)

const strongResume = `Jane Doe
jane.doe@example.com | +1 555 123 4567

Summary
Backend engineer focused on reliable distributed systems.

Experience
- Led migration of 40 services to Kubernetes, reducing deploy time by 60%
- Built Go APIs serving 2M requests per day
- Designed PostgreSQL schemas and improved query latency by 35%
- Mentored 5 engineers and launched an internal platform

Education
B.Sc. Computer Science, 2018

Skills
Go, Python, SQL, Docker, Kubernetes, AWS, PostgreSQL`

const weakResume = `i did stuff at my job and things were cool. i was responsible for helping people lol`

func total(t *testing.T, mode models.Mode, scores map[string]float64) float64 {
	t.Helper()
	result, err := FormatEvaluation(mode, &RawEvaluation{Scores: scores}, time.Now())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	return result.TotalScore
}

func TestScoreResumeRanksStrongAboveWeak(t *testing.T) {
	strong := total(t, models.ModeResume, ScoreResume(strongResume, ""))
	weak := total(t, models.ModeResume, ScoreResume(weakResume, ""))

	if strong < 70 {
		t.Fatalf("expected strong resume to score at least 70, got %v", strong)
	}
	if weak > 50 {
		t.Fatalf("expected weak resume to score at most 50, got %v", weak)
	}
}

func TestScoreResumeStaysWithinMaxima(t *testing.T) {
	cfg, _ := GetModeConfig(models.ModeResume)
	for _, text := range []string{strongResume, weakResume, strings.Repeat("Led and delivered 100% growth. ", 500)} {
		scores := ScoreResume(text, "golang kubernetes")
		for _, c := range cfg.Categories {
			if s := scores[c.Key]; s < 0 || s > c.MaxScore {
				t.Fatalf("%s score %v out of range [0,%v]", c.Key, s, c.MaxScore)
			}
		}
	}
}

func TestScoreResumeEmpty(t *testing.T) {
	scores := ScoreResume("   ", "anything")
	for key, s := range scores {
		if s != 0 {
			t.Fatalf("expected zero %s for empty resume, got %v", key, s)
		}
	}
	if len(scores) != 4 {
		t.Fatalf("expected all four categories, got %v", scores)
	}
}

func TestScoreResumeRewardsJobDescriptionKeywords(t *testing.T) {
	jd := "We need a backend engineer with Kubernetes, PostgreSQL and Docker experience building microservices."

	matching := ScoreResume(strongResume+"\nmicroservices backend engineer", jd)
	missing := ScoreResume("Experience\n- Managed retail store inventory and staff schedules", jd)

	if matching["keywords"] <= missing["keywords"] {
		t.Fatalf("expected keyword coverage to raise the score: %v vs %v", matching["keywords"], missing["keywords"])
	}
}

func TestScoreResumeIsDeterministic(t *testing.T) {
	a := ScoreResume(strongResume, "go kubernetes")
	b := ScoreResume(strongResume, "go kubernetes")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("scores differ between runs: %v vs %v", a, b)
	}
}

const starAnswer = `In my last role the situation was a failing payment service. My task was to restore reliability before the holiday peak.
First I added tracing to find the slow database calls, then I implemented connection pooling and designed a retry policy.
As a result, error rates dropped by 80% and checkout latency improved from 900ms to 250ms.
I led the rollout and owned the postmortem, so the team adopted the same approach for other services.`

const hedgyAnswer = `um maybe i think i probably would like sort of try something, i guess, not sure`

func TestScoreInterviewRanksStructuredAboveHedgy(t *testing.T) {
	q := "Tell me about a time you improved the reliability of a service."
	strong := total(t, models.ModeInterview, ScoreInterview(q, starAnswer, "backend reliability payment services", "Backend Engineer"))
	weak := total(t, models.ModeInterview, ScoreInterview(q, hedgyAnswer, "backend reliability payment services", "Backend Engineer"))

	if strong <= weak {
		t.Fatalf("expected structured answer above hedgy answer: %v vs %v", strong, weak)
	}
	if weak >= 50 {
		t.Fatalf("expected hedgy answer below 50, got %v", weak)
	}
}

func TestScoreInterviewEmptyAnswer(t *testing.T) {
	scores := ScoreInterview("Why us?", "  ", "", "")
	if InterviewOverall(scores) != 0 {
		t.Fatalf("expected zero overall, got %v", scores)
	}
}

func TestInterviewOverall(t *testing.T) {
	cases := []struct {
		scores map[string]float64
		want   float64
	}{
		{map[string]float64{"clarity": 8, "relevance": 7, "accuracy": 9, "confidence": 6}, 75},
		{map[string]float64{"clarity": 10, "relevance": 10, "accuracy": 10, "confidence": 10}, 100},
		{map[string]float64{"clarity": 3, "relevance": 0, "accuracy": 0, "confidence": 0}, 7.5},
		{map[string]float64{}, 0},
	}
	for _, tc := range cases {
		if got := InterviewOverall(tc.scores); got != tc.want {
			t.Fatalf("InterviewOverall(%v) = %v, want %v", tc.scores, got, tc.want)
		}
	}
}

func TestInterviewFeedbackBands(t *testing.T) {
	scores := map[string]float64{"clarity": 8, "relevance": 7, "accuracy": 5, "confidence": 9}
	strengths, improvements := interviewFeedback(scores, "short answer")

	wantStrengths := []string{
		"Clear and well-structured response",
		"Response is mostly on-topic",
		"Professional and confident delivery",
	}
	if !reflect.DeepEqual(strengths, wantStrengths) {
		t.Fatalf("unexpected strengths %v", strengths)
	}
	wantImprovements := []string{
		"Add more specific technical details or examples",
		"Provide more detailed examples using the STAR method",
		"Consider adding quantifiable achievements or results",
	}
	if !reflect.DeepEqual(improvements, wantImprovements) {
		t.Fatalf("unexpected improvements %v", improvements)
	}
}

func TestHeuristicEngineInterview(t *testing.T) {
	raw, err := NewHeuristicEngine().EvaluateInterview(context.Background(), models.InterviewSubmission{
		Question: "Describe a challenge.",
		Answer:   starAnswer,
		JobRole:  "Site Reliability Engineer",
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if raw.Engine != EngineHeuristic {
		t.Fatalf("unexpected engine %q", raw.Engine)
	}
	if !strings.Contains(raw.SampleImprovedAnswer, "In my role as a Site Reliability Engineer") {
		t.Fatalf("sample answer not templated on role: %q", raw.SampleImprovedAnswer)
	}
}

func TestPickQuestions(t *testing.T) {
	first := PickQuestions("Data Analyst", "hard", 5)
	second := PickQuestions("Data Analyst", "hard", 5)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("question selection is not deterministic")
	}
	if len(first) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(first))
	}

	seen := map[string]bool{}
	for _, q := range first {
		if strings.Contains(q, "%s") {
			t.Fatalf("role not interpolated: %q", q)
		}
		if seen[q] {
			t.Fatalf("duplicate question %q", q)
		}
		seen[q] = true
	}

	if got := len(PickQuestions("Nurse", "easy", 0)); got != DefaultQuestionCount {
		t.Fatalf("expected default count, got %d", got)
	}
	if got := len(PickQuestions("Nurse", "easy", 50)); got != len(questionPools["easy"]) {
		t.Fatalf("expected count clamped to pool size, got %d", got)
	}
}

func TestPickQuestionsUnknownLevelUsesMedium(t *testing.T) {
	medium := map[string]bool{}
	for _, q := range questionPools["medium"] {
		medium[strings.ReplaceAll(q, "%s", "Chef")] = true
	}

	for _, q := range PickQuestions("Chef", "impossible", 8) {
		if !medium[q] {
			t.Fatalf("question %q not from the medium pool", q)
		}
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	cases := map[string]string{"EASY": "easy", " hard ": "hard", "": "medium", "expert": "medium"}
	for in, want := range cases {
		if got := NormalizeDifficulty(in); got != want {
			t.Fatalf("NormalizeDifficulty(%q) = %q, want %q", in, got, want)
		}
	}
}
