package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/repositories"
)

type failingEngine struct{}

func (failingEngine) Name() string { return "broken" }

func (failingEngine) EvaluateResume(context.Context, models.ResumeSubmission) (*RawEvaluation, error) {
	return nil, errors.New("engine down")
}

func (failingEngine) EvaluateInterview(context.Context, models.InterviewSubmission) (*RawEvaluation, error) {
	return nil, errors.New("engine down")
}

func (failingEngine) GenerateQuestions(context.Context, models.QuestionRequest) ([]string, error) {
	return nil, errors.New("engine down")
}

func newTestEvaluator(t *testing.T, engine AIEngine) EvaluatorService {
	t.Helper()

	history, err := repositories.NewJSONEvaluationRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("history repo: %v", err)
	}
	storage := NewStorageService(t.TempDir())
	return NewEvaluatorService(history, engine, NewDocumentParser(5*1024*1024), storage, nil)
}

func TestEvaluateResumeFromUpload(t *testing.T) {
	ctx := context.Background()
	ev := newTestEvaluator(t, nil)
	meta := RecordMeta{UserID: "user-1", SessionID: uuid.NewString()}

	sub, err := ev.PrepareResume(meta, "resume.docx", buildDOCX(t, docxBody), "  Go engineer  ")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.InputRef == "" || sub.JobDescription != "Go engineer" {
		t.Fatalf("unexpected submission %+v", sub)
	}

	rec, err := ev.EvaluateResume(ctx, meta, sub)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rec.ID == uuid.Nil || rec.Mode != models.ModeResume || rec.Filename != "resume.docx" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Result.Engine != EngineHeuristic || len(rec.Result.Categories) != 4 {
		t.Fatalf("unexpected result %+v", rec.Result)
	}

	history, err := ev.History(ctx, "user-1")
	if err != nil || len(history) != 1 || history[0].ID != rec.ID {
		t.Fatalf("record not in history: %v, %v", history, err)
	}
	if got, err := ev.Record(ctx, rec.ID); err != nil || got.SessionID != meta.SessionID {
		t.Fatalf("record lookup failed: %+v, %v", got, err)
	}
}

func TestEvaluateResumeRejectsEmptyText(t *testing.T) {
	ev := newTestEvaluator(t, nil)
	_, err := ev.EvaluateResume(context.Background(), RecordMeta{UserID: "u"}, models.ResumeSubmission{ResumeText: " "})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected empty document error, got %v", err)
	}
}

func TestEvaluateInterview(t *testing.T) {
	ctx := context.Background()
	ev := newTestEvaluator(t, nil)
	id := uuid.New()

	rec, err := ev.EvaluateInterview(ctx, RecordMeta{ID: id, UserID: "user-1"}, models.InterviewSubmission{
		Question: " Tell me about a hard problem. ", Answer: starAnswer, JobRole: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rec.ID != id || rec.Question != "Tell me about a hard problem." {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Result.SampleImprovedAnswer == "" || rec.Result.TotalScore <= 0 {
		t.Fatalf("interview result incomplete: %+v", rec.Result)
	}

	_, err = ev.EvaluateInterview(ctx, RecordMeta{UserID: "user-1"}, models.InterviewSubmission{Question: "Q", Answer: "  "})
	if !errors.Is(err, ErrInterviewFields) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
}

func TestEvaluatorFallsBackWhenEngineFails(t *testing.T) {
	ev := newTestEvaluator(t, failingEngine{})

	rec, err := ev.EvaluateInterview(context.Background(), RecordMeta{UserID: "u"}, models.InterviewSubmission{
		Question: "Why us?", Answer: starAnswer,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rec.Result.Engine != EngineHeuristicFallback {
		t.Fatalf("expected fallback engine, got %q", rec.Result.Engine)
	}

	set, err := ev.GenerateQuestions(context.Background(), models.QuestionRequest{JobRole: "Analyst", NumberOfQuestions: 2})
	if err != nil || len(set.Questions) != 2 {
		t.Fatalf("expected pool questions, got %+v, %v", set, err)
	}
}

func TestGenerateQuestionsValidation(t *testing.T) {
	ev := newTestEvaluator(t, nil)
	ctx := context.Background()

	if _, err := ev.GenerateQuestions(ctx, models.QuestionRequest{JobRole: "  "}); !errors.Is(err, ErrJobRoleRequired) {
		t.Fatalf("expected job role error, got %v", err)
	}

	set, err := ev.GenerateQuestions(ctx, models.QuestionRequest{JobRole: "Nurse", NumberOfQuestions: 50})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if set.Mode != "question_generation" || len(set.Questions) != MaxQuestionCount {
		t.Fatalf("expected %d questions, got %+v", MaxQuestionCount, set)
	}

	set, err = ev.GenerateQuestions(ctx, models.QuestionRequest{JobRole: "Nurse"})
	if err != nil || len(set.Questions) != DefaultQuestionCount {
		t.Fatalf("expected default count, got %+v, %v", set, err)
	}
}

func TestEvaluatorStampsRecordTime(t *testing.T) {
	ev := newTestEvaluator(t, nil).(*evaluatorService)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev.now = func() time.Time { return fixed }

	rec, err := ev.EvaluateInterview(context.Background(), RecordMeta{UserID: "u"}, models.InterviewSubmission{
		Question: "Q?", Answer: "A short answer.",
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !rec.CreatedAt.Equal(fixed) || !rec.Result.EvaluatedAt.Equal(fixed) {
		t.Fatalf("expected timestamps %v, got %v / %v", fixed, rec.CreatedAt, rec.Result.EvaluatedAt)
	}
}
