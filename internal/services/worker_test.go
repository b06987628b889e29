package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/skill-evaluator/internal/models"
)

func waitForStatus(t *testing.T, w Worker, id uuid.UUID, want models.JobStatus) models.EvaluationJob {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := w.Job(id); ok && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return models.EvaluationJob{}
}

func TestWorkerCompletesInterviewJob(t *testing.T) {
	ev := newTestEvaluator(t, nil)
	w := NewWorker(ev, WorkerOptions{Concurrency: 2, QueueSize: 4, JobTimeout: time.Second}, nil)
	w.Start(context.Background())
	defer w.Stop()

	job := &models.EvaluationJob{
		UserID: "user-1",
		Mode:   models.ModeInterview,
		Interview: &models.InterviewSubmission{
			Question: "Describe a challenge.", Answer: starAnswer,
		},
	}
	if err := w.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.ID == uuid.Nil {
		t.Fatalf("submit must assign an id")
	}

	done := waitForStatus(t, w, job.ID, models.StatusCompleted)
	if done.Interview != nil {
		t.Fatalf("job snapshots must not expose inputs")
	}

	rec, err := ev.Record(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("record for job not saved: %v", err)
	}
	if rec.UserID != "user-1" || rec.Mode != models.ModeInterview {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestWorkerMarksInvalidJobFailed(t *testing.T) {
	w := NewWorker(newTestEvaluator(t, nil), WorkerOptions{}, nil)
	w.Start(context.Background())
	defer w.Stop()

	job := &models.EvaluationJob{UserID: "u", Mode: models.ModeInterview, Interview: &models.InterviewSubmission{Question: "Q"}}
	if err := w.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	failed := waitForStatus(t, w, job.ID, models.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatalf("failed job must carry an error message")
	}
}

func TestWorkerQueueFullAndStopped(t *testing.T) {
	w := NewWorker(newTestEvaluator(t, nil), WorkerOptions{QueueSize: 1}, nil)

	// not started, so the single slot stays occupied
	first := &models.EvaluationJob{Mode: models.ModeInterview}
	if err := w.Submit(first); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := &models.EvaluationJob{Mode: models.ModeInterview}
	if err := w.Submit(second); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected queue full, got %v", err)
	}
	if _, ok := w.Job(second.ID); ok {
		t.Fatalf("rejected job must not be tracked")
	}

	w.Stop()
	if err := w.Submit(&models.EvaluationJob{Mode: models.ModeInterview}); !errors.Is(err, ErrWorkerStopped) {
		t.Fatalf("expected worker stopped, got %v", err)
	}
}
