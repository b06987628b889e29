package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
)

var (
	ErrQueueFull     = errors.New("evaluation queue is full, try again later")
	ErrWorkerStopped = errors.New("evaluation worker is stopped")
)

// Worker runs JSON API evaluations in the background. Job states live in memory only;
// records written by finished jobs stay in the history store.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	Submit(job *models.EvaluationJob) error
	Job(id uuid.UUID) (models.EvaluationJob, bool)
}

type WorkerOptions struct {
	Concurrency int
	QueueSize   int
	JobTimeout  time.Duration
	// Finished jobs are forgotten after Retention.
	Retention time.Duration
}

type worker struct {
	evaluator EvaluatorService
	opts      WorkerOptions
	jobQueue  chan uuid.UUID
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	log       *zap.Logger

	mu   sync.RWMutex
	jobs map[uuid.UUID]*models.EvaluationJob
}

func NewWorker(evaluator EvaluatorService, opts WorkerOptions, log *zap.Logger) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}

	return &worker{
		evaluator: evaluator,
		opts:      opts,
		jobQueue:  make(chan uuid.UUID, opts.QueueSize),
		stopChan:  make(chan struct{}),
		jobs:      make(map[uuid.UUID]*models.EvaluationJob),
		log:       logger.OrNop(log),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("🚀 Starting worker", zap.Int("concurrency", w.opts.Concurrency))

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pruneFinishedJobs()

	w.log.Info("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("✅ Worker stopped")
	})
}

// Submit implements Worker.
func (w *worker) Submit(job *models.EvaluationJob) error {
	select {
	case <-w.stopChan:
		return ErrWorkerStopped
	default:
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now().UTC()
	job.Status = models.StatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now

	w.mu.Lock()
	w.jobs[job.ID] = job
	w.mu.Unlock()

	select {
	case w.jobQueue <- job.ID:
		w.log.Info("📥 Job enqueued", zap.String("job_id", job.ID.String()), zap.String("mode", string(job.Mode)))
		return nil
	default:
		w.mu.Lock()
		delete(w.jobs, job.ID)
		w.mu.Unlock()
		return ErrQueueFull
	}
}

// Job returns a snapshot of the job without its submitted inputs.
func (w *worker) Job(id uuid.UUID) (models.EvaluationJob, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	job, ok := w.jobs[id]
	if !ok {
		return models.EvaluationJob{}, false
	}
	snapshot := *job
	snapshot.Resume = nil
	snapshot.Interview = nil
	return snapshot, true
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.log.Debug("👷 Worker stopped", zap.Int("worker", workerID))
			return
		case <-ctx.Done():
			return
		case id := <-w.jobQueue:
			w.log.Info("👷 Processing job", zap.Int("worker", workerID), zap.String("job_id", id.String()))
			if err := w.run(ctx, id); err != nil {
				w.log.Error("❌ Job failed", zap.Int("worker", workerID), zap.String("job_id", id.String()), zap.Error(err))
			} else {
				w.log.Info("✅ Job completed", zap.Int("worker", workerID), zap.String("job_id", id.String()))
			}
		}
	}
}

func (w *worker) run(ctx context.Context, id uuid.UUID) error {
	job, ok := w.update(id, models.StatusProcessing, "")
	if !ok {
		return nil
	}

	if w.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.JobTimeout)
		defer cancel()
	}

	meta := RecordMeta{ID: job.ID, UserID: job.UserID, SessionID: job.SessionID}

	var err error
	switch {
	case job.Mode == models.ModeResume && job.Resume != nil:
		_, err = w.evaluator.EvaluateResume(ctx, meta, *job.Resume)
	case job.Mode == models.ModeInterview && job.Interview != nil:
		_, err = w.evaluator.EvaluateInterview(ctx, meta, *job.Interview)
	default:
		err = ErrUnknownMode
	}

	if err != nil {
		w.update(id, models.StatusFailed, err.Error())
		return err
	}
	w.update(id, models.StatusCompleted, "")
	return nil
}

// update sets the job status and returns a copy of the job as it was before inputs were dropped.
func (w *worker) update(id uuid.UUID, status models.JobStatus, errMsg string) (models.EvaluationJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	job, ok := w.jobs[id]
	if !ok {
		return models.EvaluationJob{}, false
	}
	job.Status = status
	job.ErrorMessage = errMsg
	job.UpdatedAt = time.Now().UTC()

	snapshot := *job
	if status == models.StatusCompleted || status == models.StatusFailed {
		job.Resume = nil
		job.Interview = nil
	}
	return snapshot, true
}

func (w *worker) pruneFinishedJobs() {
	defer w.wg.Done()

	interval := w.opts.Retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-w.opts.Retention)
			w.mu.Lock()
			for id, job := range w.jobs {
				finished := job.Status == models.StatusCompleted || job.Status == models.StatusFailed
				if finished && job.UpdatedAt.Before(cutoff) {
					delete(w.jobs, id)
				}
			}
			w.mu.Unlock()
		}
	}
}
