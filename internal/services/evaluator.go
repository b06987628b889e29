package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/repositories"
)

const MaxQuestionCount = 10

var (
	ErrInterviewFields = &FormError{Message: "Both a question and an answer are required"}
	ErrJobRoleRequired = &FormError{Message: "Job role is required"}
)

// RecordMeta identifies who submitted an evaluation. A zero ID gets a fresh uuid.
type RecordMeta struct {
	ID        uuid.UUID
	UserID    string
	SessionID string
}

type EvaluatorService interface {
	PrepareResume(meta RecordMeta, filename string, content []byte, jobDescription string) (models.ResumeSubmission, error)
	EvaluateResume(ctx context.Context, meta RecordMeta, sub models.ResumeSubmission) (*models.EvaluationRecord, error)
	EvaluateInterview(ctx context.Context, meta RecordMeta, sub models.InterviewSubmission) (*models.EvaluationRecord, error)
	GenerateQuestions(ctx context.Context, req models.QuestionRequest) (*models.QuestionSet, error)
	History(ctx context.Context, userID string) ([]models.EvaluationRecord, error)
	Record(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error)
	EngineName() string
	// DiscardUpload removes an upload kept by PrepareResume whose evaluation will never run.
	DiscardUpload(ref string)
}

type evaluatorService struct {
	history   repositories.EvaluationRepository
	engine    AIEngine
	heuristic *HeuristicEngine
	parser    DocumentParser
	storage   StorageService
	now       func() time.Time
	log       *zap.Logger
}

func NewEvaluatorService(
	history repositories.EvaluationRepository,
	engine AIEngine,
	parser DocumentParser,
	storage StorageService,
	log *zap.Logger,
) EvaluatorService {
	if engine == nil {
		engine = NewHeuristicEngine()
	}
	return &evaluatorService{
		history:   history,
		engine:    engine,
		heuristic: NewHeuristicEngine(),
		parser:    parser,
		storage:   storage,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.OrNop(log),
	}
}

func (e *evaluatorService) EngineName() string {
	return e.engine.Name()
}

// PrepareResume extracts the resume text and keeps the original upload.
func (e *evaluatorService) PrepareResume(meta RecordMeta, filename string, content []byte, jobDescription string) (models.ResumeSubmission, error) {
	doc, err := e.parser.Parse(filename, content)
	if err != nil {
		return models.ResumeSubmission{}, err
	}

	e.log.Info("📄 Resume parsed",
		zap.String("filename", filename),
		zap.String("format", doc.Format),
		zap.Int("pages", doc.PageCount),
		zap.Int("chars", len(doc.Text)),
	)

	sub := models.ResumeSubmission{
		Filename:       filename,
		ResumeText:     doc.Text,
		JobDescription: strings.TrimSpace(jobDescription),
	}

	if e.storage != nil {
		ref, err := e.storage.SaveUpload(meta.UserID, filename, content)
		if err != nil {
			e.log.Warn("⚠️ Failed to keep uploaded file", zap.String("filename", filename), zap.Error(err))
		} else {
			sub.InputRef = ref
		}
	}
	return sub, nil
}

func (e *evaluatorService) DiscardUpload(ref string) {
	if ref == "" || e.storage == nil {
		return
	}
	if err := e.storage.Delete(ref); err != nil {
		e.log.Warn("⚠️ Failed to remove orphaned upload", zap.String("ref", ref), zap.Error(err))
	}
}

func (e *evaluatorService) EvaluateResume(ctx context.Context, meta RecordMeta, sub models.ResumeSubmission) (*models.EvaluationRecord, error) {
	if strings.TrimSpace(sub.ResumeText) == "" {
		return nil, ErrEmptyDocument
	}

	e.log.Info("🤖 Evaluating resume", zap.String("engine", e.engine.Name()), zap.String("user_id", meta.UserID))

	raw, err := e.engine.EvaluateResume(ctx, sub)
	if err != nil {
		e.log.Warn("⚠️ Resume engine failed, using heuristics", zap.Error(err))
		raw, _ = e.heuristic.EvaluateResume(ctx, sub)
		raw.Engine = EngineHeuristicFallback
	}

	now := e.now()
	result, err := FormatEvaluation(models.ModeResume, raw, now)
	if err != nil {
		return nil, fmt.Errorf("failed to format resume evaluation: %w", err)
	}

	rec := &models.EvaluationRecord{
		ID:             meta.ID,
		UserID:         meta.UserID,
		SessionID:      meta.SessionID,
		Mode:           models.ModeResume,
		Filename:       sub.Filename,
		InputRef:       sub.InputRef,
		ResumeText:     sub.ResumeText,
		JobDescription: sub.JobDescription,
		Result:         *result,
		CreatedAt:      now,
	}

	saved, err := e.save(ctx, rec)
	if err != nil {
		e.DiscardUpload(sub.InputRef)
	}
	return saved, err
}

func (e *evaluatorService) EvaluateInterview(ctx context.Context, meta RecordMeta, sub models.InterviewSubmission) (*models.EvaluationRecord, error) {
	sub.Question = strings.TrimSpace(sub.Question)
	sub.Answer = strings.TrimSpace(sub.Answer)
	sub.JobDescription = strings.TrimSpace(sub.JobDescription)
	sub.JobRole = strings.TrimSpace(sub.JobRole)
	if sub.Question == "" || sub.Answer == "" {
		return nil, ErrInterviewFields
	}

	e.log.Info("🤖 Evaluating interview answer", zap.String("engine", e.engine.Name()), zap.String("user_id", meta.UserID))

	raw, err := e.engine.EvaluateInterview(ctx, sub)
	if err != nil {
		e.log.Warn("⚠️ Interview engine failed, using heuristics", zap.Error(err))
		raw, _ = e.heuristic.EvaluateInterview(ctx, sub)
		raw.Engine = EngineHeuristicFallback
	}

	now := e.now()
	result, err := FormatEvaluation(models.ModeInterview, raw, now)
	if err != nil {
		return nil, fmt.Errorf("failed to format interview evaluation: %w", err)
	}

	rec := &models.EvaluationRecord{
		ID:             meta.ID,
		UserID:         meta.UserID,
		SessionID:      meta.SessionID,
		Mode:           models.ModeInterview,
		JobDescription: sub.JobDescription,
		JobRole:        sub.JobRole,
		Question:       sub.Question,
		Answer:         sub.Answer,
		Result:         *result,
		CreatedAt:      now,
	}
	return e.save(ctx, rec)
}

func (e *evaluatorService) GenerateQuestions(ctx context.Context, req models.QuestionRequest) (*models.QuestionSet, error) {
	req.JobRole = strings.TrimSpace(req.JobRole)
	if req.JobRole == "" {
		return nil, ErrJobRoleRequired
	}
	req.DifficultyLevel = NormalizeDifficulty(req.DifficultyLevel)
	if req.NumberOfQuestions <= 0 {
		req.NumberOfQuestions = DefaultQuestionCount
	}
	if req.NumberOfQuestions > MaxQuestionCount {
		req.NumberOfQuestions = MaxQuestionCount
	}

	questions, err := e.engine.GenerateQuestions(ctx, req)
	if err != nil || len(questions) == 0 {
		questions = PickQuestions(req.JobRole, req.DifficultyLevel, req.NumberOfQuestions)
	}

	return &models.QuestionSet{Mode: "question_generation", Questions: questions}, nil
}

func (e *evaluatorService) History(ctx context.Context, userID string) ([]models.EvaluationRecord, error) {
	return e.history.ListByUser(ctx, userID)
}

func (e *evaluatorService) Record(ctx context.Context, id uuid.UUID) (*models.EvaluationRecord, error) {
	return e.history.FindByID(ctx, id)
}

func (e *evaluatorService) save(ctx context.Context, rec *models.EvaluationRecord) (*models.EvaluationRecord, error) {
	if err := e.history.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save evaluation: %w", err)
	}

	e.log.Info("💾 Evaluation saved",
		zap.String("id", rec.ID.String()),
		zap.String("mode", string(rec.Mode)),
		zap.Float64("total_score", rec.Result.TotalScore),
		zap.String("engine", rec.Result.Engine),
	)
	return rec, nil
}
