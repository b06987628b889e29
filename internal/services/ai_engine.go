package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
)

var (
	ErrEmptyResponse = errors.New("empty response from AI provider")
	ErrNoJSON        = errors.New("no JSON object in AI response")
)

// AIEngine produces raw rubric scores and interview questions.
type AIEngine interface {
	Name() string
	EvaluateResume(ctx context.Context, in models.ResumeSubmission) (*RawEvaluation, error)
	EvaluateInterview(ctx context.Context, in models.InterviewSubmission) (*RawEvaluation, error)
	GenerateQuestions(ctx context.Context, req models.QuestionRequest) ([]string, error)
}

// TextGenerator is a remote language model.
type TextGenerator interface {
	Name() string
	GenerateText(ctx context.Context, prompt string, temperature float32) (string, error)
}

// LLMEngine asks a TextGenerator for scores and falls back to heuristics when the
// provider fails or replies with something unusable.
type LLMEngine struct {
	generator TextGenerator
	retriever Retriever
	fallback  *HeuristicEngine
	prompts   *PromptBuilder
	log       *zap.Logger
}

// NewLLMEngine builds an engine over generator. retriever may be nil.
func NewLLMEngine(generator TextGenerator, retriever Retriever, log *zap.Logger) *LLMEngine {
	return &LLMEngine{
		generator: generator,
		retriever: retriever,
		fallback:  NewHeuristicEngine(),
		prompts:   NewPromptBuilder(),
		log:       logger.OrNop(log),
	}
}

func (e *LLMEngine) Name() string {
	return e.generator.Name()
}

func (e *LLMEngine) EvaluateResume(ctx context.Context, in models.ResumeSubmission) (*RawEvaluation, error) {
	reference := e.reference(ctx, models.ModeResume, in.ResumeText, in.JobDescription,
		[]string{DocTypeResumeRubric, DocTypeJobDescription})
	prompt := e.prompts.BuildResumePrompt(in.ResumeText, in.JobDescription, reference)

	raw, err := e.evaluate(ctx, models.ModeResume, prompt)
	if err != nil {
		e.log.Warn("⚠️ AI resume evaluation failed, using heuristics",
			zap.String("engine", e.Name()), zap.Error(err))
		raw, _ = e.fallback.EvaluateResume(ctx, in)
		raw.Engine = EngineHeuristicFallback
	}
	return raw, nil
}

func (e *LLMEngine) EvaluateInterview(ctx context.Context, in models.InterviewSubmission) (*RawEvaluation, error) {
	reference := e.reference(ctx, models.ModeInterview, in.Question+"\n"+in.Answer, in.JobDescription,
		[]string{DocTypeInterviewRubric, DocTypeSampleAnswer})
	prompt := e.prompts.BuildInterviewPrompt(in, reference)

	raw, err := e.evaluate(ctx, models.ModeInterview, prompt)
	if err != nil {
		e.log.Warn("⚠️ AI interview evaluation failed, using heuristics",
			zap.String("engine", e.Name()), zap.Error(err))
		raw, _ = e.fallback.EvaluateInterview(ctx, in)
		raw.Engine = EngineHeuristicFallback
	}
	return raw, nil
}

func (e *LLMEngine) GenerateQuestions(ctx context.Context, req models.QuestionRequest) ([]string, error) {
	if req.NumberOfQuestions <= 0 {
		req.NumberOfQuestions = DefaultQuestionCount
	}

	questions, err := e.generateQuestions(ctx, req)
	if err != nil {
		e.log.Warn("⚠️ AI question generation failed, using question pool",
			zap.String("engine", e.Name()), zap.Error(err))
		return e.fallback.GenerateQuestions(ctx, req)
	}
	return questions, nil
}

func (e *LLMEngine) generateQuestions(ctx context.Context, req models.QuestionRequest) ([]string, error) {
	response, err := e.generator.GenerateText(ctx, e.prompts.BuildQuestionPrompt(req), 0.7)
	if err != nil {
		return nil, err
	}

	questions := ParseQuestions(response)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions in response: %s", logger.TruncateForLog(response, 200))
	}
	if len(questions) > req.NumberOfQuestions {
		questions = questions[:req.NumberOfQuestions]
	}
	return questions, nil
}

func (e *LLMEngine) evaluate(ctx context.Context, mode models.Mode, prompt string) (*RawEvaluation, error) {
	e.log.Debug("📝 Evaluation prompt built", zap.String("mode", string(mode)), zap.Int("length", len(prompt)))

	response, err := e.generator.GenerateText(ctx, prompt, 0.3)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(response) == "" {
		return nil, ErrEmptyResponse
	}

	raw, err := ParseRawEvaluation(mode, response)
	if err != nil {
		return nil, err
	}
	raw.Engine = e.Name()
	return raw, nil
}

func (e *LLMEngine) reference(ctx context.Context, mode models.Mode, primary, jobDescription string, docTypes []string) string {
	if e.retriever == nil {
		return ""
	}

	query := e.prompts.BuildRetrievalQuery(mode, primary, jobDescription)
	reference, err := e.retriever.RetrieveContext(ctx, query, docTypes)
	if err != nil {
		e.log.Warn("⚠️ Failed to retrieve reference context", zap.Error(err))
		return ""
	}
	return reference
}

// ParseRawEvaluation decodes a model reply into a RawEvaluation. Markdown fences and
// surrounding prose are ignored, numbers sent as strings are accepted, and every rubric
// category of mode must carry a score.
func ParseRawEvaluation(mode models.Mode, response string) (*RawEvaluation, error) {
	cfg, err := GetModeConfig(mode)
	if err != nil {
		return nil, err
	}

	jsonStr := extractJSON(response)
	if !strings.HasPrefix(jsonStr, "{") {
		return nil, ErrNoJSON
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response: %w", err)
	}

	var raw RawEvaluation
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("failed to decode AI response: %w", err)
	}

	for _, c := range cfg.Categories {
		if _, ok := raw.Scores[c.Key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingScores, c.Key)
		}
	}
	return &raw, nil
}

// ParseQuestions accepts {"questions": [...]} or a bare JSON array of strings.
func ParseQuestions(response string) []string {
	jsonStr := extractJSON(response)

	var items []gjson.Result
	switch {
	case strings.HasPrefix(jsonStr, "{"):
		items = gjson.Get(jsonStr, "questions").Array()
	case strings.HasPrefix(jsonStr, "["):
		items = gjson.Parse(jsonStr).Array()
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		if q := strings.TrimSpace(item.String()); q != "" {
			questions = append(questions, q)
		}
	}
	return questions
}

// extractJSON strips markdown fences and returns the outermost JSON object or array.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	endObj := strings.LastIndex(text, "}")
	startArr := strings.Index(text, "[")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj > startObj && (startArr == -1 || startObj < startArr) {
		return text[startObj : endObj+1]
	}
	if startArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}
	return strings.TrimSpace(text)
}
