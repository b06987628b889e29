package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/skill-evaluator/internal/models"
)

const maxPromptInput = 12000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumePrompt asks for rubric scores and per-category feedback as JSON.
func (pb *PromptBuilder) BuildResumePrompt(resumeText, jobDescription, reference string) string {
	cfg, _ := GetModeConfig(models.ModeResume)

	return fmt.Sprintf(`You are an expert recruiter and ATS specialist evaluating a resume.

JOB DESCRIPTION:
%s

REFERENCE MATERIAL:
%s

RESUME:
%s

Score the resume on each category below. Each score must be a number between 0 and the category maximum.
%s
Return ONLY a JSON object in exactly this format:
{
  "scores": {%s},
  "feedback": {
    "<category key>": {"strengths": ["..."], "improvements": ["..."]}
  },
  "summary": "<2-3 sentence overall assessment>"
}

Give 1-3 specific strengths and improvements per category, referencing the resume text.`,
		orNone(jobDescription), orNone(reference), clip(resumeText), rubricLines(cfg), scoreSkeleton(cfg))
}

// BuildInterviewPrompt asks for 0-10 scores, overall feedback and an improved answer.
func (pb *PromptBuilder) BuildInterviewPrompt(in models.InterviewSubmission, reference string) string {
	cfg, _ := GetModeConfig(models.ModeInterview)

	return fmt.Sprintf(`You are an experienced interviewer and career coach grading a candidate's interview answer for a %s position.

JOB DESCRIPTION:
%s

REFERENCE MATERIAL:
%s

QUESTION:
%s

CANDIDATE ANSWER:
%s

Score the answer on each category below (0-10).
%s
Return ONLY a JSON object in exactly this format:
{
  "scores": {%s},
  "strengths": ["..."],
  "improvements": ["..."],
  "sample_improved_answer": "<a stronger answer to the same question using the STAR method>"
}`,
		orDefault(in.JobRole, "general"), orNone(in.JobDescription), orNone(reference),
		clip(in.Question), clip(in.Answer), rubricLines(cfg), scoreSkeleton(cfg))
}

// BuildQuestionPrompt asks for a JSON list of interview questions.
func (pb *PromptBuilder) BuildQuestionPrompt(req models.QuestionRequest) string {
	level := NormalizeDifficulty(req.DifficultyLevel)

	return fmt.Sprintf(`You are an interviewer preparing questions for a %s candidate.

JOB DESCRIPTION:
%s

Write exactly %d distinct %s-difficulty interview questions.
- easy: general behavioral and basic role-specific questions
- medium: scenario-based and intermediate technical questions
- hard: complex problem solving and advanced technical concepts

Return ONLY a JSON object in exactly this format:
{"mode": "question_generation", "questions": ["Question text here"]}`,
		orDefault(req.JobRole, "general"), orNone(req.JobDescription), req.NumberOfQuestions, level)
}

// BuildRetrievalQuery is the text embedded to look up reference material.
func (pb *PromptBuilder) BuildRetrievalQuery(mode models.Mode, primary, jobDescription string) string {
	switch mode {
	case models.ModeResume:
		return clipTo(primary, 2000) + "\n\n" + clipTo(jobDescription, 1000)
	case models.ModeInterview:
		return clipTo(primary, 1000) + "\n\n" + clipTo(jobDescription, 1000)
	default:
		return primary
	}
}

func rubricLines(cfg ModeConfig) string {
	var b strings.Builder
	for i, c := range cfg.Categories {
		fmt.Fprintf(&b, "%d. %s (key %q, max %s) - %s\n", i+1, c.Name, c.Key, formatNumber(c.MaxScore), c.Description)
	}
	return b.String()
}

func scoreSkeleton(cfg ModeConfig) string {
	parts := make([]string, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		parts = append(parts, fmt.Sprintf(`"%s": <0-%s>`, c.Key, formatNumber(c.MaxScore)))
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	return orDefault(s, "None provided.")
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func clip(s string) string {
	return clipTo(s, maxPromptInput)
}

func clipTo(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
