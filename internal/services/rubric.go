package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"alfredoptarigan/skill-evaluator/internal/models"
)

var (
	ErrUnknownMode   = errors.New("unknown evaluation mode")
	ErrMissingScores = errors.New("invalid evaluation data: missing scores")
)

type Category struct {
	Key         string
	Name        string
	MaxScore    float64
	Description string
}

type DifficultyLevel struct {
	ID          string
	Name        string
	Description string
}

type ModeConfig struct {
	Mode              models.Mode
	Name              string
	Subject           string
	Description       string
	Icon              string
	Categories        []Category
	TotalMaxScore     float64
	Endpoint          string
	FormPath          string
	AcceptsFileUpload bool
	AllowedExtensions []string
	DifficultyLevels  []DifficultyLevel
	QuestionCounts    []int
}

var modeConfigs = []ModeConfig{
	{
		Mode:        models.ModeResume,
		Name:        "Resume/CV Evaluator",
		Subject:     "resume",
		Description: "Evaluate resumes for job applications with detailed scoring",
		Icon:        "📄",
		Categories: []Category{
			{Key: "formatting", Name: "Formatting & Presentation", MaxScore: 25, Description: "Layout, readability, visual appeal"},
			{Key: "content", Name: "Content Relevance", MaxScore: 30, Description: "Experience, qualifications, achievements"},
			{Key: "keywords", Name: "Keywords & Skills Match", MaxScore: 25, Description: "Industry terms, technical skills, ATS optimization"},
			{Key: "tone", Name: "Professional Tone", MaxScore: 20, Description: "Language, clarity, professionalism"},
		},
		TotalMaxScore:     100,
		Endpoint:          "/evaluate/resume",
		FormPath:          "/resume",
		AcceptsFileUpload: true,
		AllowedExtensions: []string{".pdf", ".docx"},
	},
	{
		Mode:        models.ModeInterview,
		Name:        "Interview Answer Evaluator",
		Subject:     "interview answer",
		Description: "Grade interview responses for job preparation",
		Icon:        "🎤",
		Categories: []Category{
			{Key: "clarity", Name: "Clarity & Communication", MaxScore: 10, Description: "Clear expression, articulation, coherence"},
			{Key: "relevance", Name: "Relevance to Question", MaxScore: 10, Description: "Addresses the question, stays on topic"},
			{Key: "accuracy", Name: "Technical Accuracy", MaxScore: 10, Description: "Correct information, domain knowledge"},
			{Key: "confidence", Name: "Confidence & Delivery", MaxScore: 10, Description: "Assertiveness, conviction, professional tone"},
		},
		TotalMaxScore: 100,
		Endpoint:      "/evaluate/interview",
		FormPath:      "/interview",
		DifficultyLevels: []DifficultyLevel{
			{ID: "easy", Name: "Easy", Description: "General behavioral and basic role-specific questions"},
			{ID: "medium", Name: "Medium", Description: "Scenario-based and intermediate technical questions"},
			{ID: "hard", Name: "Hard", Description: "Complex problem solving and advanced technical concepts"},
		},
		QuestionCounts: []int{1, 3, 5, 10},
	},
}

// Modes returns every evaluation mode in display order.
func Modes() []ModeConfig {
	out := make([]ModeConfig, len(modeConfigs))
	copy(out, modeConfigs)
	return out
}

func GetModeConfig(mode models.Mode) (ModeConfig, error) {
	for _, cfg := range modeConfigs {
		if cfg.Mode == mode {
			return cfg, nil
		}
	}
	return ModeConfig{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
}

// CategoryFeedback is the strengths/improvements pair for one rubric category.
type CategoryFeedback struct {
	Strengths    []string `json:"strengths" mapstructure:"strengths"`
	Improvements []string `json:"improvements" mapstructure:"improvements"`
}

// RawEvaluation is what an AI engine returns before rubric formatting.
type RawEvaluation struct {
	Scores               map[string]float64          `json:"scores" mapstructure:"scores"`
	Feedback             map[string]CategoryFeedback `json:"feedback" mapstructure:"feedback"`
	Strengths            []string                    `json:"strengths" mapstructure:"strengths"`
	Improvements         []string                    `json:"improvements" mapstructure:"improvements"`
	SampleImprovedAnswer string                      `json:"sample_improved_answer" mapstructure:"sample_improved_answer"`
	Summary              string                      `json:"summary" mapstructure:"summary"`
	Engine               string                      `json:"-" mapstructure:"-"`
}

func GradeLevel(score float64) string {
	score = clamp(score, 0, 100)
	switch {
	case score >= 90:
		return "A - Excellent"
	case score >= 80:
		return "B - Good"
	case score >= 70:
		return "C - Satisfactory"
	case score >= 60:
		return "D - Needs Improvement"
	default:
		return "F - Unsatisfactory"
	}
}

func CategoryAssessment(categoryName string, score, maxScore float64) string {
	if maxScore <= 0 {
		return "N/A " + categoryName
	}
	score = clamp(score, 0, maxScore)
	percentage := score / maxScore * 100

	var descriptor string
	switch {
	case percentage >= 90:
		descriptor = "Excellent"
	case percentage >= 80:
		descriptor = "Good"
	case percentage >= 70:
		descriptor = "Satisfactory"
	case percentage >= 60:
		descriptor = "Needs improvement in"
	default:
		descriptor = "Unsatisfactory"
	}

	return fmt.Sprintf("%s %s (Score: %s/%s, %.1f%%)",
		descriptor, categoryName, formatNumber(score), formatNumber(maxScore), percentage)
}

type feedbackBand struct {
	strengths    []string
	improvements []string
}

// cannedFeedback holds the three bands (>=90%, >=70%, below) per mode and category.
var cannedFeedback = map[models.Mode]map[string][3]feedbackBand{
	models.ModeResume: {
		"formatting": {
			{strengths: []string{"Clean and professional layout.", "Excellent use of white space and consistent formatting."}},
			{strengths: []string{"Overall readable layout."}, improvements: []string{"Improve consistency in font sizes and bullet points."}},
			{strengths: []string{"Basic contact info present."}, improvements: []string{"Format is cluttered or unprofessional; consider using a template."}},
		},
		"content": {
			{strengths: []string{"Highly relevant experience demonstrated.", "Strong focus on achievements and quantifiable results."}},
			{strengths: []string{"Relevant skills and experience listed."}, improvements: []string{"Use more action verbs and quantify your achievements (e.g., %, $)."}},
			{strengths: []string{"Some work history included."}, improvements: []string{"Content lacks focus or relevance to the target job description."}},
		},
		"keywords": {
			{strengths: []string{"Excellent alignment with industry keywords.", "Strong match for the target job requirements."}},
			{strengths: []string{"Most relevant technical skills included."}, improvements: []string{"Add more specific keywords from the job description for better ATS scoring."}},
			{strengths: []string{"Some industry terms present."}, improvements: []string{"Missing critical skills or keywords requested in the JD."}},
		},
		"tone": {
			{strengths: []string{"Perfectly professional and confident tone.", "Clear and concise language used throughout."}},
			{strengths: []string{"Generally professional tone."}, improvements: []string{"Avoid passive voice and make descriptions more direct and punchy."}},
			{strengths: []string{"Appropriate contact info tone."}, improvements: []string{"Tone is either too casual or overly wordy."}},
		},
	},
	models.ModeInterview: {
		"clarity": {
			{strengths: []string{"Highly articulate and easy to follow.", "Logical structure and clear main points."}},
			{strengths: []string{"Generally clear communication."}, improvements: []string{"Try to use fewer filler words (um, like) and speak more concisely."}},
			{strengths: []string{"Main idea is understandable."}, improvements: []string{"Response is rambling or difficult to follow."}},
		},
		"relevance": {
			{strengths: []string{"Directly addresses the question asked.", "Provides specific and relevant examples (STAR method)."}},
			{strengths: []string{"Response is mostly on-topic."}, improvements: []string{"Ensure every part of your answer directly ties back to the original question."}},
			{strengths: []string{"Answer touches on relevant topics."}, improvements: []string{"Answer is too generic or misses the core of the question."}},
		},
		"accuracy": {
			{strengths: []string{"Demonstrates deep technical knowledge.", "Accurate information and industry-standard terminology."}},
			{strengths: []string{"Generally accurate technical info."}, improvements: []string{"Be more specific with technical details or double-check specific facts."}},
			{strengths: []string{"Shows basic understanding."}, improvements: []string{"Technical errors or lack of depth in the explanation."}},
		},
		"confidence": {
			{strengths: []string{"Strong, assertive, and professional delivery.", "Shows enthusiasm and professional presence."}},
			{strengths: []string{"Generally confident delivery."}, improvements: []string{"Work on ending your sentences with authority (avoiding 'upspeak')."}},
			{strengths: []string{"Keeps appropriate professional tone."}, improvements: []string{"Appears hesitant or lacks conviction in the answer."}},
		},
	},
}

// CategoryFeedbackFor returns the canned feedback for a category score. Below 90% at least
// one improvement is always present.
func CategoryFeedbackFor(mode models.Mode, category string, score, maxScore float64) CategoryFeedback {
	var percentage float64
	if maxScore > 0 {
		percentage = score / maxScore * 100
	}

	var fb CategoryFeedback
	if bands, ok := cannedFeedback[mode][category]; ok {
		band := bands[2]
		switch {
		case percentage >= 90:
			band = bands[0]
		case percentage >= 70:
			band = bands[1]
		}
		fb.Strengths = append(fb.Strengths, band.strengths...)
		fb.Improvements = append(fb.Improvements, band.improvements...)
	}

	if len(fb.Strengths) == 0 {
		if percentage >= 70 {
			fb.Strengths = append(fb.Strengths, fmt.Sprintf("Satisfactory performance in %s.", category))
		} else {
			fb.Strengths = append(fb.Strengths, fmt.Sprintf("Attempted to address %s.", category))
		}
	}
	if len(fb.Improvements) == 0 && percentage < 90 {
		fb.Improvements = append(fb.Improvements, fmt.Sprintf("Continue refining %s for better results.", category))
	}
	if fb.Improvements == nil {
		fb.Improvements = []string{}
	}

	return fb
}

// OverallSummary describes the total grade and names the strongest and weakest categories.
// The first category in rubric order wins ties.
func OverallSummary(cfg ModeConfig, scores map[string]float64, total float64) string {
	grade := GradeLevel(total)
	subject := cfg.Subject

	var parts []string
	switch {
	case total >= 90:
		parts = append(parts, fmt.Sprintf("This is an excellent %s performance (%s).", subject, grade))
	case total >= 80:
		parts = append(parts, fmt.Sprintf("This is a good %s performance (%s).", subject, grade))
	case total >= 70:
		parts = append(parts, fmt.Sprintf("This is a satisfactory %s performance (%s).", subject, grade))
	case total >= 60:
		parts = append(parts, fmt.Sprintf("This %s needs improvement (%s).", subject, grade))
	default:
		parts = append(parts, fmt.Sprintf("This %s has significant issues that need addressing (%s).", subject, grade))
	}

	var strongest, weakest *Category
	var strongPct, weakPct float64
	for i := range cfg.Categories {
		c := &cfg.Categories[i]
		score, ok := scores[c.Key]
		if !ok || c.MaxScore <= 0 {
			continue
		}
		pct := score / c.MaxScore * 100
		if strongest == nil || pct > strongPct {
			strongest, strongPct = c, pct
		}
		if weakest == nil || pct < weakPct {
			weakest, weakPct = c, pct
		}
	}

	if strongest != nil {
		parts = append(parts, fmt.Sprintf("The strongest aspect is %s while %s needs the most attention.",
			strongest.Name, weakest.Name))
	}

	return strings.Join(parts, " ")
}

// FormatEvaluation turns raw engine scores into the rubric result stored with a record.
// The total is recomputed from the clamped category scores: sum / max sum * 100.
func FormatEvaluation(mode models.Mode, raw *RawEvaluation, now time.Time) (*models.EvaluationResult, error) {
	if raw == nil || len(raw.Scores) == 0 {
		return nil, ErrMissingScores
	}

	cfg, err := GetModeConfig(mode)
	if err != nil {
		return nil, err
	}

	clamped := make(map[string]float64, len(cfg.Categories))
	var sum, maxSum float64
	categories := make([]models.CategoryResult, 0, len(cfg.Categories))

	for _, c := range cfg.Categories {
		score := round1(clamp(raw.Scores[c.Key], 0, c.MaxScore))
		clamped[c.Key] = score
		sum += score
		maxSum += c.MaxScore

		var pct float64
		if c.MaxScore > 0 {
			pct = round1(score / c.MaxScore * 100)
		}

		fb, ok := raw.Feedback[c.Key]
		if !ok || len(fb.Strengths) == 0 {
			fb = CategoryFeedbackFor(mode, c.Key, score, c.MaxScore)
		}

		categories = append(categories, models.CategoryResult{
			Key:          c.Key,
			Name:         c.Name,
			Score:        score,
			MaxScore:     c.MaxScore,
			Percent:      pct,
			Assessment:   CategoryAssessment(c.Name, score, c.MaxScore),
			Strengths:    fb.Strengths,
			Improvements: fb.Improvements,
		})
	}

	var total float64
	if maxSum > 0 {
		total = round1(clamp(sum/maxSum*cfg.TotalMaxScore, 0, cfg.TotalMaxScore))
	}

	summary := strings.TrimSpace(raw.Summary)
	if summary == "" {
		summary = OverallSummary(cfg, clamped, total)
	}

	result := &models.EvaluationResult{
		Mode:            mode,
		ModeDisplayName: cfg.Name,
		Categories:      categories,
		TotalScore:      total,
		LetterGrade:     GradeLevel(total),
		Summary:         summary,
		Engine:          raw.Engine,
		EvaluatedAt:     now,
	}

	if mode == models.ModeInterview {
		result.Strengths = raw.Strengths
		result.Improvements = raw.Improvements
		if len(result.Strengths) == 0 && len(result.Improvements) == 0 {
			result.Strengths, result.Improvements = collectFeedback(categories)
		}
		result.SampleImprovedAnswer = strings.TrimSpace(raw.SampleImprovedAnswer)
	}

	return result, nil
}

func collectFeedback(categories []models.CategoryResult) (strengths, improvements []string) {
	for _, c := range categories {
		if c.Percent >= 70 && len(c.Strengths) > 0 {
			strengths = append(strengths, c.Strengths[0])
		}
		if len(c.Improvements) > 0 {
			improvements = append(improvements, c.Improvements[0])
		}
	}
	return strengths, improvements
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
