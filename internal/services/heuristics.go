package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"

	"alfredoptarigan/skill-evaluator/internal/models"
)

const (
	EngineHeuristic         = "heuristic"
	EngineHeuristicFallback = "heuristic-fallback"

	DefaultDifficulty    = "medium"
	DefaultQuestionCount = 3
)

var (
	resumeSections = [][]string{
		{"experience", "work history", "employment", "professional experience"},
		{"education", "academic"},
		{"skills", "technical skills", "core competencies"},
		{"summary", "objective", "profile", "about me"},
		{"projects", "portfolio"},
		{"certifications", "awards", "achievements", "publications"},
	}

	actionVerbs = []string{
		"achieved", "built", "created", "delivered", "designed", "developed", "drove", "implemented",
		"improved", "increased", "launched", "led", "managed", "mentored", "optimized", "reduced",
		"resolved", "spearheaded", "streamlined", "automated", "negotiated", "coordinated", "owned",
		"established", "migrated", "scaled", "architected", "analyzed",
	}

	skillLexicon = []string{
		"python", "java", "go", "golang", "javascript", "typescript", "sql", "c++", "c#", "react",
		"node.js", "aws", "azure", "gcp", "docker", "kubernetes", "linux", "git", "excel", "tableau",
		"agile", "scrum", "communication", "leadership", "analytics", "marketing", "sales", "finance",
		"design", "figma", "salesforce", "jira", "testing", "security", "postgresql", "api",
	}

	firstPerson   = []string{"i", "me", "my", "mine", "myself"}
	casualWords   = []string{"stuff", "things", "awesome", "cool", "kinda", "gonna", "wanna", "lol", "super", "pretty much"}
	passiveWords  = []string{"responsible for", "was tasked", "duties included", "was involved in", "helped with"}
	fillerWords   = []string{"um", "uh", "like", "you know", "basically", "actually", "literally", "sort of", "kind of"}
	connectors    = []string{"first", "then", "next", "finally", "because", "therefore", "as a result", "for example", "however", "so that"}
	starMarkers   = []string{"situation", "task", "action", "result", "outcome", "challenge", "goal", "impact"}
	hedgeWords    = []string{"maybe", "probably", "i think", "i guess", "not sure", "hopefully", "i believe", "perhaps", "might"}
	assertiveness = []string{"led", "delivered", "built", "achieved", "drove", "owned", "designed", "implemented", "decided", "improved", "launched", "resolved", "ensured"}
)

// HeuristicEngine scores submissions from text features alone. Results depend only on the input.
type HeuristicEngine struct{}

func NewHeuristicEngine() *HeuristicEngine {
	return &HeuristicEngine{}
}

func (h *HeuristicEngine) Name() string {
	return EngineHeuristic
}

func (h *HeuristicEngine) EvaluateResume(_ context.Context, in models.ResumeSubmission) (*RawEvaluation, error) {
	return &RawEvaluation{
		Scores: ScoreResume(in.ResumeText, in.JobDescription),
		Engine: EngineHeuristic,
	}, nil
}

func (h *HeuristicEngine) EvaluateInterview(_ context.Context, in models.InterviewSubmission) (*RawEvaluation, error) {
	scores := ScoreInterview(in.Question, in.Answer, in.JobDescription, in.JobRole)
	strengths, improvements := interviewFeedback(scores, in.Answer)

	return &RawEvaluation{
		Scores:               scores,
		Strengths:            strengths,
		Improvements:         improvements,
		SampleImprovedAnswer: SampleImprovedAnswer(in.JobRole),
		Engine:               EngineHeuristic,
	}, nil
}

func (h *HeuristicEngine) GenerateQuestions(_ context.Context, req models.QuestionRequest) ([]string, error) {
	return PickQuestions(req.JobRole, req.DifficultyLevel, req.NumberOfQuestions), nil
}

// ScoreResume returns raw category scores within the resume rubric maxima.
func ScoreResume(text, jobDescription string) map[string]float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]float64{"formatting": 0, "content": 0, "keywords": 0, "tone": 0}
	}

	lower := strings.ToLower(text)
	tokens := tokenize(text)
	lines := nonEmptyLines(text)
	set := toSet(tokens...)

	sections := countSections(lines)
	hasSkills := sectionPresent(lines, resumeSections[2])
	verbs := distinctTerms(lower, tokens, actionVerbs)

	var jdTerms []string
	if strings.TrimSpace(jobDescription) != "" {
		jdTerms = keywords(jobDescription, 30)
	}

	// formatting: 25
	formatting := math.Min(float64(sections), 5) / 5 * 10
	if emailPattern.MatchString(text) {
		formatting += 3
	}
	if phonePattern.MatchString(text) {
		formatting += 2
	}
	bullets := 0
	short := 0
	for _, line := range lines {
		if isBullet(line) {
			bullets++
		}
		if len([]rune(line)) <= 120 {
			short++
		}
	}
	formatting += math.Min(float64(bullets), 8) / 8 * 5
	formatting += float64(short) / float64(len(lines)) * 5

	// content: 30
	content := lengthBand(len(tokens))
	content += math.Min(float64(len(numberPattern.FindAllString(text, -1))), 8) / 8 * 8
	content += math.Min(float64(verbs), 8) / 8 * 7
	if len(jdTerms) > 0 {
		content += coverage(jdTerms, set) * 7
	} else {
		content += 4
	}

	// keywords: 25
	var kw float64
	if len(jdTerms) > 0 {
		kw = 3 + coverage(keywords(jobDescription, 25), set)*22
	} else {
		kw = 12.5
		if hasSkills {
			kw += 5
		}
		kw += math.Min(float64(distinctTerms(lower, tokens, skillLexicon)), 10) / 10 * 7.5
	}

	// tone: 20
	tone := 14 + math.Min(float64(verbs), 6)
	tone -= math.Min(float64(countTerms(lower, tokens, firstPerson))*0.5, 6)
	tone -= math.Min(float64(countTerms(lower, tokens, casualWords)), 4)
	tone -= math.Min(float64(countTerms(lower, tokens, passiveWords)), 4)

	return map[string]float64{
		"formatting": round1(clamp(formatting, 0, 25)),
		"content":    round1(clamp(content, 0, 30)),
		"keywords":   round1(clamp(kw, 0, 25)),
		"tone":       round1(clamp(tone, 0, 20)),
	}
}

// ScoreInterview returns raw category scores, each out of 10.
func ScoreInterview(question, answer, jobDescription, jobRole string) map[string]float64 {
	answer = strings.TrimSpace(answer)
	tokens := tokenize(answer)
	if len(tokens) == 0 {
		return map[string]float64{"clarity": 0, "relevance": 0, "accuracy": 0, "confidence": 0}
	}

	lower := strings.ToLower(answer)
	set := toSet(tokens...)
	words := len(tokens)

	// clarity
	var clarity float64
	if words < 10 {
		clarity = 3
	} else {
		sents := sentences(answer)
		avg := float64(words) / math.Max(float64(len(sents)), 1)
		if avg >= 8 && avg <= 25 {
			clarity = 7
		} else {
			clarity = 5
		}
	}
	clarity -= math.Min(float64(countTerms(lower, tokens, fillerWords))*0.5, 3)
	clarity += math.Min(float64(distinctTerms(lower, tokens, connectors))*0.5, 3)

	// relevance
	star := math.Min(float64(distinctTerms(lower, tokens, starMarkers)), 4)
	var relevance float64
	if qTerms := keywords(question, 10); len(qTerms) > 0 {
		relevance = coverage(qTerms, set)*6 + star
	} else {
		relevance = 3 + star
	}

	// accuracy
	var accuracy float64
	if terms := keywords(jobDescription+" "+jobRole, 20); len(terms) > 0 {
		accuracy = coverage(terms, set) * 5
	} else {
		accuracy = 2.5
	}
	specific := len(numberPattern.FindAllString(answer, -1))
	for _, tok := range tokens {
		if len(tok) >= 10 {
			specific++
		}
	}
	accuracy += math.Min(float64(specific), 5) * 0.5
	switch {
	case words >= 80:
		accuracy += 2.5
	case words >= 40:
		accuracy += 1.5
	default:
		accuracy += 0.5
	}

	// confidence
	confidence := 7.0
	confidence -= math.Min(float64(countTerms(lower, tokens, hedgeWords)), 5)
	confidence += math.Min(float64(distinctTerms(lower, tokens, assertiveness))*0.5, 3)

	return map[string]float64{
		"clarity":    round1(clamp(clarity, 0, 10)),
		"relevance":  round1(clamp(relevance, 0, 10)),
		"accuracy":   round1(clamp(accuracy, 0, 10)),
		"confidence": round1(clamp(confidence, 0, 10)),
	}
}

// InterviewOverall is the interview total on a 0-100 scale: sum / 40 * 100.
func InterviewOverall(scores map[string]float64) float64 {
	sum := scores["clarity"] + scores["relevance"] + scores["accuracy"] + scores["confidence"]
	return round1(clamp(sum/40*100, 0, 100))
}

func interviewFeedback(scores map[string]float64, answer string) (strengths, improvements []string) {
	bands := []struct {
		key                   string
		high, mid, improvement string
	}{
		{"clarity", "Clear and well-structured response", "Generally clear communication", "Work on structuring your response more clearly"},
		{"relevance", "Directly addresses the question with relevant examples", "Response is mostly on-topic", "Ensure your answer directly addresses all parts of the question"},
		{"accuracy", "Demonstrates strong technical knowledge", "Shows good understanding of the topic", "Add more specific technical details or examples"},
		{"confidence", "Professional and confident delivery", "Maintains professional tone", "Use more assertive language to convey confidence"},
	}

	for _, b := range bands {
		switch score := scores[b.key]; {
		case score >= 8:
			strengths = append(strengths, b.high)
		case score >= 7:
			strengths = append(strengths, b.mid)
		default:
			improvements = append(improvements, b.improvement)
		}
	}

	if InterviewOverall(scores) < 80 {
		if len(strings.Fields(answer)) < 50 {
			improvements = append(improvements, "Provide more detailed examples using the STAR method")
		}
		improvements = append(improvements, "Consider adding quantifiable achievements or results")
	}

	return strengths, improvements
}

func SampleImprovedAnswer(jobRole string) string {
	role := strings.TrimSpace(jobRole)
	if role == "" {
		role = "professional"
	}
	return fmt.Sprintf("In my role as a %s, I encountered a similar situation. "+
		"I approached it by [specific action], which resulted in [measurable outcome]. "+
		"This experience taught me [key learning], which I would apply in this role.", role)
}

var questionPools = map[string][]string{
	"easy": {
		"Tell me about yourself and your interest in the %s role.",
		"What are your greatest strengths as a %s?",
		"Why do you want to work at this company?",
		"Describe a time you worked well in a team.",
		"How do you handle deadlines and pressure?",
		"What motivates you in your work as a %s?",
		"Where do you see yourself in 5 years in the %s field?",
		"What do you know about our company and why do you want to join us?",
	},
	"medium": {
		"Tell me about a time you had to solve a difficult problem as a %s.",
		"How do you stay updated with the latest trends in the %s field?",
		"Describe a situation where you had to deal with a difficult colleague or client.",
		"What is your approach to learning new tools or technologies for %s work?",
		"Explain a complex project you worked on recently.",
		"How do you prioritize tasks when you have multiple deadlines?",
		"Describe a time when you had to adapt to a significant change at work.",
		"What strategies do you use to ensure quality in your work as a %s?",
	},
	"hard": {
		"Describe a time you failed and how you handled the fallout.",
		"How would you handle a situation where your project is significantly behind schedule?",
		"What is the most challenging technical problem you've faced as a %s and how did you resolve it?",
		"Tell me about a time you had to make an unpopular decision for the sake of the project.",
		"How do you approach strategic planning for a %s function?",
		"Describe a situation where you had to influence stakeholders without direct authority.",
		"How would you handle a conflict between team members with different technical opinions?",
		"What would you do if you discovered a critical flaw in a product just before launch?",
	},
}

// NormalizeDifficulty maps unknown levels to medium.
func NormalizeDifficulty(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if _, ok := questionPools[level]; ok {
		return level
	}
	return DefaultDifficulty
}

// PickQuestions selects count questions for the role from the difficulty pool. The selection
// is seeded by role, level and count so repeated requests return the same questions.
func PickQuestions(role, level string, count int) []string {
	role = strings.TrimSpace(role)
	if role == "" {
		role = "professional"
	}
	level = NormalizeDifficulty(level)
	pool := questionPools[level]

	if count <= 0 {
		count = DefaultQuestionCount
	}
	if count > len(pool) {
		count = len(pool)
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", strings.ToLower(role), level, count)
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	order := rng.Perm(len(pool))
	out := make([]string, 0, count)
	for _, idx := range order[:count] {
		q := pool[idx]
		if strings.Contains(q, "%s") {
			q = fmt.Sprintf(q, role)
		}
		out = append(out, q)
	}
	return out
}

func countSections(lines []string) int {
	n := 0
	for _, names := range resumeSections {
		if sectionPresent(lines, names) {
			n++
		}
	}
	return n
}

// sectionPresent reports whether a short heading line names one of the sections.
func sectionPresent(lines []string, names []string) bool {
	for _, line := range lines {
		heading := strings.ToLower(strings.Trim(line, " :-#*"))
		if len(strings.Fields(heading)) > 4 {
			continue
		}
		for _, name := range names {
			if strings.HasPrefix(heading, name) {
				return true
			}
		}
	}
	return false
}

func isBullet(line string) bool {
	for _, prefix := range []string{"-", "•", "*", "▪", "–", "◦", "·"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return len(line) > 2 && line[0] >= '0' && line[0] <= '9' && (line[1] == '.' || line[1] == ')')
}

func lengthBand(words int) float64 {
	switch {
	case words < 150:
		return 2
	case words < 300:
		return 5
	case words <= 1000:
		return 8
	case words <= 1500:
		return 6
	default:
		return 4
	}
}
