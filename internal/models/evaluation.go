package models

import (
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	ModeResume    Mode = "resume"
	ModeInterview Mode = "interview"
)

type CategoryResult struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Score        float64  `json:"score"`
	MaxScore     float64  `json:"max_score"`
	Percent      float64  `json:"percent"`
	Assessment   string   `json:"assessment"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type EvaluationResult struct {
	Mode                 Mode             `json:"mode"`
	ModeDisplayName      string           `json:"mode_display_name"`
	Categories           []CategoryResult `json:"categories"`
	TotalScore           float64          `json:"total_score"`
	LetterGrade          string           `json:"letter_grade"`
	Summary              string           `json:"summary"`
	Strengths            []string         `json:"strengths,omitempty"`
	Improvements         []string         `json:"improvements,omitempty"`
	SampleImprovedAnswer string           `json:"sample_improved_answer,omitempty"`
	Engine               string           `json:"engine"`
	EvaluatedAt          time.Time        `json:"evaluated_at"`
}

// Category returns the scored category with the given key.
func (r EvaluationResult) Category(key string) (CategoryResult, bool) {
	for _, c := range r.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return CategoryResult{}, false
}

// EvaluationRecord is one scored submission. Records are written once and never updated.
type EvaluationRecord struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID         string           `gorm:"type:text;index" json:"user_id"`
	SessionID      string           `gorm:"type:text;index" json:"session_id"`
	Mode           Mode             `gorm:"type:text;not null" json:"mode"`
	Filename       string           `gorm:"type:text" json:"filename,omitempty"`
	InputRef       string           `gorm:"type:text" json:"input_ref,omitempty"`
	ResumeText     string           `gorm:"type:text" json:"resume_text,omitempty"`
	JobDescription string           `gorm:"type:text" json:"job_description,omitempty"`
	JobRole        string           `gorm:"type:text" json:"job_role,omitempty"`
	Question       string           `gorm:"type:text" json:"question,omitempty"`
	Answer         string           `gorm:"type:text" json:"answer,omitempty"`
	Result         EvaluationResult `gorm:"serializer:json;type:text" json:"evaluation"`
	CreatedAt      time.Time        `gorm:"index" json:"timestamp"`
}

func (EvaluationRecord) TableName() string {
	return "evaluations"
}
