package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// EvaluationJob tracks an evaluation submitted through the JSON API.
// The job id becomes the id of the record written on completion.
type EvaluationJob struct {
	ID           uuid.UUID
	UserID       string
	SessionID    string
	Mode         Mode
	Status       JobStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Resume    *ResumeSubmission
	Interview *InterviewSubmission
}

type ResumeSubmission struct {
	Filename       string
	InputRef       string
	ResumeText     string
	JobDescription string
}

type InterviewSubmission struct {
	Question       string `json:"question" form:"question"`
	Answer         string `json:"answer" form:"answer"`
	JobDescription string `json:"job_description" form:"job_description"`
	JobRole        string `json:"job_role" form:"job_role"`
}
