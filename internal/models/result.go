package models

type QuestionRequest struct {
	JobRole           string `json:"job_role" form:"job_role"`
	JobDescription    string `json:"job_description" form:"job_description"`
	DifficultyLevel   string `json:"difficulty_level" form:"difficulty_level"`
	NumberOfQuestions int    `json:"number_of_questions" form:"number_of_questions"`
}

type QuestionSet struct {
	Mode      string   `json:"mode"`
	Questions []string `json:"questions"`
}

type TokenRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type TokenResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      *PublicUser `json:"user"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Result       *EvaluationRecord `json:"result,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
}

type HistoryResponse struct {
	Count   int                `json:"count"`
	History []EvaluationRecord `json:"history"`
}
