package handlers

import (
	"time"

	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/pkg/sandbox"
)

// Response wrapper types for Swagger documentation

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status string    `json:"status" example:"ok"`
	Time   time.Time `json:"time"`
}

// StartInterviewResponse represents the response for starting an interview
type StartInterviewResponse struct {
	SessionID     string              `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FirstQuestion *interview.Question `json:"first_question"`
	Phase         interview.Phase     `json:"phase" example:"greeting"`
}

// InterviewStateResponse represents the stored interview record
type InterviewStateResponse struct {
	Interview *interview.Interview `json:"interview"`
}

// AnswerRequest represents a typed answer to the current question
type AnswerRequest struct {
	Answer string `json:"answer" binding:"required" example:"I would use a hash map keyed by value."`
}

// AnswerResponse represents the outcome of answering a question. Report is
// set once the wrap up answer completes the interview.
type AnswerResponse struct {
	interview.AnswerResult
	Report *interview.Report `json:"report,omitempty"`
}

// CodeResponse represents the result of running submitted code
type CodeResponse struct {
	Result *sandbox.Result `json:"result"`
}

// ReportResponse represents a completed interview report
type ReportResponse struct {
	Report *interview.Report `json:"report"`
}
