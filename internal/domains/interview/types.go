package interview

import (
	"errors"
	"strings"
	"time"

	"github.com/xpanvictor/intervox/pkg/protocol"
	"github.com/xpanvictor/intervox/pkg/sandbox"
)

var (
	ErrNotFound          = errors.New("interview not found")
	ErrForbidden         = errors.New("interview belongs to another user")
	ErrEnded             = errors.New("interview has ended")
	ErrInvalidType       = errors.New("unknown interview type")
	ErrInvalidDifficulty = errors.New("unknown difficulty")
	ErrMissingRole       = errors.New("custom interviews need a role")
	ErrNoTestCases       = errors.New("no test cases to run")
	ErrAISpeaking        = errors.New("ai is still speaking")
	ErrBusy              = errors.New("still processing the previous answer")
)

type InterviewType string

const (
	TypeDSA        InterviewType = "dsa"
	TypeFrontend   InterviewType = "frontend"
	TypeBackend    InterviewType = "backend"
	TypeCore       InterviewType = "core"
	TypeBehavioral InterviewType = "behavioral"
	TypeResume     InterviewType = "resume"
	TypeCustom     InterviewType = "custom"
)

func (t InterviewType) Valid() bool {
	switch t {
	case TypeDSA, TypeFrontend, TypeBackend, TypeCore, TypeBehavioral, TypeResume, TypeCustom:
		return true
	}
	return false
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

type QuestionType string

const (
	QuestionCoding       QuestionType = "coding"
	QuestionTheory       QuestionType = "theory"
	QuestionBehavioral   QuestionType = "behavioral"
	QuestionSystemDesign QuestionType = "system_design"
)

type Phase string

const (
	PhaseGreeting   Phase = "greeting"
	PhaseBehavioral Phase = "behavioral"
	PhaseCoding     Phase = "coding"
	PhaseWrapUp     Phase = "wrap_up"
	PhaseEnded      Phase = "ended"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// TestCase is one input/output pair of a coding question.
type TestCase struct {
	Input  string `json:"input" example:"[2,7,11,15]\n9"`
	Output string `json:"output" example:"[0,1]"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Question is one prompt put to the candidate.
// @Description Interview question
type Question struct {
	ID          string       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Type        QuestionType `json:"type" example:"coding"`
	Text        string       `json:"question" example:"Tell me about a project you are proud of."`
	Title       string       `json:"title,omitempty" example:"Two Sum"`
	Description string       `json:"description,omitempty"`
	Constraints []string     `json:"constraints,omitempty"`
	Hints       []string     `json:"hints,omitempty"`
	TestCases   []TestCase   `json:"test_cases,omitempty"`
	Difficulty  Difficulty   `json:"difficulty,omitempty" example:"medium"`
	FollowUp    bool         `json:"follow_up,omitempty"`
	AskedAt     time.Time    `json:"asked_at"`
}

// Response is the candidate's answer to a question plus its evaluation.
type Response struct {
	QuestionID string    `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Analysis   string    `json:"analysis,omitempty"`
	Score      int       `json:"score,omitempty" example:"7"`
	AnsweredAt time.Time `json:"answered_at"`
}

type CodeSubmission struct {
	QuestionID  string          `json:"question_id,omitempty"`
	Language    string          `json:"language" example:"python"`
	SourceCode  string          `json:"source_code"`
	Result      *sandbox.Result `json:"result,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Interview is the persisted state of one mock interview.
// @Description Interview session state
type Interview struct {
	ID              string           `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID          string           `json:"user_id" example:"candidate-42"`
	CandidateName   string           `json:"candidate_name,omitempty" example:"Ada"`
	Type            InterviewType    `json:"interview_type" example:"dsa"`
	Difficulty      Difficulty       `json:"difficulty" example:"medium"`
	CustomRole      string           `json:"custom_role,omitempty" example:"site reliability engineer"`
	Tags            []string         `json:"tags,omitempty"`
	Resume          *ResumeData      `json:"resume,omitempty"`
	Phase           Phase            `json:"phase" example:"greeting"`
	Status          Status           `json:"status" example:"active"`
	Questions       []Question       `json:"questions"`
	Responses       []Response       `json:"responses"`
	CodeSubmissions []CodeSubmission `json:"code_submissions"`
	Feedback        string           `json:"feedback,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	EndedAt         *time.Time       `json:"ended_at,omitempty"`
}

// ResumeData is the part of a parsed resume the interviewer asks about.
// @Description Candidate background extracted from a resume
type ResumeData struct {
	Name     string   `json:"name,omitempty" example:"Ada Lovelace"`
	Skills   []string `json:"skills,omitempty"`
	Projects []string `json:"projects,omitempty"`
	Summary  string   `json:"summary,omitempty"`
}

const (
	maxBackgroundSkills   = 10
	maxBackgroundProjects = 3
)

// Background describes the candidate for question prompts.
func (iv *Interview) Background() string {
	var parts []string
	if r := iv.Resume; r != nil {
		if len(r.Skills) > 0 {
			parts = append(parts, "skills "+strings.Join(capList(r.Skills, maxBackgroundSkills), ", "))
		}
		if len(r.Projects) > 0 {
			parts = append(parts, "projects "+strings.Join(capList(r.Projects, maxBackgroundProjects), ", "))
		}
	}
	if iv.CustomRole != "" {
		parts = append(parts, "target role "+iv.CustomRole)
	}
	if len(parts) == 0 {
		return "not provided"
	}
	return strings.Join(parts, "; ")
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// Current returns the question awaiting an answer, or nil.
func (iv *Interview) Current() *Question {
	if len(iv.Questions) == 0 {
		return nil
	}
	return &iv.Questions[len(iv.Questions)-1]
}

func (iv *Interview) Ended() bool {
	return iv.Status == StatusCompleted || iv.Phase == PhaseEnded
}

// Role is the position the candidate is interviewing for.
func (iv *Interview) Role() string {
	if iv.Type == TypeCustom && iv.CustomRole != "" {
		return iv.CustomRole
	}
	switch iv.Type {
	case TypeFrontend:
		return "frontend engineer"
	case TypeBackend:
		return "backend engineer"
	default:
		return "software engineer"
	}
}

// Asked lists the text or title of every question so far.
func (iv *Interview) Asked() []string {
	out := make([]string, 0, len(iv.Questions))
	for _, q := range iv.Questions {
		if q.Title != "" {
			out = append(out, q.Title)
			continue
		}
		out = append(out, q.Text)
	}
	return out
}

// LastCoding returns the most recent coding question, or nil.
func (iv *Interview) LastCoding() *Question {
	for i := len(iv.Questions) - 1; i >= 0; i-- {
		if iv.Questions[i].Type == QuestionCoding {
			return &iv.Questions[i]
		}
	}
	return nil
}

func (iv *Interview) Duration(now time.Time) time.Duration {
	end := now
	if iv.EndedAt != nil {
		end = *iv.EndedAt
	}
	return end.Sub(iv.StartedAt)
}

// ToProtocol renders q for the websocket client. Hidden test cases stay
// server side.
func (q Question) ToProtocol() *protocol.Question {
	out := &protocol.Question{
		ID:          q.ID,
		Type:        string(q.Type),
		Text:        q.Text,
		Title:       q.Title,
		Description: q.Description,
		Difficulty:  string(q.Difficulty),
		Constraints: q.Constraints,
		Hints:       q.Hints,
	}
	for _, tc := range q.TestCases {
		if tc.Hidden {
			continue
		}
		out.TestCases = append(out.TestCases, protocol.TestCase{Input: tc.Input, ExpectedOutput: tc.Output})
	}
	return out
}

const speakableDescriptionLimit = 200

// SpeakableText is what gets synthesized for q. Coding questions are read as
// their title and the start of the description.
func SpeakableText(q Question) string {
	if q.Type != QuestionCoding || q.Title == "" {
		return q.Text
	}
	desc := strings.TrimSpace(q.Description)
	if r := []rune(desc); len(r) > speakableDescriptionLimit {
		desc = string(r[:speakableDescriptionLimit])
	}
	return q.Title + ". " + desc + "..."
}

// Report is the summary persisted once an interview completes.
// @Description Completed interview report
type Report struct {
	InterviewID       string        `json:"interview_id"`
	UserID            string        `json:"user_id"`
	Type              InterviewType `json:"interview_type"`
	Difficulty        Difficulty    `json:"difficulty"`
	Role              string        `json:"role"`
	QuestionsAnswered int           `json:"questions_answered"`
	CodeSubmissions   int           `json:"code_submissions"`
	DurationMinutes   int           `json:"duration_minutes"`
	AverageScore      float64       `json:"average_score"`
	Scores            []int         `json:"scores,omitempty"`
	Feedback          string        `json:"feedback"`
	CompletedAt       time.Time     `json:"completed_at"`
}

func (r Report) ToProtocol() *protocol.Feedback {
	return &protocol.Feedback{
		Summary:           r.Feedback,
		QuestionsAnswered: r.QuestionsAnswered,
		DurationMinutes:   r.DurationMinutes,
		CodeSubmissions:   r.CodeSubmissions,
		GeneratedAt:       r.CompletedAt,
	}
}
