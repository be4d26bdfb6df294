package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/xpanvictor/intervox/internal/constants/prompts"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/assistant"
	"github.com/xpanvictor/intervox/pkg/sandbox"
	"github.com/xpanvictor/intervox/pkg/utils"
)

const defaultTopics = "arrays, strings, hash maps, trees, graphs, dynamic programming"

type Config struct {
	// responses after which the interview moves to wrap up
	MaxQuestions int
	// responses after which dsa interviews move to coding
	CodingAfter int
}

func (c Config) withDefaults() Config {
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = 10
	}
	if c.CodingAfter <= 0 {
		c.CodingAfter = 2
	}
	return c
}

// StartRequest represents the data needed to start an interview
// @Description Request body for starting an interview
type StartRequest struct {
	UserID        string        `json:"-"`
	CandidateName string        `json:"candidate_name,omitempty" example:"Ada"`
	Type          InterviewType `json:"interview_type" binding:"required" example:"dsa"`
	Difficulty    Difficulty    `json:"difficulty,omitempty" example:"medium"`
	CustomRole    string        `json:"custom_role,omitempty" example:"site reliability engineer"`
	Tags          []string      `json:"tags,omitempty"`
	Resume        *ResumeData   `json:"resume_data,omitempty"`
}

// CodeRequest represents a code submission
// @Description Request body for running candidate code
type CodeRequest struct {
	Language   string     `json:"language" binding:"required" example:"python"`
	SourceCode string     `json:"source_code" binding:"required"`
	TestCases  []TestCase `json:"test_cases,omitempty"`
}

// AnswerResult is the outcome of answering or skipping a question.
type AnswerResult struct {
	Analysis     string    `json:"analysis,omitempty"`
	Score        int       `json:"score,omitempty"`
	Next         *Question `json:"next_question,omitempty"`
	Phase        Phase     `json:"phase"`
	PhaseChanged bool      `json:"phase_changed"`
	// Completed is set once the wrap up question has been answered.
	Completed bool `json:"completed"`
}

type Option func(*Service)

func WithReports(r ReportRepository) Option {
	return func(s *Service) { s.reports = r }
}

func WithExecutor(e sandbox.Executor) Option {
	return func(s *Service) { s.exec = e }
}

// WithExpiry finishes interviews left idle for longer than after.
func WithExpiry(sched ExpiryScheduler, after time.Duration) Option {
	return func(s *Service) {
		s.expiry = sched
		s.abandonAfter = after
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service drives interviews: question generation, answer evaluation, phase
// transitions and the final report.
type Service struct {
	store   Store
	reports ReportRepository
	exec    sandbox.Executor
	llm     assistant.Assistant
	cfg     Config
	log     *Logger.Logger
	now     func() time.Time

	expiry       ExpiryScheduler
	abandonAfter time.Duration

	// per interview mutexes serializing read-modify-write cycles
	locks sync.Map
}

func NewService(store Store, llm assistant.Assistant, cfg Config, log *Logger.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		llm:   llm,
		cfg:   cfg.withDefaults(),
		log:   Logger.OrNop(log).Named("interview"),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// forget drops the mutex of an ended interview. Callers still queued on it
// see the interview ended and write nothing.
func (s *Service) forget(id string) {
	s.locks.Delete(id)
}

func (s *Service) Start(ctx context.Context, req StartRequest) (*Interview, error) {
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}
	if req.Difficulty == "" {
		req.Difficulty = Medium
	}
	if !req.Difficulty.Valid() {
		return nil, ErrInvalidDifficulty
	}
	req.CustomRole = strings.TrimSpace(req.CustomRole)
	if req.Type == TypeCustom && req.CustomRole == "" {
		return nil, ErrMissingRole
	}

	name := strings.TrimSpace(req.CandidateName)
	if name == "" && req.Resume != nil {
		name = strings.TrimSpace(req.Resume.Name)
	}

	now := s.now()
	iv := &Interview{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		CandidateName:   name,
		Type:            req.Type,
		Difficulty:      req.Difficulty,
		CustomRole:      req.CustomRole,
		Tags:            req.Tags,
		Resume:          req.Resume,
		Phase:           PhaseGreeting,
		Status:          StatusActive,
		Questions:       []Question{},
		Responses:       []Response{},
		CodeSubmissions: []CodeSubmission{},
		StartedAt:       now,
		UpdatedAt:       now,
	}
	greeting := s.Greeting(ctx, iv.CandidateName, iv.Role())
	iv.Questions = append(iv.Questions, s.stamp(Question{
		Type:       QuestionBehavioral,
		Text:       greeting,
		Difficulty: iv.Difficulty,
	}))

	if err := s.store.Create(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	s.log.Infof("interview %s started: type=%s difficulty=%s user=%s", iv.ID, iv.Type, iv.Difficulty, iv.UserID)
	s.scheduleExpiry(ctx, iv.ID, now)
	return iv, nil
}

func (s *Service) scheduleExpiry(ctx context.Context, id string, from time.Time) {
	if s.expiry == nil || s.abandonAfter <= 0 {
		return
	}
	if err := s.expiry.ScheduleExpiry(ctx, id, from.Add(s.abandonAfter)); err != nil {
		s.log.Warnf("failed to schedule expiry for %s: %v", id, err)
	}
}

// Expire finishes an interview nobody has touched for the abandon window.
// Interviews touched since are rescheduled; missing or ended ones are ignored.
func (s *Service) Expire(ctx context.Context, id string) error {
	iv, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if iv.Ended() {
		return nil
	}
	if idle := s.now().Sub(iv.UpdatedAt); idle < s.abandonAfter {
		s.scheduleExpiry(ctx, id, iv.UpdatedAt)
		return nil
	}
	s.log.Infof("interview %s abandoned, finishing", id)
	_, err = s.Finish(ctx, id)
	return err
}

func (s *Service) Get(ctx context.Context, id string) (*Interview, error) {
	return s.store.Get(ctx, id)
}

// GetOwned is Get restricted to the interview's owner.
func (s *Service) GetOwned(ctx context.Context, id, userID string) (*Interview, error) {
	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.UserID != userID {
		return nil, ErrForbidden
	}
	return iv, nil
}

// Greeting returns an opening line for the candidate. It never fails.
func (s *Service) Greeting(ctx context.Context, name, role string) string {
	who := name
	if who == "" {
		who = "the candidate"
	}
	text, err := s.complete(ctx, prompts.GREETING_PROMPT.Render(who, role), false)
	if err != nil {
		s.log.Warnf("greeting generation failed, using fallback: %v", err)
		return fallbackGreeting(name, role)
	}
	return text
}

// ProcessAnswer evaluates the answer to the current question, advances the
// phase and appends the next question.
func (s *Service) ProcessAnswer(ctx context.Context, id, answer string) (*AnswerResult, error) {
	unlock := s.lock(id)
	defer unlock()

	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Ended() {
		s.forget(id)
		return nil, ErrEnded
	}
	q := iv.Current()
	if q == nil {
		return nil, fmt.Errorf("interview %s has no question", id)
	}
	current := *q
	answer = strings.TrimSpace(answer)
	resp := Response{
		QuestionID: current.ID,
		Question:   SpeakableText(current),
		Answer:     answer,
		AnsweredAt: s.now(),
	}

	if iv.Phase == PhaseWrapUp {
		iv.Responses = append(iv.Responses, resp)
		iv.UpdatedAt = s.now()
		if err := s.store.Update(ctx, iv); err != nil {
			return nil, fmt.Errorf("failed to update interview: %w", err)
		}
		return &AnswerResult{Phase: iv.Phase, Completed: true}, nil
	}

	var followUp string
	if iv.Phase != PhaseGreeting {
		resp.Analysis, resp.Score, followUp = s.analyze(ctx, current, answer)
	}
	iv.Responses = append(iv.Responses, resp)

	prev := iv.Phase
	iv.Phase = s.nextPhase(iv)
	next := s.pickNext(ctx, iv, current, prev, followUp)
	iv.Questions = append(iv.Questions, next)
	iv.UpdatedAt = s.now()

	if err := s.store.Update(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}
	if prev != iv.Phase {
		s.log.Infof("interview %s phase %s -> %s", iv.ID, prev, iv.Phase)
	}
	return &AnswerResult{
		Analysis:     resp.Analysis,
		Score:        resp.Score,
		Next:         &next,
		Phase:        iv.Phase,
		PhaseChanged: prev != iv.Phase,
	}, nil
}

// Skip moves past the current question without recording an answer.
func (s *Service) Skip(ctx context.Context, id string) (*AnswerResult, error) {
	unlock := s.lock(id)
	defer unlock()

	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Ended() {
		s.forget(id)
		return nil, ErrEnded
	}
	if iv.Phase == PhaseWrapUp {
		return &AnswerResult{Phase: iv.Phase, Completed: true}, nil
	}
	prev := iv.Phase
	if iv.Phase == PhaseGreeting {
		iv.Phase = PhaseBehavioral
	}
	next := s.stamp(s.generate(ctx, iv))
	iv.Questions = append(iv.Questions, next)
	iv.UpdatedAt = s.now()
	if err := s.store.Update(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}
	return &AnswerResult{Next: &next, Phase: iv.Phase, PhaseChanged: prev != iv.Phase}, nil
}

// SubmitCode runs the candidate's code against the given test cases, or the
// latest coding question's when none are given, and records the submission.
func (s *Service) SubmitCode(ctx context.Context, id string, req CodeRequest) (*sandbox.Result, error) {
	if s.exec == nil {
		return nil, sandbox.ErrNotConfigured
	}
	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Ended() {
		return nil, ErrEnded
	}
	tests := req.TestCases
	var questionID string
	if q := iv.LastCoding(); q != nil {
		questionID = q.ID
		if len(tests) == 0 {
			tests = q.TestCases
		}
	}
	if len(tests) == 0 {
		return nil, ErrNoTestCases
	}
	cases := make([]sandbox.TestCase, len(tests))
	for i, tc := range tests {
		cases[i] = sandbox.TestCase{Input: tc.Input, ExpectedOutput: tc.Output, Hidden: tc.Hidden}
	}

	result, err := s.exec.Execute(ctx, req.SourceCode, req.Language, cases)
	if err != nil {
		return nil, fmt.Errorf("failed to execute code: %w", err)
	}

	unlock := s.lock(id)
	defer unlock()
	iv, err = s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Ended() {
		s.forget(id)
		return nil, ErrEnded
	}
	iv.CodeSubmissions = append(iv.CodeSubmissions, CodeSubmission{
		QuestionID:  questionID,
		Language:    req.Language,
		SourceCode:  req.SourceCode,
		Result:      result,
		SubmittedAt: s.now(),
	})
	iv.UpdatedAt = s.now()
	if err := s.store.Update(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}
	s.log.Infof("interview %s code submission: %d/%d passed", id, result.PassedTests, result.TotalTests)
	return result, nil
}

// Finish generates the final feedback, completes the interview and persists
// its report. Finishing a completed interview returns the same report.
func (s *Service) Finish(ctx context.Context, id string) (*Report, error) {
	unlock := s.lock(id)
	defer unlock()

	iv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Ended() && iv.Feedback != "" {
		s.forget(id)
		r := s.buildReport(iv)
		return &r, nil
	}

	iv.Feedback = s.feedback(ctx, iv)
	now := s.now()
	iv.Phase = PhaseEnded
	iv.Status = StatusCompleted
	iv.EndedAt = &now
	iv.UpdatedAt = now
	if err := s.store.Update(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}
	s.forget(id)

	r := s.buildReport(iv)
	if s.reports != nil {
		if err := s.reports.Save(ctx, r); err != nil {
			s.log.Errorf("failed to persist report for %s: %v", id, err)
		}
	}
	s.log.Infof("interview %s completed: %d answers in %d minutes", id, r.QuestionsAnswered, r.DurationMinutes)
	return &r, nil
}

// Report returns the report of a completed interview owned by userID.
func (s *Service) Report(ctx context.Context, id, userID string) (*Report, error) {
	if s.reports != nil {
		r, err := s.reports.Get(ctx, id)
		switch {
		case err == nil:
			if r.UserID != userID {
				return nil, ErrForbidden
			}
			return r, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	iv, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !iv.Ended() {
		return nil, ErrNotFound
	}
	r := s.buildReport(iv)
	return &r, nil
}

func (s *Service) nextPhase(iv *Interview) Phase {
	n := len(iv.Responses)
	if n >= s.cfg.MaxQuestions {
		return PhaseWrapUp
	}
	switch iv.Phase {
	case PhaseGreeting:
		if iv.Type == TypeDSA && n >= s.cfg.CodingAfter {
			return PhaseCoding
		}
		return PhaseBehavioral
	case PhaseBehavioral:
		if iv.Type == TypeDSA && n >= s.cfg.CodingAfter {
			return PhaseCoding
		}
	}
	return iv.Phase
}

// pickNext asks one follow-up per non-coding question while the phase holds,
// otherwise a fresh question.
func (s *Service) pickNext(ctx context.Context, iv *Interview, answered Question, prev Phase, followUp string) Question {
	if iv.Phase == PhaseWrapUp {
		return s.stamp(Question{Type: QuestionBehavioral, Text: wrapUpQuestion, Difficulty: iv.Difficulty})
	}
	if iv.Phase == prev && iv.Phase == PhaseBehavioral && !answered.FollowUp && answered.Type != QuestionCoding {
		if followUp == "" {
			var err error
			followUp, err = s.followUp(ctx, iv)
			if err != nil {
				s.log.Warnf("follow-up generation failed: %v", err)
			}
		}
		if followUp != "" {
			return s.stamp(Question{Type: answered.Type, Text: followUp, Difficulty: iv.Difficulty, FollowUp: true})
		}
	}
	return s.stamp(s.generate(ctx, iv))
}

func (s *Service) generate(ctx context.Context, iv *Interview) Question {
	if iv.Phase == PhaseCoding {
		return s.codingQuestion(ctx, iv)
	}
	return s.textQuestion(ctx, iv)
}

type flexString string

// UnmarshalJSON accepts numbers and arrays where a string is expected; models
// often emit test case values unquoted.
func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}

type generatedProblem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Constraints []string `json:"constraints"`
	TestCases   []struct {
		Input  flexString `json:"input"`
		Output flexString `json:"output"`
	} `json:"test_cases"`
	Hints      []string   `json:"hints"`
	Difficulty Difficulty `json:"difficulty"`
}

func (s *Service) codingQuestion(ctx context.Context, iv *Interview) Question {
	topics := defaultTopics
	if len(iv.Tags) > 0 {
		topics = strings.Join(iv.Tags, ", ")
	}
	prompt := prompts.DSA_QUESTION_PROMPT.Render(iv.Difficulty, topics, joinAsked(iv.Asked()), iv.Background())
	reply, err := s.complete(ctx, prompt, true)
	if err == nil {
		var p generatedProblem
		if err = json.Unmarshal([]byte(assistant.ExtractJSON(reply)), &p); err == nil {
			if p.Title != "" && p.Description != "" && len(p.TestCases) > 0 {
				q := Question{
					Type:        QuestionCoding,
					Title:       p.Title,
					Description: p.Description,
					Constraints: p.Constraints,
					Hints:       p.Hints,
					Difficulty:  iv.Difficulty,
				}
				if p.Difficulty.Valid() {
					q.Difficulty = p.Difficulty
				}
				for _, tc := range p.TestCases {
					q.TestCases = append(q.TestCases, TestCase{Input: string(tc.Input), Output: string(tc.Output)})
				}
				q.Text = q.Title + ": " + q.Description
				return q
			}
			err = errors.New("incomplete problem")
		}
	}
	s.log.Warnf("coding question generation failed, using fallback: %v", err)
	q := fallbackCodingQuestion(iv.Asked())
	q.Text = q.Title + ": " + q.Description
	return q
}

func (s *Service) textQuestion(ctx context.Context, iv *Interview) Question {
	asked := joinAsked(iv.Asked())
	var prompt string
	if iv.Type == TypeCustom {
		prompt = prompts.CUSTOM_ROLE_QUESTION_PROMPT.Render(iv.CustomRole, iv.Difficulty, asked, iv.Background())
	} else {
		prompt = prompts.GENERAL_QUESTION_PROMPT.Render(focus(iv.Type), iv.Difficulty, asked, iv.Background())
	}
	text, err := s.complete(ctx, prompt, false)
	if err != nil {
		s.log.Warnf("question generation failed, using fallback: %v", err)
		text = fallbackTextQuestion(iv.Type, iv.Asked())
	}
	return Question{Type: questionType(iv), Text: text, Difficulty: iv.Difficulty}
}

func (s *Service) followUp(ctx context.Context, iv *Interview) (string, error) {
	recent := iv.Responses
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	return s.complete(ctx, prompts.FOLLOW_UP_PROMPT.Render(formatExchanges(recent)), false)
}

func (s *Service) analyze(ctx context.Context, q Question, answer string) (analysis string, score int, followUp string) {
	text, err := s.complete(ctx, prompts.ANALYZE_RESPONSE_PROMPT.Render(SpeakableText(q), answer), false)
	if err != nil {
		s.log.Warnf("answer analysis failed: %v", err)
		return "", 0, ""
	}
	score, followUp = parseAnalysis(text)
	return text, score, followUp
}

var scoreRange = func() utils.Range[int] {
	lo, hi := 1, 10
	return utils.Range[int]{Min: &lo, Max: &hi}
}()

// parseAnalysis pulls the SCORE and FOLLOW-UP sections out of an analysis.
func parseAnalysis(text string) (score int, followUp string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "*#- "))
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "SCORE:"):
			if n, ok := firstInt(line[len("SCORE:"):]); ok {
				score = scoreRange.Clamp(n, func(a, b int) bool { return a < b })
			}
		case strings.HasPrefix(upper, "FOLLOW-UP:"):
			f := strings.TrimSpace(line[len("FOLLOW-UP:"):])
			if !strings.EqualFold(strings.TrimRight(f, "."), "none") {
				followUp = f
			}
		}
	}
	return score, followUp
}

func firstInt(s string) (int, bool) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	return n, err == nil
}

func (s *Service) feedback(ctx context.Context, iv *Interview) string {
	minutes := durationMinutes(iv.Duration(s.now()))
	prompt := prompts.FEEDBACK_PROMPT.Render(iv.Type, iv.Role(), minutes, formatExchanges(iv.Responses), codeSummary(iv.CodeSubmissions))
	text, err := s.complete(ctx, prompt, false)
	if err == nil {
		return text
	}
	s.log.Warnf("feedback generation failed, using summary: %v", err)
	summary := fmt.Sprintf("You answered %d questions in %d minutes.", len(iv.Responses), minutes)
	if avg, ok := averageScore(iv.Responses); ok {
		summary += fmt.Sprintf(" Your average score was %.1f out of 10.", avg)
	}
	if len(iv.CodeSubmissions) > 0 {
		summary += " Code submissions: " + codeSummary(iv.CodeSubmissions) + "."
	}
	return summary
}

func (s *Service) buildReport(iv *Interview) Report {
	completed := s.now()
	if iv.EndedAt != nil {
		completed = *iv.EndedAt
	}
	avg, _ := averageScore(iv.Responses)
	var scores []int
	for _, r := range iv.Responses {
		if r.Score > 0 {
			scores = append(scores, r.Score)
		}
	}
	return Report{
		InterviewID:       iv.ID,
		UserID:            iv.UserID,
		Type:              iv.Type,
		Difficulty:        iv.Difficulty,
		Role:              iv.Role(),
		QuestionsAnswered: len(iv.Responses),
		CodeSubmissions:   len(iv.CodeSubmissions),
		DurationMinutes:   durationMinutes(iv.Duration(completed)),
		AverageScore:      avg,
		Scores:            scores,
		Feedback:          iv.Feedback,
		CompletedAt:       completed,
	}
}

func (s *Service) complete(ctx context.Context, prompt string, json bool) (string, error) {
	if s.llm == nil {
		return "", assistant.ErrNoProvider
	}
	return assistant.Complete(ctx, s.llm, prompts.INTERVIEWER_PROMPT.Render(), prompt, json)
}

func (s *Service) stamp(q Question) Question {
	q.ID = uuid.NewString()
	q.AskedAt = s.now()
	return q
}

func focus(t InterviewType) string {
	switch t {
	case TypeFrontend:
		return "frontend engineering: browsers, JavaScript, UI frameworks and performance"
	case TypeBackend:
		return "backend engineering: APIs, databases, scalability and reliability"
	case TypeCore:
		return "computer science fundamentals: operating systems, networking and databases"
	case TypeResume:
		return "the candidate's past projects and work experience"
	default:
		return "teamwork, ownership and problem solving, answered with the STAR method"
	}
}

func questionType(iv *Interview) QuestionType {
	switch iv.Type {
	case TypeFrontend, TypeCore, TypeCustom:
		return QuestionTheory
	case TypeBackend:
		if iv.Difficulty == Hard {
			return QuestionSystemDesign
		}
		return QuestionTheory
	default:
		return QuestionBehavioral
	}
}

func joinAsked(asked []string) string {
	if len(asked) == 0 {
		return "none"
	}
	quoted := make([]string, len(asked))
	for i, a := range asked {
		quoted[i] = strconv.Quote(a)
	}
	return strings.Join(quoted, "; ")
}

func formatExchanges(rs []Response) string {
	if len(rs) == 0 {
		return "(no answers)"
	}
	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", r.Question, r.Answer)
	}
	return strings.TrimSpace(b.String())
}

func codeSummary(subs []CodeSubmission) string {
	if len(subs) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(subs))
	for _, c := range subs {
		if c.Result == nil {
			parts = append(parts, c.Language+": not run")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d/%d tests passed", c.Language, c.Result.PassedTests, c.Result.TotalTests))
	}
	return strings.Join(parts, "; ")
}

func averageScore(rs []Response) (float64, bool) {
	var sum, n int
	for _, r := range rs {
		if r.Score > 0 {
			sum += r.Score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Round(float64(sum)/float64(n)*10) / 10, true
}

func durationMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
