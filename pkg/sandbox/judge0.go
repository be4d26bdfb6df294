// Package sandbox runs candidate code against test cases on a Judge0
// instance.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xpanvictor/intervox/pkg/Logger"
)

var ErrNotConfigured = errors.New("sandbox: code execution is not configured")

const defaultLanguageID = 71

var languageIDs = map[string]int{
	"python":     71,
	"javascript": 63,
	"java":       62,
	"cpp":        54,
	"c":          50,
	"go":         60,
	"rust":       73,
}

// LanguageID maps a language name to its Judge0 id, defaulting to Python.
func LanguageID(language string) int {
	if id, ok := languageIDs[strings.ToLower(strings.TrimSpace(language))]; ok {
		return id
	}
	return defaultLanguageID
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"is_hidden"`
}

type TestResult struct {
	Passed   bool    `json:"passed"`
	Output   string  `json:"output,omitempty"`
	Expected string  `json:"expected,omitempty"`
	Time     float64 `json:"time"`
	Memory   float64 `json:"memory"`
	Status   string  `json:"status,omitempty"`
	Error    string  `json:"error,omitempty"`
	Hidden   bool    `json:"hidden,omitempty"`
}

type Result struct {
	Passed        bool         `json:"passed"`
	PassedTests   int          `json:"passed_tests"`
	TotalTests    int          `json:"total_tests"`
	ExecutionTime float64      `json:"execution_time"`
	MemoryUsed    float64      `json:"memory_used"`
	TestResults   []TestResult `json:"test_results"`
}

// Executor runs code against test cases.
type Executor interface {
	Execute(ctx context.Context, code, language string, tests []TestCase) (*Result, error)
}

type Config struct {
	// e.g. https://judge0-ce.p.rapidapi.com
	URL     string
	APIKey  string
	APIHost string
	Timeout time.Duration
}

type Judge0 struct {
	cfg    Config
	client *http.Client
	log    *Logger.Logger
}

func NewJudge0(cfg Config, log *Logger.Logger) *Judge0 {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Judge0{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    Logger.OrNop(log).Named("sandbox"),
	}
}

type submission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type submissionResult struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Time          *string `json:"time"`
	Memory        float64 `json:"memory"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Execute runs every test case in order and aggregates the outcome. A test
// that cannot be run counts as failed; only an unconfigured sandbox or a
// cancelled context is an error.
func (j *Judge0) Execute(ctx context.Context, code, language string, tests []TestCase) (*Result, error) {
	if j.cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	langID := LanguageID(language)

	res := &Result{TestResults: make([]TestResult, 0, len(tests))}
	for _, tc := range tests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr := j.runOne(ctx, code, langID, tc)
		tr.Hidden = tc.Hidden
		res.TestResults = append(res.TestResults, tr)
		if tr.Passed {
			res.PassedTests++
		}
		res.ExecutionTime += tr.Time
		if tr.Memory > res.MemoryUsed {
			res.MemoryUsed = tr.Memory
		}
	}
	res.TotalTests = len(res.TestResults)
	res.Passed = res.TotalTests > 0 && res.PassedTests == res.TotalTests
	return res, nil
}

func (j *Judge0) runOne(ctx context.Context, code string, langID int, tc TestCase) TestResult {
	expected := strings.TrimSpace(tc.ExpectedOutput)
	payload, err := json.Marshal(submission{
		SourceCode:     code,
		LanguageID:     langID,
		Stdin:          tc.Input,
		ExpectedOutput: expected,
	})
	if err != nil {
		return TestResult{Error: err.Error(), Expected: expected}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		j.cfg.URL+"/submissions?base64_encoded=false&wait=true", bytes.NewReader(payload))
	if err != nil {
		return TestResult{Error: err.Error(), Expected: expected}
	}
	req.Header.Set("Content-Type", "application/json")
	if j.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", j.cfg.APIKey)
	}
	if j.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", j.cfg.APIHost)
	}

	resp, err := j.client.Do(req)
	if err != nil {
		j.log.Errorf("judge0 request failed: %v", err)
		return TestResult{Error: err.Error(), Expected: expected}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		j.log.Errorf("judge0 error: status %d: %s", resp.StatusCode, string(body))
		return TestResult{Error: fmt.Sprintf("execution failed with status %d", resp.StatusCode), Expected: expected}
	}

	var sr submissionResult
	if err := json.Unmarshal(body, &sr); err != nil {
		return TestResult{Error: fmt.Sprintf("bad judge0 response: %v", err), Expected: expected}
	}

	out := TestResult{
		Output:   strings.TrimSpace(deref(sr.Stdout)),
		Expected: expected,
		Memory:   sr.Memory,
		Status:   sr.Status.Description,
	}
	if sr.Time != nil {
		out.Time, _ = strconv.ParseFloat(*sr.Time, 64)
	}
	if msg := firstNonEmpty(deref(sr.CompileOutput), deref(sr.Stderr)); msg != "" {
		out.Error = strings.TrimSpace(msg)
	}
	out.Passed = out.Output == expected
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
