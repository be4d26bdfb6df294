package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/xpanvictor/intervox/internal/domains/interview"
)

const resumeText = `Ada Lovelace
Skills
Go, Redis, Docker
Projects
Intervox | Go
- Interview practice
`

func (a *testAPI) upload(t *testing.T, token, filename, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(body))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/resume/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestParseResumeUpload(t *testing.T) {
	a := newTestAPI(t, 100)
	tok := a.token(t, "u1")

	w := a.upload(t, tok, "cv.txt", resumeText)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	got := decode[interview.ResumeData](t, w)
	if got.Name != "Ada Lovelace" {
		t.Errorf("name = %q", got.Name)
	}
	if !reflect.DeepEqual(got.Skills, []string{"docker", "go", "redis"}) {
		t.Errorf("skills = %v", got.Skills)
	}
	if !reflect.DeepEqual(got.Projects, []string{"Intervox"}) {
		t.Errorf("projects = %v", got.Projects)
	}

	if w := a.upload(t, tok, "cv.pdf", resumeText); w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("pdf status = %d", w.Code)
	}
	if w := a.upload(t, tok, "cv.txt", "tiny"); w.Code != http.StatusBadRequest {
		t.Errorf("short resume status = %d", w.Code)
	}
}

func TestParseResumePlainBody(t *testing.T) {
	a := newTestAPI(t, 100)
	req := httptest.NewRequest(http.MethodPost, "/api/resume/parse", strings.NewReader(resumeText))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+a.token(t, "u1"))
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}

	if w := a.do(http.MethodPost, "/api/resume/parse", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", w.Code)
	}
}

func TestStartWithResume(t *testing.T) {
	a := newTestAPI(t, 100)
	tok := a.token(t, "u1")

	body := map[string]any{
		"interview_type": "resume",
		"resume_data":    interview.ResumeData{Name: "Ada Lovelace", Skills: []string{"go"}, Projects: []string{"Intervox"}},
	}
	w := a.do(http.MethodPost, "/api/interview/start", tok, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	started := decode[StartInterviewResponse](t, w)

	state := decode[InterviewStateResponse](t, a.do(http.MethodGet, "/api/interview/state/"+started.SessionID, tok, nil))
	iv := state.Interview
	if iv.Resume == nil || !reflect.DeepEqual(iv.Resume.Projects, []string{"Intervox"}) {
		t.Fatalf("resume not stored: %+v", iv.Resume)
	}
	if iv.CandidateName != "Ada Lovelace" {
		t.Errorf("candidate name = %q, want name from resume", iv.CandidateName)
	}
}
