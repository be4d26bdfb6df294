package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/internal/domains/auth"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/internal/repository/session"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := Logger.NewNop()
	r := gin.New()
	InitializeRoutes(r, Dependencies{
		Config:      &config.Settings{},
		Logger:      log,
		AuthService: auth.NewAuthService("secret", time.Hour, "", log),
		Interviews:  interview.NewService(session.NewMemoryInterviewRepo(time.Hour), nil, interview.Config{}, log),
	})
	return r
}

func TestHealth(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Status != "ok" {
		t.Errorf("body = %s", w.Body)
	}
}

func TestSwaggerDoc(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/interview/start") {
		t.Errorf("doc does not describe the interview routes")
	}
}

func TestInterviewRoutesRequireAuth(t *testing.T) {
	r := newTestRouter()
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/interview/start"},
		{http.MethodGet, "/api/interview/state/x"},
		{http.MethodPost, "/api/interview/answer/x"},
		{http.MethodPost, "/api/interview/x/code"},
		{http.MethodGet, "/api/interview/x/report"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestTokenRejectedWithoutConfiguredKey(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{"user_id":"u1","api_key":"k"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
}
