package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestLanguageID(t *testing.T) {
	cases := map[string]int{"python": 71, "Go": 60, " rust ": 73, "cpp": 54, "cobol": 71, "": 71}
	for lang, want := range cases {
		if got := LanguageID(lang); got != want {
			t.Errorf("LanguageID(%q) = %d, want %d", lang, got, want)
		}
	}
}

func TestExecuteAggregates(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submissions" || r.URL.Query().Get("wait") != "true" {
			t.Errorf("unexpected request %s", r.URL)
		}
		mu.Lock()
		keys = append(keys, r.Header.Get("X-RapidAPI-Key"))
		mu.Unlock()
		var sub submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Errorf("decode: %v", err)
		}
		if sub.LanguageID != 60 {
			t.Errorf("language_id = %d, want 60", sub.LanguageID)
		}
		stdout := sub.Stdin + "\n"
		time := "0.02"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"stdout": stdout,
			"time":   time,
			"memory": 1024 * len(sub.Stdin),
			"status": map[string]any{"id": 3, "description": "Accepted"},
		})
	}))
	defer ts.Close()

	j := NewJudge0(Config{URL: ts.URL, APIKey: "k"}, nil)
	res, err := j.Execute(context.Background(), "package main", "go", []TestCase{
		{Input: "1", ExpectedOutput: "1\n"},
		{Input: "22", ExpectedOutput: "3", Hidden: true},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Passed || res.PassedTests != 1 || res.TotalTests != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.MemoryUsed != 2048 {
		t.Errorf("memory = %v, want max 2048", res.MemoryUsed)
	}
	if res.ExecutionTime < 0.039 || res.ExecutionTime > 0.041 {
		t.Errorf("execution time = %v, want 0.04", res.ExecutionTime)
	}
	if !res.TestResults[1].Hidden || res.TestResults[0].Status != "Accepted" {
		t.Errorf("test results = %+v", res.TestResults)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(keys) != 2 || keys[0] != "k" {
		t.Errorf("api key headers = %v", keys)
	}
}

func TestExecuteFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	res, err := NewJudge0(Config{URL: ts.URL}, nil).Execute(context.Background(), "x", "python", []TestCase{{Input: "", ExpectedOutput: "1"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Passed || res.TestResults[0].Error == "" {
		t.Errorf("result = %+v", res)
	}

	if _, err := NewJudge0(Config{}, nil).Execute(context.Background(), "x", "go", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
