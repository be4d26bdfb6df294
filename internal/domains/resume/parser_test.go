package resume

import (
	"errors"
	"reflect"
	"testing"
)

const sampleResume = `Ada Lovelace
ada.lovelace@example.com | +44 20 7946 0958

Summary
Backend engineer who enjoys distributed systems.

Technical Skills
Go, Python, Redis, Docker, PostgreSQL, node.js

Projects
Intervox | Go, WebSockets, Redis
- Voice interview practice service
Ledger
- Double entry bookkeeping API
Crawler | Python
- Polite web crawler

Education
B.Sc. Computer Science, University of London, 2019
`

func TestParseResume(t *testing.T) {
	r, err := Parse(sampleResume)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Name != "Ada Lovelace" {
		t.Errorf("name = %q", r.Name)
	}
	wantSkills := []string{"docker", "go", "node.js", "postgresql", "python", "redis"}
	if !reflect.DeepEqual(r.Skills, wantSkills) {
		t.Errorf("skills = %v, want %v", r.Skills, wantSkills)
	}
	wantProjects := []string{"Intervox", "Ledger", "Crawler"}
	if !reflect.DeepEqual(r.Projects, wantProjects) {
		t.Errorf("projects = %v, want %v", r.Projects, wantProjects)
	}
	if r.Summary != "Backend engineer who enjoys distributed systems." {
		t.Errorf("summary = %q", r.Summary)
	}
}

func TestParseNameFromEmail(t *testing.T) {
	r, err := Parse("grace.hopper@example.com\nskills\ncobol and go compilers")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Name != "Grace Hopper" {
		t.Errorf("name = %q, want Grace Hopper", r.Name)
	}
	if !reflect.DeepEqual(r.Skills, []string{"go"}) {
		t.Errorf("skills = %v", r.Skills)
	}
}

func TestParseRejectsShortText(t *testing.T) {
	if _, err := Parse("  too short \x00 "); !errors.Is(err, ErrUnreadable) {
		t.Errorf("err = %v, want ErrUnreadable", err)
	}
}

func TestCheckFilename(t *testing.T) {
	for _, name := range []string{"cv.txt", "CV.MD", "resume"} {
		if err := CheckFilename(name); err != nil {
			t.Errorf("%s rejected: %v", name, err)
		}
	}
	for _, name := range []string{"cv.pdf", "cv.docx"} {
		if err := CheckFilename(name); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: err = %v, want ErrUnsupported", name, err)
		}
	}
}
