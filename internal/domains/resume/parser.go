// Package resume extracts the candidate background used to tailor
// resume-based interviews from plain-text resumes.
package resume

import (
	"errors"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/xpanvictor/intervox/internal/domains/interview"
)

var (
	ErrUnreadable  = errors.New("no readable text in resume")
	ErrUnsupported = errors.New("unsupported resume format, upload plain text or markdown")
)

const minTextLength = 20

type section string

const (
	sectionEducation    section = "education"
	sectionProjects     section = "projects"
	sectionSkills       section = "skills"
	sectionAchievements section = "achievements"
	sectionWork         section = "work"
	sectionSummary      section = "summary"
)

// checked in order; the first header that matches wins
var sectionHeaders = []struct {
	key     section
	headers []string
}{
	{sectionEducation, []string{"education", "coursework"}},
	{sectionProjects, []string{"projects", "research", "research projects"}},
	{sectionSkills, []string{"technical skills", "skills", "technologies", "languages", "libraries & frameworks", "developer tools"}},
	{sectionAchievements, []string{"achievements", "awards", "certifications"}},
	{sectionWork, []string{"experience", "work experience", "internship", "positions", "employment", "professional experience"}},
	{sectionSummary, []string{"summary", "about", "profile"}},
}

var knownSkills = []string{
	"python", "c", "c++", "go", "golang", "rust", "javascript", "typescript", "sql", "java", "kotlin",
	"swift", "react", "redux", "vue", "angular", "html", "css", "node.js", "express", "django", "flask",
	"fastapi", "gin", "mongodb", "postgresql", "mysql", "redis", "kafka", "docker", "kubernetes", "aws",
	"gcp", "azure", "terraform", "graphql", "grpc", "pytorch", "tensorflow", "pandas", "numpy", "git",
}

var (
	nonHeaderChars = regexp.MustCompile(`[^a-z0-9&\s]`)
	spaces         = regexp.MustCompile(`\s+`)
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	digitPattern   = regexp.MustCompile(`\d`)
	wordBoundary   = regexp.MustCompile(`[^a-z0-9+#.]+`)
)

// CheckFilename rejects binary formats the text parser cannot read.
func CheckFilename(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".txt", ".md", ".text":
		return nil
	default:
		return ErrUnsupported
	}
}

// Parse extracts name, skills, projects and summary from resume text.
func Parse(text string) (*interview.ResumeData, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\x00", ""))
	if len(text) < minTextLength {
		return nil, ErrUnreadable
	}
	sections, lines := splitSections(text)
	return &interview.ResumeData{
		Name:     extractName(lines),
		Skills:   extractSkills(sections, lines),
		Projects: extractProjects(sections[sectionProjects]),
		Summary:  extractSummary(sections[sectionSummary], lines),
	}, nil
}

func normalizeHeader(s string) string {
	s = nonHeaderChars.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Trim(spaces.ReplaceAllString(s, " "), " :")
}

func headerOf(line string) (section, bool) {
	norm := normalizeHeader(line)
	for _, sh := range sectionHeaders {
		for _, h := range sh.headers {
			if norm == h || strings.HasPrefix(norm, h+" ") {
				return sh.key, true
			}
		}
	}
	return "", false
}

func splitSections(text string) (map[section][]string, []string) {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	sections := make(map[section][]string)
	var current section
	for _, l := range lines {
		if key, ok := headerOf(l); ok {
			current = key
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], l)
		}
	}
	return sections, lines
}

// extractName picks the first short capitalized line that is not contact info.
func extractName(lines []string) string {
	for _, l := range lines {
		if emailPattern.MatchString(l) || digitPattern.MatchString(l) {
			continue
		}
		if _, ok := headerOf(l); ok {
			continue
		}
		words := strings.Fields(l)
		if len(words) < 2 || len(l) >= 40 {
			continue
		}
		capitalized := true
		for _, w := range words {
			if r := w[0]; r >= 'a' && r <= 'z' {
				capitalized = false
				break
			}
		}
		if capitalized {
			return l
		}
	}
	if m := emailPattern.FindString(strings.Join(lines, " ")); m != "" {
		words := strings.Fields(strings.ReplaceAll(strings.Split(m, "@")[0], ".", " "))
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		return strings.Join(words, " ")
	}
	return ""
}

func extractSkills(sections map[section][]string, lines []string) []string {
	source := sections[sectionSkills]
	if len(source) == 0 {
		source = lines
	}
	tokens := make(map[string]bool)
	for _, tok := range wordBoundary.Split(strings.ToLower(strings.Join(source, " ")), -1) {
		tokens[strings.Trim(tok, ".")] = true
		tokens[tok] = true
	}
	var found []string
	for _, skill := range knownSkills {
		if tokens[skill] {
			found = append(found, skill)
		}
	}
	sort.Strings(found)
	return found
}

// extractProjects names projects from "Name | tech, tech" lines, falling back
// to the first line of each bullet-separated block.
func extractProjects(lines []string) []string {
	var names []string
	expectName := true
	for _, l := range lines {
		switch {
		case strings.Contains(l, "|"):
			names = append(names, strings.TrimSpace(strings.SplitN(l, "|", 2)[0]))
			expectName = false
		case strings.HasPrefix(l, "-"), strings.HasPrefix(l, "•"), strings.HasPrefix(l, "*"):
			expectName = true
		case expectName:
			names = append(names, l)
			expectName = false
		}
	}
	out := names[:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func extractSummary(summary, lines []string) string {
	if len(summary) > 0 {
		return strings.Join(capLines(summary, 4), " ")
	}
	var intro []string
	for _, l := range lines {
		if _, ok := headerOf(l); ok {
			break
		}
		if len(l) > 8 && !emailPattern.MatchString(l) {
			intro = append(intro, l)
		}
	}
	return strings.Join(capLines(intro, 3), " ")
}

func capLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
