package interview

import (
	"fmt"
	"slices"
)

var fallbackCoding = []Question{
	{
		Type:  QuestionCoding,
		Title: "Two Sum",
		Description: "Given an array of integers nums and an integer target, return the indices of " +
			"the two numbers such that they add up to target. Each input has exactly one solution " +
			"and you may not use the same element twice.",
		Constraints: []string{"2 <= nums.length <= 10^4", "-10^9 <= nums[i] <= 10^9"},
		Hints:       []string{"Use a hash map to store seen numbers"},
		TestCases: []TestCase{
			{Input: "[2,7,11,15]\n9", Output: "[0,1]"},
			{Input: "[3,2,4]\n6", Output: "[1,2]"},
			{Input: "[3,3]\n6", Output: "[0,1]"},
		},
		Difficulty: Easy,
	},
	{
		Type:  QuestionCoding,
		Title: "Valid Parentheses",
		Description: "Given a string containing just the characters '(', ')', '{', '}', '[' and ']', " +
			"determine whether every bracket is closed by the same type in the correct order.",
		Constraints: []string{"1 <= s.length <= 10^4"},
		Hints:       []string{"Push opening brackets on a stack"},
		TestCases: []TestCase{
			{Input: "()[]{}", Output: "true"},
			{Input: "(]", Output: "false"},
			{Input: "([{}])", Output: "true"},
		},
		Difficulty: Easy,
	},
	{
		Type:  QuestionCoding,
		Title: "Longest Substring Without Repeating Characters",
		Description: "Given a string s, find the length of the longest substring that contains no " +
			"repeated characters.",
		Constraints: []string{"0 <= s.length <= 5 * 10^4"},
		Hints:       []string{"Slide a window and remember the last index of each character"},
		TestCases: []TestCase{
			{Input: "abcabcbb", Output: "3"},
			{Input: "bbbbb", Output: "1"},
			{Input: "pwwkew", Output: "3"},
		},
		Difficulty: Medium,
	},
}

var fallbackQuestions = map[InterviewType][]string{
	TypeBehavioral: {
		"Tell me about a time you disagreed with a teammate and how you resolved it.",
		"Describe a project that failed. What did you learn from it?",
		"Tell me about a time you had to deliver under a tight deadline.",
	},
	TypeFrontend: {
		"How does the browser turn HTML, CSS and JavaScript into pixels on the screen?",
		"When would you reach for server side rendering over a single page application?",
		"How do you track down a slow rendering component?",
	},
	TypeBackend: {
		"How would you design an API that stays responsive under a sudden traffic spike?",
		"Walk me through how you would choose between a relational and a document database.",
		"How do you make a background job safe to retry?",
	},
	TypeCore: {
		"What happens between typing a URL in the browser and the page appearing?",
		"Explain the difference between a process and a thread.",
		"How does a database index speed up a query, and what does it cost?",
	},
	TypeResume: {
		"Walk me through the project on your resume you are most proud of.",
		"What was the hardest technical decision in your last role?",
		"Which skill on your resume did you learn most recently, and how?",
	},
}

const wrapUpQuestion = "We are almost out of time. Is there anything you would like to add or ask me before we finish?"

func fallbackGreeting(name, role string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hello %s, welcome to your mock interview for the %s role. "+
		"To get started, please briefly introduce yourself.", name, role)
}

// fallbackCodingQuestion returns the first bank problem not yet asked.
func fallbackCodingQuestion(asked []string) Question {
	for _, q := range fallbackCoding {
		if !slices.Contains(asked, q.Title) {
			return cloneQuestion(q)
		}
	}
	return cloneQuestion(fallbackCoding[0])
}

func fallbackTextQuestion(t InterviewType, asked []string) string {
	bank, ok := fallbackQuestions[t]
	if !ok {
		bank = fallbackQuestions[TypeBehavioral]
	}
	for _, q := range bank {
		if !slices.Contains(asked, q) {
			return q
		}
	}
	return bank[0]
}

func cloneQuestion(q Question) Question {
	q.Constraints = slices.Clone(q.Constraints)
	q.Hints = slices.Clone(q.Hints)
	q.TestCases = slices.Clone(q.TestCases)
	return q
}
