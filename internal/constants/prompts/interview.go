package prompts

var (
	INTERVIEWER_PROMPT = SYS_PROMPT{
		Intent:         "Identity",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				You are a senior technical interviewer running a spoken mock interview.
				Keep every reply short enough to be read aloud. Be encouraging but honest,
				never reveal full solutions and never use markdown.
				`,
			},
		},
	}

	// args: candidate name, role
	GREETING_PROMPT = SYS_PROMPT{
		Intent:         "Greeting",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				Write a warm two sentence greeting for %s, who is interviewing for a %s role.
				End by asking them to briefly introduce themselves.
				Reply with the greeting only.
				`,
			},
		},
	}

	// args: difficulty, comma separated topics, previously asked titles, candidate background
	DSA_QUESTION_PROMPT = SYS_PROMPT{
		Intent:         "CodingQuestion",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				Generate one %s data structures and algorithms problem.
				Preferred topics: %s.
				Do not repeat any of these problems: %s.
				Candidate background: %s.
				Reply with a single JSON object and nothing else:
				{"title": "...", "description": "...", "constraints": ["..."],
				"test_cases": [{"input": "...", "output": "..."}], "hints": ["..."],
				"difficulty": "easy|medium|hard"}
				Provide at least three test cases.
				`,
			},
		},
	}

	// args: role, difficulty, previously asked questions, candidate background
	CUSTOM_ROLE_QUESTION_PROMPT = SYS_PROMPT{
		Intent:         "RoleQuestion",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				Ask one %[2]s interview question for a %[1]s position.
				It should test practical experience, not trivia.
				Do not repeat any of these questions: %[3]s.
				Candidate background: %[4]s.
				Reply with the question only.
				`,
			},
		},
	}

	// args: interview focus, difficulty, previously asked questions, candidate background
	GENERAL_QUESTION_PROMPT = SYS_PROMPT{
		Intent:         "Question",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				Ask one %[2]s interview question about %[1]s.
				Do not repeat any of these questions: %[3]s.
				Candidate background: %[4]s.
				Reply with the question only.
				`,
			},
		},
	}

	// args: question, answer
	ANALYZE_RESPONSE_PROMPT = SYS_PROMPT{
		Intent:         "Analysis",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				Question: %s
				Candidate answer: %s

				Evaluate the answer using exactly these sections:
				STRENGTHS: ...
				WEAKNESSES: ...
				SUGGESTIONS: ...
				SCORE: <1-10>
				FOLLOW-UP: <one follow-up question, or NONE>
				`,
			},
		},
	}

	// args: recent exchanges formatted as Q/A pairs
	FOLLOW_UP_PROMPT = SYS_PROMPT{
		Intent:         "FollowUp",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				Recent exchanges:
				%s

				Ask one natural follow-up question that digs deeper into the last answer.
				Reply with the question only.
				`,
			},
		},
	}

	// args: interview type, role, duration minutes, transcript of Q/A pairs, code summary
	FEEDBACK_PROMPT = SYS_PROMPT{
		Intent:         "Feedback",
		CurrentVersion: 0.1,
		Items: map[float32]PromptDefinition{
			0.1: {
				Version: 0.1,
				Content: `
				The %s interview for a %s role lasted %d minutes.
				Transcript:
				%s
				Code submissions: %s

				Write final feedback using these sections:
				OVERALL PERFORMANCE: ...
				TECHNICAL SKILLS: <score 1-10> ...
				COMMUNICATION: <score 1-10> ...
				PROBLEM SOLVING: <score 1-10> ...
				KEY STRENGTHS: ...
				AREAS FOR IMPROVEMENT: ...
				RECOMMENDATION: ...
				`,
			},
		},
	}
)
