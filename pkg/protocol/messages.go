// Package protocol defines the JSON envelope exchanged over the interview
// websocket. Both the server endpoint and the client transport use it.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType defines the type of a websocket message
type MessageType string

// Client to server
const (
	TypeStart            MessageType = "start"
	TypeStartRecording   MessageType = "start_recording"
	TypeStopRecording    MessageType = "stop_recording"
	TypeAnswerComplete   MessageType = "answer_complete"
	TypeInterrupt        MessageType = "interrupt"
	TypeSkipQuestion     MessageType = "skip_question"
	TypeEndInterview     MessageType = "end_interview"
	TypePing             MessageType = "ping"
	TypePlaybackComplete MessageType = "playback_complete"
)

// Server to client
const (
	TypeQuestion    MessageType = "question"
	TypeTranscript  MessageType = "transcript"
	TypeStatus      MessageType = "status"
	TypeFeedback    MessageType = "feedback"
	TypeError       MessageType = "error"
	TypePong        MessageType = "pong"
	TypeConnected   MessageType = "connected"
	TypePhaseChange MessageType = "phase_change"
	TypeInterrupted MessageType = "interrupted"
	TypeHeartbeat   MessageType = "heartbeat"
)

// Status values carried by TypeStatus
type Status string

const (
	StatusListening  Status = "listening"
	StatusProcessing Status = "processing"
	StatusSpeaking   Status = "speaking"
)

// ErrMalformed marks a frame that could not be decoded into a Message.
var ErrMalformed = errors.New("protocol: malformed message")

// TestCase is the visible part of a coding question's test suite.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// Question is what the client renders for the current prompt.
type Question struct {
	ID          string     `json:"id,omitempty"`
	Type        string     `json:"type"`
	Text        string     `json:"question"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	Constraints []string   `json:"constraints,omitempty"`
	Hints       []string   `json:"hints,omitempty"`
	TestCases   []TestCase `json:"test_cases,omitempty"`
}

// Feedback is the end-of-interview evaluation.
type Feedback struct {
	Summary           string    `json:"summary"`
	QuestionsAnswered int       `json:"questions_answered"`
	DurationMinutes   int       `json:"duration_minutes"`
	CodeSubmissions   int       `json:"code_submissions"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Message is the flat envelope. Only the fields relevant to Type are set.
type Message struct {
	Type MessageType `json:"type"`

	Question   *Question `json:"question,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Audio      string    `json:"audio,omitempty"` // base64
	SpokenText string    `json:"spoken_text,omitempty"`

	Text    string `json:"text,omitempty"`
	IsFinal bool   `json:"is_final,omitempty"`

	Status   Status    `json:"status,omitempty"`
	Feedback *Feedback `json:"feedback,omitempty"`

	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`

	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Decode parses a text frame. Frames without a type are malformed.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return m, nil
}

// Encode serializes m, stamping it if no timestamp is set.
func Encode(m Message) ([]byte, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return json.Marshal(m)
}

// Control builds a payload-less message such as start_recording.
func Control(t MessageType) Message {
	return Message{Type: t}
}

func StatusMessage(s Status) Message {
	return Message{Type: TypeStatus, Status: s}
}

func TranscriptMessage(text string, final bool) Message {
	return Message{Type: TypeTranscript, Text: text, IsFinal: final}
}

func ErrorMessage(code, message string) Message {
	return Message{Type: TypeError, Code: code, Message: message}
}

// IsClientControl reports whether t is a type clients may send.
func IsClientControl(t MessageType) bool {
	switch t {
	case TypeStart, TypeStartRecording, TypeStopRecording, TypeAnswerComplete,
		TypeInterrupt, TypeSkipQuestion, TypeEndInterview, TypePing, TypePlaybackComplete:
		return true
	}
	return false
}
