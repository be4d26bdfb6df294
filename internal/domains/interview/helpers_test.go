package interview

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/xpanvictor/intervox/pkg/protocol"
	"github.com/xpanvictor/intervox/pkg/sandbox"
)

// memStore round-trips through JSON so tests see what a real store keeps.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Create(ctx context.Context, iv *Interview) error {
	return m.Update(ctx, iv)
}

func (m *memStore) Get(_ context.Context, id string) (*Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	var iv Interview
	if err := json.Unmarshal(raw, &iv); err != nil {
		return nil, err
	}
	return &iv, nil
}

func (m *memStore) Update(_ context.Context, iv *Interview) error {
	raw, err := json.Marshal(iv)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[iv.ID] = raw
	return nil
}

type fakeReports struct {
	mu    sync.Mutex
	saved []Report
}

func (f *fakeReports) Save(_ context.Context, r Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeReports) Get(_ context.Context, id string) (*Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.saved {
		if r.InterviewID == id {
			r := r
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

type fakeExecutor struct {
	mu    sync.Mutex
	tests []sandbox.TestCase
	lang  string
}

func (f *fakeExecutor) Execute(_ context.Context, code, language string, tests []sandbox.TestCase) (*sandbox.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tests = tests
	f.lang = language
	return &sandbox.Result{Passed: true, PassedTests: len(tests), TotalTests: len(tests)}, nil
}

type fakeScheduler struct {
	mu    sync.Mutex
	times []time.Time
}

func (f *fakeScheduler) ScheduleExpiry(_ context.Context, _ string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.times = append(f.times, at)
	return nil
}

func (f *fakeScheduler) last() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.times) == 0 {
		return time.Time{}
	}
	return f.times[len(f.times)-1]
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingEmitter struct {
	mu          sync.Mutex
	msgs        []protocol.Message
	closeCode   int
	closeReason string
}

func (e *recordingEmitter) Emit(m protocol.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.msgs = append(e.msgs, m)
	return nil
}

func (e *recordingEmitter) Close(code int, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeCode = code
	e.closeReason = reason
}

func (e *recordingEmitter) ofType(t protocol.MessageType) []protocol.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []protocol.Message
	for _, m := range e.msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (e *recordingEmitter) last() protocol.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.msgs) == 0 {
		return protocol.Message{}
	}
	return e.msgs[len(e.msgs)-1]
}

func (e *recordingEmitter) closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeCode
}
