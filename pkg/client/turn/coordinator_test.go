package turn

import (
	"context"
	"errors"
	"math/rand"
	"testing"
)

// fakeAdapter applies effects the way the session does.
type fakeAdapter struct {
	capturing bool
	playing   bool
	sent      []Effect
}

func (f *fakeAdapter) apply(effects []Effect) {
	for _, e := range effects {
		switch e {
		case PauseCapture:
			f.capturing = false
		case ResumeCapture:
			f.capturing = true
		case HaltPlayback:
			f.playing = false
		default:
			f.sent = append(f.sent, e)
		}
	}
}

func dispatch(t *testing.T, c *Coordinator, f *fakeAdapter, ev Event) Result {
	t.Helper()
	res, err := c.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", ev, err)
	}
	f.apply(res.Effects)
	return res
}

func equalEffects(a, b []Effect) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartAndStopRecording(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}

	res := dispatch(t, c, f, StartRecording)
	if res.To != UserRecording {
		t.Fatalf("expected user_recording, got %s", res.To)
	}
	if !equalEffects(res.Effects, []Effect{SendStartRecording, ResumeCapture}) {
		t.Errorf("unexpected effects %v", res.Effects)
	}

	res = dispatch(t, c, f, StopRecording)
	if res.To != Idle {
		t.Fatalf("expected idle, got %s", res.To)
	}
	if !equalEffects(res.Effects, []Effect{PauseCapture, SendStopRecording}) {
		t.Errorf("unexpected effects %v", res.Effects)
	}
	if f.capturing {
		t.Error("capture should be paused after stop")
	}
}

func TestStartRecordingRejectedWhileAISpeaks(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, SpeechArrived)

	res, err := c.Dispatch(context.Background(), StartRecording)
	if !errors.Is(err, ErrAISpeaking) {
		t.Fatalf("expected ErrAISpeaking, got %v", err)
	}
	if len(res.Effects) != 0 || c.State() != AISpeaking {
		t.Errorf("rejected event must not change anything: %+v state=%s", res, c.State())
	}
	if _, err := c.Dispatch(context.Background(), SubmitAnswer); !errors.Is(err, ErrAISpeaking) {
		t.Errorf("expected submit to be rejected while speaking, got %v", err)
	}
}

func TestStartRecordingRejectedWhenMicDisabled(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, MicDisabled)

	if _, err := c.Dispatch(context.Background(), StartRecording); !errors.Is(err, ErrMicDisabled) {
		t.Fatalf("expected ErrMicDisabled, got %v", err)
	}
	if c.State() != Idle {
		t.Errorf("expected idle, got %s", c.State())
	}

	dispatch(t, c, f, MicEnabled)
	if res := dispatch(t, c, f, StartRecording); res.To != UserRecording {
		t.Errorf("expected recording after re-enabling mic, got %s", res.To)
	}
}

func TestSpeechPausesRecordingAndResumesAfterPlayback(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, StartRecording)

	res := dispatch(t, c, f, SpeechArrived)
	if res.To != AISpeaking {
		t.Fatalf("expected ai_speaking, got %s", res.To)
	}
	if !equalEffects(res.Effects, []Effect{PauseCapture}) {
		t.Errorf("expected only a pause, got %v", res.Effects)
	}
	if !c.Snapshot().ResumeAfterSpeech {
		t.Error("expected resume flag to be set")
	}

	res = dispatch(t, c, f, PlaybackDone)
	if res.To != UserRecording {
		t.Fatalf("expected recording to resume, got %s", res.To)
	}
	want := []Effect{SendPlaybackComplete, SendStartRecording, ResumeCapture}
	if !equalEffects(res.Effects, want) {
		t.Errorf("expected %v, got %v", want, res.Effects)
	}
	if !f.capturing {
		t.Error("capture should be streaming again")
	}
}

func TestNoResumeWhenMicDisabledDuringSpeech(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, StartRecording)
	dispatch(t, c, f, SpeechArrived)
	dispatch(t, c, f, MicDisabled)

	res := dispatch(t, c, f, PlaybackDone)
	if res.To != Idle {
		t.Fatalf("expected idle, got %s", res.To)
	}
	if !equalEffects(res.Effects, []Effect{SendPlaybackComplete}) {
		t.Errorf("unexpected effects %v", res.Effects)
	}
	if f.capturing {
		t.Error("capture must stay paused")
	}
}

func TestPlaybackDoneFromIdleWithoutPriorRecording(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, SpeechArrived)
	res := dispatch(t, c, f, PlaybackDone)
	if res.To != Idle {
		t.Errorf("expected idle, got %s", res.To)
	}
	// a stray drain while idle is ignored
	if res := dispatch(t, c, f, PlaybackDone); len(res.Effects) != 0 {
		t.Errorf("expected no effects, got %v", res.Effects)
	}
}

func TestSecondSpeechWhileSpeakingIsNoop(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, SpeechArrived)
	res := dispatch(t, c, f, SpeechArrived)
	if res.Changed() || len(res.Effects) != 0 {
		t.Errorf("expected a no-op, got %+v", res)
	}
}

func TestInterruptHaltsPlaybackThenRecords(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{playing: true}
	dispatch(t, c, f, SpeechArrived)

	res := dispatch(t, c, f, Interrupt)
	want := []Effect{HaltPlayback, SendInterrupt, SendStartRecording, ResumeCapture}
	if !equalEffects(res.Effects, want) {
		t.Fatalf("expected %v, got %v", want, res.Effects)
	}
	if res.To != UserRecording {
		t.Errorf("expected user_recording, got %s", res.To)
	}
	if f.playing {
		t.Error("playback should be halted")
	}
}

func TestInterruptWithoutAutoRecord(t *testing.T) {
	c := New(Config{SubmitOnSilence: true}, nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, SpeechArrived)

	res := dispatch(t, c, f, Interrupt)
	if res.To != Idle {
		t.Errorf("expected idle, got %s", res.To)
	}
	if !equalEffects(res.Effects, []Effect{HaltPlayback, SendInterrupt}) {
		t.Errorf("unexpected effects %v", res.Effects)
	}
	if res := dispatch(t, c, f, Interrupt); len(res.Effects) != 0 {
		t.Errorf("interrupt while idle should be a no-op, got %v", res.Effects)
	}
}

func TestSilenceEndsRecording(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, StartRecording)

	res := dispatch(t, c, f, Silence)
	if res.To != Idle {
		t.Fatalf("expected idle, got %s", res.To)
	}
	if !equalEffects(res.Effects, []Effect{PauseCapture, SendAnswerComplete}) {
		t.Errorf("unexpected effects %v", res.Effects)
	}

	c = New(Config{}, nil)
	dispatch(t, c, f, StartRecording)
	res = dispatch(t, c, f, Silence)
	if !equalEffects(res.Effects, []Effect{PauseCapture, SendStopRecording}) {
		t.Errorf("expected stop without submit, got %v", res.Effects)
	}
}

func TestSubmitFromIdleOnlySends(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	res := dispatch(t, c, f, SubmitAnswer)
	if res.Changed() {
		t.Errorf("submit from idle must not transition")
	}
	if !equalEffects(res.Effects, []Effect{SendAnswerComplete}) {
		t.Errorf("unexpected effects %v", res.Effects)
	}
}

func TestVisibilityPausesWithoutChangingTurn(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, StartRecording)

	res := dispatch(t, c, f, Hidden)
	if res.To != UserRecording || !equalEffects(res.Effects, []Effect{PauseCapture}) {
		t.Fatalf("hidden: unexpected %+v", res)
	}
	res = dispatch(t, c, f, Visible)
	if !equalEffects(res.Effects, []Effect{ResumeCapture}) {
		t.Fatalf("visible: unexpected %v", res.Effects)
	}

	// visible while the AI speaks must not resume capture
	dispatch(t, c, f, Hidden)
	dispatch(t, c, f, SpeechArrived)
	res = dispatch(t, c, f, Visible)
	if len(res.Effects) != 0 {
		t.Errorf("capture resumed during AI speech: %v", res.Effects)
	}
}

func TestRecordingStartedWhileHiddenStaysPaused(t *testing.T) {
	c := New(DefaultConfig(), nil)
	f := &fakeAdapter{}
	dispatch(t, c, f, Hidden)
	res := dispatch(t, c, f, StartRecording)
	if !equalEffects(res.Effects, []Effect{SendStartRecording}) {
		t.Errorf("expected no resume while hidden, got %v", res.Effects)
	}
	res = dispatch(t, c, f, Visible)
	if !equalEffects(res.Effects, []Effect{ResumeCapture}) {
		t.Errorf("expected resume on visible, got %v", res.Effects)
	}
}

func TestUnknownEvent(t *testing.T) {
	c := New(DefaultConfig(), nil)
	if _, err := c.Dispatch(context.Background(), Event("bogus")); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestEchoInvariantHoldsForRandomSequences(t *testing.T) {
	events := []Event{
		SpeechArrived, PlaybackDone, StartRecording, StopRecording, Silence,
		SubmitAnswer, Interrupt, MicDisabled, MicEnabled, Hidden, Visible,
	}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		c := New(DefaultConfig(), nil)
		f := &fakeAdapter{}
		for step := 0; step < 50; step++ {
			ev := events[rng.Intn(len(events))]
			res, err := c.Dispatch(context.Background(), ev)
			if errors.Is(err, ErrEchoInvariant) {
				t.Fatalf("run %d step %d: invariant error on %s", run, step, ev)
			}
			if err != nil {
				continue
			}
			f.apply(res.Effects)
			if ev == SpeechArrived {
				f.playing = true
			}
			if ev == PlaybackDone {
				f.playing = false
			}

			snap := c.Snapshot()
			if snap.State == AISpeaking && (f.capturing || snap.Streaming) {
				t.Fatalf("run %d step %d: mic streaming while AI speaks after %s", run, step, ev)
			}
			if f.capturing != snap.Streaming {
				t.Fatalf("run %d step %d: adapter capture=%v but coordinator streaming=%v after %s",
					run, step, f.capturing, snap.Streaming, ev)
			}
		}
	}
}
