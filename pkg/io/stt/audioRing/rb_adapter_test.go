package audioring

import (
	"errors"
	"testing"
	"time"
)

func chunk(seq uint64, data ...byte) Chunk {
	return Chunk{
		Seq:        seq,
		Data:       data,
		Timestamp:  time.Now(),
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestRingEnqueueDequeue(t *testing.T) {
	buffer := New(1024)

	if buffer.Capacity() != 1024 {
		t.Errorf("Expected capacity 1024, got %d", buffer.Capacity())
	}
	if buffer.Len() != 0 {
		t.Errorf("Expected empty buffer, got length %d", buffer.Len())
	}

	in := chunk(7, 1, 2, 3, 4, 5)
	if err := buffer.Enqueue(in); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if buffer.Frames() != 1 {
		t.Errorf("Expected 1 frame, got %d", buffer.Frames())
	}

	out, ok := buffer.Dequeue()
	if !ok {
		t.Fatal("Failed to dequeue")
	}
	if out.Seq != 7 {
		t.Errorf("Expected seq 7, got %d", out.Seq)
	}
	if string(out.Data) != string(in.Data) {
		t.Errorf("Data mismatch: expected %v, got %v", in.Data, out.Data)
	}
	if out.SampleRate != in.SampleRate || out.Channels != in.Channels {
		t.Errorf("Format mismatch: %+v", out)
	}
	if _, ok := buffer.Dequeue(); ok {
		t.Error("Expected empty buffer after dequeue")
	}
}

func TestRingDrainPreservesOrder(t *testing.T) {
	buffer := New(1024)
	for i := uint64(0); i < 3; i++ {
		if err := buffer.Enqueue(chunk(i, byte(i), byte(i+1))); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	got := buffer.Drain()
	if len(got) != 3 {
		t.Fatalf("Expected 3 drained chunks, got %d", len(got))
	}
	for i, c := range got {
		if c.Seq != uint64(i) {
			t.Errorf("position %d: expected seq %d, got %d", i, i, c.Seq)
		}
	}
	if buffer.Len() != 0 || buffer.Frames() != 0 {
		t.Errorf("Buffer should be empty after drain, len=%d frames=%d", buffer.Len(), buffer.Frames())
	}
	if string(Concat(got)) != string([]byte{0, 1, 1, 2, 2, 3}) {
		t.Errorf("unexpected concat: %v", Concat(got))
	}
}

func TestRingOverflowDropsOldest(t *testing.T) {
	// each frame: 4 byte prefix + 26 byte header + 10 byte payload = 40
	buffer := New(100)
	payload := make([]byte, 10)
	for i := uint64(0); i < 4; i++ {
		if err := buffer.Enqueue(chunk(i, payload...)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	if buffer.Dropped() != 2 {
		t.Errorf("Expected 2 dropped frames, got %d", buffer.Dropped())
	}
	got := buffer.Drain()
	if len(got) != 2 || got[0].Seq != 2 || got[1].Seq != 3 {
		t.Errorf("Expected newest frames 2 and 3, got %+v", got)
	}
}

func TestRingRejectsOversizedFrame(t *testing.T) {
	buffer := New(32)
	err := buffer.Enqueue(chunk(0, make([]byte, 64)...))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Expected ErrFrameTooLarge, got %v", err)
	}
}

func TestChunkUnmarshalTruncated(t *testing.T) {
	c := chunk(1, 1, 2, 3, 4)
	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Chunk
	if err := restored.UnmarshalBinary(data[:len(data)-2]); !errors.Is(err, ErrCorruptFrame) {
		t.Errorf("Expected ErrCorruptFrame for truncated payload, got %v", err)
	}
	if err := restored.UnmarshalBinary(data[:10]); !errors.Is(err, ErrCorruptFrame) {
		t.Errorf("Expected ErrCorruptFrame for truncated header, got %v", err)
	}
}

func TestChunkDuration(t *testing.T) {
	c := Chunk{Data: make([]byte, 3200), SampleRate: 16000, Channels: 1}
	if c.Duration() != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", c.Duration())
	}
}
