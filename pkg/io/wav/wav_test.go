package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestDecodeEncodedFile(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	f, data, err := DecodeBytes(Encode(pcm, Mono16(16000)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.SampleRate != 16000 || f.Channels != 1 || f.BitsPerSample != 16 {
		t.Errorf("unexpected format %+v", f)
	}
	if !bytes.Equal(data, pcm) {
		t.Errorf("unexpected data %v", data)
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	file := Encode([]byte{9, 9}, Mono16(8000))
	// splice a LIST chunk between fmt and data
	list := []byte("LIST")
	list = binary.LittleEndian.AppendUint32(list, 3)
	list = append(list, 'a', 'b', 'c', 0)
	spliced := append(append(append([]byte{}, file[:36]...), list...), file[36:]...)

	_, data, err := DecodeBytes(spliced)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(data, []byte{9, 9}) {
		t.Errorf("unexpected data %v", data)
	}
}

func TestDecodeRejects(t *testing.T) {
	if _, _, err := DecodeBytes([]byte("nope")); !errors.Is(err, ErrNotWAV) {
		t.Errorf("expected ErrNotWAV, got %v", err)
	}
	eight := Encode([]byte{1, 2}, Format{SampleRate: 8000, Channels: 1, BitsPerSample: 8})
	if _, _, err := DecodeBytes(eight); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDuration(t *testing.T) {
	if d := Mono16(16000).Duration(32000); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
}
