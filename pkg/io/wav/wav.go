// Package wav reads and writes the 16-bit PCM WAV files exchanged with the
// speech services.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrNotWAV      = errors.New("wav: not a RIFF/WAVE stream")
	ErrUnsupported = errors.New("wav: only 16-bit PCM is supported")
)

type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Mono16 is the format the transcription service expects.
func Mono16(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: 1, BitsPerSample: 16}
}

func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// Duration of n bytes of PCM in this format.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// Encode wraps PCM data with a 44 byte WAV header.
func Encode(pcm []byte, f Format) []byte {
	dataLen := len(pcm)
	blockAlign := f.Channels * f.BitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(f.BitsPerSample))

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	return append(header, pcm...)
}

// Decode parses a WAV stream, skipping chunks other than fmt and data.
func Decode(r io.Reader) (Format, []byte, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Format{}, nil, ErrNotWAV
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Format{}, nil, ErrNotWAV
	}

	var (
		f       Format
		haveFmt bool
	)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Format{}, nil, fmt.Errorf("wav: missing data chunk: %w", err)
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Format{}, nil, fmt.Errorf("wav: short fmt chunk: %w", err)
			}
			if size < 16 {
				return Format{}, nil, ErrNotWAV
			}
			if binary.LittleEndian.Uint16(body[0:2]) != 1 {
				return Format{}, nil, ErrUnsupported
			}
			f.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if f.BitsPerSample != 16 {
				return Format{}, nil, ErrUnsupported
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Format{}, nil, ErrNotWAV
			}
			var buf bytes.Buffer
			if _, err := io.CopyN(&buf, r, size); err != nil && !errors.Is(err, io.EOF) {
				return Format{}, nil, fmt.Errorf("wav: read data: %w", err)
			}
			return f, buf.Bytes(), nil
		default:
			if _, err := io.CopyN(io.Discard, r, size+size%2); err != nil {
				return Format{}, nil, fmt.Errorf("wav: skip %q: %w", id, err)
			}
		}
		if size%2 == 1 && id == "fmt " {
			io.CopyN(io.Discard, r, 1)
		}
	}
}

// DecodeBytes is Decode over an in-memory file.
func DecodeBytes(b []byte) (Format, []byte, error) {
	return Decode(bytes.NewReader(b))
}
