package audioring

import (
	"encoding/binary"
	"errors"
	"time"
)

var (
	ErrFrameTooLarge = errors.New("audio frame too large for buffer")
	ErrCorruptFrame  = errors.New("corrupt audio frame")
)

// Chunk is one captured slice of PCM16 audio. Seq increases monotonically per
// capture stream so consumers can detect drops.
type Chunk struct {
	Seq        uint64
	Data       []byte
	Timestamp  time.Time
	SampleRate int32
	Channels   int16
}

const headerSize = 8 + 8 + 4 + 2 + 4

// Duration of the chunk assuming 16-bit samples.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	ch := int(c.Channels)
	if ch <= 0 {
		ch = 1
	}
	samples := len(c.Data) / (2 * ch)
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

func (c *Chunk) MarshalBinary() ([]byte, error) {
	// Format: seq(8) + timestamp(8) + sampleRate(4) + channels(2) + dataLen(4) + data
	buf := make([]byte, headerSize+len(c.Data))

	offset := 0
	binary.LittleEndian.PutUint64(buf[offset:], c.Seq)
	offset += 8

	binary.LittleEndian.PutUint64(buf[offset:], uint64(c.Timestamp.UnixNano()))
	offset += 8

	binary.LittleEndian.PutUint32(buf[offset:], uint32(c.SampleRate))
	offset += 4

	binary.LittleEndian.PutUint16(buf[offset:], uint16(c.Channels))
	offset += 2

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(c.Data)))
	offset += 4

	copy(buf[offset:], c.Data)
	return buf, nil
}

func (c *Chunk) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return ErrCorruptFrame
	}

	offset := 0
	c.Seq = binary.LittleEndian.Uint64(data[offset:])
	offset += 8

	c.Timestamp = time.Unix(0, int64(binary.LittleEndian.Uint64(data[offset:])))
	offset += 8

	c.SampleRate = int32(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	c.Channels = int16(binary.LittleEndian.Uint16(data[offset:]))
	offset += 2

	dataLen := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	if len(data[offset:]) < dataLen {
		return ErrCorruptFrame
	}
	c.Data = make([]byte, dataLen)
	copy(c.Data, data[offset:offset+dataLen])
	return nil
}

// Ring is a bounded FIFO of chunks. When full, the oldest chunks are dropped
// to make room so the newest audio always survives.
type Ring interface {
	Enqueue(c Chunk) error
	Dequeue() (Chunk, bool)
	// Drain removes and returns every buffered chunk in order.
	Drain() []Chunk
	// Frames is the number of buffered chunks.
	Frames() int
	// Len is the number of buffered bytes, framing included.
	Len() int
	Capacity() int
	// Dropped counts chunks evicted to make room.
	Dropped() uint64
	Reset()
}

// Concat joins the PCM payloads of chunks in order.
func Concat(chunks []Chunk) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c.Data)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c.Data...)
	}
	return out
}
