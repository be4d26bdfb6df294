package audioring

import (
	"encoding/binary"
	"sync"

	"github.com/smallnest/ringbuffer"
)

type rb_impl struct {
	mu      sync.Mutex
	size    int
	frames  int
	dropped uint64
	rb      *ringbuffer.RingBuffer
}

// Capacity implements Ring.
func (r *rb_impl) Capacity() int {
	return r.size
}

// Dequeue implements Ring.
func (r *rb_impl) Dequeue() (Chunk, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dequeueLocked()
}

func (r *rb_impl) dequeueLocked() (Chunk, bool) {
	data, ok := r.readFrame()
	if !ok {
		return Chunk{}, false
	}

	var c Chunk
	if err := c.UnmarshalBinary(data); err != nil {
		return Chunk{}, false
	}
	return c, true
}

// readFrame pops one length-prefixed frame.
func (r *rb_impl) readFrame() ([]byte, bool) {
	if r.rb.IsEmpty() {
		return nil, false
	}

	sizeBytes := make([]byte, 4)
	n, err := r.rb.Read(sizeBytes)
	if err != nil || n != 4 {
		r.resetLocked()
		return nil, false
	}
	size := int(binary.LittleEndian.Uint32(sizeBytes))

	data := make([]byte, size)
	if size > 0 {
		n, err = r.rb.Read(data)
		if err != nil || n != size {
			r.resetLocked()
			return nil, false
		}
	}
	r.frames--
	return data, true
}

// Enqueue implements Ring.
func (r *rb_impl) Enqueue(c Chunk) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}

	requiredSpace := len(data) + 4
	if requiredSpace > r.rb.Capacity() {
		return ErrFrameTooLarge
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Make space by removing old frames
	for r.rb.Free() < requiredSpace {
		if _, ok := r.readFrame(); !ok {
			r.resetLocked()
			break
		}
		r.dropped++
	}

	sizeBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(sizeBytes, uint32(len(data)))
	if _, err := r.rb.Write(sizeBytes); err != nil {
		return err
	}
	if _, err := r.rb.Write(data); err != nil {
		return err
	}
	r.frames++
	return nil
}

// Drain implements Ring.
func (r *rb_impl) Drain() []Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Chunk, 0, r.frames)
	for {
		c, ok := r.dequeueLocked()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

// Frames implements Ring.
func (r *rb_impl) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Len implements Ring.
func (r *rb_impl) Len() int {
	return r.rb.Length()
}

// Dropped implements Ring.
func (r *rb_impl) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Reset implements Ring.
func (r *rb_impl) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *rb_impl) resetLocked() {
	r.rb.Reset()
	r.frames = 0
}

func New(size int) Ring {
	return &rb_impl{
		size: size,
		rb:   ringbuffer.New(size).SetBlocking(false), // Non-blocking for graceful overflow handling
	}
}
