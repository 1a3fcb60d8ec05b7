package ring

import "sync"

// Buffer is a fixed-capacity FIFO of 16-bit samples. Appending past the
// capacity evicts the oldest samples. One goroutine may append while others
// take snapshots.
type Buffer struct {
	mu    sync.Mutex
	data  []int16
	start int // index of the oldest sample
	count int
}

// New creates a ring buffer holding at most capacity samples.
// A capacity below 1 is treated as 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]int16, capacity)}
}

// Append adds samples at the tail, evicting from the head as needed.
func (b *Buffer) Append(samples []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.data)

	// Only the last size samples can survive.
	if len(samples) >= size {
		copy(b.data, samples[len(samples)-size:])
		b.start = 0
		b.count = size
		return
	}

	for _, s := range samples {
		end := (b.start + b.count) % size
		b.data[end] = s
		if b.count < size {
			b.count++
		} else {
			b.start = (b.start + 1) % size
		}
	}
}

// Snapshot copies the contents, oldest first, into dst and returns it.
// dst is reused when it has enough capacity.
func (b *Buffer) Snapshot(dst []int16) []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cap(dst) < b.count {
		dst = make([]int16, b.count)
	}
	dst = dst[:b.count]

	size := len(b.data)
	first := size - b.start
	if first > b.count {
		first = b.count
	}
	copy(dst, b.data[b.start:b.start+first])
	copy(dst[first:], b.data[:b.count-first])
	return dst
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Reset discards all samples.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.count = 0
}
