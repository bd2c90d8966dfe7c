package kfmt

import "io"

// ringBufferSize defines the size of the ring buffer that holds Printf output
// until the console is attached. It is large enough to hold a full 80x25
// screen plus change and must always be a power of 2.
const ringBufferSize = 4096

// ringBuffer keeps the most recent ringBufferSize bytes written to it. Older
// bytes are silently overwritten once the buffer is full.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// rIndex points to the oldest unread byte; count is the number of
	// unread bytes starting at rIndex.
	rIndex, count int
}

// Len returns the number of unread bytes.
func (rb *ringBuffer) Len() int {
	return rb.count
}

// Write writes len(p) bytes from p to the ringBuffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.rIndex+rb.count)&(ringBufferSize-1)] = b
		if rb.count == ringBufferSize {
			// Buffer full; drop the oldest byte
			rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
			continue
		}
		rb.count++
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p. It returns the number of bytes read (0
// <= n <= len(p)) and io.EOF when the buffer is empty.
func (rb *ringBuffer) Read(p []byte) (n int, err error) {
	if rb.count == 0 {
		return 0, io.EOF
	}

	// Copy the contiguous run that starts at rIndex; a wrapped buffer is
	// drained by a second call.
	n = ringBufferSize - rb.rIndex
	if n > rb.count {
		n = rb.count
	}
	if pLen := len(p); pLen < n {
		n = pLen
	}

	copy(p, rb.buffer[rb.rIndex:rb.rIndex+n])
	rb.rIndex = (rb.rIndex + n) & (ringBufferSize - 1)
	rb.count -= n

	return n, nil
}
