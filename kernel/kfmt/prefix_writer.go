package kfmt

import "io"

// PrefixWriter is an io.Writer that wraps another io.Writer and injects a
// prefix at the beginning of each line.
type PrefixWriter struct {
	// A writer where all writes get sent to.
	Sink io.Writer

	// The prefix injected at the beginning of each line.
	Prefix []byte

	midLine bool
}

// Reset replaces the prefix and treats the next written byte as the start of
// a new line. It allows a single PrefixWriter to be reused across drivers.
func (w *PrefixWriter) Reset(prefix []byte) {
	w.Prefix = prefix
	w.midLine = false
}

// Write writes len(p) bytes from p to the underlying data stream and returns
// back the number of bytes written. The prefix is emitted lazily when the
// first byte of a line is written so a trailing line feed does not produce a
// dangling prefix. The injected prefix is not included in the number of
// written bytes returned by this method.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written, end int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		for end = 0; end < len(p) && p[end] != '\n'; end++ {
		}
		if end < len(p) {
			end++
		}

		n, err := w.Sink.Write(p[:end])
		written += n
		if err != nil {
			return written, err
		}

		if p[end-1] == '\n' {
			w.midLine = false
		}
		p = p[end:]
	}

	return written, nil
}
