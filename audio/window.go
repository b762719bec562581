package audio

import "time"

// Window is one fixed-length slice of the live stream.
type Window struct {
	// Seq numbers windows from 0 within a session.
	Seq int
	PCM []byte
	// Offset is the stream position of the first sample.
	Offset   time.Duration
	Duration time.Duration
	// Partial marks a trailing window flushed on stop.
	Partial bool
}

// Windower cuts a PCM stream into windows of a fixed duration. It is not
// safe for concurrent use.
type Windower struct {
	format Format
	size   int
	buf    []byte
	seq    int
	offset time.Duration
}

// NewWindower creates a windower producing windows of length d.
func NewWindower(f Format, d time.Duration) *Windower {
	size := f.Bytes(d)
	if size <= 0 {
		size = f.FrameSize()
	}
	return &Windower{format: f, size: size, buf: make([]byte, 0, size)}
}

// Write appends pcm and returns every window it completed.
func (w *Windower) Write(pcm []byte) []Window {
	var out []Window
	for len(pcm) > 0 {
		n := min(w.size-len(w.buf), len(pcm))
		w.buf = append(w.buf, pcm[:n]...)
		pcm = pcm[n:]
		if len(w.buf) == w.size {
			out = append(out, w.cut(false))
		}
	}
	return out
}

// Flush returns the buffered remainder as a partial window, if any.
func (w *Windower) Flush() (Window, bool) {
	if len(w.buf) < w.format.FrameSize() {
		w.buf = w.buf[:0]
		return Window{}, false
	}
	return w.cut(true), true
}

// Buffered is the number of bytes waiting for the next window.
func (w *Windower) Buffered() int { return len(w.buf) }

func (w *Windower) cut(partial bool) Window {
	pcm := make([]byte, len(w.buf))
	copy(pcm, w.buf)
	w.buf = w.buf[:0]

	win := Window{
		Seq:      w.seq,
		PCM:      pcm,
		Offset:   w.offset,
		Duration: w.format.Duration(len(pcm)),
		Partial:  partial,
	}
	w.seq++
	w.offset += win.Duration
	return win
}
