package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	apperrors "github.com/kbukum/standin/errors"
)

func TestFormat(t *testing.T) {
	f := DefaultFormat
	if f.BytesPerSecond() != 32000 {
		t.Errorf("BytesPerSecond() = %d, want 32000", f.BytesPerSecond())
	}
	if got := f.Bytes(250 * time.Millisecond); got != 8000 {
		t.Errorf("Bytes(250ms) = %d, want 8000", got)
	}
	if got := f.Duration(16000); got != 500*time.Millisecond {
		t.Errorf("Duration(16000) = %v", got)
	}
	if err := (Format{SampleRate: 16000, Channels: 1, BitDepth: 24}).Validate(); err == nil {
		t.Error("Validate() accepted 24-bit")
	}
	var empty Format
	empty.ApplyDefaults()
	if empty != DefaultFormat {
		t.Errorf("ApplyDefaults() = %+v", empty)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := make([]byte, 3200)
	for i := 0; i < len(pcm)/2; i++ {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(i*7-5000)))
	}

	wav, err := EncodeWAV(pcm, DefaultFormat)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Fatalf("missing RIFF/WAVE header: %q", wav[:12])
	}
	if len(wav) != 44+len(pcm) {
		t.Errorf("len(wav) = %d, want %d", len(wav), 44+len(pcm))
	}

	got, f, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if f != DefaultFormat {
		t.Errorf("format = %+v", f)
	}
	if !bytes.Equal(got, pcm) {
		t.Error("decoded PCM differs from input")
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("definitely not audio")); !apperrors.Is(err, apperrors.ErrCodeMalformed) {
		t.Errorf("error = %v, want MALFORMED", err)
	}
}

func TestDetect(t *testing.T) {
	wav, err := EncodeWAV(Silence(DefaultFormat, 100*time.Millisecond), DefaultFormat)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{"wav", wav, "audio/wav", false},
		{"flac", append([]byte("fLaC"), make([]byte, 64)...), "audio/flac", false},
		{"text", []byte("hello, this is not audio"), "", true},
		{"empty", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if tt.wantErr {
				if !apperrors.Is(err, apperrors.ErrCodeMalformed) {
					t.Errorf("error = %v, want MALFORMED", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got.MediaType != tt.want {
				t.Errorf("MediaType = %q, want %q", got.MediaType, tt.want)
			}
		})
	}
}

func TestDetect_UnsupportedStatus(t *testing.T) {
	_, err := Detect([]byte("%PDF-1.7\n"))
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.HTTPStatus != 415 {
		t.Errorf("error = %v, want 415", err)
	}
}

func TestWindower(t *testing.T) {
	w := NewWindower(DefaultFormat, 100*time.Millisecond) // 3200 bytes

	if got := w.Write(make([]byte, 3000)); len(got) != 0 {
		t.Fatalf("Write(3000) emitted %d windows", len(got))
	}
	got := w.Write(make([]byte, 7000))
	if len(got) != 3 {
		t.Fatalf("Write(7000) emitted %d windows, want 3", len(got))
	}
	for i, win := range got {
		if win.Seq != i || len(win.PCM) != 3200 || win.Partial {
			t.Errorf("window %d = seq %d len %d partial %v", i, win.Seq, len(win.PCM), win.Partial)
		}
		if win.Offset != time.Duration(i)*100*time.Millisecond {
			t.Errorf("window %d offset = %v", i, win.Offset)
		}
	}
	if w.Buffered() != 400 {
		t.Errorf("Buffered() = %d, want 400", w.Buffered())
	}

	tail, ok := w.Flush()
	if !ok || !tail.Partial || tail.Seq != 3 || len(tail.PCM) != 400 {
		t.Errorf("Flush() = %+v, %v", tail, ok)
	}
	if _, ok := w.Flush(); ok {
		t.Error("second Flush() returned a window")
	}
}
