package audio

import (
	"fmt"
	"time"
)

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels   int `yaml:"channels" mapstructure:"channels"`
	BitDepth   int `yaml:"bit_depth" mapstructure:"bit_depth"`
}

// DefaultFormat is 16 kHz mono 16-bit, what every provider accepts.
var DefaultFormat = Format{SampleRate: 16000, Channels: 1, BitDepth: 16}

// ApplyDefaults fills zero fields from DefaultFormat.
func (f *Format) ApplyDefaults() {
	if f.SampleRate <= 0 {
		f.SampleRate = DefaultFormat.SampleRate
	}
	if f.Channels <= 0 {
		f.Channels = DefaultFormat.Channels
	}
	if f.BitDepth <= 0 {
		f.BitDepth = DefaultFormat.BitDepth
	}
}

// Validate rejects formats the WAV encoder cannot write.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("audio: invalid format %+v", f)
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("audio: unsupported bit depth %d", f.BitDepth)
	}
	return nil
}

// FrameSize is the byte size of one sample across all channels.
func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

// BytesPerSecond is the PCM byte rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.FrameSize()
}

// Bytes returns the frame-aligned byte length of d.
func (f Format) Bytes(d time.Duration) int {
	frames := int(int64(d) * int64(f.SampleRate) / int64(time.Second))
	return frames * f.FrameSize()
}

// Duration returns the playing time of n PCM bytes.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// Silence returns d of zeroed PCM.
func Silence(f Format, d time.Duration) []byte {
	return make([]byte, f.Bytes(d))
}
