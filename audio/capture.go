package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Capturer streams signed 16-bit PCM from the default input device.
type Capturer struct {
	format Format
	ctx    *malgo.AllocatedContext

	mu     sync.Mutex
	device *malgo.Device
}

// NewCapturer initializes the audio backend. Call Close when done.
func NewCapturer(f Format) (*Capturer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	return &Capturer{format: f, ctx: ctx}, nil
}

// Format returns the capture format.
func (c *Capturer) Format() Format { return c.format }

// Start opens the device and calls onData from the audio thread with each
// captured buffer. onData must not block.
func (c *Capturer) Start(onData func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return fmt.Errorf("already capturing")
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(c.format.Channels)
	cfg.SampleRate = uint32(c.format.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			pcm := make([]byte, len(in))
			copy(pcm, in)
			onData(pcm)
		},
	}
	device, err := malgo.InitDevice(c.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("initializing capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("starting capture device: %w", err)
	}
	c.device = device
	return nil
}

// Stop closes the device. It is safe to call when not capturing.
func (c *Capturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	return nil
}

// Close stops capture and releases the audio backend.
func (c *Capturer) Close() error {
	_ = c.Stop()
	if err := c.ctx.Uninit(); err != nil {
		return fmt.Errorf("uninitializing audio context: %w", err)
	}
	c.ctx.Free()
	return nil
}

// Record captures d of audio from the default device. It returns early with
// ctx's error if ctx ends first.
func Record(ctx context.Context, f Format, d time.Duration) ([]byte, error) {
	c, err := NewCapturer(f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()

	var (
		mu  sync.Mutex
		pcm = make([]byte, 0, f.Bytes(d))
	)
	if err := c.Start(func(b []byte) {
		mu.Lock()
		pcm = append(pcm, b...)
		mu.Unlock()
	}); err != nil {
		return nil, err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		_ = c.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}
	_ = c.Stop()

	mu.Lock()
	defer mu.Unlock()
	return pcm, nil
}
