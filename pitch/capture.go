package pitch

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

// Audio capture parameters. The window is sized to resolve low piano
// fundamentals: 4096 samples at 44.1kHz spans ~93ms, several periods of B1.
const (
	SampleRate = 44100
	BufferSize = 4096
	channels   = 1
)

// Source delivers raw audio to the detector. Capturer is the production
// implementation; tests inject synthetic buffers.
type Source interface {
	Start() error
	Stop()
	// Samples returns a copy of the most recent fixed-size window, or nil
	// if not enough audio has arrived yet.
	Samples() []float32
	SampleRate() float64
}

// Capturer reads the default capture device through malgo (miniaudio)
// and keeps a rolling window of the most recent samples. The device is
// opened raw: miniaudio applies no echo cancellation, noise suppression
// or auto-gain, which would distort the harmonic content the detector
// relies on.
type Capturer struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	ring   []float32
	filled int
}

// NewCapturer returns an unstarted capturer.
func NewCapturer() *Capturer {
	return &Capturer{ring: make([]float32, BufferSize)}
}

// Start acquires the default capture device at 44.1kHz mono float32.
// Failure (no device, permission denied) leaves the capturer unstarted
// and returns ErrMicrophoneUnavailable.
func (c *Capturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		utils.LogAudio("malgo: %s", message)
	})
	if err != nil {
		return fmt.Errorf("%w: init context: %v", ErrMicrophoneUnavailable, err)
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = channels
	config.SampleRate = SampleRate
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			if len(input) > 0 {
				c.push(bytesToFloat32(input))
			}
		},
	}
	device, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("%w: init device: %v", ErrMicrophoneUnavailable, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("%w: start device: %v", ErrMicrophoneUnavailable, err)
	}

	utils.LogAudio("Capture started: %dHz, %d channel(s), window %d samples",
		SampleRate, channels, BufferSize)
	c.ctx = ctx
	c.device = device
	c.filled = 0
	return nil
}

// Stop releases the capture device and audio context. Idempotent.
func (c *Capturer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
		utils.LogAudio("Capture stopped")
	}
	if c.ctx != nil {
		_ = c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
	}
}

// push appends samples to the rolling window, keeping the newest
// BufferSize samples.
func (c *Capturer) push(samples []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(samples)
	switch {
	case n >= len(c.ring):
		copy(c.ring, samples[n-len(c.ring):])
		c.filled = len(c.ring)
	case c.filled+n <= len(c.ring):
		copy(c.ring[c.filled:], samples)
		c.filled += n
	default:
		keep := len(c.ring) - n
		copy(c.ring, c.ring[c.filled-keep:c.filled])
		copy(c.ring[keep:], samples)
		c.filled = len(c.ring)
	}
}

// Samples returns a copy of the current window, or nil until the window
// has filled once.
func (c *Capturer) Samples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filled < len(c.ring) {
		return nil
	}
	out := make([]float32, len(c.ring))
	copy(out, c.ring)
	return out
}

// SampleRate returns the capture sample rate in Hz.
func (c *Capturer) SampleRate() float64 { return SampleRate }

func bytesToFloat32(b []byte) []float32 {
	out := make([]float32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		bits := binary.LittleEndian.Uint32(b[i : i+4])
		out = append(out, math.Float32frombits(bits))
	}
	return out
}
