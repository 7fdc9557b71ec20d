package audio

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"
)

// DeviceConfig controls the live capture source.
type DeviceConfig struct {
	// Device selects a capture device by (partial, case-insensitive) name;
	// empty means the system default.
	Device string
	// FrameBuffer is the capacity of the frame channel. The miniaudio
	// callback cannot block, so when the pipeline applies backpressure
	// beyond this bound, frames are dropped and counted.
	FrameBuffer int
}

func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{FrameBuffer: 64}
}

// DeviceSource captures the microphone through malgo (miniaudio). The
// device is requested at 16 kHz mono float32, so the normalizer takes the
// uniform copy path. The source holds the device exclusively between Start
// and Stop; both init failures and missing devices surface as
// ErrSourceUnavailable.
type DeviceSource struct {
	config DeviceConfig

	ctx    *malgo.AllocatedContext
	device *malgo.Device
	name   string

	mu      sync.Mutex
	frameCh chan []float32
	errCh   chan error
	dropped int
	stopped bool
}

func OpenDevice(config DeviceConfig) (*DeviceSource, error) {
	if config.FrameBuffer <= 0 {
		config.FrameBuffer = DefaultDeviceConfig().FrameBuffer
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", ErrSourceUnavailable, err)
	}

	s := &DeviceSource{config: config, ctx: mctx, name: "default capture device"}
	return s, nil
}

func (s *DeviceSource) SampleRate() int    { return 16000 }
func (s *DeviceSource) Channels() int      { return 1 }
func (s *DeviceSource) Descriptor() string { return "live recording (" + s.name + ")" }
func (s *DeviceSource) Live() bool         { return true }

func (s *DeviceSource) Start(ctx context.Context) (<-chan []float32, <-chan error, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(s.SampleRate())
	deviceConfig.Alsa.NoMMap = 1

	if s.config.Device != "" {
		id, name, err := s.findDevice(s.config.Device)
		if err != nil {
			s.teardown()
			return nil, nil, err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
		s.name = name
	}

	s.frameCh = make(chan []float32, s.config.FrameBuffer)
	s.errCh = make(chan error, 1)

	var lastDropLog time.Time
	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		count := int(framecount)
		if len(pInputSamples) < count*4 {
			return
		}
		samples := make([]float32, count)
		for i := 0; i < count; i++ {
			bits := uint32(pInputSamples[i*4]) | uint32(pInputSamples[i*4+1])<<8 |
				uint32(pInputSamples[i*4+2])<<16 | uint32(pInputSamples[i*4+3])<<24
			samples[i] = math.Float32frombits(bits)
		}

		s.mu.Lock()
		ch := s.frameCh
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}

		select {
		case ch <- samples:
		default:
			s.mu.Lock()
			s.dropped += count
			dropped := s.dropped
			s.mu.Unlock()
			if time.Since(lastDropLog) > time.Second {
				log.Warn().Int("samples", dropped).Msg("audio: capture backpressure, dropping samples")
				lastDropLog = time.Now()
			}
		}
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		s.teardown()
		return nil, nil, fmt.Errorf("%w: init capture device: %v", ErrSourceUnavailable, err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		s.teardown()
		return nil, nil, fmt.Errorf("%w: start capture device: %v", ErrSourceUnavailable, err)
	}

	log.Info().Str("device", s.name).Msg("audio: capture started")

	// Close the stream when the run context ends so the capture goroutine
	// in the pipeline unblocks.
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s.frameCh, s.errCh, nil
}

func (s *DeviceSource) findDevice(name string) (malgo.DeviceID, string, error) {
	infos, err := s.ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}, "", fmt.Errorf("%w: enumerate capture devices: %v", ErrSourceUnavailable, err)
	}
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(name)) {
			return info.ID, info.Name(), nil
		}
	}
	return malgo.DeviceID{}, "", fmt.Errorf("%w: capture device %q not found", ErrSourceUnavailable, name)
}

// Stop releases the device and the malgo context. Safe to call more than
// once and from any goroutine.
func (s *DeviceSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	frameCh := s.frameCh
	errCh := s.errCh
	s.mu.Unlock()

	s.teardown()
	if frameCh != nil {
		close(frameCh)
	}
	if errCh != nil {
		close(errCh)
	}
	log.Debug().Msg("audio: capture device released")
}

func (s *DeviceSource) teardown() {
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		_ = s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
	}
}
