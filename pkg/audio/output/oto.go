// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays PCM of any width as 16-bit with software volume control
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/Resonate-Protocol/filterstream/pkg/audio"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/codec"
)

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	format     audio.Format
	mu         sync.Mutex
	volume     int
	muted      bool
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{volume: 100}
}

// Open initializes the output device. oto allows one context per process,
// so a later Open with a different rate or channel count is refused.
func (o *Oto) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return err
	}

	if o.otoCtx != nil {
		if o.format.SampleRate != format.SampleRate || o.format.Channels != format.Channels {
			return fmt.Errorf("output already opened at %dHz %dch", o.format.SampleRate, o.format.Channels)
		}
		o.format = format
		return nil
	}

	ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.format = format

	// A persistent player reads from the pipe so writes stream continuously
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	logrus.WithFields(logrus.Fields{
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
	}).Info("Audio output initialized")

	return nil
}

// Write outputs audio, blocking until the player has taken it
func (o *Oto) Write(pcm []byte) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	o.mu.Lock()
	volume, muted := o.volume, o.muted
	o.mu.Unlock()

	if _, err := o.pipeWriter.Write(To16Bit(pcm, o.format.SampleWidth, volume, muted)); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volume = max(0, min(volume, 100))
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
}

// Volume returns current volume
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// To16Bit rescales width-byte samples to 16-bit and applies volume
func To16Bit(pcm []byte, width, volume int, muted bool) []byte {
	multiplier := float64(volume) / 100
	if muted {
		multiplier = 0
	}

	samples := codec.BytesToSamples(pcm, width)
	for i, sample := range samples {
		samples[i] = int(float64(audio.SampleToInt16(sample, width)) * multiplier)
	}
	return codec.SamplesToBytes(samples, 2)
}
