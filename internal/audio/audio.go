// Package audio holds the in-memory waveform representation shared by the
// feature extractor, the scorers and the language detector, together with
// the conversions needed to get there from encoded input.
package audio

import (
	"errors"
	"time"
)

var (
	// ErrUnsupportedFormat is returned when input bytes are not a decodable
	// PCM container.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")

	// ErrEmpty is returned when a decoded file carries no samples.
	ErrEmpty = errors.New("audio: no samples")
)

// Waveform is a mono signal. Samples are normalized to [-1, 1].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Mono collapses interleaved multi-channel samples to a single channel by
// averaging the channels of every frame. A trailing partial frame is dropped.
func Mono(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	n := len(interleaved) / channels
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(interleaved[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// PadTo returns samples zero-padded at the end to at least n samples. The
// input is returned unchanged when it is already long enough.
func PadTo(samples []float32, n int) []float32 {
	if len(samples) >= n {
		return samples
	}
	out := make([]float32, n)
	copy(out, samples)
	return out
}

// PadOrTrim returns exactly n samples, truncating or zero-padding the end.
func PadOrTrim(samples []float32, n int) []float32 {
	if len(samples) == n {
		return samples
	}
	if len(samples) > n {
		return samples[:n]
	}
	return PadTo(samples, n)
}

// FromPCM16 converts PCM s16le bytes to float32 samples normalized to [-1, 1].
// Divides by 32768 (not 32767) so that the full int16 range maps to
// [-1.0, ~0.99997]. A trailing odd byte is ignored.
func FromPCM16(buf []byte) []float32 {
	n := len(buf) / 2
	if n == 0 {
		return nil
	}
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		u := uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
		samples[i] = float32(int16(u)) / 32768.0
	}
	return samples
}
