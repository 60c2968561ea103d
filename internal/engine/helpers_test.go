package engine

import (
	"math"
	"math/rand"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
)

const testRate = 16000

func tone(freq, seconds, amp float64) []float32 {
	n := int(seconds * testRate)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	return out
}

func silence(seconds float64) []float32 {
	return make([]float32, int(seconds*testRate))
}

// bursts alternates 250 ms of white noise with 250 ms of silence.
func bursts(seconds float64, seed int64) []float32 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float32, int(seconds*testRate))
	period := testRate / 2
	for i := range out {
		if i%period < period/2 {
			out[i] = float32(0.5 * (2*r.Float64() - 1))
		}
	}
	return out
}

func concat(parts ...[]float32) []float32 {
	var out []float32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func wave(samples []float32) audio.Waveform {
	return audio.Waveform{Samples: samples, SampleRate: testRate}
}
