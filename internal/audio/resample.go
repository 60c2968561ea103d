package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts w to the target sample rate. The input is returned
// unchanged when the rates already match.
func Resample(w Waveform, rate int) (Waveform, error) {
	if rate <= 0 {
		return Waveform{}, fmt.Errorf("audio: invalid target sample rate %d", rate)
	}
	if w.SampleRate == rate || len(w.Samples) == 0 {
		return Waveform{Samples: w.Samples, SampleRate: rate}, nil
	}
	if w.SampleRate <= 0 {
		return Waveform{}, fmt.Errorf("audio: invalid source sample rate %d", w.SampleRate)
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: create resampler: %w", err)
	}

	input := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		input[i] = float64(s)
	}
	output, err := rs.Process(input)
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: resample: %w", err)
	}
	tail, err := rs.Flush()
	if err != nil {
		return Waveform{}, fmt.Errorf("audio: flush resampler: %w", err)
	}
	output = append(output, tail...)
	// The filter tail can overshoot the exact rate ratio by a few samples.
	if want := expectedLen(len(w.Samples), w.SampleRate, rate); len(output) > want {
		output = output[:want]
	}

	out := make([]float32, len(output))
	for i, s := range output {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = float32(s)
	}
	return Waveform{Samples: out, SampleRate: rate}, nil
}

// expectedLen is the sample count of n samples converted from one rate to
// another, rounded up.
func expectedLen(n, from, to int) int {
	return int((int64(n)*int64(to) + int64(from) - 1) / int64(from))
}
