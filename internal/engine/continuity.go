package engine

import (
	"math"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/features"
)

// DefaultSilenceThresholdDB is how far below the loudest frame a frame may
// fall and still count as speech.
const DefaultSilenceThresholdDB = 25

// powerFloor bounds frame power before conversion to decibels.
const powerFloor = 1e-10

// Interval is a half-open sample range [Start, End).
type Interval struct {
	Start, End int
}

// NonSilentIntervals returns the sample ranges whose frame energy lies
// within thresholdDB of the loudest frame. Frame boundaries are mapped to
// samples by the hop length and clipped to the signal. Each interval then
// ends after its last sample whose magnitude reaches the threshold level, so
// quiet samples trailing a loud frame are not counted as speech. A signal
// whose loudest frame is at the power floor has no non-silent intervals.
func NonSilentIntervals(y []float32, thresholdDB float64) []Interval {
	if len(y) == 0 {
		return nil
	}
	rms := features.RMS(y, features.FrameLength, features.HopLength)
	power := make([]float64, len(rms))
	var peak float64
	for i, v := range rms {
		power[i] = v * v
		peak = max(peak, power[i])
	}
	if peak <= powerFloor {
		return nil
	}

	ref := 10 * math.Log10(peak)
	level := math.Sqrt(peak) * math.Pow(10, -thresholdDB/20)
	loud := func(t int) bool {
		return 10*math.Log10(max(power[t], powerFloor))-ref > -thresholdDB
	}

	var out []Interval
	start := -1
	for t := range power {
		switch {
		case loud(t) && start < 0:
			start = t
		case !loud(t) && start >= 0:
			out = append(out, frameInterval(y, start, t, level))
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, frameInterval(y, start, len(power), level))
	}
	return out
}

func frameInterval(y []float32, from, to int, level float64) Interval {
	iv := Interval{
		Start: min(from*features.HopLength, len(y)),
		End:   min(to*features.HopLength, len(y)),
	}
	for iv.End > iv.Start && math.Abs(float64(y[iv.End-1])) < level {
		iv.End--
	}
	return iv
}

// Continuity returns the fraction of samples inside non-silent intervals, in
// [0, 1]. Empty or silent input yields 0.
func Continuity(w audio.Waveform, thresholdDB float64) float64 {
	if w.Len() == 0 {
		return 0
	}
	var speech int
	for _, iv := range NonSilentIntervals(w.Samples, thresholdDB) {
		speech += iv.End - iv.Start
	}
	return clamp01(float64(speech) / float64(w.Len()))
}
