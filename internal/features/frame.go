package features

import "math"

// RMS returns the root-mean-square energy of each centered frame of y.
// Frames beyond the signal are zero-padded.
func RMS(y []float32, frameLength, hop int) []float64 {
	frames := frameCount(len(y), hop)
	half := frameLength / 2
	out := make([]float64, frames)
	for t := range out {
		start := t*hop - half
		var sum float64
		for i := 0; i < frameLength; i++ {
			j := start + i
			if j >= 0 && j < len(y) {
				v := float64(y[j])
				sum += v * v
			}
		}
		out[t] = math.Sqrt(sum / float64(frameLength))
	}
	return out
}

// zeroThreshold treats samples with a smaller magnitude as exact zeros when
// counting sign changes.
const zeroThreshold = 1e-10

// ZeroCrossingRate returns the fraction of sign changes in each centered
// frame of y. The signal is edge-padded, so the first and last frames repeat
// the boundary sample. Zero counts as positive.
func ZeroCrossingRate(y []float32, frameLength, hop int) []float64 {
	frames := frameCount(len(y), hop)
	out := make([]float64, frames)
	if len(y) == 0 {
		return out
	}
	half := frameLength / 2
	at := func(j int) bool {
		j = min(max(j, 0), len(y)-1)
		v := float64(y[j])
		if math.Abs(v) <= zeroThreshold {
			v = 0
		}
		return math.Signbit(v)
	}
	for t := range out {
		start := t*hop - half
		crossings := 0
		prev := at(start)
		for i := 1; i < frameLength; i++ {
			cur := at(start + i)
			if cur != prev {
				crossings++
			}
			prev = cur
		}
		out[t] = float64(crossings) / float64(frameLength)
	}
	return out
}
