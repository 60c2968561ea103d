package features

import (
	"math"
	"sort"
)

// RolloffPercent is the fraction of spectral energy below the rolloff
// frequency.
const RolloffPercent = 0.85

// Spectral contrast band layout: one sub-200 Hz band plus octaves upward.
const (
	contrastBands    = 6
	contrastFMin     = 200.0
	contrastQuantile = 0.02
)

// centroid returns the magnitude-weighted mean frequency of every frame.
// Silent frames yield 0.
func centroid(s *spectrogram) []float64 {
	out := make([]float64, len(s.mag))
	for t, row := range s.mag {
		var num, den float64
		for k, v := range row {
			num += s.freqs[k] * v
			den += v
		}
		if den > 0 {
			out[t] = num / den
		}
	}
	return out
}

// rolloff returns, for every frame, the lowest bin frequency at which the
// cumulative magnitude reaches RolloffPercent of the frame total.
func rolloff(s *spectrogram) []float64 {
	out := make([]float64, len(s.mag))
	for t, row := range s.mag {
		var total float64
		for _, v := range row {
			total += v
		}
		threshold := RolloffPercent * total
		var cum float64
		for k, v := range row {
			cum += v
			if cum >= threshold {
				out[t] = s.freqs[k]
				break
			}
		}
	}
	return out
}

// contrast returns the per-band, per-frame peak-to-valley ratio in dB as
// [band][frame]. Bands whose lower edge lies at or above Nyquist are omitted.
func contrast(s *spectrogram) [][]float64 {
	edges := make([]float64, contrastBands+2)
	for k := 1; k < len(edges); k++ {
		edges[k] = contrastFMin * math.Pow(2, float64(k-1))
	}
	nyquist := float64(s.rate) / 2
	bins := len(s.freqs)

	var peaks, valleys [][]float64
	for k := 0; k <= contrastBands; k++ {
		low, high := edges[k], edges[k+1]
		if low >= nyquist {
			break
		}

		first, last := -1, -1
		for i, f := range s.freqs {
			if f >= low && f <= high {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first < 0 {
			continue
		}
		if k > 0 && first > 0 {
			first--
		}
		if k == contrastBands {
			last = bins - 1
		}
		width := last - first + 1
		sub := width
		if k < contrastBands {
			sub--
		}
		if sub <= 0 {
			continue
		}
		n := max(int(math.RoundToEven(contrastQuantile*float64(width))), 1)
		n = min(n, sub)

		peak := make([]float64, len(s.mag))
		valley := make([]float64, len(s.mag))
		band := make([]float64, sub)
		for t, row := range s.mag {
			copy(band, row[first:first+sub])
			sort.Float64s(band)
			var lo, hi float64
			for i := 0; i < n; i++ {
				lo += band[i]
				hi += band[sub-1-i]
			}
			valley[t] = lo / float64(n)
			peak[t] = hi / float64(n)
		}
		peaks = append(peaks, peak)
		valleys = append(valleys, valley)
	}

	powerToDB(peaks)
	powerToDB(valleys)
	out := make([][]float64, len(peaks))
	for b := range peaks {
		row := make([]float64, len(peaks[b]))
		for t := range row {
			row[t] = peaks[b][t] - valleys[b][t]
		}
		out[b] = row
	}
	return out
}

// flatness returns the Wiener entropy of the power spectrum of every frame:
// the geometric mean over the arithmetic mean. Fully silent frames hit the
// power floor everywhere and therefore report 1.
func flatness(s *spectrogram) []float64 {
	out := make([]float64, len(s.mag))
	for t, row := range s.mag {
		var logSum, sum float64
		for _, v := range row {
			p := math.Max(v*v, amin)
			logSum += math.Log(p)
			sum += p
		}
		n := float64(len(row))
		out[t] = math.Exp(logSum/n) / (sum / n)
	}
	return out
}

// SpectralFlatness computes per-frame spectral flatness of y using the
// fixed analysis window and hop.
func SpectralFlatness(y []float32, rate int) []float64 {
	return flatness(newSpectrogram(toFloat64(y), rate, FrameLength, HopLength))
}
