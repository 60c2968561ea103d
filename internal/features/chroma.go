package features

import "math"

// PitchClasses is the number of chroma bins, one per semitone of the octave.
const PitchClasses = 12

// Chroma filter shape: a Gaussian octave weighting centred on C5 spanning
// two octaves.
const (
	chromaCenterOctave = 5.0
	chromaOctaveWidth  = 2.0
)

// chromaFilterBank builds the [PitchClasses][nfft/2+1] mapping from
// spectrum bins to pitch classes. Row 0 is C. Tuning is assumed to be
// A440.
func chromaFilterBank(rate, nfft int) [][]float64 {
	const n = PitchClasses
	bins := nfft/2 + 1

	// Fractional pitch-class position of every fft bin relative to A0/16.
	frq := make([]float64, nfft)
	for k := 1; k < nfft; k++ {
		hz := float64(k) * float64(rate) / float64(nfft)
		frq[k] = n * math.Log2(hz/(440.0/16))
	}
	frq[0] = frq[1] - 1.5*n

	width := make([]float64, nfft)
	for k := 0; k < nfft-1; k++ {
		width[k] = math.Max(frq[k+1]-frq[k], 1)
	}
	width[nfft-1] = 1

	half := math.Round(n / 2.0)
	wts := make([][]float64, n)
	for c := range wts {
		wts[c] = make([]float64, nfft)
	}
	for k := 0; k < nfft; k++ {
		var norm float64
		for c := 0; c < n; c++ {
			d := math.Mod(frq[k]-float64(c)+half+10*n, n) - half
			w := math.Exp(-0.5 * math.Pow(2*d/width[k], 2))
			wts[c][k] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		octave := math.Exp(-0.5 * math.Pow((frq[k]/n-chromaCenterOctave)/chromaOctaveWidth, 2))
		for c := 0; c < n; c++ {
			if norm > 0 {
				wts[c][k] /= norm
			}
			wts[c][k] *= octave
		}
	}

	// Rows are anchored on A; rotate so row 0 is C.
	bank := make([][]float64, n)
	for c := 0; c < n; c++ {
		bank[c] = wts[(c+3)%n][:bins]
	}
	return bank
}

// chroma returns [frame][PitchClasses] energy, each frame scaled so its
// strongest pitch class is 1. Silent frames stay zero.
func chroma(s *spectrogram) [][]float64 {
	bank := chromaFilterBank(s.rate, s.nfft)
	power := s.power()
	out := make([][]float64, len(power))
	for t, row := range power {
		c := make([]float64, PitchClasses)
		var peak float64
		for p, filter := range bank {
			var sum float64
			for k, w := range filter {
				sum += w * row[k]
			}
			c[p] = sum
			peak = math.Max(peak, math.Abs(sum))
		}
		if peak > math.SmallestNonzeroFloat64 {
			for p := range c {
				c[p] /= peak
			}
		}
		out[t] = c
	}
	return out
}
