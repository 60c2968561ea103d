package features

import "math"

// spectrogram is the centered short-time Fourier magnitude of a signal,
// laid out as [frame][bin] with nfft/2+1 bins per frame.
type spectrogram struct {
	mag   [][]float64
	freqs []float64
	nfft  int
	rate  int
}

// frameCount returns the number of centered frames for n samples.
func frameCount(n, hop int) int {
	return 1 + n/hop
}

// newSpectrogram computes |STFT| with a periodic Hann window. The signal is
// zero-padded by nfft/2 on both sides so frame t is centered on sample t*hop.
func newSpectrogram(y []float64, rate, nfft, hop int) *spectrogram {
	bins := nfft/2 + 1
	half := nfft / 2
	window := hannWindow(nfft)
	frames := frameCount(len(y), hop)

	s := &spectrogram{
		mag:   make([][]float64, frames),
		freqs: fftFrequencies(rate, nfft),
		nfft:  nfft,
		rate:  rate,
	}

	re := make([]float64, nfft)
	im := make([]float64, nfft)
	for t := 0; t < frames; t++ {
		start := t*hop - half
		for i := 0; i < nfft; i++ {
			j := start + i
			if j >= 0 && j < len(y) {
				re[i] = y[j] * window[i]
			} else {
				re[i] = 0
			}
			im[i] = 0
		}
		fft(re, im)

		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = math.Hypot(re[k], im[k])
		}
		s.mag[t] = row
	}
	return s
}

// power returns the squared magnitude spectrogram.
func (s *spectrogram) power() [][]float64 {
	out := make([][]float64, len(s.mag))
	for t, row := range s.mag {
		p := make([]float64, len(row))
		for k, v := range row {
			p[k] = v * v
		}
		out[t] = p
	}
	return out
}

// hannWindow returns a periodic Hann window, the variant used for spectral
// analysis.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// fftFrequencies returns the center frequency in Hz of each rfft bin.
func fftFrequencies(rate, nfft int) []float64 {
	bins := nfft/2 + 1
	f := make([]float64, bins)
	for k := range f {
		f[k] = float64(k) * float64(rate) / float64(nfft)
	}
	return f
}

// fft performs an in-place radix-2 Cooley-Tukey FFT.
// re and im must have the same power-of-2 length.
func fft(re, im []float64) {
	n := len(re)
	if n <= 1 {
		return
	}

	// Bit-reversal permutation
	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := -2.0 * math.Pi / float64(size)
		wR := math.Cos(angle)
		wI := math.Sin(angle)

		for start := 0; start < n; start += size {
			tR, tI := 1.0, 0.0
			for k := 0; k < half; k++ {
				u := start + k
				v := u + half

				tmpR := tR*re[v] - tI*im[v]
				tmpI := tR*im[v] + tI*re[v]

				re[v] = re[u] - tmpR
				im[v] = im[u] - tmpI
				re[u] += tmpR
				im[u] += tmpI

				tR, tI = tR*wR-tI*wI, tR*wI+tI*wR
			}
		}
	}
}
