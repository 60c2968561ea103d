package features

import "math"

const (
	// melBands is the number of mel filters feeding the cepstral transform.
	melBands = 128

	// topDB clamps log-power values to this many decibels below the peak.
	topDB = 80.0

	// amin is the power floor applied before taking logarithms.
	amin = 1e-10
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// hzToMel converts frequency in Hz to the Slaney mel scale.
func hzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

// melToHz converts a Slaney mel value back to Hz.
func melToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return mel * melFSp
}

// melFilterBank creates an area-normalized triangular filterbank spanning
// 0 Hz to Nyquist. Returns [numMels][nfft/2+1].
func melFilterBank(numMels, nfft, rate int) [][]float64 {
	freqs := fftFrequencies(rate, nfft)
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(rate) / 2)

	// numMels + 2 equally spaced mel points, expressed in Hz
	points := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range points {
		points[i] = melToHz(lowMel + float64(i)*step)
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		left, center, right := points[m], points[m+1], points[m+2]
		norm := 2.0 / (right - left)
		filter := make([]float64, len(freqs))
		for k, f := range freqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			w := math.Min(lower, upper)
			if w > 0 {
				filter[k] = w * norm
			}
		}
		bank[m] = filter
	}
	return bank
}

// powerToDB converts a [frame][band] power matrix to decibels in place,
// clamped to topDB below the matrix peak.
func powerToDB(m [][]float64) {
	peak := math.Inf(-1)
	for _, row := range m {
		for i, v := range row {
			db := 10 * math.Log10(math.Max(v, amin))
			row[i] = db
			if db > peak {
				peak = db
			}
		}
	}
	floor := peak - topDB
	for _, row := range m {
		for i, v := range row {
			if v < floor {
				row[i] = floor
			}
		}
	}
}

// dctOrtho returns the first n coefficients of the orthonormal DCT-II of x.
func dctOrtho(x []float64, n int) []float64 {
	size := len(x)
	out := make([]float64, n)
	for k := 0; k < n && k < size; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi/float64(size)*(float64(i)+0.5)*float64(k))
		}
		scale := math.Sqrt(2.0 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(size))
		}
		out[k] = sum * scale
	}
	return out
}

// mfcc returns [frame][nMFCC] cepstral coefficients of the log mel power
// spectrum.
func mfcc(s *spectrogram, nMFCC int) [][]float64 {
	bands := max(melBands, nMFCC)
	bank := melFilterBank(bands, s.nfft, s.rate)
	power := s.power()

	mel := make([][]float64, len(power))
	for t, row := range power {
		m := make([]float64, bands)
		for b, filter := range bank {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * row[k]
				}
			}
			m[b] = sum
		}
		mel[t] = m
	}
	powerToDB(mel)

	out := make([][]float64, len(mel))
	for t, row := range mel {
		out[t] = dctOrtho(row, nMFCC)
	}
	return out
}

// deltaWidth is the number of frames in the derivative window.
const deltaWidth = 9

// delta computes the first-order local derivative of each coefficient track
// as the least-squares slope over a centered window. Edge frames reuse the
// slope of the first or last full window. Sequences shorter than the window
// shrink it to the longest odd width that fits; fewer than three frames
// yield zeros.
func delta(seq [][]float64) [][]float64 {
	frames := len(seq)
	out := make([][]float64, frames)
	if frames == 0 {
		return out
	}
	dims := len(seq[0])
	for t := range out {
		out[t] = make([]float64, dims)
	}

	width := deltaWidth
	if frames < width {
		width = frames
		if width%2 == 0 {
			width--
		}
	}
	if width < 3 {
		return out
	}
	half := width / 2
	var denom float64
	for k := 1; k <= half; k++ {
		denom += 2 * float64(k*k)
	}

	slope := func(t, d int) float64 {
		var num float64
		for k := -half; k <= half; k++ {
			num += float64(k) * seq[t+k][d]
		}
		return num / denom
	}

	for d := 0; d < dims; d++ {
		for t := half; t < frames-half; t++ {
			out[t][d] = slope(t, d)
		}
		for t := 0; t < half; t++ {
			out[t][d] = out[half][d]
		}
		for t := frames - half; t < frames; t++ {
			out[t][d] = out[frames-half-1][d]
		}
	}
	return out
}
