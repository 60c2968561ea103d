// Package features turns a mono waveform into the fixed-length descriptor
// consumed by the trained classifier.
//
// All frame statistics use a 2048-sample analysis window and a 512-sample
// hop. The vector layout for n cepstral coefficients is:
//
//	[0, n)          MFCC means
//	[n, 2n)         MFCC standard deviations
//	[2n, 3n)        delta-MFCC means
//	3n+0, 3n+1      zero-crossing rate mean, std
//	3n+2, 3n+3      spectral centroid mean, std (Hz)
//	3n+4, 3n+5      spectral rolloff mean, std (Hz)
//	3n+6, 3n+7      spectral contrast mean, std (dB, over bands and frames)
//	3n+8, 3n+9      RMS energy mean, std
//	[3n+10, 3n+22)  chroma means, C first
package features

import (
	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
)

const (
	// FrameLength is the analysis window in samples.
	FrameLength = 2048

	// HopLength is the distance between frame starts in samples.
	HopLength = 512

	// DefaultNMFCC is the default number of cepstral coefficients.
	DefaultNMFCC = 13

	// MinDuration is the shortest signal, in seconds, analysed as-is.
	// Shorter input is zero-padded up to it.
	MinDuration = 0.5
)

// scalarStats is the number of mean/std values between the delta block and
// the chroma block.
const scalarStats = 10

// VectorLen returns the feature vector length for nMFCC coefficients.
func VectorLen(nMFCC int) int {
	return 3*nMFCC + scalarStats + PitchClasses
}

// Offsets of the scalar statistics relative to the end of the delta block.
const (
	OffsetZCR      = 0
	OffsetCentroid = 2
	OffsetRolloff  = 4
	OffsetContrast = 6
	OffsetRMS      = 8
	OffsetChroma   = scalarStats
)

// Extractor computes feature vectors with a fixed coefficient count.
// The zero value uses DefaultNMFCC.
type Extractor struct {
	NMFCC int
}

// Len returns the length of the vectors this extractor produces.
func (e Extractor) Len() int { return VectorLen(e.nmfcc()) }

// Extract computes the descriptor of w. See Extract.
func (e Extractor) Extract(w audio.Waveform) []float32 {
	return Extract(w.Samples, w.SampleRate, e.nmfcc())
}

func (e Extractor) nmfcc() int {
	if e.NMFCC < 1 {
		return DefaultNMFCC
	}
	return e.NMFCC
}

// Extract computes the feature vector of a mono signal sampled at rate Hz.
// The result always has VectorLen(nMFCC) finite entries: signals shorter
// than MinDuration are zero-padded, degenerate statistics are replaced by
// 0, and a non-positive rate yields an all-zero vector. nMFCC values below
// 1 fall back to DefaultNMFCC.
func Extract(y []float32, rate, nMFCC int) []float32 {
	if nMFCC < 1 {
		nMFCC = DefaultNMFCC
	}
	vec := make([]float32, VectorLen(nMFCC))
	if rate <= 0 {
		return vec
	}

	y = audio.PadTo(y, int(float64(rate)*MinDuration))
	sg := newSpectrogram(toFloat64(y), rate, FrameLength, HopLength)

	out := make([]float64, 0, len(vec))

	cc := mfcc(sg, nMFCC)
	stds := make([]float64, nMFCC)
	for d := 0; d < nMFCC; d++ {
		m, s := meanStd(column(cc, d))
		out = append(out, m)
		stds[d] = s
	}
	out = append(out, stds...)

	dcc := delta(cc)
	for d := 0; d < nMFCC; d++ {
		m, _ := meanStd(column(dcc, d))
		out = append(out, m)
	}

	pairs := [][]float64{
		ZeroCrossingRate(y, FrameLength, HopLength),
		centroid(sg),
		rolloff(sg),
		flatten(contrast(sg)),
		RMS(y, FrameLength, HopLength),
	}
	for _, track := range pairs {
		m, s := meanStd(track)
		out = append(out, m, s)
	}

	ch := chroma(sg)
	for p := 0; p < PitchClasses; p++ {
		m, _ := meanStd(column(ch, p))
		out = append(out, m)
	}

	for i, v := range out {
		if f := float32(v); finite(float64(f)) {
			vec[i] = f
		}
	}
	return vec
}
