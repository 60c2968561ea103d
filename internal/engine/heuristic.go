package engine

import (
	"errors"
	"math"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/features"
)

// Heuristic tuning. The normalizers and the decision threshold are empirical
// and have not been calibrated against labelled data.
const (
	// EnergyFloor drops near-silent frames from the energy statistics.
	EnergyFloor = 0.001

	// MinInformativeFrames is the fewest frames above EnergyFloor needed to
	// score; below it the scorer returns DefaultLabel at DefaultConfidence.
	MinInformativeFrames = 5

	rmsCVNorm        = 1.2
	zcrStdNorm       = 0.08
	flatnessNorm     = 0.15
	flatnessMinimum  = 1e-8
	flatnessDefault  = 0.01
	flatScoreNeutral = 0.5

	weightRMS      = 0.45
	weightZCR      = 0.35
	weightFlatness = 0.2

	// HumanThreshold sits below 0.5 on purpose, biasing ties toward HUMAN.
	HumanThreshold = 0.42

	DefaultLabel      = Human
	DefaultConfidence = 0.5
)

var errNoFlatness = errors.New("engine: no spectral flatness frames")

// HeuristicScorer estimates human-likeness from energy variation,
// zero-crossing variation and spectral flatness. It needs no trained model.
type HeuristicScorer struct {
	fallback string
}

// NewHeuristicScorer returns a scorer whose results carry no fallback reason.
func NewHeuristicScorer() *HeuristicScorer { return &HeuristicScorer{} }

// Name implements Scorer.
func (h *HeuristicScorer) Name() string { return string(SourceHeuristic) }

// Score implements Scorer. It is a pure function of the samples and rate.
func (h *HeuristicScorer) Score(w audio.Waveform) Result {
	label, conf := HeuristicScore(w.Samples, w.SampleRate)
	return Result{
		Label:      label,
		Confidence: conf,
		Source:     SourceHeuristic,
		Fallback:   h.fallback,
	}
}

// HeuristicScore classifies y. Too little energy returns
// (DefaultLabel, DefaultConfidence).
func HeuristicScore(y []float32, rate int) (Label, float64) {
	rms := features.RMS(y, features.FrameLength, features.HopLength)
	var loud []float64
	for _, v := range rms {
		if v > EnergyFloor {
			loud = append(loud, v)
		}
	}
	if len(loud) < MinInformativeFrames {
		return DefaultLabel, DefaultConfidence
	}

	mean, std := features.MeanStd(loud)
	rmsScore := clamp01(std / (mean + 1e-8) / rmsCVNorm)

	// Zero crossings are summarised over every frame, silent ones included.
	_, zcrStd := features.MeanStd(features.ZeroCrossingRate(y, features.FrameLength, features.HopLength))
	zcrScore := clamp01(zcrStd / zcrStdNorm)

	flatScore, err := flatnessScore(y, rate)
	if err != nil {
		flatScore = flatScoreNeutral
	}

	return Fuse(rmsScore, zcrScore, flatScore)
}

// flatnessScore normalizes the mean of the non-negligible per-frame flatness
// values.
func flatnessScore(y []float32, rate int) (float64, error) {
	if rate <= 0 {
		return 0, errNoFlatness
	}
	var sum float64
	var n int
	for _, v := range features.SpectralFlatness(y, rate) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errNoFlatness
		}
		if v > flatnessMinimum {
			sum += v
			n++
		}
	}
	mean := flatnessDefault
	if n > 0 {
		mean = sum / float64(n)
	}
	return clamp01(mean / flatnessNorm), nil
}

// Fuse combines the three normalized sub-scores into a label and a
// confidence that grows linearly from 0.5 at the indecision point to 1 at
// either extreme.
func Fuse(rmsScore, zcrScore, flatScore float64) (Label, float64) {
	likeness := clamp01(weightRMS*rmsScore + weightZCR*zcrScore + weightFlatness*flatScore)
	conf := 0.5 + math.Abs(likeness-0.5)
	if likeness >= HumanThreshold {
		return Human, conf
	}
	return AIGenerated, conf
}
