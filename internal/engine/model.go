package engine

import (
	"fmt"
	"math"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/artifact"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/features"
)

// Classifier output classes.
const (
	classHuman = 0
	classAI    = 1
)

// ModelScorer classifies with the trained artifact.
type ModelScorer struct {
	art       *artifact.Artifact
	extractor features.Extractor
}

// NewModelScorer binds art to an extractor producing nMFCC cepstral bands.
// The scaler width, and the classifier width when it declares one, must
// match the extractor's vector length.
func NewModelScorer(art *artifact.Artifact, nMFCC int) (*ModelScorer, error) {
	if art == nil || art.Scaler == nil || art.Classifier == nil {
		return nil, fmt.Errorf("%w: incomplete artifact", artifact.ErrUnavailable)
	}
	ex := features.Extractor{NMFCC: nMFCC}
	if got, want := len(art.Scaler.Mean), ex.Len(); got != want {
		return nil, fmt.Errorf("%w: scaler expects %d features, extractor produces %d",
			artifact.ErrUnavailable, got, want)
	}
	if sized, ok := art.Classifier.(artifact.Sized); ok {
		if got := sized.InputWidth(); got != 0 && got != ex.Len() {
			return nil, fmt.Errorf("%w: classifier expects %d features, extractor produces %d",
				artifact.ErrUnavailable, got, ex.Len())
		}
	}
	return &ModelScorer{art: art, extractor: ex}, nil
}

// Name implements Scorer.
func (m *ModelScorer) Name() string { return string(SourceModel) }

// TryScore runs extraction, scaling and prediction. Any error means the
// caller must answer from the heuristic instead.
func (m *ModelScorer) TryScore(w audio.Waveform) (Result, error) {
	x, err := m.art.Scaler.Transform(m.extractor.Extract(w))
	if err != nil {
		return Result{}, err
	}
	pred, err := m.art.Classifier.Predict(x)
	if err != nil {
		return Result{}, err
	}
	if pred.Class != classHuman && pred.Class != classAI {
		return Result{}, fmt.Errorf("engine: model predicted class %d", pred.Class)
	}
	if len(pred.Proba) <= pred.Class {
		return Result{}, fmt.Errorf("engine: model returned %d probabilities", len(pred.Proba))
	}
	conf := pred.Proba[pred.Class]
	if math.IsNaN(conf) || math.IsInf(conf, 0) {
		return Result{}, fmt.Errorf("engine: model probability %v", conf)
	}

	label := Human
	if pred.Class == classAI {
		label = AIGenerated
	}
	return Result{
		Label:      label,
		Confidence: clamp01(conf),
		Source:     SourceModel,
	}, nil
}
