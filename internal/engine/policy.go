package engine

import (
	"fmt"
	"log/slog"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/artifact"
	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
)

// Scorer selection modes.
const (
	ModeAuto      = "auto"
	ModeHeuristic = "heuristic"
)

// ArtifactSource supplies the trained artifact. *artifact.Cache implements it.
type ArtifactSource interface {
	Get() (*artifact.Artifact, error)
}

// ModelBacked answers from the trained model. When a single prediction
// fails, that request is answered by the heuristic alone; scores from the
// two paths are never mixed.
type ModelBacked struct {
	model     *ModelScorer
	heuristic *HeuristicScorer
	log       *slog.Logger
}

// Name implements Scorer.
func (s *ModelBacked) Name() string { return s.model.Name() }

// Score implements Scorer.
func (s *ModelBacked) Score(w audio.Waveform) Result {
	res, err := s.model.TryScore(w)
	if err == nil {
		return res
	}
	s.log.Warn("model prediction failed, using heuristic", "error", err)
	res = s.heuristic.Score(w)
	res.Fallback = FallbackModelError
	return res
}

// Select picks the scorer once at startup. In ModeAuto the model is used if
// src yields a usable artifact; otherwise, and in ModeHeuristic, the
// heuristic is used. Artifact problems are logged, never returned.
func Select(mode string, src ArtifactSource, nMFCC int, logger *slog.Logger) (Scorer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scorer")

	switch mode {
	case ModeHeuristic:
		logger.Info("scorer selected", "scorer", SourceHeuristic, "mode", mode)
		return NewHeuristicScorer(), nil
	case ModeAuto, "":
	default:
		return nil, fmt.Errorf("engine: unknown scorer mode %q", mode)
	}

	fallback := &HeuristicScorer{fallback: FallbackUnavailable}
	if src == nil {
		logger.Warn("no model source configured, using heuristic scorer")
		return fallback, nil
	}
	art, err := src.Get()
	if err != nil {
		logger.Warn("trained model unavailable, using heuristic scorer", "error", err)
		return fallback, nil
	}
	model, err := NewModelScorer(art, nMFCC)
	if err != nil {
		logger.Warn("trained model rejected, using heuristic scorer", "error", err)
		return fallback, nil
	}
	logger.Info("scorer selected", "scorer", SourceModel, "kind", art.Kind, "dir", art.Dir)
	return &ModelBacked{
		model:     model,
		heuristic: NewHeuristicScorer(),
		log:       logger,
	}, nil
}
