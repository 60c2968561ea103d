// Package engine turns a waveform into a HUMAN / AI_GENERATED decision and
// an independent speech-continuity signal.
package engine

import "github.com/nupi-ai/plugin-voiceguard-local/internal/audio"

// Label is the two-valued classification outcome.
type Label string

const (
	Human       Label = "HUMAN"
	AIGenerated Label = "AI_GENERATED"
)

// Source names the scorer that produced a Result.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// Fallback reasons recorded on heuristic results that stand in for the model.
const (
	FallbackUnavailable = "model_unavailable"
	FallbackModelError  = "model_error"
)

// Result is one classification. Confidence is always in [0, 1].
type Result struct {
	Label      Label
	Confidence float64
	Source     Source

	// Fallback is empty unless the heuristic answered in place of the model.
	Fallback string
}

// Scorer classifies a mono waveform. Implementations never fail: degenerate
// input yields a low-confidence default rather than an error.
type Scorer interface {
	Score(w audio.Waveform) Result
	Name() string
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
