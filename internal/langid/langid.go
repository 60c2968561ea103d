// Package langid identifies the spoken language of a recording and maps it
// to one of the two display names the service reports.
package langid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nupi-ai/plugin-voiceguard-local/internal/audio"
)

// Display names.
const (
	English = "English"
	Hindi   = "Hindi (Devanagari)"
)

// Detector input format: mono at SampleRate, exactly WindowSeconds long.
const (
	SampleRate    = 16000
	WindowSeconds = 30
)

// Detection modes.
const (
	ModeAuto    = "auto"
	ModeWhisper = "whisper"
	ModeNone    = "none"
)

// ErrNativeUnavailable indicates the whisper.cpp backend is not compiled in.
var ErrNativeUnavailable = errors.New("langid: whisper backend not available (build with -tags whisper)")

// Detector returns a language code for a prepared window, or "" when it
// cannot tell. Implementations must be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, window []float32) (string, error)
	Close() error
}

// DisplayName maps a language code to English or Hindi. Unknown and empty
// codes map to English.
func DisplayName(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "hi" || c == "hin" || strings.HasPrefix(c, "hi-") {
		return Hindi
	}
	return English
}

// Prepare resamples w to SampleRate and pads or trims it to the detector
// window.
func Prepare(w audio.Waveform) ([]float32, error) {
	r, err := audio.Resample(w, SampleRate)
	if err != nil {
		return nil, err
	}
	return audio.PadOrTrim(r.Samples, SampleRate*WindowSeconds), nil
}

// Identifier wraps a Detector and never fails: any detection problem is
// logged and reported as English.
type Identifier struct {
	det Detector
	log *slog.Logger
}

// NewIdentifier returns an Identifier over det. A nil det always answers
// English.
func NewIdentifier(det Detector, logger *slog.Logger) *Identifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identifier{det: det, log: logger.With("component", "langid")}
}

// Identify returns the display name for the language spoken in w.
func (i *Identifier) Identify(ctx context.Context, w audio.Waveform) string {
	if i == nil || i.det == nil {
		return English
	}
	window, err := Prepare(w)
	if err != nil {
		i.log.Warn("language detection input rejected, defaulting to English", "error", err)
		return English
	}
	code, err := i.det.Detect(ctx, window)
	if err != nil {
		i.log.Warn("language detection failed, defaulting to English", "error", err)
		return English
	}
	i.log.Debug("language detected", "code", code)
	return DisplayName(code)
}

// Close releases the detector.
func (i *Identifier) Close() error {
	if i == nil || i.det == nil {
		return nil
	}
	return i.det.Close()
}

// New builds the detector for mode. In ModeAuto a missing backend or model
// path degrades to no detection; in ModeWhisper it is an error.
func New(mode, modelPath string, logger *slog.Logger) (Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch mode {
	case ModeNone:
		return nil, nil
	case ModeWhisper:
		return NewWhisper(modelPath)
	case ModeAuto, "":
		if !WhisperAvailable() || modelPath == "" {
			logger.Warn("language detection disabled, every request reports English",
				"whisper_compiled", WhisperAvailable(),
				"model_configured", modelPath != "",
			)
			return nil, nil
		}
		det, err := NewWhisper(modelPath)
		if err != nil {
			logger.Warn("whisper model failed to load, every request reports English", "error", err)
			return nil, nil
		}
		return det, nil
	default:
		return nil, fmt.Errorf("langid: unknown mode %q", mode)
	}
}
