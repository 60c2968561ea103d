//go:build whisper

package langid

import (
	"context"
	"errors"
	"fmt"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperAvailable reports that the whisper.cpp backend is compiled in.
func WhisperAvailable() bool { return true }

// WhisperDetector runs whisper.cpp language detection. The model is loaded
// once and each call gets its own context, so calls may run concurrently.
type WhisperDetector struct {
	model whisperlib.Model
}

// NewWhisper loads the whisper.cpp model at modelPath.
func NewWhisper(modelPath string) (Detector, error) {
	if modelPath == "" {
		return nil, errors.New("langid: whisper model path must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("langid: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperDetector{model: model}, nil
}

// Detect implements Detector.
func (d *WhisperDetector) Detect(ctx context.Context, window []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	wctx, err := d.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("langid: whisper context: %w", err)
	}
	if err := wctx.SetLanguage("auto"); err != nil {
		return "", fmt.Errorf("langid: whisper set language: %w", err)
	}
	if err := wctx.Process(window, nil, nil, nil); err != nil {
		return "", fmt.Errorf("langid: whisper process: %w", err)
	}
	return wctx.DetectedLanguage(), nil
}

// Close releases the model.
func (d *WhisperDetector) Close() error {
	if d.model != nil {
		return d.model.Close()
	}
	return nil
}
