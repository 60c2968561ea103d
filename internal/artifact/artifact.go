// Package artifact loads the trained scoring artifact: a feature scaler and
// a binary classifier written by the offline training job, gated by a
// zero-byte marker that says the model was fitted on real recordings.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names inside the model directory.
const (
	FlagFile   = "trained_on_real_data.flag"
	ScalerFile = "ai_voice_scaler.json"

	// ModelBase is the classifier file name without extension. The extension
	// selects the decoder: .onnx, .json or .msgpack.
	ModelBase = "ai_voice_model"
)

// Classifier kinds, in lookup order.
const (
	KindONNX    = "onnx"
	KindJSON    = "json"
	KindMsgpack = "msgpack"
)

var (
	// ErrUnavailable marks every reason the artifact cannot be used.
	ErrUnavailable = errors.New("artifact: unavailable")

	// ErrNotTrained means the marker file is absent.
	ErrNotTrained = fmt.Errorf("%w: model not trained on real data", ErrUnavailable)
)

// Prediction is a classifier output: the predicted class index and the
// probability of every class.
type Prediction struct {
	Class int
	Proba []float64
}

// Classifier predicts class membership for one scaled feature vector.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Predict(x []float32) (Prediction, error)
	Close() error
}

// Sized is implemented by classifiers that declare the feature width they
// accept. A width of 0 means unknown.
type Sized interface {
	InputWidth() int
}

// Artifact is a loaded scaler plus classifier.
type Artifact struct {
	Dir        string
	Kind       string
	Scaler     *Scaler
	Classifier Classifier
}

// Close releases classifier resources.
func (a *Artifact) Close() error {
	if a == nil || a.Classifier == nil {
		return nil
	}
	return a.Classifier.Close()
}

// Load reads the artifact from dir. Every failure wraps ErrUnavailable.
// The marker file is checked for presence only; its contents are ignored.
func Load(dir string) (*Artifact, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: model directory not configured", ErrUnavailable)
	}
	if !isFile(filepath.Join(dir, FlagFile)) {
		return nil, ErrNotTrained
	}

	scalerPath := filepath.Join(dir, ScalerFile)
	if !isFile(scalerPath) {
		return nil, fmt.Errorf("%w: %s missing", ErrUnavailable, ScalerFile)
	}
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	kind, modelPath := findModel(dir)
	if kind == "" {
		return nil, fmt.Errorf("%w: no %s.{onnx,json,msgpack} in %s", ErrUnavailable, ModelBase, dir)
	}

	var clf Classifier
	switch kind {
	case KindONNX:
		clf, err = NewONNXClassifier(modelPath)
	case KindJSON:
		clf, err = LoadForest(modelPath, decodeForestJSON)
	case KindMsgpack:
		clf, err = LoadForest(modelPath, decodeForestMsgpack)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return &Artifact{
		Dir:        dir,
		Kind:       kind,
		Scaler:     scaler,
		Classifier: clf,
	}, nil
}

// findModel returns the first classifier file present in dir. ONNX is
// skipped when the runtime is not compiled in.
func findModel(dir string) (kind, path string) {
	for _, k := range []string{KindONNX, KindJSON, KindMsgpack} {
		if k == KindONNX && !ONNXAvailable() {
			continue
		}
		p := filepath.Join(dir, ModelBase+"."+k)
		if isFile(p) {
			return k, p
		}
	}
	return "", ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
