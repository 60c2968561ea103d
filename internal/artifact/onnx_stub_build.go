//go:build !onnx

package artifact

import "errors"

// ErrONNXUnavailable indicates the ONNX Runtime backend is not compiled in.
var ErrONNXUnavailable = errors.New("artifact: onnx backend not available (build with -tags onnx)")

// ONNXAvailable reports that no ONNX backend is compiled in.
func ONNXAvailable() bool { return false }

// NewONNXClassifier returns ErrONNXUnavailable when built without the onnx tag.
func NewONNXClassifier(string) (Classifier, error) {
	return nil, ErrONNXUnavailable
}
