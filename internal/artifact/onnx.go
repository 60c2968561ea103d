//go:build onnx

package artifact

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Tensor names of the exported classifier graph.
const (
	onnxInput       = "float_input"
	onnxLabel       = "label"
	onnxProbability = "probabilities"
	onnxClasses     = 2
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// ONNXAvailable reports that the ONNX Runtime backend is compiled in.
func ONNXAvailable() bool { return true }

// ONNXClassifier runs an exported classifier graph through ONNX Runtime.
type ONNXClassifier struct {
	session *ort.DynamicAdvancedSession
	width   int
}

// NewONNXClassifier initializes the runtime once per process and opens the
// model at path.
func NewONNXClassifier(path string) (*ONNXClassifier, error) {
	ortInitOnce.Do(func() {
		libPath, err := resolveORTLibPath()
		if err != nil {
			ortInitErr = fmt.Errorf("resolve ORT lib: %w", err)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("onnx: %w", ortInitErr)
	}

	inputs, _, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: inspect %s: %w", path, err)
	}
	var width int
	for _, in := range inputs {
		if in.Name == onnxInput && len(in.Dimensions) == 2 && in.Dimensions[1] > 0 {
			width = int(in.Dimensions[1])
		}
	}

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{onnxInput},
		[]string{onnxLabel, onnxProbability},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session for %s: %w", path, err)
	}
	return &ONNXClassifier{session: session, width: width}, nil
}

// Predict implements Classifier. Tensors are allocated per call so the
// session can serve concurrent requests.
func (c *ONNXClassifier) Predict(x []float32) (Prediction, error) {
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(x))), x)
	if err != nil {
		return Prediction{}, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	defer input.Destroy()

	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return Prediction{}, fmt.Errorf("onnx: create label tensor: %w", err)
	}
	defer label.Destroy()

	proba, err := ort.NewEmptyTensor[float32](ort.NewShape(1, onnxClasses))
	if err != nil {
		return Prediction{}, fmt.Errorf("onnx: create probability tensor: %w", err)
	}
	defer proba.Destroy()

	if err := c.session.Run([]ort.Value{input}, []ort.Value{label, proba}); err != nil {
		return Prediction{}, fmt.Errorf("onnx: inference: %w", err)
	}

	class := int(label.GetData()[0])
	if class < 0 || class >= onnxClasses {
		return Prediction{}, fmt.Errorf("onnx: label %d out of range", class)
	}
	out := make([]float64, onnxClasses)
	for i, p := range proba.GetData() {
		out[i] = float64(p)
	}
	return Prediction{Class: class, Proba: out}, nil
}

// InputWidth implements Sized. It is 0 when the graph declares a dynamic
// feature dimension.
func (c *ONNXClassifier) InputWidth() int { return c.width }

// Close releases the session. Safe to call more than once.
func (c *ONNXClassifier) Close() error {
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	return nil
}
