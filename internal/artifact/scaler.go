package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Scaler standardizes a feature vector with the per-feature mean and scale
// fitted during training: (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadScaler decodes a JSON scaler file.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read scaler: %w", err)
	}
	var s Scaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("artifact: decode scaler %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that mean and scale describe the same non-empty width.
func (s *Scaler) Validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("artifact: scaler has no features")
	}
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("artifact: scaler mean has %d entries, scale has %d", len(s.Mean), len(s.Scale))
	}
	for i, m := range s.Mean {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("artifact: scaler mean[%d] is not finite", i)
		}
	}
	return nil
}

// Transform returns the standardized copy of x. Zero or non-finite scale
// entries leave the centered value unscaled.
func (s *Scaler) Transform(x []float32) ([]float32, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("artifact: feature width %d, scaler expects %d", len(x), len(s.Mean))
	}
	out := make([]float32, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			scale = 1
		}
		out[i] = float32((float64(v) - s.Mean[i]) / scale)
	}
	return out, nil
}
