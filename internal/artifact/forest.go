package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// leaf marks an absent child index.
const leaf = -1

// Node is one decision-tree node. Internal nodes route x[Feature] <= Threshold
// to Left and everything else to Right. Leaves carry per-class sample counts
// or weights in Value.
type Node struct {
	Feature   int       `json:"feature" msgpack:"feature"`
	Threshold float64   `json:"threshold" msgpack:"threshold"`
	Left      int       `json:"left" msgpack:"left"`
	Right     int       `json:"right" msgpack:"right"`
	Value     []float64 `json:"value" msgpack:"value"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes" msgpack:"nodes"`
}

// Forest is a bagged ensemble of decision trees. Class probabilities are the
// mean of every tree's normalized leaf distribution.
type Forest struct {
	NFeatures int    `json:"n_features" msgpack:"n_features"`
	NClasses  int    `json:"n_classes" msgpack:"n_classes"`
	Trees     []Tree `json:"trees" msgpack:"trees"`
}

func decodeForestJSON(data []byte, f *Forest) error { return json.Unmarshal(data, f) }

func decodeForestMsgpack(data []byte, f *Forest) error { return msgpack.Unmarshal(data, f) }

// LoadForest reads and validates a forest dump with the given decoder.
func LoadForest(path string, decode func([]byte, *Forest) error) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read forest: %w", err)
	}
	var f Forest
	if err := decode(data, &f); err != nil {
		return nil, fmt.Errorf("artifact: decode forest %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the forest shape. Children must sit after their parent so
// traversal always terminates.
func (f *Forest) Validate() error {
	if f.NFeatures <= 0 {
		return fmt.Errorf("artifact: forest n_features %d", f.NFeatures)
	}
	if f.NClasses < 2 {
		return fmt.Errorf("artifact: forest n_classes %d", f.NClasses)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("artifact: forest has no trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("artifact: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Left == leaf || n.Right == leaf {
				if n.Left != n.Right {
					return fmt.Errorf("artifact: tree %d node %d has one child", ti, ni)
				}
				if len(n.Value) != f.NClasses {
					return fmt.Errorf("artifact: tree %d leaf %d has %d values, want %d", ti, ni, len(n.Value), f.NClasses)
				}
				for _, v := range n.Value {
					if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
						return fmt.Errorf("artifact: tree %d leaf %d has value %v", ti, ni, v)
					}
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NFeatures {
				return fmt.Errorf("artifact: tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			for _, c := range []int{n.Left, n.Right} {
				if c <= ni || c >= len(t.Nodes) {
					return fmt.Errorf("artifact: tree %d node %d has child %d out of order", ti, ni, c)
				}
			}
		}
	}
	return nil
}

// Predict implements Classifier.
func (f *Forest) Predict(x []float32) (Prediction, error) {
	if len(x) != f.NFeatures {
		return Prediction{}, fmt.Errorf("artifact: forest expects %d features, got %d", f.NFeatures, len(x))
	}
	proba := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		n := t.Nodes[0]
		for n.Left != leaf {
			if float64(x[n.Feature]) <= n.Threshold {
				n = t.Nodes[n.Left]
			} else {
				n = t.Nodes[n.Right]
			}
		}
		var sum float64
		for _, v := range n.Value {
			sum += v
		}
		if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
			continue
		}
		for c, v := range n.Value {
			proba[c] += v / sum
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return Prediction{Class: argmax(proba), Proba: proba}, nil
}

// InputWidth implements Sized.
func (f *Forest) InputWidth() int { return f.NFeatures }

// Close implements Classifier.
func (f *Forest) Close() error { return nil }

// argmax returns the first index of the largest value, matching the tie
// break of the training library.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
