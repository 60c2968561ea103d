package features

import "math"

// meanStd returns the mean and population standard deviation of xs.
// An empty input yields zeros.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// MeanStd is the exported form of meanStd for scorers that summarise
// frame tracks.
func MeanStd(xs []float64) (mean, std float64) { return meanStd(xs) }

// column extracts dimension d of a [frame][dim] matrix.
func column(m [][]float64, d int) []float64 {
	out := make([]float64, len(m))
	for t, row := range m {
		out[t] = row[d]
	}
	return out
}

// flatten concatenates the rows of m.
func flatten(m [][]float64) []float64 {
	var n int
	for _, row := range m {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range m {
		out = append(out, row...)
	}
	return out
}

func toFloat64(y []float32) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = float64(v)
	}
	return out
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
