package analysis

import "math"

// Thresholds applied by the detectors.
const (
	correlationThreshold = 0.80
	anomalySigmas        = 3.0
)

// trendSlope fits y = slope*x + intercept by least squares where x is the
// position of each value in ys. NaN values are dropped but keep their
// position. Returns NaN when fewer than two points remain.
func trendSlope(ys []float64) float64 {
	var n, sumX, sumY float64
	for i, y := range ys {
		if math.IsNaN(y) {
			continue
		}
		n++
		sumX += float64(i)
		sumY += y
	}
	if n < 2 {
		return math.NaN()
	}
	mx, my := sumX/n, sumY/n
	var sxx, sxy float64
	for i, y := range ys {
		if math.IsNaN(y) {
			continue
		}
		dx := float64(i) - mx
		sxx += dx * dx
		sxy += dx * (y - my)
	}
	if sxx == 0 {
		return math.NaN()
	}
	return sxy / sxx
}

// pearson returns the Pearson correlation of xs and ys over the rows where
// both values are present. Returns NaN when either side has zero variance or
// fewer than two complete rows exist.
func pearson(xs, ys []float64) float64 {
	// Pairwise accumulators with missingness handling.
	type pairAcc struct {
		n, sumX, sumY float64
	}
	var pa pairAcc
	rows := min(len(xs), len(ys))
	for i := 0; i < rows; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pa.n++
		pa.sumX += xs[i]
		pa.sumY += ys[i]
	}
	if pa.n < 2 {
		return math.NaN()
	}
	mx, my := pa.sumX/pa.n, pa.sumY/pa.n
	var num, dx2, dy2 float64
	for i := 0; i < rows; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		dx := xs[i] - mx
		dy := ys[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	denom := math.Sqrt(dx2 * dy2)
	if denom == 0 {
		return math.NaN()
	}
	r := num / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// meanStd returns the mean and population standard deviation of the present
// values, and how many there were.
func meanStd(vals []float64) (mean, std float64, n int) {
	var sum float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		n++
		sum += v
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean = sum / float64(n)
	var ss float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(n))
	return mean, std, n
}

// AnomaliesInColumn returns the values lying strictly outside mean ± 3σ
// (population σ), in their original order. Missing values are ignored.
func AnomaliesInColumn(vals []float64) []float64 {
	mean, std, n := meanStd(vals)
	if n == 0 {
		return nil
	}
	cutoff := std * anomalySigmas
	lower := mean - cutoff
	upper := mean + cutoff
	var out []float64
	for _, v := range vals {
		if v > upper || v < lower {
			out = append(out, v)
		}
	}
	return out
}

func isCorrelated(r float64) bool {
	return r < -correlationThreshold || r > correlationThreshold
}
