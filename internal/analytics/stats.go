package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// dropNaN returns the non-missing values of a series.
func dropNaN(values []float64) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return clean
}

// meanStd returns the mean and sample standard deviation of the non-missing
// values. ok is false when fewer than two values exist, in which case no
// meaningful deviation can be computed.
func meanStd(values []float64) (mean, std float64, ok bool) {
	clean := dropNaN(values)
	if len(clean) < 2 {
		return 0, 0, false
	}
	mean = stat.Mean(clean, nil)
	std = stat.StdDev(clean, nil)
	return mean, std, true
}

// pairwise filters two aligned series down to the rows where both values are
// non-missing.
func pairwise(xs, ys []float64) (px, py []float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := 0; i < n; i++ {
		if !math.IsNaN(xs[i]) && !math.IsNaN(ys[i]) {
			px = append(px, xs[i])
			py = append(py, ys[i])
		}
	}
	return px, py
}

// pearson computes the Pearson correlation coefficient of two equally sized
// samples and its two-sided p-value under the Student's t distribution with
// n-2 degrees of freedom. ok is false when fewer than three points exist or
// either series is constant (r undefined).
func pearson(xs, ys []float64) (r, p float64, ok bool) {
	n := len(xs)
	if n < 3 || len(ys) != n {
		return 0, 0, false
	}
	r = stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, 0, false
	}
	// Clamp rounding noise before the significance transform.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		// Perfectly collinear sample: the null hypothesis of zero
		// correlation is rejected outright.
		return r, 0, true
	}
	t := r * math.Sqrt(df/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.CDF(-math.Abs(t))
	return r, p, true
}
