package histlog

import (
	"math"
	"strconv"
)

// Stats summarizes the retained log: percent-difference distribution plus the
// Pearson correlation between the index series and the computed-total series.
type Stats struct {
	Count       int     `json:"count"`
	MeanPercent float64 `json:"meanPercent"`
	MinPercent  float64 `json:"minPercent"`
	MaxPercent  float64 `json:"maxPercent"`
	Correlation float64 `json:"correlation"`
}

// computeStats recomputes everything from scratch over the given points.
func computeStats(points []Point) Stats {
	if len(points) == 0 {
		return Stats{}
	}

	stats := Stats{
		Count:      len(points),
		MinPercent: math.Inf(1),
		MaxPercent: math.Inf(-1),
	}

	index := make([]float64, len(points))
	total := make([]float64, len(points))
	sum := 0.0
	for i, p := range points {
		pct, err := strconv.ParseFloat(p.PercentDifference, 64)
		if err != nil {
			pct = 0
		}
		sum += pct
		stats.MinPercent = math.Min(stats.MinPercent, pct)
		stats.MaxPercent = math.Max(stats.MaxPercent, pct)

		index[i] = p.IndexValue
		total[i] = p.ComputedTotal
	}
	stats.MeanPercent = sum / float64(len(points))
	stats.Correlation = pearson(index, total)

	return stats
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. Fewer than two points, or a series with zero variance, yields 0.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
