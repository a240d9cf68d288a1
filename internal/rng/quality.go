package rng

import (
	"fmt"
	"math"
	rand "math/rand/v2"
	"sort"
)

// QualityConfig controls the statistical self-validation of a source.
type QualityConfig struct {
	// Samples is how many values to draw. Default 10000.
	Samples int
	// Buckets is the bucket count for the chi-square uniformity test.
	// Default 10.
	Buckets int
	// Significance is the test level; 0.10, 0.05 and 0.01 are supported.
	// Default 0.05.
	Significance float64
}

// TestResult holds the outcome of one statistical test.
type TestResult struct {
	Statistic float64
	Critical  float64
	Passed    bool
}

// QualityReport is the combined outcome of the chi-square and runs tests.
type QualityReport struct {
	Samples   int
	ChiSquare TestResult
	Runs      TestResult
	Passed    bool
}

// Two-tailed normal critical values for the runs test.
var runsCritical = map[float64]float64{
	0.10: 1.645,
	0.05: 1.96,
	0.01: 2.576,
}

// Upper-tail normal critical values, used by the Wilson-Hilferty
// approximation of chi-square quantiles.
var normalUpperCritical = map[float64]float64{
	0.10: 1.2816,
	0.05: 1.6449,
	0.01: 2.3263,
}

// Upper-tail chi-square critical values for common degrees of freedom,
// indexed [0.10, 0.05, 0.01]. Degrees of freedom outside the table fall back
// to the Wilson-Hilferty approximation.
var chiSquareCritical = map[int][3]float64{
	1:  {2.706, 3.841, 6.635},
	2:  {4.605, 5.991, 9.210},
	3:  {6.251, 7.815, 11.345},
	4:  {7.779, 9.488, 13.277},
	5:  {9.236, 11.070, 15.086},
	6:  {10.645, 12.592, 16.812},
	7:  {12.017, 14.067, 18.475},
	8:  {13.362, 15.507, 20.090},
	9:  {14.684, 16.919, 21.666},
	10: {15.987, 18.307, 23.209},
	15: {22.307, 24.996, 30.578},
	20: {28.412, 31.410, 37.566},
	30: {40.256, 43.773, 50.892},
}

func alphaIndex(alpha float64) (int, bool) {
	switch alpha {
	case 0.10:
		return 0, true
	case 0.05:
		return 1, true
	case 0.01:
		return 2, true
	}
	return 0, false
}

// ValidateQuality draws a sample from src and checks it for uniformity
// (chi-square against equal buckets) and independence (runs test around the
// sample median). Samples below 20 automatically pass the runs test: there
// is not enough data to judge run counts.
func ValidateQuality(src *rand.Rand, cfg QualityConfig) (QualityReport, error) {
	if cfg.Samples == 0 {
		cfg.Samples = 10000
	}
	if cfg.Buckets == 0 {
		cfg.Buckets = 10
	}
	if cfg.Significance == 0 {
		cfg.Significance = 0.05
	}
	if cfg.Samples < 1 {
		return QualityReport{}, fmt.Errorf("sample count must be positive, got %d", cfg.Samples)
	}
	if cfg.Buckets < 2 {
		return QualityReport{}, fmt.Errorf("bucket count must be at least 2, got %d", cfg.Buckets)
	}
	if _, ok := alphaIndex(cfg.Significance); !ok {
		return QualityReport{}, fmt.Errorf("unsupported significance level %v (supported: 0.10, 0.05, 0.01)", cfg.Significance)
	}

	values := make([]float64, cfg.Samples)
	for i := range values {
		values[i] = src.Float64()
	}

	report := QualityReport{
		Samples:   cfg.Samples,
		ChiSquare: chiSquareTest(values, cfg.Buckets, cfg.Significance),
		Runs:      runsTest(values, cfg.Significance),
	}
	report.Passed = report.ChiSquare.Passed && report.Runs.Passed
	return report, nil
}

func chiSquareTest(values []float64, buckets int, alpha float64) TestResult {
	counts := make([]int, buckets)
	for _, v := range values {
		b := int(v * float64(buckets))
		if b >= buckets {
			b = buckets - 1
		}
		counts[b]++
	}

	expected := float64(len(values)) / float64(buckets)
	stat := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}

	critical := chiSquareCriticalValue(buckets-1, alpha)
	return TestResult{Statistic: stat, Critical: critical, Passed: stat <= critical}
}

// chiSquareCriticalValue looks up the upper-tail critical value for df
// degrees of freedom, falling back to the Wilson-Hilferty cube approximation
// for degrees not in the table.
func chiSquareCriticalValue(df int, alpha float64) float64 {
	idx, _ := alphaIndex(alpha)
	if row, ok := chiSquareCritical[df]; ok {
		return row[idx]
	}
	z := normalUpperCritical[alpha]
	d := float64(df)
	t := 1 - 2/(9*d) + z*math.Sqrt(2/(9*d))
	return d * t * t * t
}

// runsTest counts runs above/below the sample median and compares the
// normal-approximation z-score against a two-tailed critical value. Too few
// runs indicate clustering, too many indicate oscillation.
func runsTest(values []float64, alpha float64) TestResult {
	critical := runsCritical[alpha]
	if len(values) < 20 {
		return TestResult{Statistic: 0, Critical: critical, Passed: true}
	}

	median := sampleMedian(values)

	// Values equal to the median carry no above/below information.
	var signs []bool
	for _, v := range values {
		if v == median {
			continue
		}
		signs = append(signs, v > median)
	}
	if len(signs) < 2 {
		return TestResult{Statistic: 0, Critical: critical, Passed: true}
	}

	runs := 1
	var n1, n2 float64
	for i, s := range signs {
		if s {
			n1++
		} else {
			n2++
		}
		if i > 0 && s != signs[i-1] {
			runs++
		}
	}
	if n1 == 0 || n2 == 0 {
		// A constant source has exactly one run; that is as far from random
		// as the statistic can express.
		return TestResult{Statistic: math.Inf(1), Critical: critical, Passed: false}
	}

	n := n1 + n2
	expected := 2*n1*n2/n + 1
	variance := 2 * n1 * n2 * (2*n1*n2 - n) / (n * n * (n - 1))
	if variance <= 0 {
		return TestResult{Statistic: 0, Critical: critical, Passed: true}
	}
	z := math.Abs((float64(runs) - expected) / math.Sqrt(variance))
	return TestResult{Statistic: z, Critical: critical, Passed: z <= critical}
}

func sampleMedian(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
