// Package regression detects performance regressions between baseline and
// dev benchmark runs.
//
// Result files are paired by the run identifier in their file names, and
// each pair yields one median and one stddev Calculation. A Calculation is
// a regression when the dev/baseline ratio exceeds its threshold.
//
// Ratios follow IEEE-754 semantics: a zero baseline gives +Inf (always a
// regression for a positive dev value) or NaN (never a regression when both
// are zero). Neither is treated as an error.
package regression

import (
	"time"

	"github.com/Aman-CERP/benchgate/internal/measurement"
)

// Default regression thresholds, as dev/baseline ratios.
//
// The stddev threshold is the main tuning knob for operators: noisy
// benchmark hosts may need it raised (earlier runners used 1.20).
const (
	DefaultMedianThreshold = 1.05
	DefaultStddevThreshold = 1.05
)

// Metric kinds, used as metric name prefixes.
const (
	KindMedian = "median"
	KindStddev = "stddev"
)

// Thresholds holds the regression cutoff for each metric kind.
type Thresholds struct {
	Median float64
	Stddev float64
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Median: DefaultMedianThreshold,
		Stddev: DefaultStddevThreshold,
	}
}

// Data is the numeric evidence behind a Calculation.
type Data struct {
	Threshold  float64 `json:"threshold"`
	Difference float64 `json:"difference"`
	Baseline   float64 `json:"baseline"`
	Dev        float64 `json:"dev"`
}

// Calculation is one metric-level regression verdict.
type Calculation struct {
	Metric     string    `json:"metric"`
	Regression bool      `json:"regression"`
	TS         time.Time `json:"ts"`
	Data       Data      `json:"data"`
}

// Calculate compares dev against baseline for run and returns the median
// calculation followed by the stddev calculation. Both share ts.
func Calculate(run string, dev, baseline measurement.Measurement, thresholds Thresholds, ts time.Time) []Calculation {
	return []Calculation{
		compare(KindMedian, run, dev.Median, baseline.Median, thresholds.Median, ts),
		compare(KindStddev, run, dev.Stddev, baseline.Stddev, thresholds.Stddev, ts),
	}
}

func compare(kind, run string, dev, baseline, threshold float64, ts time.Time) Calculation {
	difference := dev / baseline
	return Calculation{
		Metric:     kind + "_" + run,
		Regression: difference > threshold,
		TS:         ts,
		Data: Data{
			Threshold:  threshold,
			Difference: difference,
			Baseline:   baseline,
			Dev:        dev,
		},
	}
}

// Flagged returns the calculations marked as regressions, in order.
func Flagged(calcs []Calculation) []Calculation {
	var out []Calculation
	for _, c := range calcs {
		if c.Regression {
			out = append(out, c)
		}
	}
	return out
}
