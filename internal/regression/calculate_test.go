package regression

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/benchgate/internal/measurement"
)

var fixedTS = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// uniform returns a measurement whose every statistic is v.
func uniform(v float64) measurement.Measurement {
	return measurement.Measurement{
		Command: "some command",
		Mean:    v,
		Stddev:  v,
		Median:  v,
		User:    v,
		System:  v,
		Min:     v,
		Max:     v,
		Times:   []float64{},
	}
}

func TestCalculate_Detects5PercentRegression(t *testing.T) {
	// Given: dev is 6% slower on every statistic
	dev := uniform(1.06)
	baseline := uniform(1.00)

	// When: calculating with default thresholds
	calcs := Calculate("test_metric", dev, baseline, DefaultThresholds(), fixedTS)

	// Then: both median and stddev exceed the 5% threshold
	require.Len(t, calcs, 2)
	assert.Equal(t, "median_test_metric", calcs[0].Metric)
	assert.Equal(t, "stddev_test_metric", calcs[1].Metric)
	assert.True(t, calcs[0].Regression)
	assert.True(t, calcs[1].Regression)
	assert.InDelta(t, 1.06, calcs[0].Data.Difference, 1e-12)
}

func TestCalculate_StddevThresholdIsIndependent(t *testing.T) {
	// Given: a looser stddev threshold
	thresholds := Thresholds{Median: 1.05, Stddev: 1.20}
	dev := uniform(1.06)
	baseline := uniform(1.00)

	calcs := Calculate("test_metric", dev, baseline, thresholds, fixedTS)

	// Then: only the median is a regression
	flagged := Flagged(calcs)
	require.Len(t, flagged, 1)
	assert.Equal(t, "median_test_metric", flagged[0].Metric)
	assert.Equal(t, 1.20, calcs[1].Data.Threshold)
}

func TestCalculate_RatioProperty(t *testing.T) {
	tests := []struct {
		name     string
		dev      float64
		baseline float64
	}{
		{"equal", 1.0, 1.0},
		{"just below", 1.0499, 1.0},
		{"exactly at threshold", 1.05, 1.0},
		{"just above", 1.0501, 1.0},
		{"faster", 0.5, 1.0},
		{"much slower", 3.0, 0.1},
		{"tiny baseline", 2e-9, 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := measurement.Measurement{Median: tt.dev, Stddev: tt.dev}
			baseline := measurement.Measurement{Median: tt.baseline, Stddev: tt.baseline}

			calcs := Calculate("r", dev, baseline, DefaultThresholds(), fixedTS)

			want := tt.dev/tt.baseline > DefaultMedianThreshold
			assert.Equal(t, want, calcs[0].Regression)
			assert.Equal(t, tt.dev/tt.baseline > DefaultStddevThreshold, calcs[1].Regression)
			assert.Equal(t, tt.dev/tt.baseline, calcs[0].Data.Difference)
		})
	}
}

func TestCalculate_DataFields(t *testing.T) {
	dev := measurement.Measurement{Median: 1.06, Stddev: 0.02}
	baseline := measurement.Measurement{Median: 1.00, Stddev: 0.04}

	calcs := Calculate("parse_proj", dev, baseline, DefaultThresholds(), fixedTS)

	assert.Equal(t, Data{Threshold: 1.05, Difference: 1.06, Baseline: 1.00, Dev: 1.06}, calcs[0].Data)
	assert.Equal(t, Data{Threshold: 1.05, Difference: 0.5, Baseline: 0.04, Dev: 0.02}, calcs[1].Data)
	assert.False(t, calcs[1].Regression)
}

func TestCalculate_SharedTimestamp(t *testing.T) {
	calcs := Calculate("r", uniform(1), uniform(1), DefaultThresholds(), fixedTS)

	assert.True(t, calcs[0].TS.Equal(fixedTS))
	assert.True(t, calcs[1].TS.Equal(calcs[0].TS))
}

func TestCalculate_ZeroBaselinePropagatesIEEEValues(t *testing.T) {
	// Given: a zero baseline median and zero stddev on both sides
	dev := measurement.Measurement{Median: 1.0, Stddev: 0}
	baseline := measurement.Measurement{Median: 0, Stddev: 0}

	// When: calculating
	calcs := Calculate("r", dev, baseline, DefaultThresholds(), fixedTS)

	// Then: x/0 is +Inf and a regression, 0/0 is NaN and not one
	assert.True(t, math.IsInf(calcs[0].Data.Difference, 1))
	assert.True(t, calcs[0].Regression)
	assert.True(t, math.IsNaN(calcs[1].Data.Difference))
	assert.False(t, calcs[1].Regression)
}

func TestCalculation_JSONRoundTrip(t *testing.T) {
	// Given: calculations with awkward but finite values
	calcs := []Calculation{
		{Metric: "median_parse_a", Regression: true, TS: fixedTS,
			Data: Data{Threshold: 1.05, Difference: 1.0 / 3.0, Baseline: 0.1 + 0.2, Dev: 5e-324}},
		{Metric: "stddev_parse_a", Regression: false, TS: fixedTS,
			Data: Data{Threshold: 1.05, Difference: math.MaxFloat64, Baseline: 1e300, Dev: 0}},
	}

	// When: serializing and deserializing
	data, err := json.Marshal(calcs)
	require.NoError(t, err)

	var decoded []Calculation
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Then: every field is preserved bit for bit
	require.Len(t, decoded, len(calcs))
	for i := range calcs {
		assert.Equal(t, calcs[i].Metric, decoded[i].Metric)
		assert.Equal(t, calcs[i].Regression, decoded[i].Regression)
		assert.True(t, calcs[i].TS.Equal(decoded[i].TS))
		assert.Equal(t, math.Float64bits(calcs[i].Data.Difference), math.Float64bits(decoded[i].Data.Difference))
		assert.Equal(t, math.Float64bits(calcs[i].Data.Baseline), math.Float64bits(decoded[i].Data.Baseline))
		assert.Equal(t, math.Float64bits(calcs[i].Data.Dev), math.Float64bits(decoded[i].Data.Dev))
		assert.Equal(t, math.Float64bits(calcs[i].Data.Threshold), math.Float64bits(decoded[i].Data.Threshold))
	}
}

func TestCalculation_JSONShape(t *testing.T) {
	c := Calculation{Metric: "median_parse_a", Regression: true, TS: fixedTS,
		Data: Data{Threshold: 1.05, Difference: 1.06, Baseline: 1, Dev: 1.06}}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"metric": "median_parse_a",
		"regression": true,
		"ts": "2024-03-01T12:00:00Z",
		"data": {"threshold": 1.05, "difference": 1.06, "baseline": 1, "dev": 1.06}
	}`, string(data))
}

func TestData_NonFiniteJSON(t *testing.T) {
	d := Data{Threshold: 1.05, Difference: math.Inf(1), Baseline: 0, Dev: math.NaN()}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"threshold":1.05,"difference":"+Inf","baseline":0,"dev":"NaN"}`, string(data))

	var decoded Data
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, math.IsInf(decoded.Difference, 1))
	assert.True(t, math.IsNaN(decoded.Dev))

	require.NoError(t, json.Unmarshal([]byte(`{"difference":"-Inf"}`), &decoded))
	assert.True(t, math.IsInf(decoded.Difference, -1))

	assert.Error(t, json.Unmarshal([]byte(`{"difference":"fast"}`), &decoded))
}

func TestVersion_ParseAndString(t *testing.T) {
	v, ok := ParseVersion("baseline")
	assert.True(t, ok)
	assert.Equal(t, Baseline, v)
	assert.Equal(t, "baseline", v.String())

	v, ok = ParseVersion("dev")
	assert.True(t, ok)
	assert.Equal(t, Dev, v)
	assert.Equal(t, "dev", v.String())

	for _, s := range []string{"", "Dev", "BASELINE", "main", "dev "} {
		_, ok := ParseVersion(s)
		assert.False(t, ok, s)
	}
	assert.Equal(t, "unknown", Version(0).String())
}
