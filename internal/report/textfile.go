package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aman-CERP/benchgate/internal/regression"
)

// textfileMetrics are the gauges exported per calculation.
type textfileMetrics struct {
	difference *prometheus.GaugeVec
	threshold  *prometheus.GaugeVec
	regression *prometheus.GaugeVec
	lastRun    prometheus.Gauge
}

func newTextfileMetrics(reg prometheus.Registerer) *textfileMetrics {
	m := &textfileMetrics{
		difference: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchgate_difference_ratio",
				Help: "Dev to baseline ratio for the metric",
			},
			[]string{"metric"},
		),
		threshold: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchgate_threshold_ratio",
				Help: "Ratio above which the metric is a regression",
			},
			[]string{"metric"},
		),
		regression: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchgate_regression",
				Help: "1 if the metric regressed, 0 otherwise",
			},
			[]string{"metric"},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "benchgate_last_run_timestamp_seconds",
				Help: "Unix time of the calculation run",
			},
		),
	}
	reg.MustRegister(m.difference, m.threshold, m.regression, m.lastRun)
	return m
}

func (m *textfileMetrics) observe(calcs []regression.Calculation) {
	for _, c := range calcs {
		m.difference.WithLabelValues(c.Metric).Set(c.Data.Difference)
		m.threshold.WithLabelValues(c.Metric).Set(c.Data.Threshold)
		flag := 0.0
		if c.Regression {
			flag = 1
		}
		m.regression.WithLabelValues(c.Metric).Set(flag)
	}
	if len(calcs) > 0 {
		m.lastRun.Set(float64(calcs[0].TS.Unix()))
	}
}

// WriteTextfile writes calcs in the Prometheus text exposition format,
// atomically replacing path. A private registry keeps process metrics out
// of the file.
func WriteTextfile(path string, calcs []regression.Calculation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create textfile directory: %w", err)
	}

	reg := prometheus.NewRegistry()
	newTextfileMetrics(reg).observe(calcs)

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
