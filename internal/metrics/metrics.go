package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportsRun is a counter for reports rendered.
	ReportsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthviewer_reports_total",
			Help: "The total number of reports run.",
		},
		[]string{"report"},
	)

	// ReportFailures is a counter for reports that returned an error.
	ReportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthviewer_report_failures_total",
			Help: "The total number of reports that failed.",
		},
		[]string{"report"},
	)

	// ReportDuration is a histogram of the time spent opening, querying and rendering.
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthviewer_report_duration_seconds",
			Help:    "A histogram of report durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		},
		[]string{"report"},
	)

	// MenuChoices counts menu selections, including invalid ones.
	MenuChoices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthviewer_menu_choices_total",
			Help: "The total number of menu selections by choice.",
		},
		[]string{"choice"},
	)
)

// WriteTextfile writes every registered metric to path in the text
// exposition format read by the node exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
