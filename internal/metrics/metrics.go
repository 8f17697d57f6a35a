// Package metrics exposes the decoder's Prometheus instrumentation: how
// many rows and analysis sections got decoded, how many were skipped or
// produced warnings, and how long a page walk took.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	rowsDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportdb",
		Name:      "rows_decoded_total",
		Help:      "Total number of rows successfully decoded, by table type",
	}, []string{"table"})
	rowsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportdb",
		Name:      "rows_skipped_total",
		Help:      "Total number of rows skipped because their table type is unknown, by table type",
	}, []string{"table"})
	warningsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportdb",
		Name:      "warnings_total",
		Help:      "Total number of recoverable decode warnings, by source",
	}, []string{"source"})
	fatalAborts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportdb",
		Name:      "fatal_aborts_total",
		Help:      "Total number of files that failed to open due to a fatal decode error, by reason",
	}, []string{"reason"})
	analysisSectionsDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exportdb",
		Name:      "analysis_sections_decoded_total",
		Help:      "Total number of analysis-file tagged sections decoded, by tag",
	}, []string{"tag"})

	tablesParsedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exportdb",
		Name:      "tables_parsed",
		Help:      "Number of tables found in the most recently opened database file",
	})
	openDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exportdb",
		Name:      "open_duration_seconds",
		Help:      "Histogram of Collection open durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)

// Register installs the collectors on the global Prometheus registry
// (idempotent; safe to call from multiple goroutines or repeated Opens).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			rowsDecoded, rowsSkipped, warningsEmitted, fatalAborts, analysisSectionsDecoded,
			tablesParsedGauge, openDuration,
		)
	})
}

// IncRowsDecoded records one successfully decoded row of the given table type.
func IncRowsDecoded(table string) { rowsDecoded.WithLabelValues(table).Inc() }

// IncRowsSkipped records one row skipped because its table type has no decoder.
func IncRowsSkipped(table string) { rowsSkipped.WithLabelValues(table).Inc() }

// IncWarning records one recoverable warning, tagged by its source (e.g. "dsql", "anlz").
func IncWarning(source string) { warningsEmitted.WithLabelValues(source).Inc() }

// IncFatalAbort records one file that failed to open, tagged by the error's reason.
func IncFatalAbort(reason string) { fatalAborts.WithLabelValues(reason).Inc() }

// IncAnalysisSectionDecoded records one decoded analysis-file section, tagged by its fourcc.
func IncAnalysisSectionDecoded(tag string) { analysisSectionsDecoded.WithLabelValues(tag).Inc() }

// SetTablesParsed records how many tables the most recent Open found.
func SetTablesParsed(n int) { tablesParsedGauge.Set(float64(n)) }

// ObserveOpenDuration records how long a Collection's Open call took.
func ObserveOpenDuration(d time.Duration) { openDuration.Observe(d.Seconds()) }
