// Package metrics registers Prometheus instrumentation for the
// settlement engine and its supporting jobs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "mietwerk_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	settlementCalcTotal   *prometheus.CounterVec
	settlementCalcLatency *prometheus.HistogramVec
	settlementBalanceSign *prometheus.CounterVec

	consumptionFallbacks *prometheus.CounterVec

	readingRejections *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	backupTotal   *prometheus.CounterVec
	backupLatency *prometheus.HistogramVec
)

// Init registers all metric collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		settlementCalcTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_calc_total",
				Help: "Total settlement calculations by result",
			},
			[]string{"result"},
		)
		settlementCalcLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "settlement_calc_latency_seconds",
				Help:    "Settlement calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		settlementBalanceSign = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_balance_total",
				Help: "Total computed settlements by balance sign",
			},
			[]string{"sign"},
		)

		consumptionFallbacks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "consumption_fallback_total",
				Help: "Total consumption resolutions that used a fallback by reason",
			},
			[]string{"reason"},
		)

		readingRejections = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_rejections_total",
				Help: "Total rejected meter readings by reason",
			},
			[]string{"reason"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		backupTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "backup_total",
				Help: "Total backup runs by kind and result",
			},
			[]string{"kind", "result"},
		)
		backupLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "backup_latency_seconds",
				Help:    "Backup run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)

		prometheus.MustRegister(
			settlementCalcTotal,
			settlementCalcLatency,
			settlementBalanceSign,
			consumptionFallbacks,
			readingRejections,
			exportTotal,
			exportLatency,
			backupTotal,
			backupLatency,
		)
	})
}

// ObserveSettlementCalc records one settlement calculation.
func ObserveSettlementCalc(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if settlementCalcTotal != nil {
		settlementCalcTotal.WithLabelValues(result).Inc()
	}
	if settlementCalcLatency != nil {
		settlementCalcLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSettlementBalance counts a computed settlement by balance sign
// ("payable", "refund" or "zero").
func IncSettlementBalance(sign string) {
	if sign == "" {
		sign = "zero"
	}
	if settlementBalanceSign != nil {
		settlementBalanceSign.WithLabelValues(sign).Inc()
	}
}

// IncConsumptionFallback counts a consumption resolution that could not use
// exact period readings.
func IncConsumptionFallback(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if consumptionFallbacks != nil {
		consumptionFallbacks.WithLabelValues(reason).Inc()
	}
}

// IncReadingRejection counts a rejected meter reading.
func IncReadingRejection(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if readingRejections != nil {
		readingRejections.WithLabelValues(reason).Inc()
	}
}

// ObserveExport records one export run.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveBackup records one backup or restore run.
func ObserveBackup(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "manual"
	}
	if result == "" {
		result = resultSuccess
	}
	if backupTotal != nil {
		backupTotal.WithLabelValues(kind, result).Inc()
	}
	if backupLatency != nil {
		backupLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// Exported result constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
