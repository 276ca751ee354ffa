package scan

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for document scanning.
type Metrics struct {
	FilesTotal   *prometheus.CounterVec
	PagesTotal   prometheus.Counter
	MatchesTotal *prometheus.CounterVec
	ScanDuration *prometheus.HistogramVec
	BatchesTotal prometheus.Counter
	RegistrySize prometheus.Gauge
}

// NewMetrics returns the process-wide scan metrics, registering them on
// first use.
//
// Metrics:
//   - docguard_files_scanned_total{status}
//   - docguard_pages_scanned_total
//   - docguard_keyword_matches_total{keyword}
//   - docguard_file_scan_duration_seconds{status}
//   - docguard_batches_total
//   - docguard_registry_keywords
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			FilesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "docguard_files_scanned_total",
					Help: "Total number of files scanned",
				},
				[]string{"status"},
			),
			PagesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "docguard_pages_scanned_total",
				Help: "Total number of pages matched",
			}),
			MatchesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "docguard_keyword_matches_total",
					Help: "Total number of keyword matches by report label",
				},
				[]string{"keyword"},
			),
			ScanDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "docguard_file_scan_duration_seconds",
					Help:    "Duration of a single file scan in seconds",
					Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
				},
				[]string{"status"},
			),
			BatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "docguard_batches_total",
				Help: "Total number of scan batches",
			}),
			RegistrySize: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "docguard_registry_keywords",
				Help: "Number of keyword rules in the registry snapshot used by the last batch",
			}),
		}
	})
	return globalMetrics
}

func (m *Metrics) observeFile(res FileResult, pages int, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := string(res.Status)
	m.FilesTotal.WithLabelValues(status).Inc()
	m.PagesTotal.Add(float64(pages))
	m.ScanDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	for _, inst := range res.FoundInstances {
		m.MatchesTotal.WithLabelValues(inst.Label).Inc()
	}
}

func (m *Metrics) observeBatch(keywords int) {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
	m.RegistrySize.Set(float64(keywords))
}
