package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes Prometheus metrics for report builds. A nil Recorder is
// valid and records nothing.
type Recorder struct {
	reportsBuilt  *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	emptyInputs   *prometheus.CounterVec
	recordsParsed *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
}

// NewRecorder registers the collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		reportsBuilt: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dqd_reports_built_total",
			Help: "Reports rendered successfully, by input kind",
		}, []string{"kind"}),
		parseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dqd_parse_failures_total",
			Help: "Report builds aborted by a malformed record or read error",
		}, []string{"kind"}),
		emptyInputs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dqd_empty_inputs_total",
			Help: "Inputs that parsed to zero records",
		}, []string{"kind"}),
		recordsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dqd_records_parsed_total",
			Help: "Records parsed from inputs, by input kind",
		}, []string{"kind"}),
		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dqd_build_duration_seconds",
			Help:    "Time spent parsing and assembling a report",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
	}
}

// ObserveBuild records the outcome of one build.
func (r *Recorder) ObserveBuild(kind string, records int, elapsed time.Duration, failed, empty bool) {
	if r == nil {
		return
	}
	r.buildDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if failed {
		r.parseFailures.WithLabelValues(kind).Inc()
		return
	}
	r.reportsBuilt.WithLabelValues(kind).Inc()
	r.recordsParsed.WithLabelValues(kind).Add(float64(records))
	if empty {
		r.emptyInputs.WithLabelValues(kind).Inc()
	}
}
