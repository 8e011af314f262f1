package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	watchEvents   prom.Counter
	watchTriggers prom.Counter
	queueDepth    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "litbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual compile run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "litbuilder",
			Name:      "run_duration_seconds",
			Help:      "Total compile run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "litbuilder",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "litbuilder",
			Name:      "run_outcomes_total",
			Help:      "Compile run outcomes by final status",
		}, []string{"outcome"})
		pr.watchEvents = prom.NewCounter(prom.CounterOpts{
			Namespace: "litbuilder",
			Name:      "watch_events_total",
			Help:      "Filesystem events observed in watch mode",
		})
		pr.watchTriggers = prom.NewCounter(prom.CounterOpts{
			Namespace: "litbuilder",
			Name:      "watch_triggers_total",
			Help:      "Debounced rebuild triggers fired in watch mode",
		})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "litbuilder",
			Name:      "watch_queue_depth",
			Help:      "Documents waiting for recompilation in watch mode",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
			pr.watchEvents, pr.watchTriggers, pr.queueDepth)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome ResultLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncWatchEvents(n int) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchTriggers() {
	if p == nil || p.watchTriggers == nil {
		return
	}
	p.watchTriggers.Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}
