package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "partsd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	sweeps            prom.Counter
	forceStops        *prom.CounterVec
	deferredCancelled prom.Counter
	watching          prom.Gauge
	profileApplied    *prom.CounterVec
	hostDuration      *prom.HistogramVec
	prefsFailures     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		sweeps: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Screen-off force-stop sweeps started",
		}),
		forceStops: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "force_stops_total",
			Help:      "Force-stop requests by reason and result",
		}, []string{"reason", "result"}),
		deferredCancelled: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "deferred_stops_cancelled_total",
			Help:      "Deferred stops cancelled because the screen turned on",
		}),
		watching: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "deferred_stops_watching",
			Help:      "Packages currently waiting for playback to pause",
		}),
		profileApplied: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "thermal_profile_applied_total",
			Help:      "Thermal profile writes by profile",
		}, []string{"profile"}),
		hostDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "host_command_duration_seconds",
			Help:      "Duration of host service commands",
			Buckets:   prom.DefBuckets,
		}, []string{"command", "result"}),
		prefsFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "prefs_write_failures_total",
			Help:      "Failed preference writes by key",
		}, []string{"key"}),
	}
	reg.MustRegister(pr.sweeps, pr.forceStops, pr.deferredCancelled, pr.watching, pr.profileApplied, pr.hostDuration, pr.prefsFailures)
	return pr
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) IncSweep() {
	if p == nil {
		return
	}
	p.sweeps.Inc()
}

func (p *PrometheusRecorder) IncForceStop(reason StopReason, success bool) {
	if p == nil {
		return
	}
	p.forceStops.WithLabelValues(string(reason), result(success)).Inc()
}

func (p *PrometheusRecorder) IncDeferredCancelled() {
	if p == nil {
		return
	}
	p.deferredCancelled.Inc()
}

func (p *PrometheusRecorder) SetWatching(n int) {
	if p == nil {
		return
	}
	p.watching.Set(float64(n))
}

func (p *PrometheusRecorder) IncProfileApplied(profile string) {
	if p == nil {
		return
	}
	p.profileApplied.WithLabelValues(profile).Inc()
}

func (p *PrometheusRecorder) ObserveHostCommand(command string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.hostDuration.WithLabelValues(command, result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPrefsWriteFailure(key string) {
	if p == nil {
		return
	}
	p.prefsFailures.WithLabelValues(key).Inc()
}
