package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "azkar"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	ticks            *prom.CounterVec
	fired            prom.Counter
	deliveryFailures prom.Counter
	persistFailures  prom.Counter
	dailyCount       prom.Gauge
	items            prom.Gauge
	paused           prom.Gauge
}

// NewPrometheusRecorder constructs and registers the azkar metrics on reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		ticks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks by outcome",
		}, []string{"result"}),
		fired: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_fired_total",
			Help:      "Notifications dispatched for display",
		}),
		deliveryFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Notifications the delivery backend reported as failed",
		}),
		persistFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "State writes that failed and were skipped",
		}),
		dailyCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_count",
			Help:      "Notifications fired since the last day boundary",
		}),
		items: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Number of configured reminder items",
		}),
		paused: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "paused",
			Help:      "1 when the scheduler is paused",
		}),
	}
	reg.MustRegister(pr.ticks, pr.fired, pr.deliveryFailures, pr.persistFailures, pr.dailyCount, pr.items, pr.paused)
	return pr
}

func (p *PrometheusRecorder) IncTick(result TickResultLabel) {
	if p == nil {
		return
	}
	p.ticks.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFired() {
	if p == nil {
		return
	}
	p.fired.Inc()
}

func (p *PrometheusRecorder) IncDeliveryFailure() {
	if p == nil {
		return
	}
	p.deliveryFailures.Inc()
}

func (p *PrometheusRecorder) IncPersistFailure() {
	if p == nil {
		return
	}
	p.persistFailures.Inc()
}

func (p *PrometheusRecorder) SetState(dailyCount int64, items int, paused bool) {
	if p == nil {
		return
	}
	p.dailyCount.Set(float64(dailyCount))
	p.items.Set(float64(items))
	if paused {
		p.paused.Set(1)
	} else {
		p.paused.Set(0)
	}
}
