package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skinsense"

// Prediction outcomes recorded on skinsense_predictions_total.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_image"
	OutcomeUnavailable = "unavailable"
	OutcomeTimeout     = "timeout"
	OutcomeInternal    = "internal_error"
)

// Metrics holds the prediction pipeline collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	predictions    *prometheus.CounterVec
	predictedClass *prometheus.CounterVec
	inference      prometheus.Histogram
	modelLoaded    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		predictedClass: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predicted_class_total",
			Help:      "Successful predictions by winning class.",
		}, []string{"class"}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Time spent in the classifier runtime, including waiting for the session.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when the classifier runtime loaded at startup, 0 otherwise.",
		}),
	}

	reg.MustRegister(m.predictions, m.predictedClass, m.inference, m.modelLoaded)
	return m
}

func (m *Metrics) ObservePrediction(outcome string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveClass(class string) {
	if m == nil {
		return
	}
	m.predictedClass.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration) {
	if m == nil {
		return
	}
	m.inference.Observe(d.Seconds())
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if m == nil {
		return
	}
	if loaded {
		m.modelLoaded.Set(1)
		return
	}
	m.modelLoaded.Set(0)
}
