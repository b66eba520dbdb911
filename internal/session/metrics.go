package session

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeSuccess = "success"
	outcomeEmpty   = "empty"
	outcomeError   = "error"
	outcomeSkipped = "skipped"
)

var (
	predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textpredict",
			Subsystem: "session",
			Name:      "predictions_total",
			Help:      "Predict trigger invocations by outcome",
		},
		[]string{"outcome"},
	)

	predictDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "textpredict",
			Subsystem: "session",
			Name:      "predict_duration_seconds",
			Help:      "Time spent building the input and running the model",
			Buckets:   prometheus.DefBuckets,
		},
	)

	modelLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "textpredict",
			Subsystem: "session",
			Name:      "model_load_duration_seconds",
			Help:      "Time spent reading the bundle and assembling the predictor",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	runtimeReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "textpredict",
		Subsystem: "session",
		Name:      "runtime_ready",
		Help:      "1 once the runtime has initialized",
	})

	modelReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "textpredict",
		Subsystem: "session",
		Name:      "model_ready",
		Help:      "1 once the predictor has loaded",
	})
)

func init() {
	prometheus.MustRegister(predictions, predictDuration, modelLoadDuration, runtimeReady, modelReady)
}
