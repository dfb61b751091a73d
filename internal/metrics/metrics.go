package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RPCErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aria2mon",
			Name:      "rpc_errors_total",
			Help:      "Errors from aria2 JSON-RPC calls.",
		},
		[]string{"method"},
	)

	RPCLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aria2mon",
			Name:      "rpc_latency_seconds",
			Help:      "Latency of aria2 JSON-RPC calls.",
		},
		[]string{"method"},
	)

	SensorState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "aria2mon",
			Name:      "sensor_state",
			Help:      "Last value read by each sensor.",
		},
		[]string{"sensor"},
	)

	PollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aria2mon",
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles.",
		},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aria2mon",
			Name:      "notifications_total",
			Help:      "Async notifications received from aria2 over websocket.",
		},
		[]string{"method"},
	)
)

// Register registers the aria2mon metrics into the default registry.
func Register() {
	prometheus.MustRegister(RPCErrors, RPCLatency, SensorState, PollCycles, Notifications)
}
