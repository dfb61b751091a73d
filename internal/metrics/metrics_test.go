package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(RPCErrors, RPCLatency, SensorState, PollCycles, Notifications)

	RPCErrors.WithLabelValues("aria2.getVersion").Add(2)
	SensorState.WithLabelValues("download_speed").Set(1.5)
	PollCycles.Inc()
	Notifications.WithLabelValues("aria2.onDownloadComplete").Inc()

	// Histogram: observe one sample to ensure collector is live
	RPCLatency.WithLabelValues("aria2.getVersion").Observe(0.05)

	expectedErrors := `# HELP aria2mon_rpc_errors_total Errors from aria2 JSON-RPC calls.
# TYPE aria2mon_rpc_errors_total counter
aria2mon_rpc_errors_total{method="aria2.getVersion"} 2
`
	if err := testutil.CollectAndCompare(RPCErrors, strings.NewReader(expectedErrors)); err != nil {
		t.Fatalf("unexpected rpc errors metric: %v", err)
	}

	expectedState := `# HELP aria2mon_sensor_state Last value read by each sensor.
# TYPE aria2mon_sensor_state gauge
aria2mon_sensor_state{sensor="download_speed"} 1.5
`
	if err := testutil.CollectAndCompare(SensorState, strings.NewReader(expectedState)); err != nil {
		t.Fatalf("unexpected sensor state gauge: %v", err)
	}

	expectedNotifications := `# HELP aria2mon_notifications_total Async notifications received from aria2 over websocket.
# TYPE aria2mon_notifications_total counter
aria2mon_notifications_total{method="aria2.onDownloadComplete"} 1
`
	if err := testutil.CollectAndCompare(Notifications, strings.NewReader(expectedNotifications)); err != nil {
		t.Fatalf("unexpected notifications metric: %v", err)
	}

	if got := testutil.ToFloat64(PollCycles); got != 1 {
		t.Fatalf("poll cycles = %v, want 1", got)
	}
}
