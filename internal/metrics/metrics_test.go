package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/flightpath-dev/sentrybridge/internal/metrics"
)

func TestCoTEmitted_CountsByKind(t *testing.T) {
	metrics.CoTEmitted.WithLabelValues("drone").Inc()
	metrics.CoTEmitted.WithLabelValues("drone").Inc()
	metrics.CoTEmitted.WithLabelValues("pilot").Inc()

	if got := testutil.ToFloat64(metrics.CoTEmitted.WithLabelValues("drone")); got != 2 {
		t.Errorf("drone count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CoTEmitted.WithLabelValues("pilot")); got != 1 {
		t.Errorf("pilot count = %v, want 1", got)
	}
}

func TestDronesLive_Gauge(t *testing.T) {
	metrics.DronesLive.Set(7)
	if got := testutil.ToFloat64(metrics.DronesLive); got != 7 {
		t.Errorf("DronesLive = %v, want 7", got)
	}
}
