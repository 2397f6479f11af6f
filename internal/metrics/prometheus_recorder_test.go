package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncSweep()
	pr.IncForceStop(StopImmediate, true)
	pr.IncForceStop(StopDeferred, false)
	pr.IncDeferredCancelled()
	pr.SetWatching(2)
	pr.IncProfileApplied("gaming")
	pr.ObserveHostCommand("force-stop", 150*time.Millisecond, true)
	pr.IncPrefsWriteFailure("forcestop_control")

	if got := testutil.ToFloat64(pr.sweeps); got != 1 {
		t.Fatalf("expected 1 sweep, got %v", got)
	}
	if got := testutil.ToFloat64(pr.forceStops.WithLabelValues("deferred", "failed")); got != 1 {
		t.Fatalf("expected 1 failed deferred stop, got %v", got)
	}
	if got := testutil.ToFloat64(pr.watching); got != 2 {
		t.Fatalf("expected watching gauge 2, got %v", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncSweep()
	pr.IncForceStop(StopManual, true)
	pr.SetWatching(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).IncSweep()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "partsd_sweeps_total 1") {
		t.Fatalf("sweep counter missing from scrape output")
	}
}
