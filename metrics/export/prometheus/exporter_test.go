package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot schoolAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() schoolAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestCollectDisabledOnlyAuditDropped(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: schoolAuth.MetricsSnapshot{
			Counters:   map[schoolAuth.MetricID]uint64{},
			Histograms: map[schoolAuth.MetricID][]uint64{},
		},
	})
	if n := testutil.CollectAndCount(c); n != 1 {
		t.Fatalf("expected only the audit drop counter, got %d series", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: schoolAuth.MetricsSnapshot{
			Counters: map[schoolAuth.MetricID]uint64{
				schoolAuth.MetricLoginSuccess:     7,
				schoolAuth.MetricLoginRateLimited: 2,
			},
			Histograms: map[schoolAuth.MetricID][]uint64{
				schoolAuth.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 3,
	})

	expected := `
# HELP schoolauth_login_success_total Successful sign-ins.
# TYPE schoolauth_login_success_total counter
schoolauth_login_success_total 7
# HELP schoolauth_login_rate_limited_total Sign-ins rejected by the failed-login ledger.
# TYPE schoolauth_login_rate_limited_total counter
schoolauth_login_rate_limited_total 2
# HELP schoolauth_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE schoolauth_audit_dropped_total counter
schoolauth_audit_dropped_total 3
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"schoolauth_login_success_total",
		"schoolauth_login_rate_limited_total",
		"schoolauth_audit_dropped_total",
	)
	if err != nil {
		t.Fatal(err)
	}

	hist := `
# HELP schoolauth_authenticate_latency_seconds Authenticate latency.
# TYPE schoolauth_authenticate_latency_seconds histogram
schoolauth_authenticate_latency_seconds_bucket{le="0.005"} 1
schoolauth_authenticate_latency_seconds_bucket{le="0.01"} 3
schoolauth_authenticate_latency_seconds_bucket{le="0.025"} 6
schoolauth_authenticate_latency_seconds_bucket{le="0.05"} 10
schoolauth_authenticate_latency_seconds_bucket{le="0.1"} 15
schoolauth_authenticate_latency_seconds_bucket{le="0.25"} 21
schoolauth_authenticate_latency_seconds_bucket{le="0.5"} 28
schoolauth_authenticate_latency_seconds_bucket{le="+Inf"} 36
schoolauth_authenticate_latency_seconds_sum 0
schoolauth_authenticate_latency_seconds_count 36
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(hist), "schoolauth_authenticate_latency_seconds"); err != nil {
		t.Fatal(err)
	}
}

func TestCollectorRegistersCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewCollectorFromSource(fakeSource{snapshot: schoolAuth.NewMetrics(schoolAuth.MetricsConfig{Enabled: true, EnableLatencyHistograms: true}).Snapshot()})
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	metrics := schoolAuth.NewMetrics(schoolAuth.MetricsConfig{Enabled: true})
	metrics.Inc(schoolAuth.MetricRoleDenied)

	h, err := Handler(NewCollectorFromSource(fakeSource{snapshot: metrics.Snapshot()}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || !strings.Contains(string(body), "schoolauth_role_denied_total 1") {
		t.Fatalf("unexpected response %d:\n%s", rec.Code, body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatal("expected runtime collector output")
	}
}
