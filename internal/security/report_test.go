package security

import (
	"testing"
	"time"
)

func TestBuildReportRateLimiting(t *testing.T) {
	tests := []struct {
		name   string
		input  ReportInput
		active bool
		shared bool
	}{
		{"memory", ReportInput{RateLimitEnabled: true, RateLimitBackend: "memory", RateLimitWindow: 10 * time.Minute, MaxFailures: 10}, true, false},
		{"redis", ReportInput{RateLimitEnabled: true, RateLimitBackend: "redis", RateLimitWindow: 10 * time.Minute, MaxFailures: 10}, true, true},
		{"disabled", ReportInput{RateLimitEnabled: false, RateLimitBackend: "redis", RateLimitWindow: 10 * time.Minute, MaxFailures: 10}, false, false},
		{"zero threshold", ReportInput{RateLimitEnabled: true, RateLimitWindow: 10 * time.Minute}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := BuildReport(tt.input)
			if r.RateLimitingActive != tt.active || r.SharedRateLimitView != tt.shared {
				t.Fatalf("active=%v shared=%v, want %v %v", r.RateLimitingActive, r.SharedRateLimitView, tt.active, tt.shared)
			}
			if !tt.active && (r.RateLimitThreshold != 0 || r.RateLimitBackend != "") {
				t.Fatalf("inactive limiter should not report parameters: %+v", r)
			}
		})
	}
}

func TestBuildReportFlags(t *testing.T) {
	r := BuildReport(ReportInput{
		SigningAlgorithm:  "ed25519",
		SelectorHeader:    "X-School-Code",
		SelectorQuery:     "schoolCode",
		AuditEnabled:      true,
		AuditDropIfFull:   true,
		MetricsEnabled:    false,
		LatencyHistograms: true,
	})
	if !r.OfflineVerifiable {
		t.Fatal("ed25519 tokens should be offline verifiable")
	}
	if r.TenantSelector != "X-School-Code / ?schoolCode" {
		t.Fatalf("unexpected selector %q", r.TenantSelector)
	}
	if !r.AuditMayDropEvents {
		t.Fatal("expected audit drop flag")
	}
	if r.LatencyHistograms {
		t.Fatal("histograms require metrics")
	}
}
