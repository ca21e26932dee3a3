package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetrics_WritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/verify/:hash", "200", 20*time.Millisecond)
	m.ObserveAPI("POST", "/api/certificates/issue", "503", time.Second)
	m.IncIssuance("course", "issued")
	m.IncIssuance("course", "issued")
	m.IncVerification("valid")
	m.ObserveRender("synthesized", "ok", 300*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`lp_api_requests_total{method="GET",route="/verify/:hash",status="200"} 1.000000`,
		`lp_api_requests_error_total 1.000000`,
		`lp_certificate_issuance_total{kind="course",outcome="issued"} 2.000000`,
		`lp_certificate_verifications_total{result="valid"} 1.000000`,
		`lp_certificate_render_duration_seconds_bucket{renderer="synthesized",status="ok",le="0.5"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncIssuance("course", "issued")
	m.IncSubmission("exam", "passed")
	m.IncVerification("not_found")
	m.ObserveRender("template", "error", time.Second)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}
