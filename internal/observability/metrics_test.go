package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	return rec.Body.String()
}

func TestRecordOperation(t *testing.T) {
	m := NewMetrics("test")

	m.RecordOperation("buy", "ok", "", "", 0.001)
	m.RecordOperation("buy", "rejected", "business_rule", "slippage_exceeded", 0.002)
	m.RecordEvent("Trade")
	m.SetHeight(2)

	body := scrape(t, m)
	for _, want := range []string{
		`test_host_operations_total{kind="buy",status="ok"} 1`,
		`test_host_operations_total{kind="buy",status="rejected"} 1`,
		`test_host_rejections_total{class="business_rule",code="slippage_exceeded"} 1`,
		`test_engine_events_emitted_total{event="Trade"} 1`,
		`test_host_height 2`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordOperation("buy", "ok", "", "", 1)
	m.RecordEvent("Trade")
	m.RecordPersistError()
	m.SetHeight(1)
}

func TestMetricsAreNotShared(t *testing.T) {
	a := NewMetrics("test")
	b := NewMetrics("test")
	a.RecordPersistError()

	if !strings.Contains(scrape(t, a), "test_host_persist_errors_total 1") {
		t.Fatalf("first registry should count the error")
	}
	if !strings.Contains(scrape(t, b), "test_host_persist_errors_total 0") {
		t.Fatalf("second registry should be independent")
	}
}
