package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordIngest(t *testing.T) {
	m := New()
	m.RecordIngest("dynamodb", "partial", 9, 1, 2*time.Second)
	m.RecordIngest("dynamodb", "ok", 5, 0, time.Second)

	if got := testutil.ToFloat64(m.RowsTotal.WithLabelValues("dynamodb", "inserted")); got != 14 {
		t.Errorf("inserted rows = %v, want 14", got)
	}
	if got := testutil.ToFloat64(m.RowsTotal.WithLabelValues("dynamodb", "failed")); got != 1 {
		t.Errorf("failed rows = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IngestsTotal.WithLabelValues("dynamodb", "partial")); got != 1 {
		t.Errorf("partial ingests = %v, want 1", got)
	}
}

func TestActiveGauge(t *testing.T) {
	m := New()
	m.IngestStarted()
	m.IngestStarted()
	m.IngestFinished()
	if got := testutil.ToFloat64(m.ActiveIngests); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordIngest("mysql", "ok", 1, 0, time.Millisecond)
	m.IngestStarted()
	m.IngestFinished()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordIngest("neptune", "ok", 3, 0, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `dbroute_ingests_total{outcome="ok",target="neptune"} 1`) {
		t.Errorf("exposition missing ingest counter:\n%s", rec.Body.String())
	}
}
